package genstore

import (
	"context"
	"time"
)

// GenStore holds a generation counter per storage key. Writes and deletes
// bump it; read-through fills are applied only when the generation observed
// before the authority fetch is still current.
type GenStore interface {
	// Snapshot returns the current generation; missing => 0.
	Snapshot(ctx context.Context, storageKey string) (uint64, error)
	// Bump atomically increments and returns the new generation.
	Bump(ctx context.Context, storageKey string) (uint64, error)
	// Cleanup prunes old metadata if applicable (no-op for Redis).
	Cleanup(retention time.Duration)
	// Close releases resources (no-op ok).
	Close(context.Context) error
}
