// Package authority defines the source-of-truth contract cacheaside reads
// through and writes through, plus an in-process implementation.
package authority

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has no record.
var ErrNotFound = errors.New("authority: not found")

// Authority is the slow store of record. Implementations must be safe for
// concurrent use and atomic per key.
//
// Any error other than ErrNotFound is treated by cacheaside as the authority
// being unavailable.
type Authority[K comparable, V any] interface {
	// Get returns ErrNotFound when the key is absent.
	Get(ctx context.Context, key K) (V, error)
	// Put inserts or replaces the record.
	Put(ctx context.Context, key K, value V) error
	// Delete removes the record. Deleting an absent key is not an error.
	Delete(ctx context.Context, key K) error
}
