package cacheaside

import (
	"context"
	"time"

	"github.com/unkn0wn-root/cacheaside/authority"
	c "github.com/unkn0wn-root/cacheaside/codec"
	gen "github.com/unkn0wn-root/cacheaside/genstore"
	pr "github.com/unkn0wn-root/cacheaside/provider"
)

// SetCostFunc computes the provider cost of a framed entry.
type SetCostFunc func(storageKey string, raw []byte) int64

// Store is a cache-aside layer in front of an Authority. K is the caller's
// key type, V the value type. Serialization is handled by a pluggable Codec[V].
type Store[K comparable, V any] interface {
	// Read returns the authoritative value for key, from the cache when it
	// holds a current entry. ok is false when the authority has no record.
	Read(ctx context.Context, key K) (v V, ok bool, err error)

	// Write persists value to the authority, then replaces the cache entry.
	Write(ctx context.Context, key K, value V) error

	// Delete removes key from the authority, then evicts it from the cache.
	// Deleting an absent key succeeds.
	Delete(ctx context.Context, key K) error

	// Invalidate evicts key from the cache only. Use it when the authority
	// was changed out of band.
	Invalidate(ctx context.Context, key K) error

	Enabled() bool
	Close(context.Context) error
}

// Options tune the behavior of the Store.
// Namespace, Authority, Provider and Codec are required; others have sensible defaults.
type Options[K comparable, V any] struct {
	// Required
	Namespace string // prefix for all cache keys. e.g. "users", "orders"; no ':'
	Authority authority.Authority[K, V]
	Provider  pr.Provider
	Codec     c.Codec[V]

	Logger     Logger        // if nil, NopLogger is used
	Hooks      Hooks         // if nil, NopHooks is used
	DefaultTTL time.Duration // 0 => 10m

	// Per-call bounds. 0 => default; negative disables the bound.
	AuthorityTimeout time.Duration // 0 => 5s
	CacheTimeout     time.Duration // 0 => 1s; also bounds GenStore calls

	// KeyFunc must be injective. The default handles strings, integers, bools
	// and fmt.Stringer keys; New fails for any other K unless KeyFunc is set.
	// Nil keys are rejected before KeyFunc runs.
	KeyFunc       func(K) string
	ValidateKey   func(K) error // runs after the empty-key check
	ValidateValue func(V) error // runs before Write touches anything

	// CoalesceMisses collapses concurrent misses for the same key into one
	// authority read. Off by default. The shared read is detached from the
	// caller that started it; with AuthorityTimeout disabled it is bounded by 30s.
	CoalesceMisses bool

	GenStore        gen.GenStore  // nil => LocalGenStore (in-process)
	CleanupInterval time.Duration // LocalGenStore sweep; 0 => 1h
	GenRetention    time.Duration // LocalGenStore retention; 0 => 30d
	ComputeSetCost  SetCostFunc   // default 1

	// LockStripes sizes the per-key write locks; 0 => 256. A stripe is held
	// across the authority write, so unrelated keys sharing a stripe queue
	// behind a slow authority. Raise it for slow authorities or hot write paths.
	LockStripes int

	// Disabled turns the Store into a pass-through to the Authority.
	Disabled bool

	// OwnResources makes Close also close Provider and a caller-supplied
	// GenStore. The default LocalGenStore is always closed.
	OwnResources bool

	Now func() time.Time // default time.Now
}

func New[K comparable, V any](opts Options[K, V]) (Store[K, V], error) {
	return newStore[K, V](opts)
}
