package authority

import (
	"context"
	"sync"
)

// Memory is a map-backed Authority. The zero value is not usable; use NewMemory.
type Memory[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

var _ Authority[string, int] = (*Memory[string, int])(nil)

func NewMemory[K comparable, V any]() *Memory[K, V] {
	return &Memory[K, V]{m: make(map[K]V)}
}

func (a *Memory[K, V]) Get(ctx context.Context, key K) (V, error) {
	var zero V
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	a.mu.RLock()
	v, ok := a.m[key]
	a.mu.RUnlock()
	if !ok {
		return zero, ErrNotFound
	}
	return v, nil
}

func (a *Memory[K, V]) Put(ctx context.Context, key K, value V) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.mu.Lock()
	a.m[key] = value
	a.mu.Unlock()
	return nil
}

func (a *Memory[K, V]) Delete(ctx context.Context, key K) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.mu.Lock()
	delete(a.m, key)
	a.mu.Unlock()
	return nil
}

// Len reports the number of records.
func (a *Memory[K, V]) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.m)
}
