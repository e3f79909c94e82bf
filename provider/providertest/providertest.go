// Package providertest checks a provider.Provider against the contract
// cacheaside relies on.
package providertest

import (
	"bytes"
	"context"
	"testing"
	"time"

	pr "github.com/unkn0wn-root/cacheaside/provider"
)

// Run exercises miss, set/get transparency, overwrite and idempotent delete.
// The provider must be empty under the "entry:providertest:" prefix.
func Run(t *testing.T, p pr.Provider) {
	t.Helper()
	ctx := context.Background()
	key := "entry:providertest:42"

	t.Run("miss", func(t *testing.T) {
		b, ok, err := p.Get(ctx, key+":absent")
		if err != nil || ok || b != nil {
			t.Fatalf("expected clean miss, got b=%q ok=%v err=%v", b, ok, err)
		}
	})

	t.Run("set_get_transparent", func(t *testing.T) {
		want := []byte{0, 'A', 'l', 'i', 'c', 'e', 0xff}
		if ok, err := p.Set(ctx, key, want, 1, time.Minute); err != nil || !ok {
			t.Fatalf("Set: ok=%v err=%v", ok, err)
		}
		got, ok, err := p.Get(ctx, key)
		if err != nil || !ok {
			t.Fatalf("Get after Set: ok=%v err=%v", ok, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("provider not byte-transparent: got %x want %x", got, want)
		}
	})

	t.Run("overwrite", func(t *testing.T) {
		if _, err := p.Set(ctx, key, []byte("Bob"), 1, time.Minute); err != nil {
			t.Fatalf("Set: %v", err)
		}
		got, ok, err := p.Get(ctx, key)
		if err != nil || !ok || string(got) != "Bob" {
			t.Fatalf("overwrite: got=%q ok=%v err=%v", got, ok, err)
		}
	})

	t.Run("delete_then_miss", func(t *testing.T) {
		if err := p.Del(ctx, key); err != nil {
			t.Fatalf("Del: %v", err)
		}
		if _, ok, err := p.Get(ctx, key); err != nil || ok {
			t.Fatalf("Get after Del: ok=%v err=%v", ok, err)
		}
	})

	t.Run("delete_absent_is_noop", func(t *testing.T) {
		if err := p.Del(ctx, key+":never"); err != nil {
			t.Fatalf("Del of absent key must not fail: %v", err)
		}
	})
}
