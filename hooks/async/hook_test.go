package asynchook

import (
	"sync"
	"testing"

	"github.com/unkn0wn-root/cacheaside"
)

type countHooks struct {
	cacheaside.NopHooks
	mu    sync.Mutex
	hits  int
	heals []string
	block chan struct{}
}

func (c *countHooks) CacheHit(string) {
	if c.block != nil {
		<-c.block
	}
	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
}

func (c *countHooks) SelfHeal(_, reason string) {
	c.mu.Lock()
	c.heals = append(c.heals, reason)
	c.mu.Unlock()
}

func TestDeliversAndDrainsOnClose(t *testing.T) {
	inner := &countHooks{}
	h := New(inner, 2, 64)
	for i := 0; i < 10; i++ {
		h.CacheHit("k")
	}
	h.SelfHeal("k", "corrupt")
	h.Close()

	if inner.hits != 10 || len(inner.heals) != 1 || inner.heals[0] != "corrupt" {
		t.Fatalf("hits=%d heals=%v", inner.hits, inner.heals)
	}
	if h.Dropped() != 0 {
		t.Fatalf("unexpected drops: %d", h.Dropped())
	}
}

func TestDropsWhenFullAndAfterClose(t *testing.T) {
	inner := &countHooks{block: make(chan struct{})}
	h := New(inner, 1, 1)

	// one event parked in the worker, one in the queue, the rest dropped
	for i := 0; i < 10; i++ {
		h.CacheHit("k")
	}
	if h.Dropped() == 0 {
		t.Fatalf("expected drops with a full queue")
	}
	close(inner.block)
	h.Close()

	before := h.Dropped()
	h.CacheHit("k") // must not panic on closed queue
	if h.Dropped() != before+1 {
		t.Fatalf("event after Close should count as dropped")
	}
	h.Close()
}
