package promhooks

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/unkn0wn-root/cacheaside"
	"github.com/unkn0wn-root/cacheaside/authority"
	c "github.com/unkn0wn-root/cacheaside/codec"
	"github.com/unkn0wn-root/cacheaside/provider/lru"
)

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := New(reg, "users")

	h.CacheHit("k")
	h.CacheHit("k")
	h.CacheMiss("k")
	h.SelfHeal("k", "corrupt")
	h.FillSkipped("k", "gen_mismatch")
	h.GenBumpError("k", errors.New("x"))
	h.AuthorityError("write", "k", errors.New("x"))

	if got := testutil.ToFloat64(h.hits); got != 2 {
		t.Fatalf("hits: %v", got)
	}
	if got := testutil.ToFloat64(h.selfHeal.WithLabelValues("corrupt")); got != 1 {
		t.Fatalf("self heal: %v", got)
	}
	if got := testutil.ToFloat64(h.genErrors.WithLabelValues("bump")); got != 1 {
		t.Fatalf("gen bump errors: %v", got)
	}

	expected := `
# HELP cacheaside_cache_misses_total Reads that fell through to the authority
# TYPE cacheaside_cache_misses_total counter
cacheaside_cache_misses_total{store="users"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "cacheaside_cache_misses_total"); err != nil {
		t.Fatalf("gather: %v", err)
	}
}

func TestWiredIntoStore(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := New(reg, "users")
	p, err := lru.New(lru.Config{Size: 16})
	if err != nil {
		t.Fatalf("lru: %v", err)
	}
	a := authority.NewMemory[int, string]()
	s, err := cacheaside.New[int, string](cacheaside.Options[int, string]{
		Namespace: "users",
		Authority: a,
		Provider:  p,
		Codec:     c.JSON[string]{},
		Hooks:     h,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close(context.Background())

	ctx := context.Background()
	_ = a.Put(ctx, 1, "Alice")
	for i := 0; i < 3; i++ {
		if _, _, err := s.Read(ctx, 1); err != nil {
			t.Fatalf("Read: %v", err)
		}
	}
	if testutil.ToFloat64(h.misses) != 1 || testutil.ToFloat64(h.hits) != 2 {
		t.Fatalf("misses=%v hits=%v", testutil.ToFloat64(h.misses), testutil.ToFloat64(h.hits))
	}
}
