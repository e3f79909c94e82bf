package lru

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	pr "github.com/unkn0wn-root/cacheaside/provider"
)

// Provider is a bounded in-process LRU with a single expiry window.
// Per-call TTLs shorter than the window are enforced by the entry frame.
type Provider struct {
	c *expirable.LRU[string, []byte]
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	Size int           // max entries; must be > 0
	TTL  time.Duration // 0 = entries only leave on eviction
}

func New(cfg Config) (*Provider, error) {
	if cfg.Size <= 0 {
		return nil, errors.New("lru: size must be positive")
	}
	return &Provider{c: expirable.NewLRU[string, []byte](cfg.Size, nil, cfg.TTL)}, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, ok := p.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	return b, true, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, _ int64, _ time.Duration) (bool, error) {
	p.c.Add(key, value)
	return true, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.c.Remove(key)
	return nil
}

func (p *Provider) Close(_ context.Context) error {
	p.c.Purge()
	return nil
}

// Len returns the number of entries, including expired ones not yet swept.
func (p *Provider) Len() int { return p.c.Len() }
