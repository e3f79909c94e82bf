package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/unkn0wn-root/cacheaside"
	"github.com/unkn0wn-root/cacheaside/authority"
	"github.com/unkn0wn-root/cacheaside/authority/postgres"
	c "github.com/unkn0wn-root/cacheaside/codec"
	gen "github.com/unkn0wn-root/cacheaside/genstore"
	"github.com/unkn0wn-root/cacheaside/internal/config"
	zaplog "github.com/unkn0wn-root/cacheaside/log/zap"
	pr "github.com/unkn0wn-root/cacheaside/provider"
	bcp "github.com/unkn0wn-root/cacheaside/provider/bigcache"
	lrup "github.com/unkn0wn-root/cacheaside/provider/lru"
	rp "github.com/unkn0wn-root/cacheaside/provider/redis"
	rip "github.com/unkn0wn-root/cacheaside/provider/ristretto"
)

// deps holds everything main must release on shutdown, in reverse order.
type deps struct {
	closers []func(context.Context) error
}

func (d *deps) onClose(f func(context.Context) error) { d.closers = append(d.closers, f) }

func (d *deps) close(ctx context.Context) error {
	var first error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func newCodec(name string) (c.Codec[string], error) {
	switch name {
	case "json":
		return c.JSON[string]{}, nil
	case "msgpack":
		return c.Msgpack[string]{}, nil
	case "cbor":
		return c.NewCBOR[string](true)
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}

func newProvider(ctx context.Context, cfg config.CacheConfig, rdb redis.UniversalClient) (pr.Provider, error) {
	switch cfg.Provider {
	case "redis":
		return rp.New(rp.Config{Client: rdb})
	case "ristretto":
		return rip.New(rip.Config{
			NumCounters: int64(cfg.Size) * 10,
			MaxCost:     int64(cfg.Size),
			BufferItems: 64,
			Metrics:     true,

			IgnoreInternalCost: true,
			SyncWrites:         true,
		})
	case "bigcache":
		return bcp.New(ctx, bcp.Config{
			LifeWindow:         cfg.TTL,
			CleanWindow:        time.Minute,
			HardMaxCacheSizeMB: cfg.Size,
		})
	case "lru":
		return lrup.New(lrup.Config{Size: cfg.Size, TTL: cfg.TTL})
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func newAuthority(ctx context.Context, cfg config.AuthorityConfig, codec c.Codec[string], d *deps) (authority.Authority[int, string], error) {
	switch cfg.Kind {
	case "memory":
		return authority.NewMemory[int, string](), nil
	case "postgres":
		pool, err := postgres.Connect(ctx, cfg.DSN, postgres.PoolConfig{MaxConns: cfg.MaxConns})
		if err != nil {
			return nil, err
		}
		d.onClose(func(context.Context) error { pool.Close(); return nil })
		a, err := postgres.New[int, string](pool, postgres.Config[int, string]{Table: cfg.Table, Codec: codec})
		if err != nil {
			return nil, err
		}
		if err := a.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unknown authority %q", cfg.Kind)
	}
}

// buildStore wires the user store from cfg. Resources opened here are
// registered on d.
func buildStore(ctx context.Context, cfg *config.Config, log *zap.Logger, hooks cacheaside.Hooks, d *deps) (cacheaside.Store[int, string], error) {
	var rdb redis.UniversalClient
	if cfg.NeedsRedis() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		d.onClose(func(context.Context) error { return client.Close() })
		rdb = client
	}

	codec, err := newCodec(cfg.Cache.Codec)
	if err != nil {
		return nil, err
	}
	auth, err := newAuthority(ctx, cfg.Authority, codec, d)
	if err != nil {
		return nil, fmt.Errorf("authority: %w", err)
	}
	provider, err := newProvider(ctx, cfg.Cache, rdb)
	if err != nil {
		return nil, fmt.Errorf("provider: %w", err)
	}

	var gens gen.GenStore
	if cfg.Cache.GenStore == "redis" {
		gens, err = gen.NewRedisGenStore(gen.RedisConfig{
			Client:    rdb,
			Namespace: cfg.Cache.Namespace,
			TTL:       24 * time.Hour,
		})
		if err != nil {
			_ = provider.Close(ctx)
			return nil, err
		}
	}

	store, err := cacheaside.New[int, string](cacheaside.Options[int, string]{
		Namespace:        cfg.Cache.Namespace,
		Authority:        auth,
		Provider:         provider,
		Codec:            codec,
		GenStore:         gens,
		Logger:           zaplog.New(log),
		Hooks:            hooks,
		DefaultTTL:       cfg.Cache.TTL,
		AuthorityTimeout: cfg.Authority.Timeout,
		CacheTimeout:     cfg.Cache.Timeout,
		CoalesceMisses:   cfg.Cache.Coalesce,
		OwnResources:     true,
	})
	if err != nil {
		_ = provider.Close(ctx)
		return nil, err
	}
	d.onClose(store.Close)
	return store, nil
}
