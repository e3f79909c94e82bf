//go:build integration

package genstore

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) redis.UniversalClient {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisGenStore(t *testing.T) {
	ctx := context.Background()
	client := setupRedis(t)
	s, err := NewRedisGenStore(RedisConfig{Client: client, Namespace: "users", TTL: time.Hour})
	if err != nil {
		t.Fatalf("NewRedisGenStore: %v", err)
	}

	if g, err := s.Snapshot(ctx, "entry:users:1"); err != nil || g != 0 {
		t.Fatalf("missing key: g=%d err=%v", g, err)
	}
	for want := uint64(1); want <= 3; want++ {
		g, err := s.Bump(ctx, "entry:users:1")
		if err != nil || g != want {
			t.Fatalf("Bump: g=%d err=%v want %d", g, err, want)
		}
	}
	if g, _ := s.Snapshot(ctx, "entry:users:1"); g != 3 {
		t.Fatalf("Snapshot after bumps: %d", g)
	}

	ttl, err := client.TTL(ctx, "gen:users:entry:users:1").Result()
	if err != nil || ttl <= 0 || ttl > time.Hour {
		t.Fatalf("expected TTL on generation key, got %v err=%v", ttl, err)
	}

	// a second store over the same client sees the same generations
	other, _ := NewRedisGenStore(RedisConfig{Client: client, Namespace: "users"})
	if g, _ := other.Snapshot(ctx, "entry:users:1"); g != 3 {
		t.Fatalf("shared generation: %d", g)
	}
	if err := s.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Close must not close a borrowed client: %v", err)
	}
}

func TestRedisGenStoreCorruptValue(t *testing.T) {
	ctx := context.Background()
	client := setupRedis(t)
	s, _ := NewRedisGenStore(RedisConfig{Client: client, Namespace: "users"})

	if err := client.Set(ctx, "gen:users:k", "not-a-number", 0).Err(); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := s.Snapshot(ctx, "k"); err == nil {
		t.Fatalf("expected parse error")
	}
}
