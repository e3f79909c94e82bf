package genstore

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestNewRedisGenStoreRejectsNilClient(t *testing.T) {
	if _, err := NewRedisGenStore(RedisConfig{}); err == nil {
		t.Fatalf("expected error for nil client")
	}
}

func TestRedisGenStoreUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	s, err := NewRedisGenStore(RedisConfig{Client: client, Namespace: "n", CloseClient: true})
	if err != nil {
		t.Fatalf("NewRedisGenStore: %v", err)
	}
	defer s.Close(context.Background())

	if _, err := s.Snapshot(context.Background(), "k"); err == nil {
		t.Fatalf("Snapshot: expected error")
	}
	if _, err := s.Bump(context.Background(), "k"); err == nil {
		t.Fatalf("Bump: expected error")
	}
}
