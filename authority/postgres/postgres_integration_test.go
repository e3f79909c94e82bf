//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/unkn0wn-root/cacheaside/authority"
	c "github.com/unkn0wn-root/cacheaside/codec"
)

func setupPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "cache",
				"POSTGRES_PASSWORD": "cache",
				"POSTGRES_DB":       "cache",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start Postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Postgres endpoint: %v", err)
	}
	return fmt.Sprintf("postgres://cache:cache@%s/cache?sslmode=disable", endpoint)
}

func TestPostgresAuthority(t *testing.T) {
	ctx := context.Background()
	pool, err := Connect(ctx, setupPostgres(t), PoolConfig{MaxConns: 4})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(pool.Close)

	a, err := New[int, string](pool, Config[int, string]{Table: "users", Codec: c.JSON[string]{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if err := a.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema must be idempotent: %v", err)
	}

	if _, err := a.Get(ctx, 42); !errors.Is(err, authority.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := a.Put(ctx, 42, "Alice"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := a.Put(ctx, 42, "Bob"); err != nil {
		t.Fatalf("Put upsert: %v", err)
	}
	v, err := a.Get(ctx, 42)
	if err != nil || v != "Bob" {
		t.Fatalf("Get: v=%q err=%v", v, err)
	}
	if err := a.Delete(ctx, 42); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := a.Delete(ctx, 42); err != nil {
		t.Fatalf("Delete absent: %v", err)
	}
	if _, err := a.Get(ctx, 42); !errors.Is(err, authority.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
