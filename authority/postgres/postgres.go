// Package postgres implements authority.Authority on a single PostgreSQL
// table keyed by the formatted key, with values stored through a codec.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/unkn0wn-root/cacheaside/authority"
	c "github.com/unkn0wn-root/cacheaside/codec"
	"github.com/unkn0wn-root/cacheaside/internal/util"
)

// DB is the subset of *pgxpool.Pool (and pgx.Tx) the authority needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Config[K comparable, V any] struct {
	// Table may be schema-qualified ("app.users"). Defaults to "records".
	Table string
	Codec c.Codec[V]
	// KeyFunc formats keys for the k column. Defaults to the same formatting
	// cacheaside uses for cache keys.
	KeyFunc func(K) string
}

type Authority[K comparable, V any] struct {
	db    DB
	codec c.Codec[V]
	key   func(K) string
	table string

	getSQL    string
	putSQL    string
	deleteSQL string
	schemaSQL string
}

var _ authority.Authority[string, []byte] = (*Authority[string, []byte])(nil)

func New[K comparable, V any](db DB, cfg Config[K, V]) (*Authority[K, V], error) {
	if db == nil {
		return nil, errors.New("postgres authority: nil db")
	}
	if cfg.Codec == nil {
		return nil, errors.New("postgres authority: codec is required")
	}
	table, err := quoteTable(cfg.Table)
	if err != nil {
		return nil, err
	}
	keyFn := cfg.KeyFunc
	if keyFn == nil {
		if keyFn, err = util.KeyFormatter[K](); err != nil {
			return nil, fmt.Errorf("postgres authority: %w", err)
		}
	}

	return &Authority[K, V]{
		db:    db,
		codec: cfg.Codec,
		key:   keyFn,
		table: table,

		getSQL: "SELECT v FROM " + table + " WHERE k = $1",
		putSQL: "INSERT INTO " + table + " (k, v, updated_at) VALUES ($1, $2, now()) " +
			"ON CONFLICT (k) DO UPDATE SET v = EXCLUDED.v, updated_at = now()",
		deleteSQL: "DELETE FROM " + table + " WHERE k = $1",
		schemaSQL: "CREATE TABLE IF NOT EXISTS " + table + " (" +
			"k TEXT PRIMARY KEY, " +
			"v BYTEA NOT NULL, " +
			"updated_at TIMESTAMPTZ NOT NULL DEFAULT now())",
	}, nil
}

func quoteTable(name string) (string, error) {
	if name == "" {
		name = "records"
	}
	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return "", fmt.Errorf("postgres authority: invalid table %q", name)
	}
	for _, p := range parts {
		if p == "" {
			return "", fmt.Errorf("postgres authority: invalid table %q", name)
		}
	}
	return pgx.Identifier(parts).Sanitize(), nil
}

// EnsureSchema creates the backing table if it does not exist.
func (a *Authority[K, V]) EnsureSchema(ctx context.Context) error {
	if _, err := a.db.Exec(ctx, a.schemaSQL); err != nil {
		return fmt.Errorf("postgres authority: create table %s: %w", a.table, err)
	}
	return nil
}

func (a *Authority[K, V]) Get(ctx context.Context, key K) (V, error) {
	var zero V
	var raw []byte
	err := a.db.QueryRow(ctx, a.getSQL, a.key(key)).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return zero, authority.ErrNotFound
	}
	if err != nil {
		return zero, fmt.Errorf("postgres authority: get: %w", err)
	}
	v, err := a.codec.Decode(raw)
	if err != nil {
		return zero, fmt.Errorf("postgres authority: decode: %w", err)
	}
	return v, nil
}

func (a *Authority[K, V]) Put(ctx context.Context, key K, value V) error {
	raw, err := a.codec.Encode(value)
	if err != nil {
		return fmt.Errorf("postgres authority: encode: %w", err)
	}
	if raw == nil {
		raw = []byte{}
	}
	if _, err := a.db.Exec(ctx, a.putSQL, a.key(key), raw); err != nil {
		return fmt.Errorf("postgres authority: put: %w", err)
	}
	return nil
}

// Delete succeeds whether or not a row was removed.
func (a *Authority[K, V]) Delete(ctx context.Context, key K) error {
	if _, err := a.db.Exec(ctx, a.deleteSQL, a.key(key)); err != nil {
		return fmt.Errorf("postgres authority: delete: %w", err)
	}
	return nil
}
