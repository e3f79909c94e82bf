package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "users", cfg.Cache.Namespace)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "ristretto", cfg.Cache.Provider)
	assert.Equal(t, "json", cfg.Cache.Codec)
	assert.Equal(t, "local", cfg.Cache.GenStore)
	assert.Equal(t, "memory", cfg.Authority.Kind)
	assert.Equal(t, 5*time.Second, cfg.Authority.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.NeedsRedis())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
http:
  addr: "127.0.0.1:9090"
cache:
  namespace: people
  ttl: 30s
  provider: redis
  codec: msgpack
  genstore: redis
  coalesce: true
authority:
  kind: postgres
  dsn: postgres://u:p@localhost:5432/db
  max_conns: 8
redis:
  addr: "localhost:6379"
  db: 2
log:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.HTTP.Addr)
	assert.Equal(t, "people", cfg.Cache.Namespace)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "msgpack", cfg.Cache.Codec)
	assert.True(t, cfg.Cache.Coalesce)
	assert.Equal(t, "postgres", cfg.Authority.Kind)
	assert.Equal(t, int32(8), cfg.Authority.MaxConns)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.True(t, cfg.NeedsRedis())
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "cache:\n  ttl: 1m\n")
	t.Setenv("USERCACHE_CACHE_TTL", "2m")
	t.Setenv("USERCACHE_CACHE_PROVIDER", "lru")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "lru", cfg.Cache.Provider)
}

func TestValidationErrors(t *testing.T) {
	cases := map[string]string{
		"unknown provider":   "cache:\n  provider: memcached\n",
		"unknown codec":      "cache:\n  codec: xml\n",
		"zero ttl":           "cache:\n  ttl: 0s\n",
		"postgres needs dsn": "authority:\n  kind: postgres\n",
		"redis needs addr":   "cache:\n  provider: redis\n",
		"redis gens addr":    "cache:\n  genstore: redis\n",
		"bad level":          "log:\n  level: verbose\n",
		"bad http addr":      "http:\n  addr: nope\n",
		"namespace colon":    "cache:\n  namespace: \"a:b\"\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "config validation failed")
		})
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	_, err := Load(writeConfig(t, "cache: [unterminated\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}
