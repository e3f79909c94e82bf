// Package config loads the usercache service configuration from YAML and
// USERCACHE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const envPrefix = "USERCACHE"

type Config struct {
	HTTP      HTTPConfig      `mapstructure:"http"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Authority AuthorityConfig `mapstructure:"authority"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"             validate:"required,hostname_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

type CacheConfig struct {
	Namespace string        `mapstructure:"namespace" validate:"required,excludes=:"`
	TTL       time.Duration `mapstructure:"ttl"       validate:"gt=0"`
	Provider  string        `mapstructure:"provider"  validate:"required,oneof=redis ristretto bigcache lru"`
	Codec     string        `mapstructure:"codec"     validate:"required,oneof=json msgpack cbor"`
	GenStore  string        `mapstructure:"genstore"  validate:"required,oneof=local redis"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Coalesce  bool          `mapstructure:"coalesce"`
	// Size bounds the in-process providers (entries for lru, MB for bigcache,
	// cost units for ristretto).
	Size int `mapstructure:"size" validate:"gt=0"`
}

type AuthorityConfig struct {
	Kind     string        `mapstructure:"kind"      validate:"required,oneof=memory postgres"`
	DSN      string        `mapstructure:"dsn"       validate:"required_if=Kind postgres"`
	Table    string        `mapstructure:"table"`
	Timeout  time.Duration `mapstructure:"timeout"`
	MaxConns int32         `mapstructure:"max_conns" validate:"gte=0"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"     validate:"omitempty,hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"       validate:"gte=0"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// NeedsRedis reports whether any component is configured to use Redis.
func (c *Config) NeedsRedis() bool {
	return c.Cache.Provider == "redis" || c.Cache.GenStore == "redis"
}

func setDefaults(vip *viper.Viper) {
	vip.SetDefault("http.addr", ":8080")
	vip.SetDefault("http.shutdown_timeout", "10s")

	vip.SetDefault("cache.namespace", "users")
	vip.SetDefault("cache.ttl", "10m")
	vip.SetDefault("cache.provider", "ristretto")
	vip.SetDefault("cache.codec", "json")
	vip.SetDefault("cache.genstore", "local")
	vip.SetDefault("cache.timeout", "1s")
	vip.SetDefault("cache.coalesce", false)
	vip.SetDefault("cache.size", 10_000)

	vip.SetDefault("authority.kind", "memory")
	vip.SetDefault("authority.dsn", "")
	vip.SetDefault("authority.table", "users")
	vip.SetDefault("authority.timeout", "5s")
	vip.SetDefault("authority.max_conns", 0)

	vip.SetDefault("redis.addr", "")
	vip.SetDefault("redis.password", "")
	vip.SetDefault("redis.db", 0)

	vip.SetDefault("log.level", "info")
}

// Load reads path (or ./configs/config.yaml, ./config.yaml when empty).
// A missing default file is not an error; defaults and environment apply.
func Load(path string) (*Config, error) {
	vip := viper.New()
	if path != "" {
		vip.SetConfigFile(path)
	} else {
		vip.SetConfigName("config")
		vip.AddConfigPath("./configs")
		vip.AddConfigPath(".")
	}

	vip.SetConfigType("yaml")
	vip.SetEnvPrefix(envPrefix)
	vip.AutomaticEnv()
	vip.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(vip)

	if err := vip.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if cfg.NeedsRedis() && cfg.Redis.Addr == "" {
		return fmt.Errorf("config validation failed: redis.addr is required when cache.provider or cache.genstore is redis")
	}
	return nil
}
