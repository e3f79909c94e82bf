package cacheaside

import "time"

const (
	defaultTTL              = 10 * time.Minute
	defaultAuthorityTimeout = 5 * time.Second
	defaultCacheTimeout     = time.Second
	defaultGenRetention     = 30 * 24 * time.Hour
	defaultSweep            = time.Hour
	defaultLockStripes      = 256
	defaultCoalesceTimeout  = 30 * time.Second
)

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
