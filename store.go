package cacheaside

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/unkn0wn-root/cacheaside/authority"
	c "github.com/unkn0wn-root/cacheaside/codec"
	gen "github.com/unkn0wn-root/cacheaside/genstore"
	"github.com/unkn0wn-root/cacheaside/internal/util"
	"github.com/unkn0wn-root/cacheaside/internal/wire"
	pr "github.com/unkn0wn-root/cacheaside/provider"
)

const (
	opRead       = "read"
	opWrite      = "write"
	opDelete     = "delete"
	opInvalidate = "invalidate"
)

type store[K comparable, V any] struct {
	ns       string
	auth     authority.Authority[K, V]
	provider pr.Provider
	codec    c.Codec[V]
	gens     gen.GenStore
	log      Logger
	hooks    Hooks

	enabled bool

	ttl            time.Duration
	authTimeout    time.Duration
	cacheTimeout   time.Duration
	keyFn          func(K) string
	validateKey    func(K) error
	validateValue  func(V) error
	computeSetCost SetCostFunc
	now            func() time.Time

	coalesceMisses  bool
	coalesceTimeout time.Duration // bounds the shared fill when AuthorityTimeout is disabled
	sf              singleflight.Group
	locks           *keyLocks

	ownResources bool
	ownGens      bool
	closeOnce    sync.Once
	closeErr     error
}

type readResult[V any] struct {
	v  V
	ok bool
}

func newStore[K comparable, V any](opts Options[K, V]) (*store[K, V], error) {
	if opts.Authority == nil {
		return nil, fmt.Errorf("cacheaside: authority is required")
	}
	if opts.Provider == nil {
		return nil, fmt.Errorf("cacheaside: provider is required")
	}
	if opts.Codec == nil {
		return nil, fmt.Errorf("cacheaside: codec is required")
	}
	if opts.Namespace == "" {
		return nil, fmt.Errorf("cacheaside: namespace is required")
	}
	if strings.Contains(opts.Namespace, ":") {
		return nil, fmt.Errorf("cacheaside: namespace %q must not contain ':'", opts.Namespace)
	}
	if opts.DefaultTTL < 0 {
		return nil, fmt.Errorf("cacheaside: negative DefaultTTL")
	}

	s := &store[K, V]{
		ns:            opts.Namespace,
		auth:          opts.Authority,
		provider:      opts.Provider,
		codec:         opts.Codec,
		validateKey:   opts.ValidateKey,
		validateValue: opts.ValidateValue,
		enabled:       !opts.Disabled,
		ownResources:  opts.OwnResources,
	}

	s.log = coalesce[Logger](opts.Logger, NopLogger{})
	s.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	s.ttl = coalesce[time.Duration](opts.DefaultTTL, defaultTTL)
	s.authTimeout = coalesce[time.Duration](opts.AuthorityTimeout, defaultAuthorityTimeout)
	s.cacheTimeout = coalesce[time.Duration](opts.CacheTimeout, defaultCacheTimeout)
	s.coalesceMisses = opts.CoalesceMisses
	s.coalesceTimeout = defaultCoalesceTimeout
	s.locks = newKeyLocks(opts.LockStripes)

	s.keyFn = opts.KeyFunc
	if s.keyFn == nil {
		fn, err := util.KeyFormatter[K]()
		if err != nil {
			return nil, fmt.Errorf("cacheaside: %w", err)
		}
		s.keyFn = fn
	}
	s.computeSetCost = opts.ComputeSetCost
	if s.computeSetCost == nil {
		s.computeSetCost = func(string, []byte) int64 { return 1 }
	}
	s.now = opts.Now
	if s.now == nil {
		s.now = time.Now
	}

	if opts.GenStore != nil {
		s.gens = opts.GenStore
	} else {
		s.gens = gen.NewLocalGenStore(
			coalesce[time.Duration](opts.CleanupInterval, defaultSweep),
			coalesce[time.Duration](opts.GenRetention, defaultGenRetention),
		)
		s.ownGens = true
	}
	return s, nil
}

func (s *store[K, V]) Enabled() bool { return s.enabled }

// Close is idempotent; later calls return the first result.
func (s *store[K, V]) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		var errs []error
		if s.ownGens || s.ownResources {
			errs = append(errs, s.gens.Close(ctx))
		}
		if s.ownResources {
			errs = append(errs, s.provider.Close(ctx))
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}

// ===== operations =====

func (s *store[K, V]) Read(ctx context.Context, key K) (V, bool, error) {
	var zero V
	k, err := s.keyOf(opRead, key)
	if err != nil {
		return zero, false, err
	}
	if !s.enabled {
		return s.authGet(ctx, k, key)
	}

	sk := util.StorageKey(s.ns, k)
	v, hit, cacheErr := s.lookup(ctx, sk)
	if hit {
		s.hooks.CacheHit(sk)
		return v, true, nil
	}
	if cacheErr != nil {
		s.hooks.ReadDegraded(sk, cacheErr)
		s.log.Warn("cache unavailable; reading from authority uncached",
			Fields{"ns": s.ns, "key": k, "err": cacheErr})
		return s.authGet(ctx, k, key)
	}
	s.hooks.CacheMiss(sk)

	if !s.coalesceMisses {
		return s.fill(ctx, sk, k, key)
	}

	// The shared fill must not die with whichever caller happened to start
	// it; each caller still gives up on its own ctx.
	ch := s.sf.DoChan(sk, func() (any, error) {
		fctx := context.WithoutCancel(ctx)
		if s.authTimeout < 0 {
			var cancel context.CancelFunc
			fctx, cancel = context.WithTimeout(fctx, s.coalesceTimeout)
			defer cancel()
		}
		v, ok, err := s.fill(fctx, sk, k, key)
		return readResult[V]{v: v, ok: ok}, err
	})
	select {
	case r := <-ch:
		if r.Err != nil {
			return zero, false, r.Err
		}
		res := r.Val.(readResult[V])
		return res.v, res.ok, nil
	case <-ctx.Done():
		return zero, false, &OpError{Op: opRead, Layer: LayerAuthority, Key: k, Kind: ErrUnavailable, Err: ctx.Err()}
	}
}

func (s *store[K, V]) Write(ctx context.Context, key K, value V) error {
	k, err := s.keyOf(opWrite, key)
	if err != nil {
		return err
	}
	if s.validateValue != nil {
		if err := s.validateValue(value); err != nil {
			return &OpError{Op: opWrite, Key: k, Kind: ErrInvalidArgument, Err: err}
		}
	}
	if !s.enabled {
		return s.authPut(ctx, k, key, value)
	}

	payload, err := s.codec.Encode(value)
	if err != nil {
		return &OpError{Op: opWrite, Key: k, Kind: ErrInvalidArgument, Err: err}
	}

	sk := util.StorageKey(s.ns, k)
	unlock := s.locks.lock(sk)
	defer unlock()

	if err := s.authPut(ctx, k, key, value); err != nil {
		return err
	}

	g, err := s.bump(ctx, sk)
	if err != nil {
		// Without a new generation the old entry still validates; drop it.
		s.hooks.GenBumpError(sk, err)
		delErr := s.del(ctx, sk)
		s.log.Error("write: gen bump failed", Fields{"ns": s.ns, "key": k, "err": err, "delErr": delErr})
		return &OpError{Op: opWrite, Layer: LayerGenStore, Key: k, Kind: ErrUnavailable, Err: err}
	}

	if c.IsNull(s.codec, payload) {
		if err := s.del(ctx, sk); err != nil {
			return &OpError{Op: opWrite, Layer: LayerCache, Key: k, Kind: ErrUnavailable, Err: err}
		}
		s.log.Debug("write: null value not cached", Fields{"ns": s.ns, "key": k})
		return nil
	}

	if err := s.put(ctx, sk, g, payload); err != nil {
		s.log.Warn("write: cache update failed", Fields{"ns": s.ns, "key": k, "gen": g, "err": err})
		return &OpError{Op: opWrite, Layer: LayerCache, Key: k, Kind: ErrUnavailable, Err: err}
	}
	return nil
}

func (s *store[K, V]) Delete(ctx context.Context, key K) error {
	k, err := s.keyOf(opDelete, key)
	if err != nil {
		return err
	}
	if !s.enabled {
		return s.authDelete(ctx, k, key)
	}

	sk := util.StorageKey(s.ns, k)
	unlock := s.locks.lock(sk)
	defer unlock()

	if err := s.authDelete(ctx, k, key); err != nil {
		return err
	}
	return s.invalidate(ctx, sk, k)
}

func (s *store[K, V]) Invalidate(ctx context.Context, key K) error {
	k, err := s.keyOf(opInvalidate, key)
	if err != nil {
		return err
	}
	if !s.enabled {
		return nil
	}

	sk := util.StorageKey(s.ns, k)
	unlock := s.locks.lock(sk)
	defer unlock()
	return s.invalidate(ctx, sk, k)
}

// invalidate bumps the generation and evicts the entry. Either step alone
// keeps the stale entry from being served, so only a double failure is
// reported. Caller holds the key lock.
func (s *store[K, V]) invalidate(ctx context.Context, sk, k string) error {
	newGen, bumpErr := s.bump(ctx, sk)
	delErr := s.del(ctx, sk)

	if bumpErr != nil {
		s.hooks.GenBumpError(sk, bumpErr)
	}
	if bumpErr != nil && delErr != nil {
		s.hooks.InvalidateOutage(k, bumpErr, delErr)
		s.log.Error("invalidate failed: gen bump and delete failed",
			Fields{"ns": s.ns, "key": k, "bumpErr": bumpErr, "delErr": delErr})
		return &InvalidateError{Key: k, BumpErr: bumpErr, DelErr: delErr}
	}
	if bumpErr != nil {
		s.log.Warn("invalidate: gen bump failed; entry deleted", Fields{"ns": s.ns, "key": k, "err": bumpErr})
		return nil
	}
	if delErr != nil {
		s.log.Debug("invalidate: delete failed; gen bumped", Fields{"ns": s.ns, "key": k, "newGen": newGen, "err": delErr})
	}
	return nil
}

// ===== read path =====

// lookup returns a hit only for a well-formed, unexpired entry whose
// generation is current. Bad entries are deleted and reported as a miss.
// A non-nil error means the provider itself failed.
func (s *store[K, V]) lookup(ctx context.Context, sk string) (V, bool, error) {
	var zero V

	cctx, cancel := s.cacheCtx(ctx)
	raw, ok, err := s.provider.Get(cctx, sk)
	cancel()
	if err != nil {
		return zero, false, err
	}
	if !ok {
		return zero, false, nil
	}

	e, err := wire.Decode(raw)
	if err != nil {
		s.heal(ctx, sk, "corrupt")
		return zero, false, nil
	}
	if e.Expired(s.now()) {
		s.heal(ctx, sk, "expired")
		return zero, false, nil
	}

	cur, err := s.snapshot(ctx, sk)
	if err != nil {
		// Can't prove the entry current; treat as miss but leave it alone.
		s.hooks.GenSnapshotError(sk, err)
		s.log.Warn("gen snapshot failed; treating as miss", Fields{"ns": s.ns, "sk": sk, "err": err})
		return zero, false, nil
	}
	if e.Gen != cur {
		s.heal(ctx, sk, "gen_mismatch")
		return zero, false, nil
	}

	v, err := s.codec.Decode(e.Payload)
	if err != nil {
		s.heal(ctx, sk, "value_decode")
		return zero, false, nil
	}
	return v, true, nil
}

// fill reads from the authority and caches the result when no write or
// delete landed since the generation snapshot. Cache-side failures are
// logged, never returned.
func (s *store[K, V]) fill(ctx context.Context, sk, k string, key K) (V, bool, error) {
	obs, snapErr := s.snapshot(ctx, sk)
	if snapErr != nil {
		s.hooks.GenSnapshotError(sk, snapErr)
	}

	v, ok, err := s.authGet(ctx, k, key)
	if err != nil || !ok {
		return v, ok, err
	}
	if snapErr != nil {
		s.hooks.FillSkipped(sk, "snapshot_error")
		return v, true, nil
	}

	payload, err := s.codec.Encode(v)
	if err != nil {
		s.hooks.FillSkipped(sk, "encode_error")
		s.log.Warn("fill: encode failed", Fields{"ns": s.ns, "key": k, "err": err})
		return v, true, nil
	}
	if c.IsNull(s.codec, payload) {
		s.hooks.FillSkipped(sk, "null")
		return v, true, nil
	}

	unlock := s.locks.lock(sk)
	defer unlock()

	cur, err := s.snapshot(ctx, sk)
	if err != nil {
		s.hooks.GenSnapshotError(sk, err)
		s.hooks.FillSkipped(sk, "snapshot_error")
		return v, true, nil
	}
	if cur != obs {
		s.hooks.FillSkipped(sk, "gen_mismatch")
		s.log.Debug("fill skipped (gen mismatch)", Fields{"ns": s.ns, "key": k, "obs": obs, "cur": cur})
		return v, true, nil
	}
	if err := s.put(ctx, sk, obs, payload); err != nil {
		s.hooks.FillSkipped(sk, "set_error")
		s.log.Warn("fill: cache set failed", Fields{"ns": s.ns, "key": k, "err": err})
	}
	return v, true, nil
}

func (s *store[K, V]) heal(ctx context.Context, sk, reason string) {
	s.hooks.SelfHeal(sk, reason)
	if err := s.del(ctx, sk); err != nil {
		s.log.Debug("self-heal delete failed", Fields{"ns": s.ns, "sk": sk, "reason": reason, "err": err})
	}
}

// ===== collaborators =====

func (s *store[K, V]) keyOf(op string, key K) (string, error) {
	if util.IsNilKey(key) {
		return "", &OpError{Op: op, Kind: ErrInvalidArgument, Err: errors.New("nil key")}
	}
	k := s.keyFn(key)
	if k == "" {
		return "", &OpError{Op: op, Kind: ErrInvalidArgument, Err: errors.New("empty key")}
	}
	if s.validateKey != nil {
		if err := s.validateKey(key); err != nil {
			return "", &OpError{Op: op, Key: k, Kind: ErrInvalidArgument, Err: err}
		}
	}
	return k, nil
}

func (s *store[K, V]) authGet(ctx context.Context, k string, key K) (V, bool, error) {
	var zero V
	actx, cancel := s.authCtx(ctx)
	defer cancel()
	v, err := s.auth.Get(actx, key)
	if errors.Is(err, authority.ErrNotFound) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, s.authFailed(opRead, k, err)
	}
	return v, true, nil
}

func (s *store[K, V]) authPut(ctx context.Context, k string, key K, value V) error {
	actx, cancel := s.authCtx(ctx)
	defer cancel()
	if err := s.auth.Put(actx, key, value); err != nil {
		return s.authFailed(opWrite, k, err)
	}
	return nil
}

func (s *store[K, V]) authDelete(ctx context.Context, k string, key K) error {
	actx, cancel := s.authCtx(ctx)
	defer cancel()
	if err := s.auth.Delete(actx, key); err != nil && !errors.Is(err, authority.ErrNotFound) {
		return s.authFailed(opDelete, k, err)
	}
	return nil
}

func (s *store[K, V]) authFailed(op, k string, err error) error {
	s.hooks.AuthorityError(op, k, err)
	s.log.Warn("authority "+op+" failed", Fields{"ns": s.ns, "key": k, "err": err})
	return &OpError{Op: op, Layer: LayerAuthority, Key: k, Kind: ErrUnavailable, Err: err}
}

func (s *store[K, V]) put(ctx context.Context, sk string, g uint64, payload []byte) error {
	now := s.now()
	raw := wire.Encode(wire.Entry{Gen: g, StoredAt: now, ExpiresAt: now.Add(s.ttl), Payload: payload})

	cctx, cancel := s.cacheCtx(ctx)
	defer cancel()
	ok, err := s.provider.Set(cctx, sk, raw, s.computeSetCost(sk, raw), s.ttl)
	if err != nil {
		return err
	}
	if !ok {
		s.hooks.ProviderSetRejected(sk)
		s.log.Debug("set rejected by provider (pressure)", Fields{"ns": s.ns, "sk": sk})
	}
	return nil
}

func (s *store[K, V]) del(ctx context.Context, sk string) error {
	cctx, cancel := s.cacheCtx(ctx)
	defer cancel()
	return s.provider.Del(cctx, sk)
}

func (s *store[K, V]) snapshot(ctx context.Context, sk string) (uint64, error) {
	cctx, cancel := s.cacheCtx(ctx)
	defer cancel()
	return s.gens.Snapshot(cctx, sk)
}

func (s *store[K, V]) bump(ctx context.Context, sk string) (uint64, error) {
	cctx, cancel := s.cacheCtx(ctx)
	defer cancel()
	return s.gens.Bump(cctx, sk)
}

func (s *store[K, V]) authCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ctx, s.authTimeout)
}

func (s *store[K, V]) cacheCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ctx, s.cacheTimeout)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
