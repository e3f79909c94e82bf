// Package sloghooks logs store events through log/slog, sampling the noisy ones.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/cacheaside"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	SelfHealEvery    uint64
	FillSkippedEvery uint64
	DegradedEvery    uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

// Hooks logs failures and self-heals. Hits and misses are not logged; use
// promhooks for those.
type Hooks struct {
	cacheaside.NopHooks

	l    *slog.Logger
	opts Options

	selfHealCtr atomic.Uint64
	skippedCtr  atomic.Uint64
	degradedCtr atomic.Uint64
}

var _ cacheaside.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) ReadDegraded(storageKey string, err error) {
	if h.l == nil || !sample(h.opts.DegradedEvery, &h.degradedCtr) {
		return
	}
	h.l.Warn("cacheaside.read_degraded",
		"key", h.redact(storageKey),
		"err", err)
}

func (h *Hooks) FillSkipped(storageKey, reason string) {
	if h.l == nil || !sample(h.opts.FillSkippedEvery, &h.skippedCtr) {
		return
	}
	h.l.Debug("cacheaside.fill_skipped",
		"key", h.redact(storageKey),
		"reason", reason)
}

func (h *Hooks) SelfHeal(storageKey, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Debug("cacheaside.self_heal",
		"key", h.redact(storageKey),
		"reason", reason)
}

func (h *Hooks) ProviderSetRejected(storageKey string) {
	if h.l == nil {
		return
	}
	h.l.Warn("cacheaside.provider_set_rejected",
		"key", h.redact(storageKey))
}

func (h *Hooks) GenSnapshotError(storageKey string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("cacheaside.gen_snapshot_error",
		"key", h.redact(storageKey),
		"err", err)
}

func (h *Hooks) GenBumpError(storageKey string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("cacheaside.gen_bump_error",
		"key", h.redact(storageKey),
		"err", err)
}

func (h *Hooks) InvalidateOutage(key string, bumpErr, delErr error) {
	if h.l == nil {
		return
	}
	h.l.Error("cacheaside.invalidate_outage",
		"key", h.redact(key),
		"bump_err", bumpErr,
		"del_err", delErr)
}

func (h *Hooks) AuthorityError(op, key string, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("cacheaside.authority_error",
		"op", op,
		"key", h.redact(key),
		"err", err)
}
