// Package promhooks exports store events as Prometheus counters.
package promhooks

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/unkn0wn-root/cacheaside"
)

// Hooks increments counters; every method is allocation-free after the
// first call per label value.
type Hooks struct {
	hits          prometheus.Counter
	misses        prometheus.Counter
	degraded      prometheus.Counter
	fillSkipped   *prometheus.CounterVec
	selfHeal      *prometheus.CounterVec
	setRejected   prometheus.Counter
	genErrors     *prometheus.CounterVec
	outages       prometheus.Counter
	authorityErrs *prometheus.CounterVec
}

var _ cacheaside.Hooks = (*Hooks)(nil)

// New registers the counters on reg (prometheus.DefaultRegisterer when nil),
// labelled store=<name>. Registering the same name twice on one registry panics.
func New(reg prometheus.Registerer, name string) *Hooks {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	labels := prometheus.Labels{"store": name}

	counter := func(n, help string) prometheus.Counter {
		return f.NewCounter(prometheus.CounterOpts{
			Namespace: "cacheaside", Name: n, Help: help, ConstLabels: labels,
		})
	}
	counterVec := func(n, help, label string) *prometheus.CounterVec {
		return f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cacheaside", Name: n, Help: help, ConstLabels: labels,
		}, []string{label})
	}

	return &Hooks{
		hits:          counter("cache_hits_total", "Reads served from the cache"),
		misses:        counter("cache_misses_total", "Reads that fell through to the authority"),
		degraded:      counter("read_degraded_total", "Reads served uncached because the cache failed"),
		fillSkipped:   counterVec("fill_skipped_total", "Read-through fills not applied", "reason"),
		selfHeal:      counterVec("self_heal_total", "Entries deleted on read", "reason"),
		setRejected:   counter("provider_set_rejected_total", "Provider Set calls rejected under pressure"),
		genErrors:     counterVec("genstore_errors_total", "Generation store failures", "op"),
		outages:       counter("invalidate_outages_total", "Invalidations where both gen bump and delete failed"),
		authorityErrs: counterVec("authority_errors_total", "Authority failures other than not-found", "op"),
	}
}

func (h *Hooks) CacheHit(string)            { h.hits.Inc() }
func (h *Hooks) CacheMiss(string)           { h.misses.Inc() }
func (h *Hooks) ReadDegraded(string, error) { h.degraded.Inc() }
func (h *Hooks) FillSkipped(_, reason string) {
	h.fillSkipped.WithLabelValues(reason).Inc()
}
func (h *Hooks) SelfHeal(_, reason string)             { h.selfHeal.WithLabelValues(reason).Inc() }
func (h *Hooks) ProviderSetRejected(string)            { h.setRejected.Inc() }
func (h *Hooks) GenSnapshotError(string, error)        { h.genErrors.WithLabelValues("snapshot").Inc() }
func (h *Hooks) GenBumpError(string, error)            { h.genErrors.WithLabelValues("bump").Inc() }
func (h *Hooks) InvalidateOutage(string, error, error) { h.outages.Inc() }
func (h *Hooks) AuthorityError(op, _ string, _ error) {
	h.authorityErrs.WithLabelValues(op).Inc()
}
