package cacheaside

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The store calls them on hot paths.
type Hooks interface {
	// Read served from the cache.
	CacheHit(storageKey string)
	// Read fell through to the authority.
	CacheMiss(storageKey string)

	// Cache failed on read; the value was served from the authority uncached.
	ReadDegraded(storageKey string, err error)

	// A read-through fill was not applied.
	// reason ∈ {"gen_mismatch", "snapshot_error", "null", "encode_error", "set_error"}
	FillSkipped(storageKey, reason string)

	// An entry was deleted by the store on read.
	// reason ∈ {"corrupt", "expired", "gen_mismatch", "value_decode"}
	SelfHeal(storageKey, reason string)

	// Provider returned ok=false on Set (backpressure/eviction).
	ProviderSetRejected(storageKey string)

	// GenStore errors.
	GenSnapshotError(storageKey string, err error)
	GenBumpError(storageKey string, err error)

	// Both gen bump and delete failed during Delete or Invalidate.
	InvalidateOutage(key string, bumpErr, delErr error)

	// The authority failed for a reason other than not-found.
	// op ∈ {"read", "write", "delete"}
	AuthorityError(op, key string, err error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) CacheHit(string)                       {}
func (NopHooks) CacheMiss(string)                      {}
func (NopHooks) ReadDegraded(string, error)            {}
func (NopHooks) FillSkipped(string, string)            {}
func (NopHooks) SelfHeal(string, string)               {}
func (NopHooks) ProviderSetRejected(string)            {}
func (NopHooks) GenSnapshotError(string, error)        {}
func (NopHooks) GenBumpError(string, error)            {}
func (NopHooks) InvalidateOutage(string, error, error) {}
func (NopHooks) AuthorityError(string, string, error)  {}

// JoinHooks fans every event out to each non-nil h in order.
func JoinHooks(hs ...Hooks) Hooks {
	out := make(multiHooks, 0, len(hs))
	for _, h := range hs {
		if h != nil {
			out = append(out, h)
		}
	}
	switch len(out) {
	case 0:
		return NopHooks{}
	case 1:
		return out[0]
	}
	return out
}

type multiHooks []Hooks

func (m multiHooks) CacheHit(k string) {
	for _, h := range m {
		h.CacheHit(k)
	}
}

func (m multiHooks) CacheMiss(k string) {
	for _, h := range m {
		h.CacheMiss(k)
	}
}

func (m multiHooks) ReadDegraded(k string, err error) {
	for _, h := range m {
		h.ReadDegraded(k, err)
	}
}

func (m multiHooks) FillSkipped(k, reason string) {
	for _, h := range m {
		h.FillSkipped(k, reason)
	}
}

func (m multiHooks) SelfHeal(k, reason string) {
	for _, h := range m {
		h.SelfHeal(k, reason)
	}
}

func (m multiHooks) ProviderSetRejected(k string) {
	for _, h := range m {
		h.ProviderSetRejected(k)
	}
}

func (m multiHooks) GenSnapshotError(k string, err error) {
	for _, h := range m {
		h.GenSnapshotError(k, err)
	}
}

func (m multiHooks) GenBumpError(k string, err error) {
	for _, h := range m {
		h.GenBumpError(k, err)
	}
}

func (m multiHooks) InvalidateOutage(k string, bumpErr, delErr error) {
	for _, h := range m {
		h.InvalidateOutage(k, bumpErr, delErr)
	}
}

func (m multiHooks) AuthorityError(op, k string, err error) {
	for _, h := range m {
		h.AuthorityError(op, k, err)
	}
}
