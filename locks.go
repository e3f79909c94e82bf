package cacheaside

import (
	"sync"

	"github.com/unkn0wn-root/cacheaside/internal/util"
)

// keyLocks serializes mutations per storage key. Distinct keys may share a
// stripe; that only costs concurrency.
type keyLocks struct {
	stripes []sync.Mutex
}

func newKeyLocks(n int) *keyLocks {
	if n <= 0 {
		n = defaultLockStripes
	}
	return &keyLocks{stripes: make([]sync.Mutex, n)}
}

func (l *keyLocks) lock(storageKey string) (unlock func()) {
	m := &l.stripes[util.Stripe(storageKey, len(l.stripes))]
	m.Lock()
	return m.Unlock
}
