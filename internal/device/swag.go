package device

import (
	"sync"
	"time"
)

// swagCacheTTL matches spec §9's "caches a single SWAG host per process for
// 5 minutes" note.
const swagCacheTTL = 5 * time.Minute

// SwagLocator finds the fleet's reverse-proxy host deterministically and
// caches the answer for swagCacheTTL. The original Python source simply
// cached "the first SWAG host found" without a documented tie-break; this
// implementation makes that deterministic by iterating devices in hostname
// order, matching MemStore.All's sort.
type SwagLocator struct {
	store Store

	mu       sync.Mutex
	cached   *Device
	cachedAt time.Time
	now      func() time.Time
}

func NewSwagLocator(store Store) *SwagLocator {
	return &SwagLocator{store: store, now: time.Now}
}

// Locate returns the first device (in hostname order) whose tags contain
// swag=true, using the cached answer if it is younger than swagCacheTTL.
func (l *SwagLocator) Locate() (*Device, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.cached != nil && now.Sub(l.cachedAt) < swagCacheTTL {
		return l.cached, true
	}

	for _, d := range l.store.All() {
		if d.BoolTag("swag") {
			l.cached = d
			l.cachedAt = now
			return d, true
		}
	}

	l.cached = nil
	return nil, false
}

// Invalidate clears the cached answer, used after a device's swag tag
// changes via re-analysis.
func (l *SwagLocator) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cached = nil
}
