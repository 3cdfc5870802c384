package engine

import (
	"sync"
	"time"

	"github.com/coinsight/coinsight/internal/model"
)

// DefaultCacheTTL is how long a composite result stays fresh. Sold-listing
// data moves slowly; repeated identical requests inside this window should
// not hit the network again.
const DefaultCacheTTL = 15 * time.Minute

type cacheEntry struct {
	result  model.CompositeResult
	created time.Time
}

// resultCache memoizes full pipeline runs keyed by the exact request tuple.
// Expired entries are removed lazily on the next lookup; there is no
// background sweeper. Two identical concurrent requests may both compute,
// last write wins.
type resultCache struct {
	mu      sync.Mutex
	entries map[model.SearchRequest]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

func newResultCache(ttl time.Duration) *resultCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &resultCache{
		entries: make(map[model.SearchRequest]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *resultCache) get(key model.SearchRequest) (model.CompositeResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return model.CompositeResult{}, false
	}
	if c.now().Sub(entry.created) >= c.ttl {
		delete(c.entries, key)
		return model.CompositeResult{}, false
	}
	return entry.result, true
}

func (c *resultCache) set(key model.SearchRequest, result model.CompositeResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{result: result, created: c.now()}
}

func (c *resultCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
