package app

import (
	"context"
	"sync"
	"time"
)

// livenessCache reuses the last upstream health result for ttl so frequent
// /api/health polls do not each reach the sentiment API.
type livenessCache struct {
	mu        sync.RWMutex
	up        bool
	checkedAt time.Time
	ttl       time.Duration
	now       func() time.Time
}

// newLivenessCache creates a cache. A ttl of 0 disables caching.
func newLivenessCache(ttl time.Duration) *livenessCache {
	return &livenessCache{ttl: ttl, now: time.Now}
}

// get returns the cached result and whether it is still fresh.
func (c *livenessCache) get() (up, fresh bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fresh = !c.checkedAt.IsZero() && c.now().Sub(c.checkedAt) < c.ttl
	return c.up, fresh
}

func (c *livenessCache) set(up bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.up = up
	c.checkedAt = c.now()
}

// invalidate forces the next check to probe the upstream.
func (c *livenessCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checkedAt = time.Time{}
}

// check returns the cached result while fresh, otherwise calls probe and
// caches its answer. A probe cut short by ctx is not cached.
func (c *livenessCache) check(ctx context.Context, probe func(context.Context) bool) bool {
	if up, fresh := c.get(); fresh {
		return up
	}
	up := probe(ctx)
	if ctx.Err() == nil {
		c.set(up)
	}
	return up
}
