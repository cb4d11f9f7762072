package organizer

import (
	"context"
	"strings"
	"sync"
	"time"
)

type cachedDomain struct {
	domain   string
	found    bool
	cachedAt time.Time
}

// CachedLookup memoizes lookup answers by normalized organizer name, so an
// organizer running several sampled events is only looked up once. Misses are
// cached too; errors are not.
type CachedLookup struct {
	next Lookup
	ttl  time.Duration // 0 = entries never expire
	now  func() time.Time

	mu      sync.Mutex
	entries map[string]cachedDomain
}

// NewCachedLookup wraps next with an in-memory cache
func NewCachedLookup(next Lookup, ttl time.Duration) *CachedLookup {
	return &CachedLookup{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cachedDomain),
	}
}

// FindDomain returns the cached answer for name, asking the wrapped lookup on
// a miss or after expiry
func (c *CachedLookup) FindDomain(ctx context.Context, name string) (string, bool, error) {
	key := cacheKey(name)

	if e, ok := c.get(key); ok {
		return e.domain, e.found, nil
	}

	domain, found, err := c.next.FindDomain(ctx, name)
	if err != nil {
		return "", false, err
	}

	c.mu.Lock()
	c.entries[key] = cachedDomain{domain: domain, found: found, cachedAt: c.now()}
	c.mu.Unlock()

	return domain, found, nil
}

func (c *CachedLookup) get(key string) (cachedDomain, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return cachedDomain{}, false
	}
	if c.ttl > 0 && c.now().Sub(e.cachedAt) > c.ttl {
		delete(c.entries, key)
		return cachedDomain{}, false
	}
	return e, true
}

// cacheKey folds case and whitespace so "Acme  Events" and "acme events" share
// an entry
func cacheKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
