package hostconfig

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ZaguanLabs/webproxy"
)

// DefaultResolveTTL bounds how stale a cached host configuration can get.
const DefaultResolveTTL = 60 * time.Second

type cachedEntry struct {
	cfg      *webproxy.HostConfig
	notFound bool
	expires  time.Time
}

// CachedResolver memoizes another resolver per hostname for a short TTL,
// so a busy site does not hit the backing store on every request. Unknown
// hosts are cached too; transient resolver errors are not, and retry on
// the next request.
type CachedResolver struct {
	inner Resolver
	ttl   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	entries map[string]cachedEntry
}

func NewCachedResolver(inner Resolver, ttl time.Duration) *CachedResolver {
	if ttl <= 0 {
		ttl = DefaultResolveTTL
	}
	return &CachedResolver{
		inner:   inner,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cachedEntry),
	}
}

func (r *CachedResolver) Resolve(ctx context.Context, hostname string) (*webproxy.HostConfig, error) {
	key := strings.ToLower(hostname)
	now := r.now()

	r.mu.Lock()
	entry, ok := r.entries[key]
	r.mu.Unlock()
	if ok && now.Before(entry.expires) {
		if entry.notFound {
			return nil, ErrHostNotFound
		}
		out := *entry.cfg
		return &out, nil
	}

	cfg, err := r.inner.Resolve(ctx, hostname)
	switch {
	case err == nil:
		r.store(key, cachedEntry{cfg: cfg, expires: now.Add(r.ttl)})
		out := *cfg
		return &out, nil
	case errors.Is(err, ErrHostNotFound):
		r.store(key, cachedEntry{notFound: true, expires: now.Add(r.ttl)})
		return nil, ErrHostNotFound
	default:
		return nil, err
	}
}

func (r *CachedResolver) store(key string, entry cachedEntry) {
	r.mu.Lock()
	r.entries[key] = entry
	r.mu.Unlock()
}

// Invalidate drops the cached entry for a hostname.
func (r *CachedResolver) Invalidate(hostname string) {
	r.mu.Lock()
	delete(r.entries, strings.ToLower(hostname))
	r.mu.Unlock()
}
