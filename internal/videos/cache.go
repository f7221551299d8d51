package videos

import (
	"context"
	"sync"
	"time"

	"github.com/clipstream/backend/internal/models"
)

// SnapshotResolver batch-resolves video ids to denormalized snapshots.
type SnapshotResolver interface {
	FindWithOwners(ctx context.Context, ids []string) (map[string]models.WatchHistoryEntry, error)
}

type cacheEntry struct {
	snapshot models.WatchHistoryEntry
	expires  time.Time
}

// CachingResolver wraps a SnapshotResolver with a TTL-based in-memory cache
// keyed by video id. Misses are never cached, so a dangling reference stays a
// dangling reference.
type CachingResolver struct {
	base SnapshotResolver
	ttl  time.Duration

	mu    sync.RWMutex
	items map[string]cacheEntry
}

// NewCachingResolver returns a resolver that caches snapshots for the
// provided TTL.
func NewCachingResolver(base SnapshotResolver, ttl time.Duration) *CachingResolver {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachingResolver{
		base:  base,
		ttl:   ttl,
		items: make(map[string]cacheEntry),
	}
}

// FindWithOwners serves snapshots from the cache where possible and delegates
// only the remaining ids to the underlying resolver.
func (c *CachingResolver) FindWithOwners(ctx context.Context, ids []string) (map[string]models.WatchHistoryEntry, error) {
	now := time.Now()
	found := make(map[string]models.WatchHistoryEntry, len(ids))
	var missing []string

	c.mu.RLock()
	for _, id := range ids {
		if entry, ok := c.items[id]; ok && now.Before(entry.expires) {
			found[id] = entry.snapshot
			continue
		}
		missing = append(missing, id)
	}
	c.mu.RUnlock()

	if len(missing) == 0 {
		return found, nil
	}

	resolved, err := c.base.FindWithOwners(ctx, missing)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	expires := now.Add(c.ttl)
	for id, snapshot := range resolved {
		c.items[id] = cacheEntry{snapshot: snapshot, expires: expires}
		found[id] = snapshot
	}
	c.mu.Unlock()

	return found, nil
}
