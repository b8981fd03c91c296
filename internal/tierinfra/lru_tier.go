package tierinfra

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/goliatone/go-consistency/recency"
)

// LRUTier stores recency records in a hashicorp expirable LRU. Compared to
// the sturdyc tier it trades shard-level concurrency for strict bounded
// memory with oldest-first eviction, which suits small per-service deployments
// where the record count is close to the capacity limit.
type LRUTier struct {
	cache *expirable.LRU[string, record]
	now   func() time.Time
}

var _ recency.Tier = (*LRUTier)(nil)

// NewLRUTier creates an expirable-LRU-backed tier from the provided config.
// NumShards and EvictionPercentage are not used by this backend.
func NewLRUTier(cfg Config) (*LRUTier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &LRUTier{
		cache: expirable.NewLRU[string, record](cfg.Capacity, nil, cfg.BackstopTTL),
		now:   time.Now,
	}, nil
}

// Put implements recency.Tier.
func (t *LRUTier) Put(_ context.Context, entityType, id string, kind recency.EventKind, ttl time.Duration) error {
	t.cache.Add(tierKey(entityType, id), record{
		Kind:      kind,
		ExpiresAt: t.now().Add(ttl),
	})
	return nil
}

// Remove implements recency.Tier.
func (t *LRUTier) Remove(_ context.Context, entityType, id string) error {
	t.cache.Remove(tierKey(entityType, id))
	return nil
}

// ListLive implements recency.Tier. Peek is used so that enumeration does
// not disturb the LRU recency order.
func (t *LRUTier) ListLive(_ context.Context, entityType string) (map[string]recency.EventKind, error) {
	prefix := typePrefix(entityType)
	now := t.now()

	live := make(map[string]recency.EventKind)
	for _, key := range t.cache.Keys() {
		id, ok := idFromKey(key, prefix)
		if !ok {
			continue
		}
		rec, ok := t.cache.Peek(key)
		if !ok || rec.expired(now) {
			continue
		}
		live[id] = rec.Kind
	}
	return live, nil
}
