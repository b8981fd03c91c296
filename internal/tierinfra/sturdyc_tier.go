package tierinfra

import (
	"context"
	"time"

	"github.com/viccon/sturdyc"

	"github.com/goliatone/go-consistency/recency"
)

// SturdycTier stores recency records in a sharded in-memory sturdyc cache.
// This is the default shared tier: records written by any request are
// visible to every other request in the process.
//
// Version compatibility note: this implementation assumes sturdyc v1.x API.
type SturdycTier struct {
	client *sturdyc.Client[record]
	now    func() time.Time
}

var _ recency.Tier = (*SturdycTier)(nil)

// NewSturdycTier creates a sturdyc-backed tier from the provided config.
func NewSturdycTier(cfg Config) (*SturdycTier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[record](
		cfg.Capacity,
		cfg.NumShards,
		cfg.BackstopTTL,
		cfg.EvictionPercentage,
	)

	return &SturdycTier{
		client: client,
		now:    time.Now,
	}, nil
}

// Put implements recency.Tier. A second Put for the same pair overwrites the
// earlier record.
func (t *SturdycTier) Put(_ context.Context, entityType, id string, kind recency.EventKind, ttl time.Duration) error {
	t.client.Set(tierKey(entityType, id), record{
		Kind:      kind,
		ExpiresAt: t.now().Add(ttl),
	})
	return nil
}

// Remove implements recency.Tier.
func (t *SturdycTier) Remove(_ context.Context, entityType, id string) error {
	t.client.Delete(tierKey(entityType, id))
	return nil
}

// ListLive implements recency.Tier. Records past their deadline are skipped
// even if the backend has not evicted them yet.
func (t *SturdycTier) ListLive(_ context.Context, entityType string) (map[string]recency.EventKind, error) {
	prefix := typePrefix(entityType)
	now := t.now()

	live := make(map[string]recency.EventKind)
	for _, key := range t.client.ScanKeys() {
		id, ok := idFromKey(key, prefix)
		if !ok {
			continue
		}
		rec, ok := t.client.Get(key)
		if !ok || rec.expired(now) {
			continue
		}
		live[id] = rec.Kind
	}
	return live, nil
}
