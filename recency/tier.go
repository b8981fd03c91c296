package recency

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// DefaultTierName is the tier used when neither the defaults block nor a
// per-type override configures an explicit tier list.
const DefaultTierName = "memory"

// Tier is a single recency-record backend: a key/value store with TTL
// support. Implementations must honor expiry transparently (an expired
// record is absent from ListLive without an explicit Remove) and must be
// safe for concurrent single-key use.
//
// All tier operations are best-effort. A tier may evict or silently fail
// under pressure; callers must never treat a write as durable.
type Tier interface {
	// Put records the latest event kind for an identifier, replacing any
	// earlier record for the same (entityType, id) pair.
	Put(ctx context.Context, entityType, id string, kind EventKind, ttl time.Duration) error

	// Remove drops the record for an identifier, if present.
	Remove(ctx context.Context, entityType, id string) error

	// ListLive returns every unexpired identifier recorded for the entity
	// type, mapped to its most recent event kind.
	ListLive(ctx context.Context, entityType string) (map[string]EventKind, error)
}

// TierRegistry maps tier names to implementations. Configuration selects
// tiers by name; unknown names are rejected when the resolver is built.
type TierRegistry struct {
	mu    sync.RWMutex
	tiers map[string]Tier
}

// NewTierRegistry returns an empty registry.
func NewTierRegistry() *TierRegistry {
	return &TierRegistry{tiers: make(map[string]Tier)}
}

// Register adds a named tier. Registering the same name twice is an error;
// tiers are wired once at startup, not hot-swapped.
func (r *TierRegistry) Register(name string, tier Tier) error {
	if name == "" {
		return fmt.Errorf("recency: tier name cannot be empty")
	}
	if tier == nil {
		return fmt.Errorf("recency: tier %q cannot be nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tiers[name]; exists {
		return fmt.Errorf("recency: tier %q already registered", name)
	}
	r.tiers[name] = tier
	return nil
}

// Lookup returns the tier registered under name.
func (r *TierRegistry) Lookup(name string) (Tier, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tier, ok := r.tiers[name]
	return tier, ok
}

// Names returns the registered tier names in sorted order.
func (r *TierRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tiers))
	for name := range r.tiers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
