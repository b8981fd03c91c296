package overlay

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-consistency/recency"
)

// MaxIdentifierBatch caps how many identifiers a corrected result set may
// contain; it matches the backing store's IN-fetch limit. When the cap is
// hit, confirmed matches are kept in preference to unverified recency
// candidates, so recency records lost to truncation are an accepted
// approximation rather than an error.
const MaxIdentifierBatch = 1000

// Augmentor reconciles backing-store query results against the recency
// tiers. It is a read-only consumer of recency records; staleness is purely
// TTL-driven and records are never re-validated against the store.
type Augmentor struct {
	store    Store
	resolver *recency.Resolver
	log      zerolog.Logger
	maxBatch int
}

// Option configures an Augmentor.
type Option func(*Augmentor)

// WithLogger sets the logger used for swallowed tier failures.
func WithLogger(log zerolog.Logger) Option {
	return func(a *Augmentor) {
		a.log = log
	}
}

// WithMaxIdentifierBatch overrides the identifier cap, for stores configured
// with a different IN-fetch limit.
func WithMaxIdentifierBatch(n int) Option {
	return func(a *Augmentor) {
		if n > 0 {
			a.maxBatch = n
		}
	}
}

// NewAugmentor builds an Augmentor over a backing store and a resolved
// recency configuration.
func NewAugmentor(store Store, resolver *recency.Resolver, opts ...Option) (*Augmentor, error) {
	if store == nil {
		return nil, fmt.Errorf("overlay: augmentor requires a store")
	}
	if resolver == nil {
		return nil, fmt.Errorf("overlay: augmentor requires a resolver")
	}

	a := &Augmentor{
		store:    store,
		resolver: resolver,
		log:      zerolog.Nop(),
		maxBatch: MaxIdentifierBatch,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// ImproveQuerysetConsistency executes q against the backing store and
// corrects the result with the recency tiers: recently written identifiers
// are merged in, recently deleted ones are masked out, and every returned
// instance is re-fetched by identifier so it reflects the latest version.
//
// The original query is always executed at least once (keys-only) even if
// the caller never looks at the result; correctness is bought eagerly here.
// Note that merged-in candidates are unverified against the query's
// predicate, so the corrected set can contain instances the predicate would
// not match once the store catches up.
func (a *Augmentor) ImproveQuerysetConsistency(ctx context.Context, q Query) ([]any, error) {
	cfg := a.resolver.Resolve(q.EntityType)
	live := a.liveRecords(ctx, q.EntityType, cfg)
	candidates, deleted := partition(live)

	matched, err := a.store.SelectIDs(ctx, q)
	if err != nil {
		return nil, err
	}

	ids := a.mergeIDs(matched, candidates, deleted)
	if len(ids) == 0 {
		return nil, nil
	}
	return a.store.FetchByIDs(ctx, q.EntityType, ids, q.Order)
}

// GetRecentObjects returns only the recently written instances that match
// q's filters, for callers that combine them with a separately executed
// query. The query's predicate is evaluated in memory against candidates
// fetched by identifier; the store's own predicate evaluator is never
// invoked, so calling this has no query side effects.
func (a *Augmentor) GetRecentObjects(ctx context.Context, q Query) ([]any, error) {
	cfg := a.resolver.Resolve(q.EntityType)
	live := a.liveRecords(ctx, q.EntityType, cfg)
	candidates, deleted := partition(live)

	ids := make([]string, 0, len(candidates))
	for id := range candidates {
		if _, masked := deleted[id]; masked {
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	sort.Strings(ids)
	if len(ids) > a.maxBatch {
		ids = ids[:a.maxBatch]
	}

	instances, err := a.store.FetchByIDs(ctx, q.EntityType, ids, q.Order)
	if err != nil {
		return nil, err
	}

	matching := make([]any, 0, len(instances))
	for _, instance := range instances {
		ok, err := a.matchesFilters(instance, q.Filters)
		if err != nil {
			a.log.Warn().Err(err).Str("entity_type", q.EntityType).
				Msg("overlay: in-memory filter failed, dropping candidate")
			continue
		}
		if ok {
			matching = append(matching, instance)
		}
	}
	return matching, nil
}

// liveRecords reads the configured tiers in order and returns the first
// result obtained without error: a fallback chain, not a merge, so a slow or
// failing tier never taints a healthy one's answer. When every tier fails
// the overlay degrades to the empty live set rather than surfacing an error.
func (a *Augmentor) liveRecords(ctx context.Context, entityType string, cfg recency.EntityConfig) map[string]recency.EventKind {
	registry := a.resolver.Registry()
	for _, name := range cfg.Tiers {
		tier, ok := registry.Lookup(name)
		if !ok {
			a.log.Warn().Str("tier", name).Msg("overlay: tier disappeared from registry")
			continue
		}
		live, err := tier.ListLive(ctx, entityType)
		if err != nil {
			a.log.Warn().Err(err).Str("tier", name).Str("entity_type", entityType).
				Msg("overlay: tier read failed, falling back")
			continue
		}
		return live
	}
	return nil
}

// mergeIDs computes (matched ∪ candidates) − deleted, capped at maxBatch.
// Matched identifiers keep their store order and win over candidates when
// trimming; candidates are appended in sorted order so truncation stays
// deterministic.
func (a *Augmentor) mergeIDs(matched []string, candidates, deleted map[string]recency.EventKind) []string {
	ids := make([]string, 0, len(matched)+len(candidates))
	seen := make(map[string]struct{}, len(matched)+len(candidates))

	for _, id := range matched {
		if _, masked := deleted[id]; masked {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
		if len(ids) == a.maxBatch {
			return ids
		}
	}

	extra := make([]string, 0, len(candidates))
	for id := range candidates {
		if _, masked := deleted[id]; masked {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		extra = append(extra, id)
	}
	sort.Strings(extra)

	for _, id := range extra {
		ids = append(ids, id)
		if len(ids) == a.maxBatch {
			break
		}
	}
	return ids
}

// matchesFilters AND-combines q's equality filters against an instance,
// using the same field evaluation as recency.FieldMatch.
func (a *Augmentor) matchesFilters(instance any, filters []Filter) (bool, error) {
	for _, f := range filters {
		ok, err := recency.FieldMatch{f.Field: f.Value}.Match(instance)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// partition splits live records into merge candidates (created/modified) and
// the deletion mask.
func partition(live map[string]recency.EventKind) (candidates, deleted map[string]recency.EventKind) {
	candidates = make(map[string]recency.EventKind)
	deleted = make(map[string]recency.EventKind)
	for id, kind := range live {
		if kind == recency.EventDeleted {
			deleted[id] = kind
		} else {
			candidates[id] = kind
		}
	}
	return candidates, deleted
}
