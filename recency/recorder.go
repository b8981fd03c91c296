package recency

import (
	"context"

	"github.com/rs/zerolog"
)

// Recorder reacts to lifecycle events by writing recency records into the
// tiers configured for the instance's entity type.
//
// Event handlers run synchronously after the triggering write has committed,
// so they never return errors: a failed tier write degrades correctness by
// one missed identifier, while failing the host's write path would turn a
// caching side effect into an outage. Failures are logged and swallowed.
type Recorder struct {
	resolver *Resolver
	log      zerolog.Logger
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithRecorderLogger sets the logger used for swallowed failures.
func WithRecorderLogger(log zerolog.Logger) RecorderOption {
	return func(r *Recorder) {
		r.log = log
	}
}

// NewRecorder builds a Recorder on top of a resolved configuration.
func NewRecorder(resolver *Resolver, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		resolver: resolver,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnCreated records the instance's identifier as recently created, unless
// creation caching is disabled for its type or no configured predicate
// matches.
func (r *Recorder) OnCreated(ctx context.Context, instance any) {
	r.record(ctx, instance, EventCreated)
}

// OnModified records the instance's identifier as recently modified, gated
// by the type's cache_on_modification flag and predicates.
func (r *Recorder) OnModified(ctx context.Context, instance any) {
	r.record(ctx, instance, EventModified)
}

// OnDeleted records a deletion mask for the instance's identifier. Deletion
// recording is unconditional: masking must work even when creation and
// modification caching are disabled, otherwise a lagging query keeps
// resurfacing deleted rows. The mask carries the type's cache_time TTL so it
// expires with the store's inconsistency window.
func (r *Recorder) OnDeleted(ctx context.Context, instance any) {
	r.record(ctx, instance, EventDeleted)
}

func (r *Recorder) record(ctx context.Context, instance any, kind EventKind) {
	entityType := EntityTypeOf(instance)
	if entityType == "" {
		r.log.Error().Str("kind", kind.String()).
			Msgf("recency: cannot derive entity type for %T", instance)
		return
	}

	cfg := r.resolver.Resolve(entityType)
	switch kind {
	case EventCreated:
		if !cfg.CacheOnCreation {
			return
		}
	case EventModified:
		if !cfg.CacheOnModification {
			return
		}
	}

	if kind != EventDeleted {
		ok, err := matchesAny(instance, cfg.OnlyCacheMatching)
		if err != nil {
			r.log.Error().Err(err).Str("entity_type", entityType).
				Msg("recency: predicate evaluation failed")
		}
		if !ok {
			return
		}
	}

	id, err := Identify(instance)
	if err != nil {
		r.log.Error().Err(err).Str("entity_type", entityType).
			Str("kind", kind.String()).Msg("recency: cannot identify instance")
		return
	}

	// Fan-out is independent and unordered; a tier that fails does not
	// affect the others and is not retried.
	registry := r.resolver.Registry()
	for _, name := range cfg.Tiers {
		tier, ok := registry.Lookup(name)
		if !ok {
			// Unreachable after resolver validation, kept as a guard.
			r.log.Warn().Str("tier", name).Msg("recency: tier disappeared from registry")
			continue
		}
		if err := tier.Put(ctx, entityType, id, kind, cfg.CacheTime); err != nil {
			r.log.Warn().Err(err).Str("tier", name).Str("entity_type", entityType).
				Str("id", id).Str("kind", kind.String()).
				Msg("recency: tier write failed")
		}
	}
}

// Hooks bundles the lifecycle callbacks for the host application to wire
// into its own write path. The host must invoke each hook exactly once per
// committed write, after the commit, with the fully populated instance.
type Hooks struct {
	OnCreated  func(ctx context.Context, instance any)
	OnModified func(ctx context.Context, instance any)
	OnDeleted  func(ctx context.Context, instance any)
}

// Hooks returns the recorder's callbacks as an explicit registration value;
// there is no implicit global signal mechanism.
func (r *Recorder) Hooks() Hooks {
	return Hooks{
		OnCreated:  r.OnCreated,
		OnModified: r.OnModified,
		OnDeleted:  r.OnDeleted,
	}
}
