// Package recency tracks identifiers of recently created, modified, and
// deleted instances so that queries against an eventually-consistent backing
// store can be corrected while the store catches up.
//
// # Overview
//
// The package exports four cooperating pieces:
//
//   - Tier: a best-effort key/value backend with TTL expiry, registered by
//     name in a TierRegistry
//   - Config / Resolver: per-entity-type configuration (what to record, for
//     how long, into which tiers), merged from defaults plus overrides
//   - Recorder: lifecycle-event handlers that write recency records into the
//     configured tiers
//   - Predicate: optional FieldMatch / PredicateFunc filters restricting
//     which instances get recorded
//
// Concrete tier backends live in internal/tierinfra and are wired through
// pkg/di. The query-side consumer of recency records is the overlay package.
//
// # Guarantees and non-guarantees
//
// Recency records are advisory. A tier may evict, restart, or fail a write
// at any point; the recorder logs and swallows every tier error so the
// host's write path is never blocked by the cache. The only invariant tiers
// must keep is one live record per (entity type, identifier): a later event
// overwrites an earlier one, last write wins.
//
// # Wiring
//
// The host registers the recorder's hooks into its own write path and calls
// them synchronously after each commit:
//
//	hooks := recorder.Hooks()
//	// after INSERT commits:
//	hooks.OnCreated(ctx, &user)
//	// after UPDATE commits:
//	hooks.OnModified(ctx, &user)
//	// after DELETE commits:
//	hooks.OnDeleted(ctx, &user)
package recency
