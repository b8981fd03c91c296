// Package overlay corrects query results from an eventually-consistent
// backing store using the recency records maintained by package recency.
//
// # Overview
//
// An eventually-consistent store can return query results that miss a write
// committed moments ago, or still include a row deleted moments ago. The
// Augmentor narrows that window on a best-effort basis with two operations:
//
//   - ImproveQuerysetConsistency: executes the query keys-only, merges in
//     recently created/modified identifiers, masks out recently deleted
//     ones, and re-fetches everything by identifier for a fully corrected
//     result set
//   - GetRecentObjects: returns only the recent instances matching the
//     query's filters, evaluated in memory, for callers that combine them
//     with their own separately executed query
//
// # What the overlay does not promise
//
// Correction is best-effort. Recency records live in cache tiers that may
// evict or fail; a missing record simply means the corresponding identifier
// is not corrected until the store catches up on its own. Merged-in
// candidates are not re-verified against the query predicate, and result
// sets are capped at MaxIdentifierBatch with confirmed matches preferred
// over candidates. None of these outcomes are reported as errors; only
// backing-store failures propagate to the caller.
//
// # Backing stores
//
// The Store interface is deliberately small: keys-only select plus
// identifier-bounded fetch. Package bunstore adapts any bun-compatible SQL
// database; other stores implement the two methods directly.
package overlay
