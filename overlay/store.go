package overlay

import "context"

// Store is the backing-store driver contract. The augmentor needs exactly
// two capabilities from the store: a keys-only execution of a query, and an
// identifier-bounded fetch of fully populated instances.
//
// Store errors are propagated to the augmentor's caller unchanged; the
// overlay adds no retry logic of its own.
//
// Implementations must interpret Filter.Field and Order.Field as Go struct
// field names, translating them to their own column naming as needed, so
// that store-side filtering and the augmentor's in-memory filtering agree.
type Store interface {
	// SelectIDs executes the query's predicate against the store and
	// returns only the matching identifiers, in store order. This is the
	// lightweight keys-only fetch.
	SelectIDs(ctx context.Context, q Query) ([]string, error)

	// FetchByIDs returns the fully populated instances for the given
	// identifiers (IN semantics), applying the requested ordering.
	// Identifiers that no longer exist in the store are silently skipped,
	// never reported as an error: a recency record can outlive its
	// instance when a deletion raced the tiers.
	FetchByIDs(ctx context.Context, entityType string, ids []string, order []Order) ([]any, error)
}
