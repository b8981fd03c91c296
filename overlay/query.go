package overlay

// Filter is one equality constraint of a query. Filters are AND-combined.
// Field names the Go struct field of the entity, not a storage column;
// Store implementations translate it to their native naming. Keeping one
// convention means a query behaves the same whether its filters run in the
// store or in memory.
type Filter struct {
	Field string
	Value any
}

// Order is one ordering term of a query. Field follows the same Go struct
// field naming as Filter.
type Order struct {
	Field string
	Desc  bool
}

// Query describes an already-constructed query scoped to one entity type.
// It is a plain value: building one performs no I/O, the Store executes it.
type Query struct {
	EntityType string
	Filters    []Filter
	Order      []Order
}

// NewQuery starts a query for the given entity type.
func NewQuery(entityType string) Query {
	return Query{EntityType: entityType}
}

// Where appends an equality constraint. The receiver is copied, so queries
// can be built up and shared without aliasing.
func (q Query) Where(field string, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Value: value})
	return q
}

// OrderBy appends an ascending ordering term.
func (q Query) OrderBy(field string) Query {
	q.Order = append(append([]Order(nil), q.Order...), Order{Field: field})
	return q
}

// OrderByDesc appends a descending ordering term.
func (q Query) OrderByDesc(field string) Query {
	q.Order = append(append([]Order(nil), q.Order...), Order{Field: field, Desc: true})
	return q
}
