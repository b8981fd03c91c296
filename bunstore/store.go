// Package bunstore adapts a bun-compatible SQL database to the
// overlay.Store contract. Entity types are mapped to bun models through
// explicit registration; keys-only selects and identifier-bounded fetches
// are translated to ordinary SELECT statements. Query filters and ordering
// terms name Go struct fields, which the adapter resolves to SQL columns
// through bun's model metadata.
package bunstore

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-consistency/overlay"
)

const defaultIDColumn = "id"

// Model describes how one entity type maps onto a bun model.
type Model struct {
	// Zero is a typed nil pointer to the model struct, e.g. (*User)(nil).
	// It carries table metadata for keys-only selects without allocating.
	Zero any

	// NewList returns a pointer to an empty slice of the model type, e.g.
	// func() any { return &[]*User{} }. Fetches scan into it.
	NewList func() any

	// IDColumn overrides the primary key column name. Defaults to "id".
	IDColumn string
}

func (m Model) idColumn() string {
	if m.IDColumn != "" {
		return m.IDColumn
	}
	return defaultIDColumn
}

// Store implements overlay.Store on top of a bun.IDB.
type Store struct {
	db     bun.IDB
	mu     sync.RWMutex
	models map[string]Model
}

var _ overlay.Store = (*Store)(nil)

// New creates a Store. Models must be registered before the first query.
func New(db bun.IDB) *Store {
	return &Store{
		db:     db,
		models: make(map[string]Model),
	}
}

// Register maps an entity type to its bun model.
func (s *Store) Register(entityType string, m Model) error {
	if entityType == "" {
		return fmt.Errorf("bunstore: entity type cannot be empty")
	}
	if m.Zero == nil || m.NewList == nil {
		return fmt.Errorf("bunstore: model for %q requires Zero and NewList", entityType)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.models[entityType]; exists {
		return fmt.Errorf("bunstore: entity type %q already registered", entityType)
	}
	s.models[entityType] = m
	return nil
}

func (s *Store) model(entityType string) (Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.models[entityType]
	if !ok {
		return Model{}, fmt.Errorf("bunstore: no model registered for entity type %q", entityType)
	}
	return m, nil
}

// SelectIDs implements overlay.Store with a keys-only SELECT.
func (s *Store) SelectIDs(ctx context.Context, q overlay.Query) ([]string, error) {
	m, err := s.model(q.EntityType)
	if err != nil {
		return nil, err
	}

	sel := s.db.NewSelect().Model(m.Zero).Column(m.idColumn())
	for _, f := range q.Filters {
		col, err := s.column(m, f.Field)
		if err != nil {
			return nil, err
		}
		sel = sel.Where("? = ?", bun.Ident(col), f.Value)
	}

	var ids []string
	if err := sel.Scan(ctx, &ids); err != nil {
		return nil, fmt.Errorf("bunstore: selecting ids for %q: %w", q.EntityType, err)
	}
	return ids, nil
}

// FetchByIDs implements overlay.Store with an IN select. Identifiers absent
// from the table simply produce no row, which gives the silent-skip
// semantics the overlay relies on.
func (s *Store) FetchByIDs(ctx context.Context, entityType string, ids []string, order []overlay.Order) ([]any, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	m, err := s.model(entityType)
	if err != nil {
		return nil, err
	}

	list := m.NewList()
	sel := s.db.NewSelect().Model(list).Where("? IN (?)", bun.Ident(m.idColumn()), bun.In(ids))
	for _, o := range order {
		col, err := s.column(m, o.Field)
		if err != nil {
			return nil, err
		}
		if o.Desc {
			sel = sel.OrderExpr("? DESC", bun.Ident(col))
		} else {
			sel = sel.OrderExpr("? ASC", bun.Ident(col))
		}
	}
	if err := sel.Scan(ctx); err != nil {
		return nil, fmt.Errorf("bunstore: fetching %q by ids: %w", entityType, err)
	}
	return itemsOf(list), nil
}

// column resolves a Go struct field name from a query to the model's SQL
// column, so bun tags stay the single source of truth for column naming.
func (s *Store) column(m Model, field string) (string, error) {
	typ := reflect.TypeOf(m.Zero)
	for typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}

	table := s.db.Dialect().Tables().Get(typ)
	for _, f := range table.Fields {
		if f.GoName == field {
			return f.Name, nil
		}
	}
	return "", fmt.Errorf("bunstore: model %s has no field %q", typ.Name(), field)
}

// itemsOf flattens *[]T into []any.
func itemsOf(listPtr any) []any {
	v := reflect.ValueOf(listPtr)
	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Slice {
		return nil
	}

	items := make([]any, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		items = append(items, v.Index(i).Interface())
	}
	return items
}
