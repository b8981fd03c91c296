package bunstore

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-consistency/overlay"
	"github.com/goliatone/go-consistency/recency"
)

type Pet struct {
	bun.BaseModel `bun:"table:pets"`

	ID    string `bun:"id,pk"`
	Name  string `bun:"name"`
	Color string `bun:"color"`
	Age   int    `bun:"age"`
}

func newTestStore(t *testing.T) (*Store, *bun.DB) {
	t.Helper()

	sqldb, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqldb.SetMaxOpenConns(1)
	t.Cleanup(func() { sqldb.Close() })

	db := bun.NewDB(sqldb, sqlitedialect.New())
	if _, err := db.NewCreateTable().Model((*Pet)(nil)).Exec(context.Background()); err != nil {
		t.Fatalf("create table: %v", err)
	}

	store := New(db)
	err = store.Register("pet", Model{
		Zero:    (*Pet)(nil),
		NewList: func() any { return &[]*Pet{} },
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return store, db
}

func seedPets(t *testing.T, db *bun.DB, pets ...*Pet) {
	t.Helper()
	if _, err := db.NewInsert().Model(&pets).Exec(context.Background()); err != nil {
		t.Fatalf("seed pets: %v", err)
	}
}

func TestSelectIDs(t *testing.T) {
	store, db := newTestStore(t)
	seedPets(t, db,
		&Pet{ID: "p1", Name: "rex", Color: "brown", Age: 4},
		&Pet{ID: "p2", Name: "milo", Color: "black", Age: 2},
		&Pet{ID: "p3", Name: "luna", Color: "black", Age: 7},
	)

	ids, err := store.SelectIDs(context.Background(), overlay.NewQuery("pet").Where("Color", "black"))
	if err != nil {
		t.Fatalf("SelectIDs: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %v", ids)
	}
	got := map[string]bool{}
	for _, id := range ids {
		got[id] = true
	}
	if !got["p2"] || !got["p3"] {
		t.Fatalf("expected p2 and p3, got %v", ids)
	}
}

func TestSelectIDs_NoFilters(t *testing.T) {
	store, db := newTestStore(t)
	seedPets(t, db, &Pet{ID: "p1", Name: "rex"}, &Pet{ID: "p2", Name: "milo"})

	ids, err := store.SelectIDs(context.Background(), overlay.NewQuery("pet"))
	if err != nil {
		t.Fatalf("SelectIDs: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected all ids, got %v", ids)
	}
}

func TestFetchByIDs(t *testing.T) {
	store, db := newTestStore(t)
	seedPets(t, db,
		&Pet{ID: "p1", Name: "rex", Age: 4},
		&Pet{ID: "p2", Name: "milo", Age: 2},
		&Pet{ID: "p3", Name: "luna", Age: 7},
	)

	out, err := store.FetchByIDs(context.Background(), "pet",
		[]string{"p1", "p3", "missing"},
		[]overlay.Order{{Field: "Age", Desc: true}})
	if err != nil {
		t.Fatalf("FetchByIDs: %v", err)
	}

	// Unknown identifiers produce no row; the rest come back ordered.
	if len(out) != 2 {
		t.Fatalf("expected 2 instances, got %d", len(out))
	}
	first, second := out[0].(*Pet), out[1].(*Pet)
	if first.ID != "p3" || second.ID != "p1" {
		t.Fatalf("expected [p3 p1] by age desc, got [%s %s]", first.ID, second.ID)
	}
}

func TestFetchByIDs_Empty(t *testing.T) {
	store, _ := newTestStore(t)

	out, err := store.FetchByIDs(context.Background(), "pet", nil, nil)
	if err != nil {
		t.Fatalf("FetchByIDs: %v", err)
	}
	if out != nil {
		t.Fatalf("expected nil for empty id set, got %v", out)
	}
}

func TestUnknownQueryField(t *testing.T) {
	store, db := newTestStore(t)
	seedPets(t, db, &Pet{ID: "p1"})

	if _, err := store.SelectIDs(context.Background(), overlay.NewQuery("pet").Where("Wingspan", 3)); err == nil {
		t.Error("SelectIDs: expected error for unknown field name")
	}
	if _, err := store.FetchByIDs(context.Background(), "pet", []string{"p1"},
		[]overlay.Order{{Field: "Wingspan"}}); err == nil {
		t.Error("FetchByIDs: expected error for unknown order field")
	}
}

// memTier is a minimal in-memory recency tier for wiring an augmentor over
// the real adapter.
type memTier struct {
	records map[string]map[string]recency.EventKind
}

func (m *memTier) Put(_ context.Context, entityType, id string, kind recency.EventKind, _ time.Duration) error {
	if m.records == nil {
		m.records = make(map[string]map[string]recency.EventKind)
	}
	if m.records[entityType] == nil {
		m.records[entityType] = make(map[string]recency.EventKind)
	}
	m.records[entityType][id] = kind
	return nil
}

func (m *memTier) Remove(_ context.Context, entityType, id string) error {
	delete(m.records[entityType], id)
	return nil
}

func (m *memTier) ListLive(_ context.Context, entityType string) (map[string]recency.EventKind, error) {
	out := make(map[string]recency.EventKind, len(m.records[entityType]))
	for id, kind := range m.records[entityType] {
		out[id] = kind
	}
	return out, nil
}

func TestQueryFieldsAgreeAcrossOperations(t *testing.T) {
	// The same filter must select the instance through the SQL path and
	// through the augmentor's in-memory path; a candidate visible to one
	// but silently dropped by the other would defeat the correction.
	store, db := newTestStore(t)
	seedPets(t, db, &Pet{ID: "p1", Name: "rex", Color: "black"})

	registry := recency.NewTierRegistry()
	if err := registry.Register(recency.DefaultTierName, &memTier{}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	resolver, err := recency.NewResolver(recency.Config{}, registry)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	augmentor, err := overlay.NewAugmentor(store, resolver)
	if err != nil {
		t.Fatalf("NewAugmentor: %v", err)
	}

	ctx := context.Background()
	recency.NewRecorder(resolver).OnCreated(ctx, &Pet{ID: "p1", Color: "black"})

	q := overlay.NewQuery("pet").Where("Color", "black")

	improved, err := augmentor.ImproveQuerysetConsistency(ctx, q)
	if err != nil {
		t.Fatalf("ImproveQuerysetConsistency: %v", err)
	}
	if len(improved) != 1 || improved[0].(*Pet).ID != "p1" {
		t.Fatalf("store-side filter missed the instance: %d results", len(improved))
	}

	recent, err := augmentor.GetRecentObjects(ctx, q)
	if err != nil {
		t.Fatalf("GetRecentObjects: %v", err)
	}
	if len(recent) != 1 || recent[0].(*Pet).ID != "p1" {
		t.Fatalf("in-memory filter dropped the candidate the store-side filter matched: %d results", len(recent))
	}
}

func TestUnregisteredEntityType(t *testing.T) {
	store, _ := newTestStore(t)

	if _, err := store.SelectIDs(context.Background(), overlay.NewQuery("dragon")); err == nil {
		t.Error("SelectIDs: expected error for unregistered entity type")
	}
	if _, err := store.FetchByIDs(context.Background(), "dragon", []string{"d1"}, nil); err == nil {
		t.Error("FetchByIDs: expected error for unregistered entity type")
	}
}

func TestRegisterValidation(t *testing.T) {
	store := New(nil)

	if err := store.Register("", Model{Zero: (*Pet)(nil), NewList: func() any { return &[]*Pet{} }}); err == nil {
		t.Error("expected error for empty entity type")
	}
	if err := store.Register("pet", Model{}); err == nil {
		t.Error("expected error for missing Zero/NewList")
	}
	if err := store.Register("pet", Model{Zero: (*Pet)(nil), NewList: func() any { return &[]*Pet{} }}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := store.Register("pet", Model{Zero: (*Pet)(nil), NewList: func() any { return &[]*Pet{} }}); err == nil {
		t.Error("expected error for duplicate registration")
	}
}
