package pg

import (
	"reflect"
	"testing"

	"github.com/google/uuid"

	search "github.com/krew-solutions/omnisearch-go/omnisearch/search/domain"
	sqlspec "github.com/krew-solutions/omnisearch-go/omnisearch/specification/infrastructure"
)

type item struct {
	Title string `db:"title"`
	Price int
}

type store struct {
	ID       uuid.UUID `db:"id"`
	TenantID int       `db:"tenant_id"`
	Items    []item
	Tags     []string `omnisearch:"collection"`
	Labels   []string `omnisearch:"collection"`
}

func TestSnakeCase(t *testing.T) {
	tests := map[string]string{
		"Name":       "name",
		"ID":         "id",
		"UserID":     "user_id",
		"CreatedIn":  "created_in",
		"HTTPServer": "http_server",
	}
	for name, expected := range tests {
		if got := snakeCase(name); got != expected {
			t.Errorf("snakeCase(%q): expected %q, got %q", name, expected, got)
		}
	}
}

func storeQuery(t *testing.T, registry *SchemaRegistry) *query {
	t.Helper()
	q, err := NewBackend(NewSchema().Map(store{}, registry), nil).NewQuery(reflect.TypeOf(store{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return q.(*query)
}

func TestSchemaRegistry_RelationalCompositeFK(t *testing.T) {
	registry := NewSchemaRegistry("stores").
		WithAlias("s").
		RegisterRelationalComposite("Items", "items", []ForeignKeyPair{
			{ChildColumn: "tenant_id", ParentColumn: "tenant_id"},
			{ChildColumn: "store_id", ParentColumn: "id"},
		})
	q := storeQuery(t, registry)

	join, err := q.Root().Join("Items")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	price, err := join.Get("Price")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expectedClause := "items AS item_1 ON item_1.tenant_id = s.tenant_id AND item_1.store_id = s.id"
	if clause := q.joins[0].clause; clause != expectedClause {
		t.Errorf("unexpected clause:\nexpected: %s\ngot:      %s", expectedClause, clause)
	}
	sql, _, err := sqlspec.Compile(price.Expression())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sql != "item_1.price" {
		t.Errorf("unexpected column: %s", sql)
	}
}

func TestSchemaRegistry_ElementCollections(t *testing.T) {
	registry := NewSchemaRegistry("stores").
		RegisterEmbedded("Tags").
		Register("Labels", CollectionMapping{
			Storage:     StorageRelational,
			Table:       "store_labels",
			ForeignKeys: []ForeignKeyPair{{ChildColumn: "store_id", ParentColumn: "id"}},
			Alias:       "label",
			ValueColumn: "label",
		})
	q := storeQuery(t, registry)

	tags, err := q.Root().Join("Tags")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	labels, err := q.Root().Join("labels")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []string{
		"LATERAL unnest(stores.tags) AS tag_1(value) ON TRUE",
		"store_labels AS label_2 ON label_2.store_id = stores.id",
	}
	for i, j := range q.joins {
		if j.clause != expected[i] {
			t.Errorf("unexpected clause %d:\nexpected: %s\ngot:      %s", i, expected[i], j.clause)
		}
	}
	for from, column := range map[search.From]string{tags: "tag_1.value", labels: "label_2.label"} {
		sql, _, err := sqlspec.Compile(from.Expression())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sql != column {
			t.Errorf("expected %s, got %s", column, sql)
		}
	}
	if _, err := tags.Get("Anything"); err == nil {
		t.Error("basic elements have no fields")
	}
}

func TestSchemaRegistry_Unmapped(t *testing.T) {
	q := storeQuery(t, NewSchemaRegistry("stores"))

	if _, err := q.Root().Join("Items"); err == nil {
		t.Error("expected an error for an unmapped collection")
	}
	if _, err := q.Root().Join("TenantID"); err == nil {
		t.Error("expected an error for a join of a scalar field")
	}
	if _, err := q.Root().Get("Items"); err == nil {
		t.Error("expected an error for a collection read as a column")
	}
	if len(q.joins) != 0 {
		t.Errorf("expected no joins, got %d", len(q.joins))
	}
}
