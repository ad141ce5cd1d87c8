package pg

import (
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/pkg/errors"
)

// StorageType defines how a collection is stored
type StorageType int

const (
	// StorageEmbedded means the collection is a PostgreSQL array column of the parent table
	StorageEmbedded StorageType = iota
	// StorageRelational means the collection is stored in a separate table
	StorageRelational
)

// ForeignKeyPair represents a single FK column mapping
type ForeignKeyPair struct {
	// ChildColumn is the column in the child table (e.g., "user_id", "tenant_id")
	ChildColumn string
	// ParentColumn is the column in the parent table (e.g., "id", "tenant_id")
	ParentColumn string
}

// CollectionMapping defines how a collection field maps to storage
type CollectionMapping struct {
	// Storage defines whether the collection is an array column or a separate table
	Storage StorageType

	// Table is the name of the child table (only for StorageRelational)
	Table string

	// ForeignKeys defines the FK relationship (supports composite keys)
	ForeignKeys []ForeignKeyPair

	// Alias is an optional join alias prefix (defaults to the singularized table or column name)
	Alias string

	// ValueColumn holds the element of a collection of basic values stored in a
	// separate table. Defaults to "value".
	ValueColumn string

	// Target maps the columns and collections of composite elements. Optional.
	Target *SchemaRegistry
}

// SchemaRegistry maps one entity or element type to its storage
type SchemaRegistry struct {
	// Table is the main table name (e.g., "users")
	Table string

	// Alias is used for the table in queries (e.g., "u" for "users AS u")
	Alias string

	// columns maps a dotted Go field path (e.g., "Address.City") to its column
	columns map[string]string

	// collections maps collection field name to its mapping
	collections map[string]CollectionMapping
}

// NewSchemaRegistry creates a new SchemaRegistry for a table
func NewSchemaRegistry(table string) *SchemaRegistry {
	return &SchemaRegistry{
		Table:       table,
		columns:     make(map[string]string),
		collections: make(map[string]CollectionMapping),
	}
}

// WithAlias sets the table alias
func (r *SchemaRegistry) WithAlias(alias string) *SchemaRegistry {
	r.Alias = alias
	return r
}

// MapColumn overrides the column of the field at the dotted Go field path
func (r *SchemaRegistry) MapColumn(fieldPath, column string) *SchemaRegistry {
	r.columns[fieldPath] = column
	return r
}

// RegisterEmbedded registers a collection stored as an array column
func (r *SchemaRegistry) RegisterEmbedded(fieldName string) *SchemaRegistry {
	r.collections[fieldName] = CollectionMapping{
		Storage: StorageEmbedded,
	}
	return r
}

// RegisterRelational registers a collection stored in a separate table with simple FK
func (r *SchemaRegistry) RegisterRelational(fieldName, table, childColumn, parentColumn string) *SchemaRegistry {
	r.collections[fieldName] = CollectionMapping{
		Storage: StorageRelational,
		Table:   table,
		ForeignKeys: []ForeignKeyPair{
			{ChildColumn: childColumn, ParentColumn: parentColumn},
		},
	}
	return r
}

// RegisterRelationalComposite registers a collection with composite FK
func (r *SchemaRegistry) RegisterRelationalComposite(fieldName, table string, foreignKeys []ForeignKeyPair) *SchemaRegistry {
	r.collections[fieldName] = CollectionMapping{
		Storage:     StorageRelational,
		Table:       table,
		ForeignKeys: foreignKeys,
	}
	return r
}

// Register registers a collection with full mapping configuration
func (r *SchemaRegistry) Register(fieldName string, mapping CollectionMapping) *SchemaRegistry {
	r.collections[fieldName] = mapping
	return r
}

// Get returns the collection mapping for a field name
func (r *SchemaRegistry) Get(fieldName string) (CollectionMapping, bool) {
	if r == nil {
		return CollectionMapping{}, false
	}
	mapping, ok := r.collections[fieldName]
	return mapping, ok
}

// Ref returns the reference to the table (alias or table name)
func (r *SchemaRegistry) Ref() string {
	if r.Alias != "" {
		return r.Alias
	}
	return r.Table
}

// column returns the column of the field at fieldPath. Without an override it is
// the db tag of every segment, or the snake_cased field name, joined by "_".
func (r *SchemaRegistry) column(owner reflect.Type, fieldPath []string) string {
	key := strings.Join(fieldPath, ".")
	if r != nil {
		if column, ok := r.columns[key]; ok {
			return column
		}
	}
	parts := make([]string, 0, len(fieldPath))
	t := owner
	for _, name := range fieldPath {
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		f, ok := t.FieldByName(name)
		if !ok {
			parts = append(parts, snakeCase(name))
			continue
		}
		parts = append(parts, columnOf(f))
		t = f.Type
	}
	return strings.Join(parts, "_")
}

func columnOf(f reflect.StructField) string {
	if tag, _, _ := strings.Cut(f.Tag.Get("db"), ","); tag != "" && tag != "-" {
		return tag
	}
	return snakeCase(f.Name)
}

// persistent reports whether the field has a column at all.
func persistent(f reflect.StructField) bool {
	return f.Tag.Get("db") != "-"
}

func snakeCase(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Schema maps entity types to their registries.
type Schema struct {
	mu         sync.RWMutex
	registries map[reflect.Type]*SchemaRegistry
}

func NewSchema() *Schema {
	return &Schema{registries: make(map[reflect.Type]*SchemaRegistry)}
}

// Map registers the storage of the entity type of sample, a struct or a pointer to one.
func (s *Schema) Map(sample any, registry *SchemaRegistry) *Schema {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registries[indirect(reflect.TypeOf(sample))] = registry
	return s
}

func (s *Schema) registry(t reflect.Type) (*SchemaRegistry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	registry, ok := s.registries[indirect(t)]
	if !ok {
		return nil, errors.Errorf("pg: %s is not mapped to a table", t)
	}
	return registry, nil
}

func indirect(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
