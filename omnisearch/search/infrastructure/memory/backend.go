// Package memory runs searches over Go slices by evaluating the predicate of a
// query against every record. Joins expand a record into one row per combination
// of joined elements; a record matches when any of its rows does.
package memory

import (
	"reflect"
	"sync"

	"github.com/pkg/errors"

	search "github.com/krew-solutions/omnisearch-go/omnisearch/search/domain"
	"github.com/krew-solutions/omnisearch-go/omnisearch/specification/domain/operators"
)

type Option func(*Backend)

// WithRegistry replaces the operators predicates are evaluated with.
func WithRegistry(registry *operators.OperatorRegistry) Option {
	return func(b *Backend) {
		b.registry = registry
	}
}

type Backend struct {
	mu       sync.RWMutex
	records  map[reflect.Type][]reflect.Value
	registry *operators.OperatorRegistry
}

func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		records:  make(map[reflect.Type][]reflect.Value),
		registry: operators.NewDefaultRegistry(),
	}
	for i := range opts {
		opts[i](b)
	}
	return b
}

// Register adds the elements of records, a slice of structs or of struct pointers,
// to the records of their type.
func (b *Backend) Register(records any) error {
	v := reflect.ValueOf(records)
	if v.Kind() != reflect.Slice {
		return errors.Errorf("memory: expected a slice of records, got %T", records)
	}
	entityType := indirect(v.Type().Elem())
	if entityType.Kind() != reflect.Struct {
		return errors.Errorf("memory: records must be structs, got %s", v.Type().Elem())
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := 0; i < v.Len(); i++ {
		record := reflect.Indirect(v.Index(i))
		if !record.IsValid() {
			continue
		}
		b.records[entityType] = append(b.records[entityType], record)
	}
	return nil
}

func (b *Backend) NewQuery(entityType reflect.Type) (search.Query, error) {
	entityType = indirect(entityType)
	if entityType.Kind() != reflect.Struct {
		return nil, errors.Wrapf(search.ErrInvalidDestination, "memory: %s is not an entity type", entityType)
	}
	b.mu.RLock()
	records := append([]reflect.Value(nil), b.records[entityType]...)
	b.mu.RUnlock()
	q := &query{
		entityType: entityType,
		records:    records,
		registry:   b.registry,
		limit:      -1,
	}
	q.root = &root{query: q}
	return q, nil
}

func indirect(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
