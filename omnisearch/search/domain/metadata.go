package search

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
)

const (
	tagName         = "omnisearch"
	tagIgnore       = "-"
	tagEmbedded     = "embedded"
	tagCollection   = "collection"
	persistenceTag  = "db"
	nonPersistentDb = "-"
)

// FieldDescriptor describes one searchable field of an entity type.
type FieldDescriptor struct {
	Name string
	Type reflect.Type
	// Index is the reflect index sequence of the field, promoted fields included.
	Index []int
	// Ignorable fields are excluded from search or are not persistent.
	Ignorable bool
	// Embedded composites share the parent row.
	Embedded bool
	// CollectionOfValues fields hold several values per parent and are searched through a join.
	CollectionOfValues bool
	// Relation fields hold other entities and are searched only when joined explicitly.
	Relation bool
	// ElementType is the dereferenced element type of a collection or relation.
	ElementType reflect.Type
	Exported    bool
}

var (
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
	valuerType  = reflect.TypeOf((*driver.Valuer)(nil)).Elem()
	enumType    = reflect.TypeOf((*Enum)(nil)).Elem()
	timeType    = reflect.TypeOf(time.Time{})
)

// FieldCache memoizes field descriptors per entity type for the life of the cache.
// Each type is described at most once, even under concurrent first access.
// A failed description is not stored, so a later call retries it.
type FieldCache struct {
	fields   sync.Map
	group    singleflight.Group
	describe func(reflect.Type) ([]FieldDescriptor, error)
}

func NewFieldCache() *FieldCache {
	return &FieldCache{describe: describeFields}
}

var defaultFieldCache = NewFieldCache()

// FieldsOf returns the fields of t from the process-wide cache.
func FieldsOf(t reflect.Type) ([]FieldDescriptor, error) {
	return defaultFieldCache.FieldsOf(t)
}

// LookupField finds a field of t by name in the process-wide cache.
func LookupField(t reflect.Type, name string) (FieldDescriptor, error) {
	return defaultFieldCache.Lookup(t, name)
}

// FieldsOf returns the fields declared on t followed by the fields of its anonymous
// embedded structs. Pointer types are dereferenced. The returned slice is shared and
// must not be modified.
func (c *FieldCache) FieldsOf(t reflect.Type) ([]FieldDescriptor, error) {
	t = indirect(t)
	if cached, ok := c.fields.Load(t); ok {
		return cached.([]FieldDescriptor), nil
	}
	key := fmt.Sprintf("%s#%p", t.String(), t)
	result, err, _ := c.group.Do(key, func() (any, error) {
		if cached, ok := c.fields.Load(t); ok {
			return cached, nil
		}
		fields, err := c.describe(t)
		if err != nil {
			return nil, err
		}
		c.fields.Store(t, fields)
		return fields, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]FieldDescriptor), nil
}

// Lookup finds a field by its Go name. An exact match wins over a case-insensitive one.
func (c *FieldCache) Lookup(t reflect.Type, name string) (FieldDescriptor, error) {
	fields, err := c.FieldsOf(t)
	if err != nil {
		return FieldDescriptor{}, err
	}
	for _, f := range fields {
		if f.Name == name {
			return f, nil
		}
	}
	for _, f := range fields {
		if strings.EqualFold(f.Name, name) {
			return f, nil
		}
	}
	return FieldDescriptor{}, errors.Wrapf(ErrUnresolvedPath, "%s has no field %q", indirect(t), name)
}

func describeFields(t reflect.Type) ([]FieldDescriptor, error) {
	if t.Kind() != reflect.Struct {
		return nil, errors.Wrapf(ErrInvalidMetadata, "%s is not a struct", t)
	}
	var fields []FieldDescriptor
	seen := make(map[string]bool)
	err := appendFields(&fields, seen, t, nil, map[reflect.Type]bool{t: true})
	if err != nil {
		return nil, err
	}
	return fields, nil
}

func appendFields(fields *[]FieldDescriptor, seen map[string]bool, t reflect.Type, prefix []int, visiting map[reflect.Type]bool) error {
	var ancestors []reflect.StructField
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.Anonymous && indirect(sf.Type).Kind() == reflect.Struct && sf.Tag.Get(tagName) != tagIgnore {
			ancestors = append(ancestors, sf)
			continue
		}
		if seen[sf.Name] {
			continue
		}
		descriptor, err := describeField(t, sf, prefix)
		if err != nil {
			return err
		}
		seen[sf.Name] = true
		*fields = append(*fields, descriptor)
	}
	for _, sf := range ancestors {
		ancestor := indirect(sf.Type)
		if visiting[ancestor] {
			continue
		}
		visiting[ancestor] = true
		err := appendFields(fields, seen, ancestor, concatIndex(prefix, sf.Index), visiting)
		delete(visiting, ancestor)
		if err != nil {
			return err
		}
	}
	return nil
}

func describeField(owner reflect.Type, sf reflect.StructField, prefix []int) (FieldDescriptor, error) {
	d := FieldDescriptor{
		Name:     sf.Name,
		Type:     sf.Type,
		Index:    concatIndex(prefix, sf.Index),
		Exported: sf.IsExported(),
	}
	option, hasOption := sf.Tag.Lookup(tagName)
	if sf.Tag.Get(persistenceTag) == nonPersistentDb {
		d.Ignorable = true
	}
	base := indirect(sf.Type)
	switch {
	case !hasOption || option == "":
		switch {
		case IsComposite(base):
			d.Embedded = true
		case base.Kind() == reflect.Slice && IsComposite(indirect(base.Elem())):
			d.Relation = true
			d.ElementType = indirect(base.Elem())
		}
	case option == tagIgnore:
		d.Ignorable = true
	case option == tagEmbedded:
		if base.Kind() != reflect.Struct {
			return d, errors.Wrapf(ErrInvalidMetadata, "%s.%s: %q requires a struct, got %s", owner, sf.Name, option, sf.Type)
		}
		d.Embedded = true
	case option == tagCollection:
		if base.Kind() != reflect.Slice && base.Kind() != reflect.Array {
			return d, errors.Wrapf(ErrInvalidMetadata, "%s.%s: %q requires a slice, got %s", owner, sf.Name, option, sf.Type)
		}
		d.CollectionOfValues = true
		d.ElementType = indirect(base.Elem())
	default:
		return d, errors.Wrapf(ErrInvalidMetadata, "%s.%s: unknown %s option %q", owner, sf.Name, tagName, option)
	}
	return d, nil
}

// IsComposite reports whether t is a struct made of further fields rather than a
// single value such as time.Time or a sql.Scanner.
func IsComposite(t reflect.Type) bool {
	if t.Kind() != reflect.Struct || t == timeType {
		return false
	}
	if t.Implements(enumType) || t.Implements(valuerType) || reflect.PointerTo(t).Implements(scannerType) {
		return false
	}
	return true
}

func indirect(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func concatIndex(prefix, index []int) []int {
	result := make([]int, 0, len(prefix)+len(index))
	result = append(result, prefix...)
	return append(result, index...)
}
