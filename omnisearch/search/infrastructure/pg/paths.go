package pg

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/jinzhu/inflection"
	"github.com/pkg/errors"

	search "github.com/krew-solutions/omnisearch-go/omnisearch/search/domain"
	s "github.com/krew-solutions/omnisearch-go/omnisearch/specification/domain"
)

const defaultValueColumn = "value"

// table is the owner of the columns a path renders: the root table or a joined one.
type table struct {
	alias    string
	registry *SchemaRegistry
	owner    reflect.Type
}

func (t table) scope() s.EmptiableObject {
	return s.Object(s.GlobalScope(), t.alias)
}

// field resolves name on current, a type stored in t.
func (t table) field(current reflect.Type, name string) (search.FieldDescriptor, error) {
	d, err := search.LookupField(current, name)
	if err != nil {
		return d, err
	}
	if !d.Exported {
		return d, errors.Wrapf(search.ErrUnresolvedPath, "%s.%s is not exported", indirect(current), d.Name)
	}
	if !persistent(indirect(current).FieldByIndex(d.Index)) {
		return d, errors.Wrapf(search.ErrUnresolvedPath, "%s.%s has no column", indirect(current), d.Name)
	}
	return d, nil
}

func (t table) get(current reflect.Type, fieldPath []string, name string) (search.Path, error) {
	d, err := t.field(current, name)
	if err != nil {
		return nil, err
	}
	if d.CollectionOfValues || d.Relation {
		return nil, errors.Wrapf(search.ErrUnresolvedPath, "%s.%s is a collection and must be joined", indirect(current), d.Name)
	}
	return &path{table: t, fieldPath: appendPath(fieldPath, d.Name), typ: d.Type}, nil
}

func (t table) join(q *query, name string) (search.From, error) {
	d, err := t.field(t.owner, name)
	if err != nil {
		return nil, err
	}
	if !d.CollectionOfValues && !d.Relation {
		return nil, errors.Wrapf(search.ErrUnresolvedPath, "%s.%s is not a collection", indirect(t.owner), d.Name)
	}
	mapping, ok := t.registry.Get(d.Name)
	if !ok {
		return nil, errors.Wrapf(search.ErrUnresolvedPath, "%s.%s has no storage mapping", indirect(t.owner), d.Name)
	}

	column := t.registry.column(t.owner, []string{d.Name})
	base := mapping.Alias
	if base == "" {
		if mapping.Storage == StorageRelational {
			base = inflection.Singular(mapping.Table)
		} else {
			base = inflection.Singular(column)
		}
	}
	j := &joinFrom{
		table: table{
			alias:    fmt.Sprintf("%s_%d", base, len(q.joins)+1),
			registry: mapping.Target,
			owner:    d.ElementType,
		},
		query:       q,
		valueColumn: defaultValueColumn,
	}

	switch mapping.Storage {
	case StorageEmbedded:
		if j.composite() {
			return nil, errors.Errorf("pg: composite elements of the array column %s are not supported", column)
		}
		j.clause = fmt.Sprintf("LATERAL unnest(%s.%s) AS %s(%s) ON TRUE", t.alias, column, j.alias, j.valueColumn)
	case StorageRelational:
		if len(mapping.ForeignKeys) == 0 {
			return nil, errors.Errorf("pg: %s.%s has no foreign keys", indirect(t.owner), d.Name)
		}
		if mapping.ValueColumn != "" {
			j.valueColumn = mapping.ValueColumn
		}
		conditions := make([]string, len(mapping.ForeignKeys))
		for i, fk := range mapping.ForeignKeys {
			conditions[i] = fmt.Sprintf("%s.%s = %s.%s", j.alias, fk.ChildColumn, t.alias, fk.ParentColumn)
		}
		j.clause = fmt.Sprintf("%s AS %s ON %s", mapping.Table, j.alias, strings.Join(conditions, " AND "))
	default:
		return nil, errors.Errorf("pg: unknown storage type %d", mapping.Storage)
	}
	q.joins = append(q.joins, j)
	return j, nil
}

func appendPath(fieldPath []string, name string) []string {
	result := make([]string, len(fieldPath), len(fieldPath)+1)
	copy(result, fieldPath)
	return append(result, name)
}

// path is a column of a table, possibly nested in embedded composites.
type path struct {
	table     table
	fieldPath []string
	typ       reflect.Type
}

func (p *path) Type() reflect.Type {
	return p.typ
}

func (p *path) Expression() s.Visitable {
	return s.Field(p.table.scope(), p.table.registry.column(p.table.owner, p.fieldPath))
}

func (p *path) Get(name string) (search.Path, error) {
	if !search.IsComposite(indirect(p.typ)) {
		return nil, errors.Wrapf(search.ErrUnresolvedPath, "%s has no field %q", p.typ, name)
	}
	return p.table.get(p.typ, p.fieldPath, name)
}

type root struct {
	table
	query *query
}

func (r *root) Type() reflect.Type {
	return r.owner
}

func (r *root) Expression() s.Visitable {
	return r.scope()
}

func (r *root) Get(name string) (search.Path, error) {
	return r.get(r.owner, nil, name)
}

func (r *root) Join(name string) (search.From, error) {
	return r.join(r.query, name)
}

// joinFrom is a LEFT JOIN of a collection.
type joinFrom struct {
	table
	query       *query
	clause      string
	valueColumn string
}

func (j *joinFrom) composite() bool {
	return search.IsComposite(indirect(j.owner))
}

func (j *joinFrom) Type() reflect.Type {
	return j.owner
}

func (j *joinFrom) Expression() s.Visitable {
	if j.composite() {
		return j.scope()
	}
	return s.Field(j.scope(), j.valueColumn)
}

func (j *joinFrom) Get(name string) (search.Path, error) {
	if !j.composite() {
		return nil, errors.Wrapf(search.ErrUnresolvedPath, "%s elements have no field %q", j.owner, name)
	}
	return j.get(j.owner, nil, name)
}

func (j *joinFrom) Join(name string) (search.From, error) {
	if !j.composite() {
		return nil, errors.Wrapf(search.ErrUnresolvedPath, "%s elements have no field %q", j.owner, name)
	}
	return j.join(j.query, name)
}
