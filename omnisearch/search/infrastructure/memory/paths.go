package memory

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"

	search "github.com/krew-solutions/omnisearch-go/omnisearch/search/domain"
	s "github.com/krew-solutions/omnisearch-go/omnisearch/specification/domain"
)

const (
	rootAlias = "$"
	// elementKey names the value of a joined basic element inside its row scope.
	elementKey = "@"
)

// field resolves name on owner to a schema field: exported, and neither a
// collection nor a relation.
func field(owner reflect.Type, name string) (search.FieldDescriptor, error) {
	d, err := search.LookupField(owner, name)
	if err != nil {
		return d, err
	}
	if !d.Exported {
		return d, errors.Wrapf(search.ErrUnresolvedPath, "%s.%s is not exported", indirect(owner), d.Name)
	}
	return d, nil
}

func get(scope s.EmptiableObject, owner reflect.Type, name string) (search.Path, error) {
	d, err := field(owner, name)
	if err != nil {
		return nil, err
	}
	if d.CollectionOfValues || d.Relation {
		return nil, errors.Wrapf(search.ErrUnresolvedPath, "%s.%s is a collection and must be joined", indirect(owner), d.Name)
	}
	return &path{scope: scope, name: d.Name, typ: d.Type}, nil
}

func join(q *query, source string, owner reflect.Type, name string) (search.From, error) {
	d, err := field(owner, name)
	if err != nil {
		return nil, err
	}
	if !d.CollectionOfValues && !d.Relation {
		return nil, errors.Wrapf(search.ErrUnresolvedPath, "%s.%s is not a collection", indirect(owner), d.Name)
	}
	j := &joinFrom{
		query:  q,
		alias:  fmt.Sprintf("j%d", len(q.joins)+1),
		source: source,
		index:  d.Index,
		typ:    d.ElementType,
	}
	q.joins = append(q.joins, j)
	return j, nil
}

// path is a field value inside scope.
type path struct {
	scope s.EmptiableObject
	name  string
	typ   reflect.Type
}

func (p *path) Type() reflect.Type {
	return p.typ
}

func (p *path) Expression() s.Visitable {
	return s.Field(p.scope, p.name)
}

func (p *path) Get(name string) (search.Path, error) {
	return get(s.Object(p.scope, p.name), p.typ, name)
}

type root struct {
	query *query
}

func (r *root) scope() s.EmptiableObject {
	return s.Object(s.GlobalScope(), rootAlias)
}

func (r *root) Type() reflect.Type {
	return r.query.entityType
}

func (r *root) Expression() s.Visitable {
	return r.scope()
}

func (r *root) Get(name string) (search.Path, error) {
	return get(r.scope(), r.query.entityType, name)
}

func (r *root) Join(name string) (search.From, error) {
	return join(r.query, rootAlias, r.query.entityType, name)
}

// joinFrom is a left join: one row per element of the collection at index in
// the source row value.
type joinFrom struct {
	query  *query
	alias  string
	source string
	index  []int
	typ    reflect.Type
}

func (j *joinFrom) scope() s.EmptiableObject {
	return s.Object(s.GlobalScope(), j.alias)
}

func (j *joinFrom) Type() reflect.Type {
	return j.typ
}

func (j *joinFrom) composite() bool {
	return search.IsComposite(j.typ)
}

func (j *joinFrom) Expression() s.Visitable {
	if j.composite() {
		return j.scope()
	}
	return s.Field(j.scope(), elementKey)
}

func (j *joinFrom) Get(name string) (search.Path, error) {
	if !j.composite() {
		return nil, errors.Wrapf(search.ErrUnresolvedPath, "%s elements have no field %q", j.typ, name)
	}
	return get(j.scope(), j.typ, name)
}

func (j *joinFrom) Join(name string) (search.From, error) {
	if !j.composite() {
		return nil, errors.Wrapf(search.ErrUnresolvedPath, "%s elements have no field %q", j.typ, name)
	}
	return join(j.query, j.alias, j.typ, name)
}
