package memory

import (
	"reflect"

	"github.com/pkg/errors"

	search "github.com/krew-solutions/omnisearch-go/omnisearch/search/domain"
	s "github.com/krew-solutions/omnisearch-go/omnisearch/specification/domain"
)

// binding is the value of an alias in a row. An invalid value is the NULL
// element of an empty collection.
type binding struct {
	value     reflect.Value
	composite bool
}

// row binds the root alias and every join alias.
type row map[string]binding

func (r row) with(alias string, b binding) row {
	next := make(row, len(r)+1)
	for k, v := range r {
		next[k] = v
	}
	next[alias] = b
	return next
}

func (r row) Get(alias string) (any, error) {
	b, ok := r[alias]
	if !ok {
		return nil, errors.Wrapf(s.ErrKeyNotFound, "alias %q", alias)
	}
	if !b.value.IsValid() {
		return nil, nil
	}
	if b.composite {
		return structContext{value: b.value}, nil
	}
	return elementContext{value: b.value}, nil
}

// structContext exposes the fields of a struct by Go field name.
type structContext struct {
	value reflect.Value
}

func (c structContext) Get(name string) (any, error) {
	d, err := search.LookupField(c.value.Type(), name)
	if err != nil {
		return nil, errors.Wrap(s.ErrKeyNotFound, err.Error())
	}
	v, err := c.value.FieldByIndexErr(d.Index)
	if err != nil {
		// promoted through a nil embedded pointer
		return nil, nil
	}
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}
	if d.Embedded {
		return structContext{value: v}, nil
	}
	return v.Interface(), nil
}

// elementContext is the scope of a joined basic element.
type elementContext struct {
	value reflect.Value
}

func (c elementContext) Get(name string) (any, error) {
	if name != elementKey {
		return nil, errors.Wrapf(s.ErrKeyNotFound, "%s element has no field %q", c.value.Type(), name)
	}
	return c.value.Interface(), nil
}
