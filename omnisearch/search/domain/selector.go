package search

import (
	"strings"

	"github.com/pkg/errors"
)

// selectorResolver binds dotted property paths such as "address.city" or
// "contacts.firstName" to a query root. Joins are declared once per prefix.
type selectorResolver struct {
	root       From
	fields     *FieldCache
	allowJoins bool
	joins      map[string]From
}

func newSelectorResolver(root From, fields *FieldCache, allowJoins bool) *selectorResolver {
	return &selectorResolver{
		root:       root,
		fields:     fields,
		allowJoins: allowJoins,
		joins:      make(map[string]From),
	}
}

func (r *selectorResolver) resolve(selector string) (Path, error) {
	if selector == "" {
		return nil, errors.Wrap(ErrUnresolvedPath, "empty property path")
	}
	var current Path = r.root
	segments := strings.Split(selector, ".")
	for i, segment := range segments {
		field, err := r.fields.Lookup(current.Type(), segment)
		if err != nil {
			return nil, err
		}
		if !field.CollectionOfValues && !field.Relation {
			current, err = current.Get(field.Name)
			if err != nil {
				return nil, err
			}
			continue
		}
		if !r.allowJoins {
			return nil, errors.Wrapf(ErrUnresolvedPath, "%q traverses the collection %q", selector, field.Name)
		}
		prefix := strings.Join(segments[:i+1], ".")
		if join, ok := r.joins[prefix]; ok {
			current = join
			continue
		}
		from, ok := current.(From)
		if !ok {
			return nil, errors.Wrapf(ErrUnresolvedPath, "%q can not be joined from %q", field.Name, strings.Join(segments[:i], "."))
		}
		join, err := from.Join(field.Name)
		if err != nil {
			return nil, err
		}
		r.joins[prefix] = join
		current = join
	}
	return current, nil
}
