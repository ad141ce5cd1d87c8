package search

import (
	"reflect"

	"github.com/sirupsen/logrus"

	"github.com/krew-solutions/omnisearch-go/omnisearch/specification/domain"
)

// walker collects the free-text predicates of every field reachable from a path.
type walker struct {
	fields *FieldCache
	rules  Rules
	log    logrus.FieldLogger
	// stack holds the composite types being walked, so a type that contains itself
	// is not entered twice.
	stack []reflect.Type
}

func (w *walker) collect(token string, path Path) ([]specification.Visitable, error) {
	entity := indirect(path.Type())
	if w.entered(entity) {
		w.log.WithFields(logrus.Fields{
			"entity": w.current().String(),
			"type":   entity.String(),
		}).Debug("omnisearch: recursive type is not searched again")
		return nil, nil
	}
	fields, err := w.fields.FieldsOf(entity)
	if err != nil {
		return nil, err
	}
	w.stack = append(w.stack, entity)
	defer func() { w.stack = w.stack[:len(w.stack)-1] }()

	var predicates []specification.Visitable
	for _, field := range fields {
		if field.Ignorable || field.Relation {
			continue
		}
		var found []specification.Visitable
		switch {
		case field.Embedded:
			next, err := path.Get(field.Name)
			if err != nil {
				w.skip(entity, field, err)
				continue
			}
			found, err = w.collect(token, next)
			if err != nil {
				return nil, err
			}
		case field.CollectionOfValues:
			from, ok := path.(From)
			if !ok {
				w.log.WithFields(logrus.Fields{
					"entity": entity.String(),
					"field":  field.Name,
				}).Debug("omnisearch: collection is not reachable by a join from here")
				continue
			}
			join, err := from.Join(field.Name)
			if err != nil {
				w.skip(entity, field, err)
				continue
			}
			found, err = w.collectElements(token, join)
			if err != nil {
				return nil, err
			}
		default:
			next, err := path.Get(field.Name)
			if err != nil {
				w.skip(entity, field, err)
				continue
			}
			found = w.rules.Dispatch(next, token)
		}
		predicates = append(predicates, found...)
	}
	return predicates, nil
}

// collectElements searches a joined collection: composite elements field by
// field, basic elements as a whole.
func (w *walker) collectElements(token string, join From) ([]specification.Visitable, error) {
	if IsComposite(indirect(join.Type())) {
		return w.collect(token, join)
	}
	return w.rules.Dispatch(join, token), nil
}

func (w *walker) entered(t reflect.Type) bool {
	for _, s := range w.stack {
		if s == t {
			return true
		}
	}
	return false
}

func (w *walker) current() reflect.Type {
	if len(w.stack) == 0 {
		return nil
	}
	return w.stack[len(w.stack)-1]
}

func (w *walker) skip(entity reflect.Type, field FieldDescriptor, err error) {
	w.log.WithFields(logrus.Fields{
		"entity": entity.String(),
		"field":  field.Name,
		"error":  err,
	}).Debug("omnisearch: field is not searchable")
}
