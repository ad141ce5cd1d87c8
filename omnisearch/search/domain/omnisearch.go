package search

import (
	"context"
	"fmt"
	"reflect"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/krew-solutions/omnisearch-go/omnisearch/specification/domain"
)

// OmniSearch answers free-text searches and filters over the entities of a backend.
// It keeps no per-call state and can be shared between goroutines.
type OmniSearch struct {
	backend Backend
	rules   Rules
	filter  FilterEvaluator
	fields  *FieldCache
	log     logrus.FieldLogger
}

type Option func(*OmniSearch)

func WithLogger(log logrus.FieldLogger) Option {
	return func(o *OmniSearch) {
		o.log = log
	}
}

func WithRules(rules Rules) Option {
	return func(o *OmniSearch) {
		o.rules = rules
	}
}

func WithFilterEvaluator(filter FilterEvaluator) Option {
	return func(o *OmniSearch) {
		o.filter = filter
	}
}

func WithFieldCache(fields *FieldCache) Option {
	return func(o *OmniSearch) {
		o.fields = fields
	}
}

func New(backend Backend, opts ...Option) *OmniSearch {
	o := &OmniSearch{
		backend: backend,
		rules:   DefaultRules(),
		fields:  defaultFieldCache,
		log:     logrus.StandardLogger(),
	}
	for i := range opts {
		opts[i](o)
	}
	if o.filter == nil {
		o.filter = NewRSQLEvaluator(o.fields)
	}
	return o
}

// Search lists the entities of type E selected by options.
func Search[E any](ctx context.Context, o *OmniSearch, options Options) ([]E, error) {
	var result []E
	if err := o.SearchInto(ctx, options, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Count counts the entities of type E selected by options.
func Count[E any](ctx context.Context, o *OmniSearch, options BaseOptions) (int64, error) {
	return o.Count(ctx, reflect.TypeOf((*E)(nil)).Elem(), options)
}

// SearchInto lists the selected entities into dest, a pointer to a slice of the entity type.
func (o *OmniSearch) SearchInto(ctx context.Context, options Options, dest any) error {
	entityType, err := elementTypeOf(dest)
	if err != nil {
		return err
	}
	query, err := o.prepare(entityType, options.BaseOptions)
	if err != nil {
		return err
	}
	if options.Sort.IsSorted() {
		orderings, err := o.orderings(query.Root(), options.Sort)
		if err != nil {
			return err
		}
		query.OrderBy(orderings...)
	}
	if options.Pagination.IsPaginated() {
		query.Slice(options.Pagination.Offset(), options.Pagination.Size())
	}
	return query.List(ctx, dest)
}

func (o *OmniSearch) Count(ctx context.Context, entityType reflect.Type, options BaseOptions) (int64, error) {
	query, err := o.prepare(entityType, options)
	if err != nil {
		return 0, err
	}
	return query.Count(ctx)
}

// Predicate is the conjunction of the search and filter predicates of options.
// Absent parts do not narrow it; with neither it is specification.True().
func (o *OmniSearch) Predicate(root From, options BaseOptions) (specification.Visitable, error) {
	var operands []specification.Visitable
	searchPredicate, err := o.SearchPredicate(root, options.Search, options.Joins)
	if err != nil {
		return nil, err
	}
	if searchPredicate != nil {
		operands = append(operands, searchPredicate)
	}
	if options.Filter != nil {
		filterPredicate, err := o.filter.Evaluate(options.Filter, root)
		if err != nil {
			return nil, err
		}
		operands = append(operands, filterPredicate)
	}
	return specification.Conjunction(operands...), nil
}

func (o *OmniSearch) prepare(entityType reflect.Type, options BaseOptions) (Query, error) {
	query, err := o.backend.NewQuery(entityType)
	if err != nil {
		return nil, err
	}
	predicate, err := o.Predicate(query.Root(), options)
	if err != nil {
		return nil, err
	}
	query.Where(predicate)
	return query, nil
}

// orderings resolves every sort property before anything runs and reports all
// unresolved ones together.
func (o *OmniSearch) orderings(root From, sort Sort) ([]Ordering, error) {
	resolver := newSelectorResolver(root, o.fields, false)
	orderings := make([]Ordering, 0, len(sort))
	var result error
	for _, order := range sort {
		path, err := resolver.resolve(order.Property)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%w %q: %w", ErrUnresolvedSortProperty, order.Property, err))
			continue
		}
		orderings = append(orderings, Ordering{Expression: path.Expression(), Ascending: order.Ascending})
	}
	if result != nil {
		return nil, result
	}
	return orderings, nil
}

func elementTypeOf(dest any) (reflect.Type, error) {
	t := reflect.TypeOf(dest)
	if t == nil || t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Slice {
		return nil, errors.Wrapf(ErrInvalidDestination, "expected a pointer to a slice, got %T", dest)
	}
	return t.Elem().Elem(), nil
}
