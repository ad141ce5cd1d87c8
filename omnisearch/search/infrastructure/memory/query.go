package memory

import (
	"context"
	"reflect"
	"sort"

	"github.com/pkg/errors"

	search "github.com/krew-solutions/omnisearch-go/omnisearch/search/domain"
	s "github.com/krew-solutions/omnisearch-go/omnisearch/specification/domain"
	"github.com/krew-solutions/omnisearch-go/omnisearch/specification/domain/operators"
)

type query struct {
	entityType reflect.Type
	records    []reflect.Value
	registry   *operators.OperatorRegistry
	root       *root
	joins      []*joinFrom
	where      s.Visitable
	orderings  []search.Ordering
	offset     int
	limit      int
}

func (q *query) Root() search.From {
	return q.root
}

func (q *query) Where(predicate s.Visitable) {
	q.where = predicate
}

func (q *query) OrderBy(orderings ...search.Ordering) {
	q.orderings = orderings
}

func (q *query) Slice(offset, limit int) {
	q.offset = offset
	q.limit = limit
}

func (q *query) List(ctx context.Context, dest any) error {
	target := reflect.ValueOf(dest)
	if target.Kind() != reflect.Pointer || target.Elem().Kind() != reflect.Slice {
		return errors.Wrapf(search.ErrInvalidDestination, "expected a pointer to a slice, got %T", dest)
	}
	elemType := target.Elem().Type().Elem()
	if indirect(elemType) != q.entityType {
		return errors.Wrapf(search.ErrInvalidDestination, "%s is not %s", elemType, q.entityType)
	}
	matched, err := q.match(ctx)
	if err != nil {
		return err
	}
	if err := q.sort(matched); err != nil {
		return err
	}
	matched = q.page(matched)

	result := reflect.MakeSlice(target.Elem().Type(), 0, len(matched))
	for _, record := range matched {
		if elemType.Kind() == reflect.Pointer {
			ptr := reflect.New(q.entityType)
			ptr.Elem().Set(record)
			result = reflect.Append(result, ptr)
		} else {
			result = reflect.Append(result, record)
		}
	}
	target.Elem().Set(result)
	return nil
}

func (q *query) Count(ctx context.Context) (int64, error) {
	matched, err := q.match(ctx)
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

// match returns each record with at least one row satisfying the predicate, once.
func (q *query) match(ctx context.Context) ([]reflect.Value, error) {
	predicate := q.where
	if predicate == nil {
		predicate = s.True()
	}
	var matched []reflect.Value
	for _, record := range q.records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, r := range q.expand(record) {
			ok, err := s.Evaluate(predicate, r, q.registry)
			if err != nil {
				return nil, err
			}
			if ok {
				matched = append(matched, record)
				break
			}
		}
	}
	return matched, nil
}

// expand joins a record with its collections. An empty collection keeps the row
// with a NULL element, as a left join does.
func (q *query) expand(record reflect.Value) []row {
	rows := []row{{rootAlias: {value: record, composite: true}}}
	for _, j := range q.joins {
		var next []row
		for _, r := range rows {
			elements := collection(r[j.source].value, j.index)
			if len(elements) == 0 {
				next = append(next, r.with(j.alias, binding{}))
				continue
			}
			for _, element := range elements {
				next = append(next, r.with(j.alias, binding{value: element, composite: j.composite()}))
			}
		}
		rows = next
	}
	return rows
}

func collection(source reflect.Value, index []int) []reflect.Value {
	if !source.IsValid() {
		return nil
	}
	v, err := source.FieldByIndexErr(index)
	if err != nil {
		return nil
	}
	v = reflect.Indirect(v)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil
	}
	elements := make([]reflect.Value, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		element := reflect.Indirect(v.Index(i))
		if element.IsValid() {
			elements = append(elements, element)
		}
	}
	return elements
}

// sort orders records stably by the orderings. NULLs sort last ascending and
// first descending.
func (q *query) sort(records []reflect.Value) error {
	if len(q.orderings) == 0 {
		return nil
	}
	keys := make(map[int][]any, len(records))
	for i, record := range records {
		r := row{rootAlias: {value: record, composite: true}}
		values := make([]any, len(q.orderings))
		for k, ordering := range q.orderings {
			v := s.NewEvaluateVisitor(r, q.registry)
			if err := ordering.Expression.Accept(v); err != nil {
				return err
			}
			values[k] = v.CurrentValue()
		}
		keys[i] = values
	}
	order := make([]int, len(records))
	for i := range order {
		order[i] = i
	}
	var failure error
	sort.SliceStable(order, func(a, b int) bool {
		for k, ordering := range q.orderings {
			c, err := q.compare(keys[order[a]][k], keys[order[b]][k])
			if err != nil {
				failure = err
				return false
			}
			if c == 0 {
				continue
			}
			if ordering.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
	if failure != nil {
		return failure
	}
	sorted := make([]reflect.Value, len(records))
	for i, idx := range order {
		sorted[i] = records[idx]
	}
	copy(records, sorted)
	return nil
}

// compare treats NULL as greater than any value.
func (q *query) compare(a, b any) (int, error) {
	switch {
	case a == nil && b == nil:
		return 0, nil
	case a == nil:
		return 1, nil
	case b == nil:
		return -1, nil
	}
	less, err := q.registry.ExecBinary(a, operators.OperatorLt, b)
	if err != nil {
		return 0, err
	}
	if less == true {
		return -1, nil
	}
	equal, err := q.registry.ExecBinary(a, operators.OperatorEq, b)
	if err != nil {
		return 0, err
	}
	if equal == true {
		return 0, nil
	}
	return 1, nil
}

func (q *query) page(records []reflect.Value) []reflect.Value {
	if q.offset >= len(records) {
		return nil
	}
	records = records[q.offset:]
	if q.limit >= 0 && q.limit < len(records) {
		records = records[:q.limit]
	}
	return records
}
