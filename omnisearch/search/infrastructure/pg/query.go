package pg

import (
	"context"
	"reflect"

	sq "github.com/Masterminds/squirrel"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	search "github.com/krew-solutions/omnisearch-go/omnisearch/search/domain"
	"github.com/krew-solutions/omnisearch-go/omnisearch/session"
	s "github.com/krew-solutions/omnisearch-go/omnisearch/specification/domain"
	sqlspec "github.com/krew-solutions/omnisearch-go/omnisearch/specification/infrastructure"
)

type query struct {
	backend    *Backend
	entityType reflect.Type
	registry   *SchemaRegistry
	root       *root
	joins      []*joinFrom
	where      s.Visitable
	orderings  []search.Ordering
	offset     int
	limit      int
	sliced     bool
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
	q.sliced = true
}

// selection is a selected column and the index of the field it is scanned into.
type selection struct {
	column string
	index  []int
	typ    reflect.Type
}

// selections lists the columns of the root and of its embedded composites. A
// composite that embeds a type already being walked contributes no columns for it.
func (q *query) selections() ([]selection, error) {
	var result []selection
	var stack []reflect.Type
	var walk func(t reflect.Type, index []int, fieldPath []string) error
	walk = func(t reflect.Type, index []int, fieldPath []string) error {
		for _, entered := range stack {
			if entered == indirect(t) {
				q.backend.log.WithFields(logrus.Fields{
					"entity": q.entityType.String(),
					"type":   entered.String(),
				}).Debug("pg: recursive type is not selected again")
				return nil
			}
		}
		fields, err := search.FieldsOf(t)
		if err != nil {
			return err
		}
		stack = append(stack, indirect(t))
		defer func() { stack = stack[:len(stack)-1] }()
		for _, d := range fields {
			if !d.Exported || d.CollectionOfValues || d.Relation {
				continue
			}
			if !persistent(indirect(t).FieldByIndex(d.Index)) {
				continue
			}
			fieldIndex := append(append([]int(nil), index...), d.Index...)
			nested := appendPath(fieldPath, d.Name)
			if d.Embedded {
				if err := walk(d.Type, fieldIndex, nested); err != nil {
					return err
				}
				continue
			}
			result = append(result, selection{
				column: q.registry.Ref() + "." + q.registry.column(q.entityType, nested),
				index:  fieldIndex,
				typ:    d.Type,
			})
		}
		return nil
	}
	if err := walk(q.entityType, nil, nil); err != nil {
		return nil, err
	}
	return result, nil
}

func (q *query) from() string {
	if q.registry.Alias == "" {
		return q.registry.Table
	}
	return q.registry.Table + " AS " + q.registry.Alias
}

// distinct selects every matching root row once, however many joined rows match.
func (q *query) distinct(columns []selection) (sq.SelectBuilder, error) {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.column
	}
	sb := sq.Select(names...).Distinct().From(q.from())
	for _, j := range q.joins {
		sb = sb.LeftJoin(j.clause)
	}
	if q.where != nil {
		text, params, err := sqlspec.Compile(q.where, sqlspec.WithPlaceholder(sqlspec.QuestionPlaceholder))
		if err != nil {
			return sb, errors.Wrap(err, "pg: where")
		}
		sb = sb.Where(text, params...)
	}
	return sb, nil
}

func (q *query) listSQL(columns []selection) (string, []any, error) {
	sb, err := q.distinct(columns)
	if err != nil {
		return "", nil, err
	}
	for _, o := range q.orderings {
		text, params, err := sqlspec.Compile(o.Expression, sqlspec.WithPlaceholder(sqlspec.QuestionPlaceholder))
		if err != nil {
			return "", nil, errors.Wrap(err, "pg: order by")
		}
		direction := " DESC"
		if o.Ascending {
			direction = " ASC"
		}
		sb = sb.OrderByClause(text+direction, params...)
	}
	if q.sliced {
		sb = sb.Limit(uint64(q.limit)).Offset(uint64(q.offset))
	}
	return sb.PlaceholderFormat(sq.Dollar).ToSql()
}

func (q *query) countSQL(columns []selection) (string, []any, error) {
	sb, err := q.distinct(columns)
	if err != nil {
		return "", nil, err
	}
	return sq.Select("COUNT(*)").FromSelect(sb, "matched").PlaceholderFormat(sq.Dollar).ToSql()
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
	columns, err := q.selections()
	if err != nil {
		return err
	}
	text, args, err := q.listSQL(columns)
	if err != nil {
		return err
	}
	q.debug(text, args)

	var records []reflect.Value
	err = q.backend.pool.Session(ctx, func(sess session.Session) error {
		conn, err := connection(sess)
		if err != nil {
			return err
		}
		rows, err := conn.Query(text, args...)
		if err != nil {
			return errors.Wrap(err, "pg: list")
		}
		records, err = q.scan(rows, columns)
		return err
	})
	if err != nil {
		return err
	}

	result := reflect.MakeSlice(target.Elem().Type(), 0, len(records))
	for _, record := range records {
		if elemType.Kind() == reflect.Pointer {
			result = reflect.Append(result, record.Addr())
		} else {
			result = reflect.Append(result, record)
		}
	}
	target.Elem().Set(result)
	return nil
}

func (q *query) Count(ctx context.Context) (int64, error) {
	columns, err := q.selections()
	if err != nil {
		return 0, err
	}
	text, args, err := q.countSQL(columns)
	if err != nil {
		return 0, err
	}
	q.debug(text, args)

	var n int64
	err = q.backend.pool.Session(ctx, func(sess session.Session) error {
		conn, err := connection(sess)
		if err != nil {
			return err
		}
		return errors.Wrap(conn.QueryRow(text, args...).Scan(&n), "pg: count")
	})
	return n, err
}

func (q *query) debug(text string, args []any) {
	q.backend.log.WithFields(logrus.Fields{
		"sql":    text,
		"params": args,
	}).Debug("pg: query")
}

func connection(sess session.Session) (session.DbConnection, error) {
	db, ok := sess.(session.DbSession)
	if !ok {
		return nil, errors.Errorf("pg: %T is not a database session", sess)
	}
	return db.Connection(), nil
}

// scan reads every row into a new addressable entity value and closes rows.
func (q *query) scan(rows session.Rows, columns []selection) (records []reflect.Value, err error) {
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && !errors.Is(err, closeErr) {
			err = multierror.Append(err, closeErr)
		}
	}()
	for rows.Next() {
		record := reflect.New(q.entityType).Elem()
		holders := make([]reflect.Value, len(columns))
		dest := make([]any, len(columns))
		for i, c := range columns {
			// scanned through a pointer so that NULL leaves the field zero
			t := c.typ
			if t.Kind() != reflect.Pointer {
				t = reflect.PointerTo(t)
			}
			holders[i] = reflect.New(t)
			dest[i] = holders[i].Interface()
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.Wrap(err, "pg: scan")
		}
		for i, c := range columns {
			value := holders[i].Elem()
			if value.IsNil() {
				continue
			}
			if c.typ.Kind() != reflect.Pointer {
				value = value.Elem()
			}
			fieldByIndex(record, c.index).Set(value)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// fieldByIndex is reflect.Value.FieldByIndex allocating nil embedded pointers.
func fieldByIndex(v reflect.Value, index []int) reflect.Value {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v
}
