package testutils

import (
	"context"
	"database/sql"
	"reflect"

	"github.com/pkg/errors"

	"github.com/krew-solutions/omnisearch-go/omnisearch/session"
	"github.com/krew-solutions/omnisearch-go/omnisearch/session/result"
)

// NewDbSessionStub answers each query with the next of rows, in order. The last
// one keeps answering once the others are used up.
func NewDbSessionStub(rows ...*RowsStub) *DbSessionStub {
	stub := &DbSessionStub{rows: rows}
	stub.conn = &connectionStub{session: stub}
	return stub
}

type DbSessionStub struct {
	ActualQuery  string
	ActualParams []any
	// Queries holds every statement received, in order.
	Queries []string
	rows    []*RowsStub
	conn    *connectionStub
}

func (s *DbSessionStub) Context() context.Context {
	return context.Background()
}

func (s *DbSessionStub) Atomic(callback session.SessionCallback) error {
	return callback(s)
}

func (s *DbSessionStub) Connection() session.DbConnection {
	return s.conn
}

func (s *DbSessionStub) record(query string, args []any) {
	s.ActualQuery = query
	s.ActualParams = args
	s.Queries = append(s.Queries, query)
}

func (s *DbSessionStub) nextRows() *RowsStub {
	if len(s.rows) == 0 {
		return NewRowsStub()
	}
	rows := s.rows[0]
	if len(s.rows) > 1 {
		s.rows = s.rows[1:]
	}
	return rows
}

// SessionPoolStub lends the same session to every callback.
type SessionPoolStub struct {
	session session.Session
}

func NewSessionPoolStub(s session.Session) *SessionPoolStub {
	return &SessionPoolStub{session: s}
}

func (p *SessionPoolStub) Session(ctx context.Context, callback session.SessionPoolCallback) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return callback(p.session)
}

type connectionStub struct {
	session *DbSessionStub
}

func (c *connectionStub) Exec(query string, args ...any) (session.Result, error) {
	c.session.record(query, args)
	return result.Affected(0), nil
}

func (c *connectionStub) Query(query string, args ...any) (session.Rows, error) {
	c.session.record(query, args)
	return c.session.nextRows(), nil
}

func (c *connectionStub) QueryRow(query string, args ...any) session.Row {
	c.session.record(query, args)
	rows := c.session.nextRows()
	rows.idx = -1
	return &RowStub{rows: rows}
}

func NewRowsStub(rows ...[]any) *RowsStub {
	return &RowsStub{
		rows:   rows,
		idx:    -1,
		Closed: false,
	}
}

type RowsStub struct {
	rows   [][]any
	idx    int
	Closed bool
}

func (r *RowsStub) Close() error {
	r.Closed = true
	return nil
}

func (r *RowsStub) Err() error {
	return nil
}

func (r *RowsStub) Next() bool {
	r.idx++
	return r.idx < len(r.rows)
}

// Scan assigns the current row to dest by reflection. A nil value zeroes the
// target, sql.Scanner targets scan themselves, and convertible values are converted.
func (r *RowsStub) Scan(dest ...any) error {
	if r.idx < 0 || r.idx >= len(r.rows) {
		return errors.New("no current row")
	}

	row := r.rows[r.idx]
	for i, val := range row {
		if i >= len(dest) {
			break
		}
		if err := assign(dest[i], val); err != nil {
			return errors.Wrapf(err, "column %d", i)
		}
	}
	return nil
}

func assign(dest, val any) error {
	if scanner, ok := dest.(sql.Scanner); ok {
		return scanner.Scan(val)
	}
	target := reflect.ValueOf(dest)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return errors.Errorf("destination %T is not a pointer", dest)
	}
	target = target.Elem()
	if val == nil {
		target.Set(reflect.Zero(target.Type()))
		return nil
	}
	if target.Kind() == reflect.Pointer {
		ptr := reflect.New(target.Type().Elem())
		if err := assign(ptr.Interface(), val); err != nil {
			return err
		}
		target.Set(ptr)
		return nil
	}
	source := reflect.ValueOf(val)
	switch {
	case source.Type().AssignableTo(target.Type()):
		target.Set(source)
	case source.Type().ConvertibleTo(target.Type()):
		target.Set(source.Convert(target.Type()))
	default:
		return errors.Errorf("unsupported scan of %T into %s", val, target.Type())
	}
	return nil
}

type RowStub struct {
	rows *RowsStub
	err  error
}

func (r *RowStub) Err() error {
	return r.err
}

func (r *RowStub) Scan(dest ...any) error {
	if !r.rows.Next() {
		r.err = sql.ErrNoRows
		return r.err
	}
	r.err = r.rows.Scan(dest...)
	return r.err
}
