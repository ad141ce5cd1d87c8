package pg

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krew-solutions/omnisearch-go/omnisearch/session"
)

// fakeRows yields values, then fails with err if it is set.
type fakeRows struct {
	pgx.Rows
	values []string
	idx    int
	err    error
	closed bool
}

func (r *fakeRows) Next() bool {
	if r.closed || r.idx >= len(r.values) {
		return false
	}
	r.idx++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	*dest[0].(*string) = r.values[r.idx-1]
	return nil
}

func (r *fakeRows) Err() error {
	if r.idx < len(r.values) {
		return nil
	}
	return r.err
}

func (r *fakeRows) Close() {
	r.closed = true
}

type fakeRow struct {
	errs []error
}

func (r *fakeRow) Scan(dest ...any) error {
	err := r.errs[0]
	r.errs = r.errs[1:]
	return err
}

func TestRows(t *testing.T) {
	tests := []struct {
		name     string
		rows     *fakeRows
		expected []string
	}{
		{"read", &fakeRows{values: []string{"a", "b"}}, []string{"a", "b"}},
		{"failed read", &fakeRows{values: []string{"a"}, err: errors.New("conn reset")}, []string{"a"}},
		{"empty", &fakeRows{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rows session.Rows = pgxRows{tt.rows}
			var actual []string
			for rows.Next() {
				var v string
				require.NoError(t, rows.Scan(&v))
				actual = append(actual, v)
			}
			assert.Equal(t, tt.expected, actual)
			assert.Equal(t, tt.rows.err, rows.Err())
			assert.Equal(t, tt.rows.err, rows.Close())
			assert.True(t, tt.rows.closed)
		})
	}
}

func TestRow_KeepsFirstError(t *testing.T) {
	first := errors.New("no rows")
	var r session.Row = &pgxRow{Row: &fakeRow{errs: []error{first, nil, errors.New("later")}}}

	assert.NoError(t, r.Err())
	assert.Equal(t, first, r.Scan())
	assert.NoError(t, r.Scan())
	assert.Error(t, r.Scan())
	assert.Equal(t, first, r.Err())
}
