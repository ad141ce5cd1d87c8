package pg

import (
	"github.com/jackc/pgx/v5"
)

// pgxRows exposes pgx.Rows as session.Rows. pgx reports a failed read only once the
// rows are closed, so Close returns it.
type pgxRows struct {
	pgx.Rows
}

func (r pgxRows) Close() error {
	r.Rows.Close()
	return r.Rows.Err()
}

// pgxRow exposes pgx.Row as session.Row and keeps the error of its first Scan.
type pgxRow struct {
	pgx.Row
	err error
}

func (r *pgxRow) Err() error {
	return r.err
}

func (r *pgxRow) Scan(dest ...any) error {
	err := r.Row.Scan(dest...)
	if r.err == nil {
		r.err = err
	}
	return err
}
