package testutils

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"

	pgsession "github.com/krew-solutions/omnisearch-go/omnisearch/session/pg"
	sqlsession "github.com/krew-solutions/omnisearch-go/omnisearch/session/sql"
)

// IntegrationEnv must be set for the tests that need a PostgreSQL database.
const IntegrationEnv = "OMNISEARCH_INTEGRATION"

func connString() string {
	var db_username string = getEnv("DB_USERNAME", "devel")
	var db_password string = getEnv("DB_PASSWORD", "devel")
	var db_host string = getEnv("DB_HOST", "localhost")
	var db_port string = getEnv("DB_PORT", "5432")
	var db_basename string = getEnv("DB_DATABASE", "devel_omnisearch")

	return "postgres://" + db_username + ":" + db_password + "@" + db_host + ":" + db_port + "/" + db_basename + "?sslmode=disable"
}

func NewPgSessionPool() (*pgsession.SessionPool, error) {
	pool, err := pgxpool.New(context.Background(), connString())
	if err != nil {
		return nil, err
	}

	return pgsession.NewSessionPool(pool), nil
}

// NewSqlSessionPool opens the same database through database/sql and lib/pq.
func NewSqlSessionPool() (*sqlsession.SessionPool, *sql.DB, error) {
	db, err := sql.Open("postgres", connString())
	if err != nil {
		return nil, nil, err
	}

	return sqlsession.NewSessionPool(db), db, nil
}

// SkipUnlessIntegration skips t when no database is configured for it.
func SkipUnlessIntegration(t testing.TB) {
	t.Helper()
	if _, ok := os.LookupEnv(IntegrationEnv); !ok {
		t.Skipf("set %s to run against PostgreSQL", IntegrationEnv)
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return fallback
}
