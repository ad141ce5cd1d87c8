package pg_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	search "github.com/krew-solutions/omnisearch-go/omnisearch/search/domain"
	"github.com/krew-solutions/omnisearch-go/omnisearch/search/infrastructure/pg"
	"github.com/krew-solutions/omnisearch-go/omnisearch/session"
	"github.com/krew-solutions/omnisearch-go/omnisearch/specification/domain/rsql"
	"github.com/krew-solutions/omnisearch-go/omnisearch/utils/testutils"
)

var ddl = []string{
	`DROP TABLE IF EXISTS contacts`,
	`DROP TABLE IF EXISTS users`,
	`CREATE TABLE users (
		id uuid PRIMARY KEY,
		created_in integer NOT NULL,
		name text NOT NULL,
		email text NOT NULL,
		active boolean NOT NULL,
		priority text NOT NULL,
		age integer NOT NULL,
		address_street text,
		address_city text,
		roles text[] NOT NULL DEFAULT '{}',
		password text
	)`,
	`CREATE TABLE contacts (
		id bigint PRIMARY KEY,
		user_id uuid NOT NULL REFERENCES users (id),
		first_name text NOT NULL,
		last_name text NOT NULL
	)`,
}

func seed(t *testing.T, pool session.SessionPool) {
	t.Helper()
	err := pool.Session(context.Background(), func(s session.Session) error {
		return s.Atomic(func(s session.Session) error {
			conn := s.(session.DbSession).Connection()
			for _, statement := range ddl {
				if _, err := conn.Exec(statement); err != nil {
					return err
				}
			}
			for _, u := range testutils.SeedUsers() {
				roles := make([]string, len(u.Roles))
				for i, r := range u.Roles {
					roles[i] = string(r)
				}
				if _, err := conn.Exec(
					`INSERT INTO users (id, created_in, name, email, active, priority, age, address_street, address_city, roles, password)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
					u.ID, int(u.CreatedIn), u.Name, u.Email, u.Active, string(u.Priority), u.Age,
					u.Address.Street, u.Address.City, roles, u.Password,
				); err != nil {
					return err
				}
				for _, c := range u.Contacts {
					if _, err := conn.Exec(
						`INSERT INTO contacts (id, user_id, first_name, last_name) VALUES ($1, $2, $3, $4)`,
						c.ID, c.UserID, c.FirstName, c.LastName,
					); err != nil {
						return err
					}
				}
			}
			return nil
		})
	})
	require.NoError(t, err)
}

func TestIntegration(t *testing.T) {
	testutils.SkipUnlessIntegration(t)

	pgxPool, err := testutils.NewPgSessionPool()
	require.NoError(t, err)
	defer pgxPool.Close()
	seed(t, pgxPool)

	sqlPool, db, err := testutils.NewSqlSessionPool()
	require.NoError(t, err)
	defer db.Close()

	pools := []struct {
		name string
		pool session.SessionPool
	}{
		{"pgx", pgxPool},
		{"database/sql", sqlPool},
	}
	for _, p := range pools {
		t.Run(p.name, func(t *testing.T) {
			scenarios(t, search.New(pg.NewBackend(userSchema(), p.pool)))
		})
	}
}

func scenarios(t *testing.T, o *search.OmniSearch) {
	ctx := context.Background()

	tests := []struct {
		name     string
		options  search.BaseOptions
		expected []uuid.UUID
	}{
		{"name", search.BaseOptions{Search: "Alice"}, []uuid.UUID{testutils.AliceID}},
		{"email", search.BaseOptions{Search: "example.com"}, []uuid.UUID{testutils.AliceID, testutils.BobID}},
		{"boolean", search.BaseOptions{Search: "true"}, []uuid.UUID{testutils.AliceID, testutils.DaveID}},
		{"enum", search.BaseOptions{Search: "HIGH"}, []uuid.UUID{testutils.AliceID}},
		{"roles", search.BaseOptions{Search: "USER"}, []uuid.UUID{testutils.AliceID, testutils.DaveID}},
		{"contacts", search.BaseOptions{Search: "Contact1", Joins: []string{"contacts"}}, []uuid.UUID{testutils.AliceID}},
		{"filter", search.BaseOptions{Filter: rsql.MustParse("name==alice;email==*example.com*")}, []uuid.UUID{testutils.AliceID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, err := search.Search[testutils.User](ctx, o, search.Options{BaseOptions: tt.options})
			require.NoError(t, err)
			ids := make([]uuid.UUID, len(users))
			for i, u := range users {
				ids[i] = u.ID
			}
			assert.ElementsMatch(t, tt.expected, ids)

			n, err := search.Count[testutils.User](ctx, o, tt.options)
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.expected)), n)
		})
	}

	users, err := search.Search[testutils.User](ctx, o, search.Options{
		Sort:       search.By(search.Asc("address.city")),
		Pagination: search.Paginate(0, 2),
	})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Berlin", users[0].Address.City)
	assert.Equal(t, "Lisbon", users[1].Address.City)
}
