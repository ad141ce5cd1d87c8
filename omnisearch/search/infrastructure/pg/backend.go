// Package pg runs searches against PostgreSQL. Predicates are rendered by the
// PostgreSQL visitor and composed with squirrel into a SELECT DISTINCT over the
// root table, LEFT JOINed with the collections the query uses.
package pg

import (
	"reflect"

	"github.com/sirupsen/logrus"

	search "github.com/krew-solutions/omnisearch-go/omnisearch/search/domain"
	"github.com/krew-solutions/omnisearch-go/omnisearch/session"
)

type Option func(*Backend)

func WithLogger(log logrus.FieldLogger) Option {
	return func(b *Backend) {
		b.log = log
	}
}

// Backend queries the tables schema maps, through sessions of pool. A pool lends
// either pgx or database/sql sessions; both implement session.DbSession.
type Backend struct {
	schema *Schema
	pool   session.SessionPool
	log    logrus.FieldLogger
}

func NewBackend(schema *Schema, pool session.SessionPool, opts ...Option) *Backend {
	b := &Backend{
		schema: schema,
		pool:   pool,
		log:    logrus.StandardLogger(),
	}
	for i := range opts {
		opts[i](b)
	}
	return b
}

func (b *Backend) NewQuery(entityType reflect.Type) (search.Query, error) {
	registry, err := b.schema.registry(entityType)
	if err != nil {
		return nil, err
	}
	q := &query{backend: b, entityType: indirect(entityType), registry: registry}
	q.root = &root{
		table: table{alias: registry.Ref(), registry: registry, owner: q.entityType},
		query: q,
	}
	return q, nil
}
