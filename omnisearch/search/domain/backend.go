package search

import (
	"context"
	"reflect"

	"github.com/krew-solutions/omnisearch-go/omnisearch/specification/domain"
)

// Path is a reference to a value reachable from a query root.
type Path interface {
	// Type is the Go type of the referenced value. For a join it is the element type.
	Type() reflect.Type
	// Expression is the operand that predicates over this path compare.
	Expression() specification.Visitable
	// Get extends the path by a field name. It fails with ErrUnresolvedPath when the
	// field has no counterpart in the backend schema.
	Get(name string) (Path, error)
}

// From is a path rows can be joined from: the query root or a join.
type From interface {
	Path
	// Join declares a left outer join of the named collection or relation.
	Join(name string) (From, error)
}

type Ordering struct {
	Expression specification.Visitable
	Ascending  bool
}

// Query accumulates a predicate, an ordering and a slice over one root entity.
type Query interface {
	Root() From
	Where(predicate specification.Visitable)
	OrderBy(orderings ...Ordering)
	Slice(offset, limit int)
	// List loads the matching root records into dest, a pointer to a slice of the root type.
	List(ctx context.Context, dest any) error
	// Count returns the number of distinct matching root records. Ordering and slice are ignored.
	Count(ctx context.Context) (int64, error)
}

type Backend interface {
	NewQuery(entityType reflect.Type) (Query, error)
}
