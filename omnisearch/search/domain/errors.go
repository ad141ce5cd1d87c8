package search

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrUnresolvedPath is returned by a backend when a field has no counterpart in its query schema.
	ErrUnresolvedPath = errors.New("omnisearch: unresolved path")

	ErrUnresolvedSortProperty = errors.New("omnisearch: unresolved sort property")
	ErrInvalidMetadata        = errors.New("omnisearch: invalid field metadata")

	// ErrNotPaginated is the panic value of Pagination.Offset on an inactive pagination.
	ErrNotPaginated = errors.New("omnisearch: pagination is not active")

	ErrInvalidDestination = errors.New("omnisearch: invalid destination")
)

// FilterError reports a filter expression that can not be evaluated against the query root.
type FilterError struct {
	Expression string
	Err        error
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("omnisearch: filter %q: %v", e.Expression, e.Err)
}

func (e *FilterError) Unwrap() error {
	return e.Err
}
