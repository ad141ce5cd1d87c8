package search

import "github.com/krew-solutions/omnisearch-go/omnisearch/specification/domain/rsql"

// BaseOptions select records: a free-text token over every searchable field, the
// collections and relations to search as well, and a structured filter.
type BaseOptions struct {
	Search string
	Joins  []string
	Filter rsql.Node
}

// Options are BaseOptions plus the ordering and the page of a listing.
type Options struct {
	BaseOptions
	Sort       Sort
	Pagination Pagination
}
