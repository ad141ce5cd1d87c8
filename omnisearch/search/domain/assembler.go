package search

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/krew-solutions/omnisearch-go/omnisearch/specification/domain"
)

// SearchPredicate builds the free-text predicate of token over root and the named
// joins. A blank token yields nil: no constraint at all. A token no field accepts
// yields specification.False().
func (o *OmniSearch) SearchPredicate(root From, token string, joins []string) (specification.Visitable, error) {
	if strings.TrimSpace(token) == "" {
		return nil, nil
	}
	w := &walker{fields: o.fields, rules: o.rules, log: o.log}
	predicates, err := w.collect(token, root)
	if err != nil {
		return nil, err
	}
	for _, name := range uniqueNames(joins) {
		join, err := root.Join(name)
		if err != nil {
			return nil, errors.Wrapf(err, "join %q", name)
		}
		found, err := w.collectElements(token, join)
		if err != nil {
			return nil, err
		}
		predicates = append(predicates, found...)
	}
	return specification.Disjunction(predicates...), nil
}

// uniqueNames treats names as a set and orders it, so generated queries are stable.
func uniqueNames(names []string) []string {
	set := make(map[string]struct{}, len(names))
	result := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := set[name]; ok || name == "" {
			continue
		}
		set[name] = struct{}{}
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}
