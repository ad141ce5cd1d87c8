package search

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/krew-solutions/omnisearch-go/omnisearch/specification/domain"
)

var (
	uuidPattern    = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	ulidPattern    = regexp.MustCompile(`^[0-7][0-9A-HJKMNP-TV-Za-hjkmnp-tv-z]{25}$`)
	integerPattern = regexp.MustCompile(`^\d+$`)
	yearPattern    = regexp.MustCompile(`^\d{4}$`)

	uuidType = reflect.TypeOf(uuid.UUID{})
	ulidType = reflect.TypeOf(ulid.ULID{})
	yearType = reflect.TypeOf(Year(0))
)

// Rule produces the free-text predicates of one value category.
type Rule interface {
	// Applies reports whether values of t, a non-pointer type, belong to the category.
	Applies(t reflect.Type) bool
	// Predicates returns the atomic predicates of token over path. Tokens that do not
	// fit the category produce none.
	Predicates(path Path, token string) []specification.Visitable
}

// Rules are consulted in order; the first applicable rule decides.
type Rules []Rule

func DefaultRules() Rules {
	return Rules{
		TextRule{},
		IdentifierRule{},
		NumericRule{Parsers: DefaultNumericParsers()},
		BooleanRule{},
		YearRule{},
		EnumRule{},
	}
}

func (r Rules) Dispatch(path Path, token string) []specification.Visitable {
	t := indirect(path.Type())
	for _, rule := range r {
		if rule.Applies(t) {
			return rule.Predicates(path, token)
		}
	}
	return nil
}

// TextRule matches a case-insensitive substring.
type TextRule struct{}

func (TextRule) Applies(t reflect.Type) bool {
	return t.Kind() == reflect.String && !t.Implements(enumType)
}

func (TextRule) Predicates(path Path, token string) []specification.Visitable {
	pattern := "%" + escapeLike(strings.ToLower(token)) + "%"
	return []specification.Visitable{
		specification.Like(specification.Lower(path.Expression()), specification.Value(pattern)),
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// IdentifierRule matches UUIDs and ULIDs in their canonical text form.
type IdentifierRule struct{}

func (IdentifierRule) Applies(t reflect.Type) bool {
	return t == uuidType || t == ulidType
}

func (IdentifierRule) Predicates(path Path, token string) []specification.Visitable {
	var value any
	switch indirect(path.Type()) {
	case uuidType:
		if !uuidPattern.MatchString(token) {
			return nil
		}
		id, err := uuid.Parse(token)
		if err != nil {
			return nil
		}
		value = id
	case ulidType:
		if !ulidPattern.MatchString(token) {
			return nil
		}
		id, err := ulid.ParseStrict(token)
		if err != nil {
			return nil
		}
		value = id
	default:
		return nil
	}
	return []specification.Visitable{
		specification.Equal(path.Expression(), specification.Value(value)),
	}
}

// NumericParser converts a digit token into a value of the numeric types it accepts.
type NumericParser struct {
	Name    string
	Accepts func(t reflect.Type) bool
	// Parse returns a value of exactly type t, or an error if the token does not
	// fit t without loss.
	Parse func(token string, t reflect.Type) (any, error)
}

func DefaultNumericParsers() []NumericParser {
	return []NumericParser{
		{
			Name:    "integer",
			Accepts: kindIn(reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64),
			Parse: func(token string, t reflect.Type) (any, error) {
				n, err := strconv.ParseInt(token, 10, t.Bits())
				if err != nil {
					return nil, err
				}
				return reflect.ValueOf(n).Convert(t).Interface(), nil
			},
		},
		{
			Name:    "unsigned",
			Accepts: kindIn(reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64),
			Parse: func(token string, t reflect.Type) (any, error) {
				n, err := strconv.ParseUint(token, 10, t.Bits())
				if err != nil {
					return nil, err
				}
				return reflect.ValueOf(n).Convert(t).Interface(), nil
			},
		},
		{
			Name:    "decimal",
			Accepts: kindIn(reflect.Float32, reflect.Float64),
			Parse: func(token string, t reflect.Type) (any, error) {
				f, err := strconv.ParseFloat(token, t.Bits())
				if err != nil {
					return nil, err
				}
				digits := strings.TrimLeft(token, "0")
				if digits == "" {
					digits = "0"
				}
				if strconv.FormatFloat(f, 'f', -1, t.Bits()) != digits {
					return nil, strconv.ErrRange
				}
				return reflect.ValueOf(f).Convert(t).Interface(), nil
			},
		},
	}
}

func kindIn(kinds ...reflect.Kind) func(reflect.Type) bool {
	return func(t reflect.Type) bool {
		for _, k := range kinds {
			if t.Kind() == k {
				return true
			}
		}
		return false
	}
}

// NumericRule matches non-negative integer tokens by equality.
type NumericRule struct {
	Parsers []NumericParser
}

func (r NumericRule) Applies(t reflect.Type) bool {
	if t == yearType || t.Implements(enumType) {
		return false
	}
	for _, parser := range r.Parsers {
		if parser.Accepts(t) {
			return true
		}
	}
	return false
}

func (r NumericRule) Predicates(path Path, token string) []specification.Visitable {
	if !integerPattern.MatchString(token) {
		return nil
	}
	t := indirect(path.Type())
	var predicates []specification.Visitable
	for _, parser := range r.Parsers {
		if !parser.Accepts(t) {
			continue
		}
		value, err := parser.Parse(token, t)
		if err != nil {
			continue
		}
		predicates = append(predicates, specification.Equal(path.Expression(), specification.Value(value)))
	}
	return predicates
}

// BooleanRule matches the exact tokens "true" and "false".
type BooleanRule struct{}

func (BooleanRule) Applies(t reflect.Type) bool {
	return t.Kind() == reflect.Bool && !t.Implements(enumType)
}

func (BooleanRule) Predicates(path Path, token string) []specification.Visitable {
	if token != "true" && token != "false" {
		return nil
	}
	value := reflect.ValueOf(token == "true").Convert(indirect(path.Type())).Interface()
	return []specification.Visitable{
		specification.Equal(path.Expression(), specification.Value(value)),
	}
}

// YearRule matches four digit tokens.
type YearRule struct{}

func (YearRule) Applies(t reflect.Type) bool {
	return t == yearType
}

func (YearRule) Predicates(path Path, token string) []specification.Visitable {
	year, err := ParseYear(token)
	if err != nil {
		return nil
	}
	return []specification.Visitable{
		specification.Equal(path.Expression(), specification.Value(year)),
	}
}

// EnumRule matches the constants whose name contains the token, ignoring case,
// and the constants that accept the token as a Candidate.
type EnumRule struct{}

func (EnumRule) Applies(t reflect.Type) bool {
	return t.Implements(enumType)
}

func (EnumRule) Predicates(path Path, token string) []specification.Visitable {
	candidates := EnumCandidates(indirect(path.Type()), token)
	if len(candidates) == 0 {
		return nil
	}
	values := make([]specification.Visitable, len(candidates))
	for i, c := range candidates {
		values[i] = specification.Value(c)
	}
	return []specification.Visitable{
		specification.In(path.Expression(), values...),
	}
}

// EnumCandidates returns the constants of enumeration type t selected by token,
// in declaration order.
func EnumCandidates(t reflect.Type, token string) []Enum {
	zero, ok := reflect.Zero(t).Interface().(Enum)
	if !ok {
		return nil
	}
	needle := strings.ToLower(token)
	var candidates []Enum
	for _, c := range zero.Constants() {
		if strings.Contains(strings.ToLower(c.Name()), needle) {
			candidates = append(candidates, c)
			continue
		}
		if candidate, ok := c.(Candidate); ok && candidate.IsCandidate(token) {
			candidates = append(candidates, c)
		}
	}
	return candidates
}
