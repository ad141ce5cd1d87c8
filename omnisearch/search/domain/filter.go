package search

import (
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"

	"github.com/krew-solutions/omnisearch-go/omnisearch/specification/domain"
	"github.com/krew-solutions/omnisearch-go/omnisearch/specification/domain/rsql"
)

// FilterEvaluator turns a parsed filter into a predicate bound to root.
type FilterEvaluator interface {
	Evaluate(ast rsql.Node, root From) (specification.Visitable, error)
}

// RSQLEvaluator evaluates RSQL filters. Selectors are dotted field paths; a
// segment that names a collection or a relation is left joined.
//
// String equality ignores case, and a * in the argument of == or != matches any
// run of characters. Other arguments are converted to the type of the field.
type RSQLEvaluator struct {
	fields *FieldCache
}

func NewRSQLEvaluator(fields *FieldCache) *RSQLEvaluator {
	if fields == nil {
		fields = defaultFieldCache
	}
	return &RSQLEvaluator{fields: fields}
}

func (e *RSQLEvaluator) Evaluate(ast rsql.Node, root From) (specification.Visitable, error) {
	v := &filterVisitor{resolver: newSelectorResolver(root, e.fields, true)}
	if err := ast.Accept(v); err != nil {
		return nil, &FilterError{Expression: ast.String(), Err: err}
	}
	return v.result, nil
}

type filterVisitor struct {
	resolver *selectorResolver
	result   specification.Visitable
}

func (v *filterVisitor) children(nodes []rsql.Node) ([]specification.Visitable, error) {
	operands := make([]specification.Visitable, 0, len(nodes))
	for _, node := range nodes {
		if err := node.Accept(v); err != nil {
			return nil, err
		}
		operands = append(operands, v.result)
	}
	return operands, nil
}

func (v *filterVisitor) VisitAnd(n rsql.AndNode) error {
	operands, err := v.children(n.Children())
	if err != nil {
		return err
	}
	v.result = specification.Conjunction(operands...)
	return nil
}

func (v *filterVisitor) VisitOr(n rsql.OrNode) error {
	operands, err := v.children(n.Children())
	if err != nil {
		return err
	}
	v.result = specification.Disjunction(operands...)
	return nil
}

func (v *filterVisitor) VisitComparison(n rsql.ComparisonNode) error {
	path, err := v.resolver.resolve(n.Selector())
	if err != nil {
		return err
	}
	args := n.Arguments()
	if len(args) == 0 {
		return errors.Errorf("%s: missing argument", n.Selector())
	}
	t := indirect(path.Type())
	expr := path.Expression()
	text := t.Kind() == reflect.String && !t.Implements(enumType)

	switch n.Operator() {
	case rsql.Equal, rsql.NotEqual:
		predicate, err := equality(expr, t, text, args[0])
		if err != nil {
			return errors.Wrap(err, n.Selector())
		}
		if n.Operator() == rsql.NotEqual {
			predicate = specification.Not(predicate)
		}
		v.result = predicate
	case rsql.LessThan, rsql.LessThanOrEqual, rsql.GreaterThan, rsql.GreaterThanOrEqual:
		value, err := coerce(t, args[0])
		if err != nil {
			return errors.Wrap(err, n.Selector())
		}
		v.result = ordered(n.Operator(), expr, specification.Value(value))
	case rsql.In, rsql.NotIn:
		operand := expr
		if text {
			operand = specification.Lower(expr)
		}
		values := make([]specification.Visitable, len(args))
		for i, arg := range args {
			if text {
				values[i] = specification.Value(strings.ToLower(arg))
				continue
			}
			value, err := coerce(t, arg)
			if err != nil {
				return errors.Wrap(err, n.Selector())
			}
			values[i] = specification.Value(value)
		}
		var predicate specification.Visitable = specification.In(operand, values...)
		if n.Operator() == rsql.NotIn {
			predicate = specification.Not(predicate)
		}
		v.result = predicate
	case rsql.IsNull:
		isNull, err := strconv.ParseBool(args[0])
		if err != nil {
			return errors.Wrapf(err, "%s: %s", n.Selector(), n.Operator())
		}
		if isNull {
			v.result = specification.IsNull(expr)
		} else {
			v.result = specification.IsNotNull(expr)
		}
	default:
		return errors.Errorf("%s: unsupported operator %q", n.Selector(), n.Operator())
	}
	return nil
}

func equality(expr specification.Visitable, t reflect.Type, text bool, arg string) (specification.Visitable, error) {
	if text {
		lowered := specification.Lower(expr)
		if strings.Contains(arg, "*") {
			pattern := strings.ReplaceAll(escapeLike(strings.ToLower(arg)), "*", "%")
			return specification.Like(lowered, specification.Value(pattern)), nil
		}
		return specification.Equal(lowered, specification.Value(strings.ToLower(arg))), nil
	}
	value, err := coerce(t, arg)
	if err != nil {
		return nil, err
	}
	return specification.Equal(expr, specification.Value(value)), nil
}

func ordered(op rsql.ComparisonOperator, left, right specification.Visitable) specification.Visitable {
	switch op {
	case rsql.LessThan:
		return specification.LessThan(left, right)
	case rsql.LessThanOrEqual:
		return specification.LessThanEqual(left, right)
	case rsql.GreaterThan:
		return specification.GreaterThan(left, right)
	}
	return specification.GreaterThanEqual(left, right)
}

// coerce converts a filter argument to a value of type t.
func coerce(t reflect.Type, arg string) (any, error) {
	switch {
	case t == uuidType:
		return uuid.Parse(arg)
	case t == ulidType:
		return ulid.ParseStrict(arg)
	case t == timeType:
		return time.Parse(time.RFC3339, arg)
	case t == yearType:
		return ParseYear(arg)
	case t.Implements(enumType):
		zero := reflect.Zero(t).Interface().(Enum)
		for _, c := range zero.Constants() {
			if strings.EqualFold(c.Name(), arg) {
				return c, nil
			}
		}
		return nil, errors.Errorf("%q is not a constant of %s", arg, t)
	}
	switch t.Kind() {
	case reflect.String:
		return reflect.ValueOf(arg).Convert(t).Interface(), nil
	case reflect.Bool:
		b, err := strconv.ParseBool(arg)
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(b).Convert(t).Interface(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(arg, 10, t.Bits())
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(n).Convert(t).Interface(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(arg, 10, t.Bits())
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(n).Convert(t).Interface(), nil
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(arg, t.Bits())
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(f).Convert(t).Interface(), nil
	}
	return nil, errors.Errorf("values of %s can not be filtered", t)
}
