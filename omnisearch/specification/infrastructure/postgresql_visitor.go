package specification

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	s "github.com/krew-solutions/omnisearch-go/omnisearch/specification/domain"
)

// Compile renders exp as a PostgreSQL boolean expression with bound parameters.
func Compile(exp s.Visitable, opts ...PostgresqlVisitorOption) (sql string, params []any, err error) {
	v := NewPostgresqlVisitor(opts...)
	err = exp.Accept(v)
	if err != nil {
		return "", nil, err
	}
	return v.Result()
}

// Placeholder renders the n-th (1-based) bound parameter.
type Placeholder func(n int) string

func DollarPlaceholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

// QuestionPlaceholder leaves numbering to a query builder such as squirrel.
func QuestionPlaceholder(int) string {
	return "?"
}

type PostgresqlVisitorOption func(*PostgresqlVisitor)

func WithPlaceholder(placeholder Placeholder) PostgresqlVisitorOption {
	return func(v *PostgresqlVisitor) {
		v.placeholder = placeholder
	}
}

func NewPostgresqlVisitor(opts ...PostgresqlVisitorOption) *PostgresqlVisitor {
	v := &PostgresqlVisitor{
		placeholder:       DollarPlaceholder,
		precedenceMapping: make(map[string]int),
	}
	// https://www.postgresql.org/docs/14/sql-syntax-lexical.html#SQL-PRECEDENCE-TABLE
	v.setPrecedence(160, ". LEFT")
	v.setPrecedence(160, ":: LEFT")
	v.setPrecedence(150, "[ LEFT")
	v.setPrecedence(140, "+ RIGHT", "- RIGHT")
	v.setPrecedence(130, "^ LEFT")
	v.setPrecedence(120, "* LEFT", "/ LEFT", "% LEFT")
	v.setPrecedence(110, "+ LEFT", "- LEFT")
	// all other native and user-defined operators 👇️
	v.setPrecedence(100, "(any other operator) LEFT")
	v.setPrecedence(90, "BETWEEN NON", "IN NON", "LIKE NON", "ILIKE NON", "SIMILAR NON")
	v.setPrecedence(80, "< NON", "> NON", "= NON", "<= NON", ">= NON", "!= NON")
	v.setPrecedence(70, "IS NON", "ISNULL NON", "NOTNULL NON", "IS NULL NON", "IS NOT NULL NON")
	v.setPrecedence(60, "NOT RIGHT")
	v.setPrecedence(50, "AND LEFT")
	v.setPrecedence(40, "OR LEFT")
	for i := range opts {
		opts[i](v)
	}
	return v
}

type PostgresqlVisitor struct {
	sql               strings.Builder
	placeholder       Placeholder
	parameters        []any
	precedence        int
	precedenceMapping map[string]int
}

func (v *PostgresqlVisitor) getNodePrecedenceKey(n s.Operable) string {
	operator := n.Operator()
	return fmt.Sprintf("%s %s", operator, n.Associativity())
}
func (v *PostgresqlVisitor) setPrecedence(precedence int, operators ...string) {
	for _, op := range operators {
		v.precedenceMapping[op] = precedence
	}
}

func (v *PostgresqlVisitor) visit(precedenceKey string, callable func() error) error {
	outerPrecedence := v.precedence
	innerPrecedence, ok := v.precedenceMapping[precedenceKey]
	if !ok {
		innerPrecedence, ok = v.precedenceMapping["(any other operator) LEFT"]
		if !ok {
			innerPrecedence = outerPrecedence
		}
	}
	v.precedence = innerPrecedence
	if innerPrecedence < outerPrecedence {
		v.sql.WriteString("(")
	}
	err := callable()
	if err != nil {
		return err
	}
	if innerPrecedence < outerPrecedence {
		v.sql.WriteString(")")
	}
	v.precedence = outerPrecedence
	return nil
}

// nested renders callable inside explicit parentheses, e.g. function arguments.
func (v *PostgresqlVisitor) nested(callable func() error) error {
	outerPrecedence := v.precedence
	v.precedence = 0
	v.sql.WriteString("(")
	if err := callable(); err != nil {
		return err
	}
	v.sql.WriteString(")")
	v.precedence = outerPrecedence
	return nil
}

func (v *PostgresqlVisitor) VisitGlobalScope(_ s.GlobalScopeNode) error {
	return nil
}

func (v *PostgresqlVisitor) VisitObject(_ s.ObjectNode) error {
	return nil
}

func (v *PostgresqlVisitor) VisitField(n s.FieldNode) error {
	path := s.ExtractFieldPath(n)
	v.sql.WriteString(strings.Join(path, "."))
	return nil
}

func (v *PostgresqlVisitor) VisitValue(n s.ValueNode) error {
	v.parameters = append(v.parameters, n.Value())
	v.sql.WriteString(v.placeholder(len(v.parameters)))
	return nil
}

func (v *PostgresqlVisitor) VisitList(n s.ListNode) error {
	if len(n.Values()) == 0 {
		return errors.New("empty value list cannot be rendered")
	}
	return v.nested(func() error {
		for i, item := range n.Values() {
			if i > 0 {
				v.sql.WriteString(", ")
			}
			if err := item.Accept(v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (v *PostgresqlVisitor) VisitLiteral(n s.LiteralNode) error {
	if n.Value() {
		v.sql.WriteString("TRUE")
	} else {
		v.sql.WriteString("FALSE")
	}
	return nil
}

func (v *PostgresqlVisitor) VisitPrefix(node s.PrefixNode) error {
	operator := node.Operator()
	if operator.IsFunction() {
		v.sql.WriteString(string(operator))
		return v.nested(func() error {
			return node.Operand().Accept(v)
		})
	}
	precedenceKey := v.getNodePrecedenceKey(node)
	return v.visit(precedenceKey, func() error {
		v.sql.WriteString(fmt.Sprintf("%s ", operator))
		return node.Operand().Accept(v)
	})
}

func (v *PostgresqlVisitor) VisitInfix(n s.InfixNode) error {
	precedenceKey := v.getNodePrecedenceKey(n)
	return v.visit(precedenceKey, func() error {
		err := n.Left().Accept(v)
		if err != nil {
			return err
		}
		v.sql.WriteString(fmt.Sprintf(" %s ", n.Operator()))
		err = n.Right().Accept(v)
		if err != nil {
			return err
		}
		return nil
	})
}

func (v *PostgresqlVisitor) VisitPostfix(node s.PostfixNode) error {
	precedenceKey := v.getNodePrecedenceKey(node)
	return v.visit(precedenceKey, func() error {
		err := node.Operand().Accept(v)
		if err != nil {
			return err
		}
		operator := node.Operator()
		v.sql.WriteString(fmt.Sprintf(" %s", operator))
		return nil
	})
}

func (v *PostgresqlVisitor) Result() (sql string, params []any, err error) {
	return v.sql.String(), v.parameters, nil
}
