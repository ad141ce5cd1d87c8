package rsql

import (
	"regexp"
	"strings"
)

type ComparisonOperator string

const (
	Equal              ComparisonOperator = "=="
	NotEqual           ComparisonOperator = "!="
	LessThan           ComparisonOperator = "=lt="
	LessThanOrEqual    ComparisonOperator = "=le="
	GreaterThan        ComparisonOperator = "=gt="
	GreaterThanOrEqual ComparisonOperator = "=ge="
	In                 ComparisonOperator = "=in="
	NotIn              ComparisonOperator = "=out="
	IsNull             ComparisonOperator = "=isnull="
)

var operatorAliases = map[string]ComparisonOperator{
	"==":       Equal,
	"!=":       NotEqual,
	"=lt=":     LessThan,
	"<":        LessThan,
	"=le=":     LessThanOrEqual,
	"<=":       LessThanOrEqual,
	"=gt=":     GreaterThan,
	">":        GreaterThan,
	"=ge=":     GreaterThanOrEqual,
	">=":       GreaterThanOrEqual,
	"=in=":     In,
	"=out=":    NotIn,
	"=isnull=": IsNull,
}

// IsMultiValue reports whether the operator takes a parenthesised argument list.
func (o ComparisonOperator) IsMultiValue() bool {
	return o == In || o == NotIn
}

type Visitor interface {
	VisitAnd(AndNode) error
	VisitOr(OrNode) error
	VisitComparison(ComparisonNode) error
}

type Node interface {
	Accept(Visitor) error
	String() string
}

func And(children ...Node) AndNode {
	return AndNode{children: children}
}

type AndNode struct {
	children []Node
}

func (n AndNode) Children() []Node {
	return n.children
}

func (n AndNode) Accept(v Visitor) error {
	return v.VisitAnd(n)
}

func (n AndNode) String() string {
	parts := make([]string, len(n.children))
	for i, child := range n.children {
		if _, ok := child.(OrNode); ok {
			parts[i] = "(" + child.String() + ")"
		} else {
			parts[i] = child.String()
		}
	}
	return strings.Join(parts, ";")
}

func Or(children ...Node) OrNode {
	return OrNode{children: children}
}

type OrNode struct {
	children []Node
}

func (n OrNode) Children() []Node {
	return n.children
}

func (n OrNode) Accept(v Visitor) error {
	return v.VisitOr(n)
}

func (n OrNode) String() string {
	parts := make([]string, len(n.children))
	for i, child := range n.children {
		parts[i] = child.String()
	}
	return strings.Join(parts, ",")
}

func Comparison(selector string, operator ComparisonOperator, arguments ...string) ComparisonNode {
	return ComparisonNode{
		selector:  selector,
		operator:  operator,
		arguments: arguments,
	}
}

type ComparisonNode struct {
	selector  string
	operator  ComparisonOperator
	arguments []string
}

func (n ComparisonNode) Selector() string {
	return n.selector
}

func (n ComparisonNode) Operator() ComparisonOperator {
	return n.operator
}

func (n ComparisonNode) Arguments() []string {
	return n.arguments
}

func (n ComparisonNode) Accept(v Visitor) error {
	return v.VisitComparison(n)
}

var unreservedPattern = regexp.MustCompile(`^[^\s"'();,=!<>]+$`)

func (n ComparisonNode) String() string {
	args := make([]string, len(n.arguments))
	for i, arg := range n.arguments {
		if unreservedPattern.MatchString(arg) {
			args[i] = arg
		} else {
			args[i] = `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(arg) + `"`
		}
	}
	value := strings.Join(args, ",")
	if n.operator.IsMultiValue() {
		value = "(" + value + ")"
	}
	return n.selector + string(n.operator) + value
}
