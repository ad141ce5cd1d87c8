package specification

import (
	"errors"
	"fmt"

	"github.com/krew-solutions/omnisearch-go/omnisearch/specification/domain/operators"
)

var ErrKeyNotFound = errors.New("key not found")

func NewEvaluateVisitor(context Context, registry *operators.OperatorRegistry) *EvaluateVisitor {
	return &EvaluateVisitor{
		Context:  context,
		registry: registry,
	}
}

// EvaluateVisitor evaluates an expression against a Context with SQL
// three-valued logic: an unknown (NULL) result is reported as nil.
type EvaluateVisitor struct {
	currentValue any
	stack        []Context
	registry     *operators.OperatorRegistry
	Context
}

func (v *EvaluateVisitor) push(ctx Context) {
	v.stack = append(v.stack, v.Context)
	v.Context = ctx
}

func (v *EvaluateVisitor) pop() {
	v.Context = v.stack[len(v.stack)-1]
	v.stack = v.stack[:len(v.stack)-1]
}

func (v EvaluateVisitor) CurrentValue() any {
	return v.currentValue
}

func (v *EvaluateVisitor) SetCurrentValue(val any) {
	v.currentValue = val
}

func (v *EvaluateVisitor) VisitGlobalScope(n GlobalScopeNode) error {
	v.push(v.Context)
	return nil
}

func (v *EvaluateVisitor) VisitObject(n ObjectNode) error {
	err := n.Parent().Accept(v)
	if err != nil {
		return err
	}
	obj, err := v.Context.Get(n.Name())
	v.pop()
	if err != nil {
		return err
	}
	if obj == nil {
		v.push(NullContext{})
		return nil
	}
	ctx, ok := obj.(Context)
	if !ok {
		return fmt.Errorf("\"%s\" is not an object, got %T", n.Name(), obj)
	}
	v.push(ctx)
	return nil
}

func (v *EvaluateVisitor) VisitField(n FieldNode) error {
	err := n.Object().Accept(v)
	if err != nil {
		return err
	}
	value, err := v.Context.Get(n.Name())
	v.pop()
	if err != nil {
		return err
	}
	v.SetCurrentValue(value)
	return nil
}

func (v *EvaluateVisitor) VisitValue(n ValueNode) error {
	v.SetCurrentValue(n.Value())
	return nil
}

func (v *EvaluateVisitor) VisitList(n ListNode) error {
	items := make([]any, 0, len(n.Values()))
	for _, item := range n.Values() {
		if err := item.Accept(v); err != nil {
			return err
		}
		items = append(items, v.CurrentValue())
	}
	v.SetCurrentValue(items)
	return nil
}

func (v *EvaluateVisitor) VisitLiteral(n LiteralNode) error {
	v.SetCurrentValue(n.Value())
	return nil
}

func (v *EvaluateVisitor) VisitPrefix(n PrefixNode) error {
	err := n.Operand().Accept(v)
	if err != nil {
		return err
	}
	result, err := v.registry.ExecUnary(n.Operator(), v.CurrentValue())
	if err != nil {
		return err
	}
	v.SetCurrentValue(result)
	return nil
}

func (v *EvaluateVisitor) VisitPostfix(n PostfixNode) error {
	err := n.Operand().Accept(v)
	if err != nil {
		return err
	}
	result, err := v.registry.ExecUnary(n.Operator(), v.CurrentValue())
	if err != nil {
		return err
	}
	v.SetCurrentValue(result)
	return nil
}

func (v *EvaluateVisitor) VisitInfix(n InfixNode) error {
	err := n.Left().Accept(v)
	if err != nil {
		return err
	}
	left := v.CurrentValue()
	err = n.Right().Accept(v)
	if err != nil {
		return err
	}
	right := v.CurrentValue()
	result, err := v.registry.ExecBinary(left, n.Operator(), right)
	if err != nil {
		return err
	}
	v.SetCurrentValue(result)
	return nil
}

// Result reports whether the expression holds. NULL does not hold, as in a WHERE clause.
func (v EvaluateVisitor) Result() (bool, error) {
	result := v.CurrentValue()
	if result == nil {
		return false, nil
	}
	resultTyped, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("the result is not a bool, got %T", result)
	}
	return resultTyped, nil
}

type Context interface {
	Get(string) (any, error)
}

// NullContext is the scope of an absent object: every field is NULL.
type NullContext struct{}

func (NullContext) Get(string) (any, error) {
	return nil, nil
}

// Evaluate runs exp against ctx and reports whether it holds.
func Evaluate(exp Visitable, ctx Context, registry *operators.OperatorRegistry) (bool, error) {
	v := NewEvaluateVisitor(ctx, registry)
	if err := exp.Accept(v); err != nil {
		return false, err
	}
	return v.Result()
}
