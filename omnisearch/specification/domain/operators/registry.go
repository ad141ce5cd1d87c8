package operators

import (
	"bytes"
	"fmt"
	"reflect"
)

type BinaryOp func(left, right any) (any, error)
type UnaryOp func(operand any) (any, error)

type binaryKey struct {
	left  reflect.Type
	op    Operator
	right reflect.Type
}

type unaryKey struct {
	op      Operator
	operand reflect.Type
}

type OperatorRegistry struct {
	binary map[binaryKey]BinaryOp
	unary  map[unaryKey]UnaryOp
}

func NewOperatorRegistry() *OperatorRegistry {
	return &OperatorRegistry{
		binary: make(map[binaryKey]BinaryOp),
		unary:  make(map[unaryKey]UnaryOp),
	}
}

func RegisterBinary[L, R any](reg *OperatorRegistry, op Operator, fn func(L, R) (any, error)) {
	var zeroL L
	var zeroR R
	key := binaryKey{
		left:  reflect.TypeOf(zeroL),
		op:    op,
		right: reflect.TypeOf(zeroR),
	}
	reg.binary[key] = func(left, right any) (any, error) {
		return fn(left.(L), right.(R))
	}
}

func RegisterUnary[T any](reg *OperatorRegistry, op Operator, fn func(T) (any, error)) {
	var zero T
	key := unaryKey{
		op:      op,
		operand: reflect.TypeOf(zero),
	}
	reg.unary[key] = func(operand any) (any, error) {
		return fn(operand.(T))
	}
}

// ExecBinary executes a binary operator with PostgreSQL NULL semantics.
func (r *OperatorRegistry) ExecBinary(left any, op Operator, right any) (any, error) {
	// Three-valued logic for AND/OR
	if op == OperatorAnd {
		return execAnd(left, right)
	}
	if op == OperatorOr {
		return execOr(left, right)
	}
	if op == OperatorIn {
		return r.execIn(left, right)
	}

	// NULL propagation for all other binary operators
	if left == nil || right == nil {
		return nil, nil
	}

	fn, err := r.lookupBinary(left, op, right)
	if err != nil {
		return nil, err
	}
	return fn(left, right)
}

// ExecUnary executes a unary operator with PostgreSQL NULL semantics.
func (r *OperatorRegistry) ExecUnary(op Operator, operand any) (any, error) {
	// IS NULL / IS NOT NULL give a definite result for any value including NULL
	if op == OperatorIsNull {
		return operand == nil, nil
	}
	if op == OperatorIsNotNull {
		return operand != nil, nil
	}

	// NULL propagation
	if operand == nil {
		return nil, nil
	}

	fn, err := r.lookupUnary(op, operand)
	if err != nil {
		return nil, err
	}
	return fn(operand)
}

// x IN (a, b) is x = a OR x = b: TRUE on a match, NULL if some comparison was NULL.
func (r *OperatorRegistry) execIn(left, right any) (any, error) {
	items, ok := right.([]any)
	if !ok {
		return nil, fmt.Errorf("operator \"IN\" requires a list, got %T", right)
	}
	if left == nil {
		return nil, nil
	}
	var result any = false
	for _, item := range items {
		eq, err := r.ExecBinary(left, OperatorEq, item)
		if err != nil {
			return nil, err
		}
		result, err = execOr(result, eq)
		if err != nil {
			return nil, err
		}
		if result == true {
			return true, nil
		}
	}
	return result, nil
}

func (r *OperatorRegistry) lookupBinary(left any, op Operator, right any) (BinaryOp, error) {
	key := binaryKey{
		left:  reflect.TypeOf(left),
		op:    op,
		right: reflect.TypeOf(right),
	}
	fn, ok := r.binary[key]
	if ok {
		return fn, nil
	}

	// Value Object interfaces
	if fallback := interfaceFallback(left, op); fallback != nil {
		return fallback, nil
	}

	// Named basic types (type Level string, type Year int) fall back to their kinds
	nLeft, lok := normalize(left)
	nRight, rok := normalize(right)
	if lok || rok {
		key = binaryKey{left: reflect.TypeOf(nLeft), op: op, right: reflect.TypeOf(nRight)}
		if fn, ok := r.binary[key]; ok {
			return func(left, right any) (any, error) {
				l, _ := normalize(left)
				r, _ := normalize(right)
				return fn(l, r)
			}, nil
		}
	}

	if fallback := comparableFallback(left, op, right); fallback != nil {
		return fallback, nil
	}

	return nil, fmt.Errorf("operator \"%s\" is not supported for %T and %T", op, left, right)
}

func (r *OperatorRegistry) lookupUnary(op Operator, operand any) (UnaryOp, error) {
	key := unaryKey{
		op:      op,
		operand: reflect.TypeOf(operand),
	}
	if fn, ok := r.unary[key]; ok {
		return fn, nil
	}
	if normalized, ok := normalize(operand); ok {
		key.operand = reflect.TypeOf(normalized)
		if fn, ok := r.unary[key]; ok {
			return func(operand any) (any, error) {
				o, _ := normalize(operand)
				return fn(o)
			}, nil
		}
	}
	return nil, fmt.Errorf("operator \"%s\" is not supported for %T", op, operand)
}

func interfaceFallback(left any, op Operator) BinaryOp {
	switch op {
	case OperatorEq:
		return operandFallback[EqualOperand](left, "EqualOperand", func(l, r EqualOperand) bool { return l.Equal(r) })
	case OperatorNe:
		return operandFallback[EqualOperand](left, "EqualOperand", func(l, r EqualOperand) bool { return !l.Equal(r) })
	case OperatorGt:
		return operandFallback[GreaterThanOperand](left, "GreaterThanOperand", func(l, r GreaterThanOperand) bool { return l.GreaterThan(r) })
	case OperatorGte:
		return operandFallback[GreaterThanEqualOperand](left, "GreaterThanEqualOperand", func(l, r GreaterThanEqualOperand) bool { return l.GreaterThanEqual(r) })
	case OperatorLt:
		return operandFallback[LessThanOperand](left, "LessThanOperand", func(l, r LessThanOperand) bool { return l.LessThan(r) })
	case OperatorLte:
		return operandFallback[LessThanEqualOperand](left, "LessThanEqualOperand", func(l, r LessThanEqualOperand) bool { return l.LessThanEqual(r) })
	}
	return nil
}

func operandFallback[T any](left any, name string, apply func(l, r T) bool) BinaryOp {
	if _, ok := left.(T); !ok {
		return nil
	}
	return func(left, right any) (any, error) {
		l, ok := left.(T)
		if !ok {
			return nil, fmt.Errorf("left operand %T does not implement %s", left, name)
		}
		r, ok := right.(T)
		if !ok {
			return nil, fmt.Errorf("right operand %T does not implement %s", right, name)
		}
		return apply(l, r), nil
	}
}

// comparableFallback covers identifiers such as uuid.UUID: equality for any
// comparable type, ordering for byte arrays.
func comparableFallback(left any, op Operator, right any) BinaryOp {
	lt, rt := reflect.TypeOf(left), reflect.TypeOf(right)
	if lt != rt || !lt.Comparable() {
		return nil
	}
	switch op {
	case OperatorEq:
		return func(left, right any) (any, error) { return left == right, nil }
	case OperatorNe:
		return func(left, right any) (any, error) { return left != right, nil }
	}
	if lt.Kind() != reflect.Array || lt.Elem().Kind() != reflect.Uint8 {
		return nil
	}
	return func(left, right any) (any, error) {
		c := bytes.Compare(arrayBytes(left), arrayBytes(right))
		switch op {
		case OperatorGt:
			return c > 0, nil
		case OperatorGte:
			return c >= 0, nil
		case OperatorLt:
			return c < 0, nil
		case OperatorLte:
			return c <= 0, nil
		}
		return nil, fmt.Errorf("operator \"%s\" is not supported for %T and %T", op, left, right)
	}
}

func arrayBytes(value any) []byte {
	v := reflect.ValueOf(value)
	b := make([]byte, v.Len())
	reflect.Copy(reflect.ValueOf(b), v)
	return b
}

var (
	stringType  = reflect.TypeOf("")
	int64Type   = reflect.TypeOf(int64(0))
	uint64Type  = reflect.TypeOf(uint64(0))
	float64Type = reflect.TypeOf(float64(0))
	boolType    = reflect.TypeOf(false)
)

// normalize converts a value of a named or sized basic type to the canonical
// type of its kind. The flag is false when the value is already canonical or
// has no basic kind.
func normalize(value any) (any, bool) {
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.String:
		return v.String(), v.Type() != stringType
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), v.Type() != int64Type
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint(), v.Type() != uint64Type
	case reflect.Float32, reflect.Float64:
		return v.Float(), v.Type() != float64Type
	case reflect.Bool:
		return v.Bool(), v.Type() != boolType
	}
	return value, false
}

// Three-valued logic: NULL AND FALSE = FALSE, NULL AND TRUE = NULL
func execAnd(left, right any) (any, error) {
	if left == nil {
		if val, ok := right.(bool); ok && !val {
			return false, nil
		}
		return nil, nil
	}
	if right == nil {
		if val, ok := left.(bool); ok && !val {
			return false, nil
		}
		return nil, nil
	}
	l, ok := left.(bool)
	if !ok {
		return nil, fmt.Errorf("operator \"AND\" requires bool, got %T", left)
	}
	r, ok := right.(bool)
	if !ok {
		return nil, fmt.Errorf("operator \"AND\" requires bool, got %T", right)
	}
	return l && r, nil
}

// Three-valued logic: NULL OR TRUE = TRUE, NULL OR FALSE = NULL
func execOr(left, right any) (any, error) {
	if left == nil {
		if val, ok := right.(bool); ok && val {
			return true, nil
		}
		return nil, nil
	}
	if right == nil {
		if val, ok := left.(bool); ok && val {
			return true, nil
		}
		return nil, nil
	}
	l, ok := left.(bool)
	if !ok {
		return nil, fmt.Errorf("operator \"OR\" requires bool, got %T", left)
	}
	r, ok := right.(bool)
	if !ok {
		return nil, fmt.Errorf("operator \"OR\" requires bool, got %T", right)
	}
	return l || r, nil
}
