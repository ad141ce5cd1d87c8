package operators

import (
	"testing"
)

type Money struct {
	amount   int
	currency string
}

func (m Money) Equal(other EqualOperand) bool {
	o, ok := other.(Money)
	if !ok {
		return false
	}
	return m.amount == o.amount && m.currency == o.currency
}

func (m Money) LessThan(other LessThanOperand) bool {
	o, ok := other.(Money)
	if !ok {
		return false
	}
	return m.amount < o.amount
}

type Level string

type Year int

type identifier [4]byte

func TestInterfaceFallback(t *testing.T) {
	reg := NewDefaultRegistry()

	tests := []struct {
		name     string
		left     Money
		op       Operator
		right    Money
		expected bool
	}{
		{"equal", Money{100, "USD"}, OperatorEq, Money{100, "USD"}, true},
		{"different amount", Money{100, "USD"}, OperatorEq, Money{200, "USD"}, false},
		{"different currency", Money{100, "USD"}, OperatorEq, Money{100, "EUR"}, false},
		{"not equal", Money{100, "USD"}, OperatorNe, Money{200, "USD"}, true},
		{"50 < 100", Money{50, "USD"}, OperatorLt, Money{100, "USD"}, true},
		{"100 < 50", Money{100, "USD"}, OperatorLt, Money{50, "USD"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := reg.ExecBinary(tt.left, tt.op, tt.right)
			if err != nil {
				t.Fatalf("ExecBinary failed: %v", err)
			}
			if result != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestInterfaceFallback_Unsupported(t *testing.T) {
	reg := NewDefaultRegistry()

	_, err := reg.ExecBinary(Money{100, "USD"}, OperatorGt, Money{50, "USD"})
	if err == nil {
		t.Fatal("Expected error for operator without fallback interface")
	}
}

func TestNullPropagation(t *testing.T) {
	reg := NewDefaultRegistry()

	result, err := reg.ExecBinary(nil, OperatorEq, "x")
	if err != nil {
		t.Fatalf("ExecBinary failed: %v", err)
	}
	if result != nil {
		t.Errorf("Expected nil (NULL), got %v", result)
	}

	result, err = reg.ExecUnary(OperatorLower, nil)
	if err != nil {
		t.Fatalf("ExecUnary failed: %v", err)
	}
	if result != nil {
		t.Errorf("Expected nil (NULL), got %v", result)
	}

	result, err = reg.ExecUnary(OperatorIsNull, nil)
	if err != nil {
		t.Fatalf("ExecUnary failed: %v", err)
	}
	if result != true {
		t.Errorf("Expected true, got %v", result)
	}
}

func TestLike(t *testing.T) {
	reg := NewDefaultRegistry()

	tests := []struct {
		value    string
		pattern  string
		expected bool
	}{
		{"alice@example.com", "%example.com%", true},
		{"alice@example.com", "%example.net%", false},
		{"alice", "a_ice", true},
		{"alice", "a%", true},
		{"alice", "lice", false},
		{"100%", `100\%`, true},
		{"1000", `100\%`, false},
		{"a_b", `a\_b`, true},
		{"axb", `a\_b`, false},
		{"line\nbreak", "%break", true},
		{"(x)", "(x)", true},
	}

	for _, tt := range tests {
		t.Run(tt.value+" LIKE "+tt.pattern, func(t *testing.T) {
			result, err := reg.ExecBinary(tt.value, OperatorLike, tt.pattern)
			if err != nil {
				t.Fatalf("ExecBinary failed: %v", err)
			}
			if result != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestLower_NamedString(t *testing.T) {
	reg := NewDefaultRegistry()

	result, err := reg.ExecUnary(OperatorLower, Level("HIGH"))
	if err != nil {
		t.Fatalf("ExecUnary failed: %v", err)
	}
	if result != "high" {
		t.Errorf("Expected \"high\", got %v", result)
	}
}

func TestIn(t *testing.T) {
	reg := NewDefaultRegistry()

	tests := []struct {
		name     string
		left     any
		items    []any
		expected any
	}{
		{"match", Level("HIGH"), []any{Level("LOW"), Level("HIGH")}, true},
		{"no match", Level("MEDIUM"), []any{Level("LOW"), Level("HIGH")}, false},
		{"null operand", nil, []any{Level("LOW")}, nil},
		{"null item without match", 1, []any{nil, 2}, nil},
		{"null item with match", 2, []any{nil, 2}, true},
		{"empty list", 1, []any{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := reg.ExecBinary(tt.left, OperatorIn, tt.items)
			if err != nil {
				t.Fatalf("ExecBinary failed: %v", err)
			}
			if result != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestIn_RequiresList(t *testing.T) {
	reg := NewDefaultRegistry()

	_, err := reg.ExecBinary(1, OperatorIn, 1)
	if err == nil {
		t.Fatal("Expected error for non-list right operand")
	}
}

func TestNormalizedComparison(t *testing.T) {
	reg := NewDefaultRegistry()

	tests := []struct {
		name     string
		left     any
		op       Operator
		right    any
		expected bool
	}{
		{"named int equal", Year(2024), OperatorEq, Year(2024), true},
		{"named int less", Year(1999), OperatorLt, Year(2024), true},
		{"int32 and int", int32(42), OperatorEq, 42, true},
		{"uint8 greater", uint8(7), OperatorGt, uint8(3), true},
		{"float32 equal", float32(1.5), OperatorEq, float32(1.5), true},
		{"named string", Level("LOW"), OperatorNe, Level("HIGH"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := reg.ExecBinary(tt.left, tt.op, tt.right)
			if err != nil {
				t.Fatalf("ExecBinary failed: %v", err)
			}
			if result != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestComparableFallback(t *testing.T) {
	reg := NewDefaultRegistry()

	a := identifier{1, 2, 3, 4}
	b := identifier{1, 2, 3, 5}

	result, err := reg.ExecBinary(a, OperatorEq, a)
	if err != nil {
		t.Fatalf("ExecBinary failed: %v", err)
	}
	if result != true {
		t.Errorf("Expected true, got %v", result)
	}

	result, err = reg.ExecBinary(a, OperatorLt, b)
	if err != nil {
		t.Fatalf("ExecBinary failed: %v", err)
	}
	if result != true {
		t.Errorf("Expected true, got %v", result)
	}

	_, err = reg.ExecBinary(a, OperatorEq, "x")
	if err == nil {
		t.Fatal("Expected error for mismatched operand types")
	}
}
