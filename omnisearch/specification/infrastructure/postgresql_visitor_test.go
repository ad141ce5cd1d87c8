package specification

import (
	"testing"

	s "github.com/krew-solutions/omnisearch-go/omnisearch/specification/domain"
)

func TestSimpleFieldRendering(t *testing.T) {
	obj := s.Object(s.GlobalScope(), "users")
	expr := s.Field(obj, "name")

	sql, params, err := Compile(expr)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if sql != "users.name" {
		t.Errorf("Expected 'users.name', got %s", sql)
	}

	if len(params) != 0 {
		t.Errorf("Expected no params, got %v", params)
	}
}

func TestValueParameterization(t *testing.T) {
	sql, params, err := Compile(s.Value(42))
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if sql != "$1" {
		t.Errorf("Expected '$1', got %s", sql)
	}

	if len(params) != 1 || params[0] != 42 {
		t.Errorf("Expected params [42], got %v", params)
	}
}

func TestRendering(t *testing.T) {
	u := s.Object(s.GlobalScope(), "u")
	name := s.Field(u, "name")
	email := s.Field(u, "email")
	active := s.Field(u, "active")
	priority := s.Field(u, "priority")
	role := s.Field(s.Object(s.GlobalScope(), "role_1"), "role")

	tests := []struct {
		name       string
		expression s.Visitable
		sql        string
		params     []any
	}{
		{
			"lower like",
			s.Like(s.Lower(name), s.Value("%alice%")),
			"LOWER(u.name) LIKE $1",
			[]any{"%alice%"},
		},
		{
			"in list",
			s.In(priority, s.Value("LOW"), s.Value("HIGH")),
			"u.priority IN ($1, $2)",
			[]any{"LOW", "HIGH"},
		},
		{
			"literals",
			s.Or(s.True(), s.False()),
			"TRUE OR FALSE",
			nil,
		},
		{
			"or of comparisons",
			s.Or(s.Like(s.Lower(name), s.Value("%a%")), s.Equal(active, s.Value(true)), s.Equal(role, s.Value("USER"))),
			"LOWER(u.name) LIKE $1 OR u.active = $2 OR role_1.role = $3",
			[]any{"%a%", true, "USER"},
		},
		{
			"and binds tighter than or",
			s.Or(s.And(s.Equal(name, s.Value("a")), s.Equal(email, s.Value("b"))), s.Equal(active, s.Value(true))),
			"u.name = $1 AND u.email = $2 OR u.active = $3",
			[]any{"a", "b", true},
		},
		{
			"or inside and is parenthesized",
			s.And(s.Or(s.Equal(name, s.Value("a")), s.Equal(email, s.Value("b"))), s.True()),
			"(u.name = $1 OR u.email = $2) AND TRUE",
			[]any{"a", "b"},
		},
		{
			"not like",
			s.Not(s.Like(s.Lower(email), s.Value("%.com"))),
			"NOT LOWER(u.email) LIKE $1",
			[]any{"%.com"},
		},
		{
			"not of or is parenthesized",
			s.Not(s.Or(s.Equal(name, s.Value("a")), s.Equal(name, s.Value("b")))),
			"NOT (u.name = $1 OR u.name = $2)",
			[]any{"a", "b"},
		},
		{
			"is null",
			s.IsNull(email),
			"u.email IS NULL",
			nil,
		},
		{
			"lower of in",
			s.In(s.Lower(name), s.Value("alice"), s.Value("bob")),
			"LOWER(u.name) IN ($1, $2)",
			[]any{"alice", "bob"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := Compile(tt.expression)
			if err != nil {
				t.Fatalf("Compile failed: %v", err)
			}
			if sql != tt.sql {
				t.Errorf("unexpected SQL:\nexpected: %s\ngot:      %s", tt.sql, sql)
			}
			if len(params) != len(tt.params) {
				t.Fatalf("Expected params %v, got %v", tt.params, params)
			}
			for i := range params {
				if params[i] != tt.params[i] {
					t.Errorf("Param %d: expected %v, got %v", i, tt.params[i], params[i])
				}
			}
		})
	}
}

func TestQuestionPlaceholder(t *testing.T) {
	u := s.Object(s.GlobalScope(), "u")
	expr := s.And(s.Equal(s.Field(u, "a"), s.Value(1)), s.Equal(s.Field(u, "b"), s.Value(2)))

	sql, params, err := Compile(expr, WithPlaceholder(QuestionPlaceholder))
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if sql != "u.a = ? AND u.b = ?" {
		t.Errorf("Expected 'u.a = ? AND u.b = ?', got %s", sql)
	}
	if len(params) != 2 {
		t.Errorf("Expected 2 params, got %v", params)
	}
}

func TestEmptyListIsRejected(t *testing.T) {
	_, _, err := Compile(s.In(s.Field(s.Object(s.GlobalScope(), "u"), "priority")))
	if err == nil {
		t.Fatal("Expected error for empty IN list")
	}
}
