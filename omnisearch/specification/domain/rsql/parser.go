// Package rsql parses RSQL/FIQL filter expressions into an AST.
//
// Grammar:
//
//	or         = and , { ( "," | " or " ) , and }
//	and        = constraint , { ( ";" | " and " ) , constraint }
//	constraint = "(" , or , ")" | comparison
//	comparison = selector , operator , arguments
//	arguments  = "(" , value , { "," , value } , ")" | value
//
// Operators are ==, !=, =lt= (<), =le= (<=), =gt= (>), =ge= (>=), =in=, =out= and =isnull=.
// Values are unreserved words or single or double quoted strings with backslash escapes.
package rsql

import (
	"fmt"
	"regexp"
	"strings"
)

// TokenType represents the type of a token.
type TokenType string

const (
	TokenLParen     TokenType = "LPAREN"
	TokenRParen     TokenType = "RPAREN"
	TokenAnd        TokenType = "AND"
	TokenOr         TokenType = "OR"
	TokenOperator   TokenType = "OPERATOR"
	TokenString     TokenType = "STRING"
	TokenUnreserved TokenType = "UNRESERVED"
	TokenWhitespace TokenType = "WHITESPACE"
)

// Token represents a token in the filter expression.
type Token struct {
	Type     TokenType
	Value    string
	Position int
}

func (t Token) String() string {
	return fmt.Sprintf("Token(%s, %q)", t.Type, t.Value)
}

type tokenPattern struct {
	Type    TokenType
	Pattern *regexp.Regexp
}

var patterns = []tokenPattern{
	{TokenLParen, regexp.MustCompile(`^\(`)},
	{TokenRParen, regexp.MustCompile(`^\)`)},
	{TokenAnd, regexp.MustCompile(`^;`)},
	{TokenOr, regexp.MustCompile(`^,`)},
	{TokenOperator, regexp.MustCompile(`^(=[a-z]*=|!=|<=|>=|<|>)`)},
	{TokenString, regexp.MustCompile(`^"(\\.|[^"\\])*"|^'(\\.|[^'\\])*'`)},
	{TokenUnreserved, regexp.MustCompile(`^[^\s"'();,=!<>]+`)},
	{TokenWhitespace, regexp.MustCompile(`^\s+`)},
}

// SyntaxError reports a malformed expression.
type SyntaxError struct {
	Position int
	Message  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("rsql: %s at position %d", e.Message, e.Position)
}

// Tokenize splits text into tokens, dropping whitespace.
func Tokenize(text string) ([]Token, error) {
	var tokens []Token
	position := 0
	for position < len(text) {
		remaining := text[position:]
		matched := false
		for _, pattern := range patterns {
			loc := pattern.Pattern.FindStringIndex(remaining)
			if loc == nil {
				continue
			}
			if pattern.Type != TokenWhitespace {
				tokens = append(tokens, Token{
					Type:     pattern.Type,
					Value:    remaining[:loc[1]],
					Position: position,
				})
			}
			position += loc[1]
			matched = true
			break
		}
		if !matched {
			return nil, &SyntaxError{Position: position, Message: fmt.Sprintf("unexpected character %q", text[position])}
		}
	}
	return tokens, nil
}

// Parse parses a filter expression.
func Parse(text string) (Node, error) {
	tokens, err := Tokenize(text)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens, end: len(text)}
	if len(tokens) == 0 {
		return nil, &SyntaxError{Position: 0, Message: "empty expression"}
	}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.i < len(p.tokens) {
		return nil, p.unexpected()
	}
	return node, nil
}

// MustParse is like Parse but panics on error.
func MustParse(text string) Node {
	node, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return node
}

type parser struct {
	tokens []Token
	i      int
	end    int
}

func (p *parser) peek() (Token, bool) {
	if p.i >= len(p.tokens) {
		return Token{}, false
	}
	return p.tokens[p.i], true
}

func (p *parser) unexpected() error {
	token, ok := p.peek()
	if !ok {
		return &SyntaxError{Position: p.end, Message: "unexpected end of expression"}
	}
	return &SyntaxError{Position: token.Position, Message: fmt.Sprintf("unexpected %s", token)}
}

// isLogical reports whether the current token joins constraints with the given
// logic, either as a symbol or as a keyword.
func (p *parser) isLogical(symbol TokenType, keyword string) bool {
	token, ok := p.peek()
	if !ok {
		return false
	}
	return token.Type == symbol || (token.Type == TokenUnreserved && strings.EqualFold(token.Value, keyword))
}

func (p *parser) parseOr() (Node, error) {
	first, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	children := []Node{first}
	for p.isLogical(TokenOr, "or") {
		p.i++
		next, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		children = append(children, next)
	}
	if len(children) == 1 {
		return first, nil
	}
	return Or(children...), nil
}

func (p *parser) parseAnd() (Node, error) {
	first, err := p.parseConstraint()
	if err != nil {
		return nil, err
	}
	children := []Node{first}
	for p.isLogical(TokenAnd, "and") {
		p.i++
		next, err := p.parseConstraint()
		if err != nil {
			return nil, err
		}
		children = append(children, next)
	}
	if len(children) == 1 {
		return first, nil
	}
	return And(children...), nil
}

func (p *parser) parseConstraint() (Node, error) {
	token, ok := p.peek()
	if !ok {
		return nil, p.unexpected()
	}
	if token.Type != TokenLParen {
		return p.parseComparison()
	}
	p.i++
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if token, ok := p.peek(); !ok || token.Type != TokenRParen {
		return nil, p.unexpected()
	}
	p.i++
	return node, nil
}

func (p *parser) parseComparison() (Node, error) {
	selector, ok := p.peek()
	if !ok || selector.Type != TokenUnreserved {
		return nil, p.unexpected()
	}
	p.i++

	opToken, ok := p.peek()
	if !ok || opToken.Type != TokenOperator {
		return nil, p.unexpected()
	}
	operator, known := operatorAliases[opToken.Value]
	if !known {
		return nil, &SyntaxError{Position: opToken.Position, Message: fmt.Sprintf("unknown operator %q", opToken.Value)}
	}
	p.i++

	arguments, err := p.parseArguments()
	if err != nil {
		return nil, err
	}
	if len(arguments) > 1 && !operator.IsMultiValue() {
		return nil, &SyntaxError{Position: opToken.Position, Message: fmt.Sprintf("operator %q takes a single argument", opToken.Value)}
	}
	return Comparison(selector.Value, operator, arguments...), nil
}

func (p *parser) parseArguments() ([]string, error) {
	token, ok := p.peek()
	if !ok {
		return nil, p.unexpected()
	}
	if token.Type != TokenLParen {
		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		return []string{value}, nil
	}
	p.i++
	var values []string
	for {
		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		values = append(values, value)
		token, ok := p.peek()
		if !ok {
			return nil, p.unexpected()
		}
		p.i++
		switch token.Type {
		case TokenOr:
			continue
		case TokenRParen:
			return values, nil
		}
		p.i--
		return nil, p.unexpected()
	}
}

func (p *parser) parseValue() (string, error) {
	token, ok := p.peek()
	if !ok {
		return "", p.unexpected()
	}
	switch token.Type {
	case TokenUnreserved:
		p.i++
		return token.Value, nil
	case TokenString:
		p.i++
		return unquote(token.Value), nil
	}
	return "", p.unexpected()
}

func unquote(quoted string) string {
	body := quoted[1 : len(quoted)-1]
	var b strings.Builder
	escaped := false
	for _, r := range body {
		if escaped {
			b.WriteRune(r)
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
