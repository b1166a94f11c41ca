// Package parser implements the Blitz recursive descent parser and the AST
// node definitions it produces.
package parser

import (
	"fmt"
	"strings"

	"github.com/blitz-lang/blitz/internal/lexer"
	"github.com/blitz-lang/blitz/internal/position"
)

// Node represents the base interface for all AST nodes. The node set is
// closed: consumers dispatch with exhaustive type switches and treat any
// other type as an internal error.
type Node interface {
	// GetSpan returns the source span for this node.
	GetSpan() position.Span
	// String returns a string representation of the node.
	String() string
}

// Statement represents all statement nodes.
type Statement interface {
	Node
	statementNode()
}

// Expression represents all expression nodes.
type Expression interface {
	Node
	expressionNode()
}

// ====== Program structure ======

// Program represents the root of the AST for one compilation unit.
type Program struct {
	Span      position.Span
	Functions []*FunctionDeclaration
}

func (p *Program) GetSpan() position.Span { return p.Span }
func (p *Program) String() string         { return fmt.Sprintf("Program(%d functions)", len(p.Functions)) }

// FunctionDeclaration represents a function definition. Parameter lists are
// not supported by the language yet; the parser rejects non-empty lists.
type FunctionDeclaration struct {
	Span       position.Span
	Name       *Identifier
	ReturnType string // "" when no return type is declared
	Body       []Statement
}

func (f *FunctionDeclaration) GetSpan() position.Span { return f.Span }
func (f *FunctionDeclaration) String() string         { return fmt.Sprintf("fn %s", f.Name.Value) }
func (f *FunctionDeclaration) statementNode()         {}

// ====== Statements ======

// ReturnStatement represents a return statement.
type ReturnStatement struct {
	Span  position.Span
	Value Expression
}

func (r *ReturnStatement) GetSpan() position.Span { return r.Span }
func (r *ReturnStatement) String() string         { return fmt.Sprintf("return %s", r.Value) }
func (r *ReturnStatement) statementNode()         {}

// VariableDeclaration represents a let statement. TypeName is empty when
// the declaration carries no explicit type; Initializer may be nil.
type VariableDeclaration struct {
	Span        position.Span
	TypeName    string
	Name        *Identifier
	Initializer Expression
}

func (v *VariableDeclaration) GetSpan() position.Span { return v.Span }
func (v *VariableDeclaration) String() string         { return fmt.Sprintf("let %s", v.Name.Value) }
func (v *VariableDeclaration) statementNode()         {}

// ExpressionStatement represents an expression used as a statement; the
// value is discarded.
type ExpressionStatement struct {
	Span       position.Span
	Expression Expression
}

func (e *ExpressionStatement) GetSpan() position.Span { return e.Span }
func (e *ExpressionStatement) String() string         { return e.Expression.String() }
func (e *ExpressionStatement) statementNode()         {}

// ====== Expressions ======

// Identifier represents a bare variable reference.
type Identifier struct {
	Span  position.Span
	Value string
}

func (i *Identifier) GetSpan() position.Span { return i.Span }
func (i *Identifier) String() string         { return i.Value }
func (i *Identifier) expressionNode()        {}

// NumberLiteral represents an integer literal.
type NumberLiteral struct {
	Span  position.Span
	Value int64
}

func (n *NumberLiteral) GetSpan() position.Span { return n.Span }
func (n *NumberLiteral) String() string         { return fmt.Sprintf("%d", n.Value) }
func (n *NumberLiteral) expressionNode()        {}

// StringLiteral represents a string literal with the surrounding quotes
// already stripped.
type StringLiteral struct {
	Span  position.Span
	Value string
}

func (s *StringLiteral) GetSpan() position.Span { return s.Span }
func (s *StringLiteral) String() string         { return fmt.Sprintf("%q", s.Value) }
func (s *StringLiteral) expressionNode()        {}

// CallExpression represents a function call.
type CallExpression struct {
	Span      position.Span
	Callee    *Identifier
	Arguments []Expression
}

func (c *CallExpression) GetSpan() position.Span { return c.Span }
func (c *CallExpression) String() string {
	args := make([]string, len(c.Arguments))
	for i, a := range c.Arguments {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", c.Callee.Value, strings.Join(args, ", "))
}
func (c *CallExpression) expressionNode() {}

// BinaryExpression represents a binary operation. Operator is one of
// TokenPlus, TokenMinus, TokenMul, TokenDiv.
type BinaryExpression struct {
	Span     position.Span
	Left     Expression
	Operator lexer.TokenType
	Right    Expression
}

func (b *BinaryExpression) GetSpan() position.Span { return b.Span }
func (b *BinaryExpression) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, operatorText(b.Operator), b.Right)
}
func (b *BinaryExpression) expressionNode() {}

func operatorText(op lexer.TokenType) string {
	switch op {
	case lexer.TokenPlus:
		return "+"
	case lexer.TokenMinus:
		return "-"
	case lexer.TokenMul:
		return "*"
	case lexer.TokenDiv:
		return "/"
	default:
		return op.String()
	}
}
