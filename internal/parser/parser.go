package parser

import (
	"fmt"
	"strconv"

	"github.com/blitz-lang/blitz/internal/lexer"
	"github.com/blitz-lang/blitz/internal/position"
)

// ParseError represents a parsing error with position context. The parser
// fails fast: the first mismatch aborts with no recovery and no partial AST.
type ParseError struct {
	Pos     position.Position
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %s: %s", e.Pos, e.Message)
}

// Parser consumes a token sequence produced by the lexer. The sequence must
// be terminated by an EOF token.
type Parser struct {
	tokens []lexer.Token
	pos    int
}

// New creates a parser over the given token sequence.
func New(tokens []lexer.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse parses the token sequence into a Program.
func (p *Parser) Parse() (*Program, error) {
	startPos := p.current().Span.Start
	var functions []*FunctionDeclaration

	for !p.currentTokenIs(lexer.TokenEOF) {
		fn, err := p.parseFunction()
		if err != nil {
			return nil, err
		}
		functions = append(functions, fn)
	}

	return &Program{
		Span:      position.Between(startPos, p.current().Span.End),
		Functions: functions,
	}, nil
}

// current returns the token under examination.
func (p *Parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Type: lexer.TokenEOF}
	}
	return p.tokens[p.pos]
}

// previous returns the most recently consumed token.
func (p *Parser) previous() lexer.Token {
	return p.tokens[p.pos-1]
}

// advance consumes the current token and returns it.
func (p *Parser) advance() lexer.Token {
	tok := p.current()
	if !p.currentTokenIs(lexer.TokenEOF) {
		p.pos++
	}
	return tok
}

// currentTokenIs checks if the current token is of the given type.
func (p *Parser) currentTokenIs(tokenType lexer.TokenType) bool {
	return p.current().Type == tokenType
}

// match consumes the current token if it is one of the given types.
func (p *Parser) match(tokenTypes ...lexer.TokenType) bool {
	for _, tokenType := range tokenTypes {
		if p.currentTokenIs(tokenType) {
			p.advance()
			return true
		}
	}
	return false
}

// expect consumes the current token if it matches, or fails with a
// ParseError describing what was expected.
func (p *Parser) expect(tokenType lexer.TokenType, context string) (lexer.Token, error) {
	if p.currentTokenIs(tokenType) {
		return p.advance(), nil
	}
	tok := p.current()
	return lexer.Token{}, &ParseError{
		Pos:     tok.Span.Start,
		Message: fmt.Sprintf("expected %s %s, got %s", tokenType, context, tokenDesc(tok)),
	}
}

// tokenDesc renders a token for error messages.
func tokenDesc(tok lexer.Token) string {
	if tok.Type == lexer.TokenEOF {
		return "end of file"
	}
	return fmt.Sprintf("%q", tok.Literal)
}

// ====== Grammar rules ======

// parseFunction parses: 'fn' IDENT '(' ')' ('->' type)? '{' statement* '}'
func (p *Parser) parseFunction() (*FunctionDeclaration, error) {
	startPos := p.current().Span.Start

	if _, err := p.expect(lexer.TokenFn, "at start of function"); err != nil {
		return nil, err
	}
	nameTok, err := p.expect(lexer.TokenIdentifier, "as function name")
	if err != nil {
		return nil, err
	}
	name := &Identifier{Span: nameTok.Span, Value: nameTok.Literal}

	if _, err := p.expect(lexer.TokenLParen, "after function name"); err != nil {
		return nil, err
	}
	// Parameter binding is not part of the language yet; reject rather than
	// silently discard tokens.
	if !p.currentTokenIs(lexer.TokenRParen) {
		return nil, &ParseError{
			Pos:     p.current().Span.Start,
			Message: "function parameters are not supported",
		}
	}
	if _, err := p.expect(lexer.TokenRParen, "after parameters"); err != nil {
		return nil, err
	}

	returnType := ""
	if p.match(lexer.TokenArrow) {
		if p.match(lexer.TokenI32, lexer.TokenI64) {
			returnType = p.previous().Literal
		} else {
			typeTok, err := p.expect(lexer.TokenIdentifier, "as return type")
			if err != nil {
				return nil, err
			}
			returnType = typeTok.Literal
		}
	}

	if _, err := p.expect(lexer.TokenLBrace, "before function body"); err != nil {
		return nil, err
	}

	var body []Statement
	for !p.currentTokenIs(lexer.TokenRBrace) && !p.currentTokenIs(lexer.TokenEOF) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		body = append(body, stmt)
	}

	endTok, err := p.expect(lexer.TokenRBrace, "after function body")
	if err != nil {
		return nil, err
	}

	return &FunctionDeclaration{
		Span:       position.Between(startPos, endTok.Span.End),
		Name:       name,
		ReturnType: returnType,
		Body:       body,
	}, nil
}

// parseStatement parses a single statement.
func (p *Parser) parseStatement() (Statement, error) {
	switch p.current().Type {
	case lexer.TokenReturn:
		return p.parseReturnStatement()
	case lexer.TokenLet:
		return p.parseVariableDeclaration()
	default:
		return p.parseExpressionStatement()
	}
}

// parseReturnStatement parses: 'return' expr ';'
func (p *Parser) parseReturnStatement() (Statement, error) {
	startPos := p.advance().Span.Start // 'return'
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	endTok, err := p.expect(lexer.TokenSemicolon, "after return value")
	if err != nil {
		return nil, err
	}
	return &ReturnStatement{
		Span:  position.Between(startPos, endTok.Span.End),
		Value: value,
	}, nil
}

// parseVariableDeclaration parses: 'let' type? IDENT ('=' expr)? ';'
func (p *Parser) parseVariableDeclaration() (Statement, error) {
	startPos := p.advance().Span.Start // 'let'

	typeName := ""
	if p.match(lexer.TokenI32, lexer.TokenI64) {
		typeName = p.previous().Literal
	}

	nameTok, err := p.expect(lexer.TokenIdentifier, "as variable name")
	if err != nil {
		return nil, err
	}
	name := &Identifier{Span: nameTok.Span, Value: nameTok.Literal}

	var initializer Expression
	if p.match(lexer.TokenAssign) {
		initializer, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}

	endTok, err := p.expect(lexer.TokenSemicolon, "after variable declaration")
	if err != nil {
		return nil, err
	}

	return &VariableDeclaration{
		Span:        position.Between(startPos, endTok.Span.End),
		TypeName:    typeName,
		Name:        name,
		Initializer: initializer,
	}, nil
}

// parseExpressionStatement parses: expr ';'
func (p *Parser) parseExpressionStatement() (Statement, error) {
	startPos := p.current().Span.Start
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	endTok, err := p.expect(lexer.TokenSemicolon, "after expression")
	if err != nil {
		return nil, err
	}
	return &ExpressionStatement{
		Span:       position.Between(startPos, endTok.Span.End),
		Expression: expr,
	}, nil
}

// parseExpression parses an expression. Precedence is encoded structurally:
// multiplicative expressions nest inside additive ones, both left
// associative.
func (p *Parser) parseExpression() (Expression, error) {
	return p.parseAdditive()
}

// parseAdditive parses: mulExpr (('+'|'-') mulExpr)*
func (p *Parser) parseAdditive() (Expression, error) {
	expr, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}

	for p.match(lexer.TokenPlus, lexer.TokenMinus) {
		operator := p.previous().Type
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		expr = &BinaryExpression{
			Span:     position.Between(expr.GetSpan().Start, right.GetSpan().End),
			Left:     expr,
			Operator: operator,
			Right:    right,
		}
	}
	return expr, nil
}

// parseMultiplicative parses: primary (('*'|'/') primary)*
func (p *Parser) parseMultiplicative() (Expression, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for p.match(lexer.TokenMul, lexer.TokenDiv) {
		operator := p.previous().Type
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		expr = &BinaryExpression{
			Span:     position.Between(expr.GetSpan().Start, right.GetSpan().End),
			Left:     expr,
			Operator: operator,
			Right:    right,
		}
	}
	return expr, nil
}

// parsePrimary parses: NUMBER | STRING | IDENT call? | '(' expr ')'
func (p *Parser) parsePrimary() (Expression, error) {
	tok := p.current()

	switch tok.Type {
	case lexer.TokenNumber:
		p.advance()
		value, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			return nil, &ParseError{
				Pos:     tok.Span.Start,
				Message: fmt.Sprintf("invalid integer literal %q", tok.Literal),
			}
		}
		return &NumberLiteral{Span: tok.Span, Value: value}, nil

	case lexer.TokenString:
		p.advance()
		// The token literal carries both quote characters.
		return &StringLiteral{Span: tok.Span, Value: tok.Literal[1 : len(tok.Literal)-1]}, nil

	case lexer.TokenIdentifier:
		p.advance()
		name := &Identifier{Span: tok.Span, Value: tok.Literal}
		if p.currentTokenIs(lexer.TokenLParen) {
			return p.parseCall(name)
		}
		return name, nil

	case lexer.TokenLParen:
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenRParen, "after expression"); err != nil {
			return nil, err
		}
		return expr, nil

	default:
		return nil, &ParseError{
			Pos:     tok.Span.Start,
			Message: fmt.Sprintf("expected expression, got %s", tokenDesc(tok)),
		}
	}
}

// parseCall parses a call's argument list; the callee identifier has
// already been consumed and the current token is '('.
func (p *Parser) parseCall(callee *Identifier) (Expression, error) {
	p.advance() // '('

	var arguments []Expression
	if !p.currentTokenIs(lexer.TokenRParen) {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		arguments = append(arguments, arg)
		for p.match(lexer.TokenComma) {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			arguments = append(arguments, arg)
		}
	}

	endTok, err := p.expect(lexer.TokenRParen, "after call arguments")
	if err != nil {
		return nil, err
	}

	return &CallExpression{
		Span:      position.Between(callee.Span.Start, endTok.Span.End),
		Callee:    callee,
		Arguments: arguments,
	}, nil
}
