// Package lexer implements the Blitz lexical analyzer. It converts raw
// source text into a flat token sequence terminated by a single EOF token.
package lexer

import (
	"fmt"

	"github.com/blitz-lang/blitz/internal/position"
)

// TokenType represents the type of a token.
type TokenType int

// Token types for the Blitz language.
const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError

	// Literals
	TokenIdentifier
	TokenNumber
	TokenString

	// Keywords
	TokenFn
	TokenReturn
	TokenLet
	TokenI32
	TokenI64

	// Symbols
	TokenLParen    // (
	TokenRParen    // )
	TokenLBrace    // {
	TokenRBrace    // }
	TokenSemicolon // ;
	TokenComma     // ,
	TokenAssign    // =
	TokenArrow     // ->

	// Operators
	TokenPlus  // +
	TokenMinus // -
	TokenMul   // *
	TokenDiv   // /
)

// tokenNames provides string representations for token types.
var tokenNames = map[TokenType]string{
	TokenEOF:   "EOF",
	TokenError: "ERROR",

	TokenIdentifier: "IDENTIFIER",
	TokenNumber:     "NUMBER",
	TokenString:     "STRING",

	TokenFn:     "FN",
	TokenReturn: "RETURN",
	TokenLet:    "LET",
	TokenI32:    "I32",
	TokenI64:    "I64",

	TokenLParen:    "LPAREN",
	TokenRParen:    "RPAREN",
	TokenLBrace:    "LBRACE",
	TokenRBrace:    "RBRACE",
	TokenSemicolon: "SEMICOLON",
	TokenComma:     "COMMA",
	TokenAssign:    "ASSIGN",
	TokenArrow:     "ARROW",

	TokenPlus:  "PLUS",
	TokenMinus: "MINUS",
	TokenMul:   "MUL",
	TokenDiv:   "DIV",
}

// String returns a string representation of the token type.
func (tt TokenType) String() string {
	if name, ok := tokenNames[tt]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(tt))
}

// keywords maps string keywords to their token types.
var keywords = map[string]TokenType{
	"fn":     TokenFn,
	"return": TokenReturn,
	"let":    TokenLet,
	"i32":    TokenI32,
	"i64":    TokenI64,
}

// Token represents a lexical token with position information.
// String literal tokens keep both surrounding quote characters; later
// stages strip them.
type Token struct {
	Type    TokenType
	Literal string
	Span    position.Span
}

// String returns a string representation of the token.
func (t Token) String() string {
	return fmt.Sprintf("{Type: %s, Literal: %q, Position: %s}",
		t.Type, t.Literal, t.Span.Start)
}

// LexError describes a failure during lexical analysis.
type LexError struct {
	Pos     position.Position
	Message string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at %s: %s", e.Pos, e.Message)
}

// Lexer holds the scanning state for one source text.
type Lexer struct {
	input        string
	filename     string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination
	line         int  // current line number
	column       int  // current column number
}

// New creates a new lexer instance for the given source text.
func New(input string) *Lexer {
	return NewWithFilename(input, "")
}

// NewWithFilename creates a new lexer instance with a filename for error
// reporting.
func NewWithFilename(input, filename string) *Lexer {
	l := &Lexer{
		input:    input,
		filename: filename,
		line:     1,
		column:   0,
	}
	l.readChar()
	return l
}

// Tokenize scans the whole input and returns the token sequence. The
// sequence always ends with exactly one EOF token. The first lexical
// failure aborts the scan with a *LexError.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}

// readChar reads the next character and advances position.
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0 // ASCII NUL represents "EOF"
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++

	if l.ch == '\n' {
		l.line++
		l.column = 0
	} else {
		l.column++
	}
}

// peekChar returns the next character without advancing position.
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

// currentPosition returns the position of the character under examination.
func (l *Lexer) currentPosition() position.Position {
	return position.Position{
		Filename: l.filename,
		Line:     l.line,
		Column:   l.column,
		Offset:   l.position,
	}
}

// skipWhitespace skips spaces, tabs, carriage returns and newlines.
// Line accounting happens in readChar.
func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n' {
		l.readChar()
	}
}

// skipLineComment skips a // comment up to, but not including, the newline.
func (l *Lexer) skipLineComment() {
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
}

// skipBlockComment skips a /* ... */ comment. Block comments do not nest.
func (l *Lexer) skipBlockComment() error {
	start := l.currentPosition()
	l.readChar() // '/'
	l.readChar() // '*'
	for {
		if l.ch == 0 {
			return &LexError{Pos: start, Message: "unterminated block comment"}
		}
		if l.ch == '*' && l.peekChar() == '/' {
			l.readChar() // '*'
			l.readChar() // '/'
			return nil
		}
		l.readChar()
	}
}

// next scans and returns the next token.
func (l *Lexer) next() (Token, error) {
	for {
		l.skipWhitespace()
		if l.ch == '/' && l.peekChar() == '/' {
			l.skipLineComment()
			continue
		}
		if l.ch == '/' && l.peekChar() == '*' {
			if err := l.skipBlockComment(); err != nil {
				return Token{}, err
			}
			continue
		}
		break
	}

	startPos := l.currentPosition()

	switch {
	case l.ch == 0:
		return l.tokenAt(TokenEOF, "", startPos), nil
	case isLetter(l.ch) || l.ch == '_':
		literal := l.readIdentifier()
		return l.tokenAt(lookupIdent(literal), literal, startPos), nil
	case isDigit(l.ch):
		literal := l.readNumber()
		return l.tokenAt(TokenNumber, literal, startPos), nil
	case l.ch == '"':
		return l.readString(startPos)
	}

	var tok Token
	switch l.ch {
	case '(':
		tok = l.tokenFromChar(TokenLParen, startPos)
	case ')':
		tok = l.tokenFromChar(TokenRParen, startPos)
	case '{':
		tok = l.tokenFromChar(TokenLBrace, startPos)
	case '}':
		tok = l.tokenFromChar(TokenRBrace, startPos)
	case ';':
		tok = l.tokenFromChar(TokenSemicolon, startPos)
	case ',':
		tok = l.tokenFromChar(TokenComma, startPos)
	case '=':
		tok = l.tokenFromChar(TokenAssign, startPos)
	case '+':
		tok = l.tokenFromChar(TokenPlus, startPos)
	case '*':
		tok = l.tokenFromChar(TokenMul, startPos)
	case '/':
		tok = l.tokenFromChar(TokenDiv, startPos)
	case '-':
		if l.peekChar() == '>' {
			l.readChar()
			tok = l.tokenAt(TokenArrow, "->", startPos)
		} else {
			tok = l.tokenFromChar(TokenMinus, startPos)
		}
	default:
		return Token{}, &LexError{
			Pos:     startPos,
			Message: fmt.Sprintf("unexpected character %q", l.ch),
		}
	}

	l.readChar()
	return tok, nil
}

// readIdentifier reads a maximal run of letters, digits and underscores.
func (l *Lexer) readIdentifier() string {
	start := l.position
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	return l.input[start:l.position]
}

// readNumber reads a maximal run of decimal digits. No sign, no decimal
// point, no suffix.
func (l *Lexer) readNumber() string {
	start := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

// readString reads a string literal from the opening quote to the next
// unescaped quote on the same line. A backslash shields the following
// character from the terminator search; escape sequences are not decoded.
// The returned token literal includes both quote characters.
func (l *Lexer) readString(startPos position.Position) (Token, error) {
	start := l.position
	l.readChar() // opening quote
	for {
		if l.ch == 0 || l.ch == '\n' {
			return Token{}, &LexError{Pos: startPos, Message: "unterminated string literal"}
		}
		if l.ch == '"' {
			break
		}
		if l.ch == '\\' && l.peekChar() != 0 {
			l.readChar() // shield the escaped character
		}
		l.readChar()
	}
	l.readChar() // closing quote
	return l.tokenAt(TokenString, l.input[start:l.position], startPos), nil
}

// tokenAt creates a token spanning from startPos to the current position.
func (l *Lexer) tokenAt(tokenType TokenType, literal string, startPos position.Position) Token {
	return Token{
		Type:    tokenType,
		Literal: literal,
		Span:    position.Between(startPos, l.currentPosition()),
	}
}

// tokenFromChar creates a single-character token at startPos.
func (l *Lexer) tokenFromChar(tokenType TokenType, startPos position.Position) Token {
	endPos := startPos
	endPos.Column++
	endPos.Offset++
	return Token{
		Type:    tokenType,
		Literal: string(l.ch),
		Span:    position.Between(startPos, endPos),
	}
}

// lookupIdent checks whether an identifier is a keyword.
func lookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return TokenIdentifier
}

// isLetter checks if character is an ASCII letter.
func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z'
}

// isDigit checks if character is an ASCII digit.
func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
