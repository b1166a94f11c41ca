package lexer

import (
	"strings"
	"testing"
)

func TestTokenizeBasicSymbols(t *testing.T) {
	input := `(){};,=+-*/`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenLParen, "("},
		{TokenRParen, ")"},
		{TokenLBrace, "{"},
		{TokenRBrace, "}"},
		{TokenSemicolon, ";"},
		{TokenComma, ","},
		{TokenAssign, "="},
		{TokenPlus, "+"},
		{TokenMinus, "-"},
		{TokenMul, "*"},
		{TokenDiv, "/"},
		{TokenEOF, ""},
	}

	tokens, err := New(input).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize() failed: %v", err)
	}
	if len(tokens) != len(tests) {
		t.Fatalf("token count wrong. expected=%d, got=%d", len(tests), len(tokens))
	}

	for i, tt := range tests {
		tok := tokens[i]
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestTokenizeKeywordsAndIdentifiers(t *testing.T) {
	input := `fn main() -> i32 {
    let i64 count = 42;
    return count;
}`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{TokenFn, "fn"},
		{TokenIdentifier, "main"},
		{TokenLParen, "("},
		{TokenRParen, ")"},
		{TokenArrow, "->"},
		{TokenI32, "i32"},
		{TokenLBrace, "{"},
		{TokenLet, "let"},
		{TokenI64, "i64"},
		{TokenIdentifier, "count"},
		{TokenAssign, "="},
		{TokenNumber, "42"},
		{TokenSemicolon, ";"},
		{TokenReturn, "return"},
		{TokenIdentifier, "count"},
		{TokenSemicolon, ";"},
		{TokenRBrace, "}"},
		{TokenEOF, ""},
	}

	tokens, err := New(input).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize() failed: %v", err)
	}
	if len(tokens) != len(tests) {
		t.Fatalf("token count wrong. expected=%d, got=%d", len(tests), len(tokens))
	}

	for i, tt := range tests {
		tok := tokens[i]
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestTokenizeArrowVersusMinus(t *testing.T) {
	tokens, err := New(`- -> - >`).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize() failed: %v", err)
	}

	if tokens[0].Type != TokenMinus {
		t.Errorf("tokens[0] type wrong. expected=%q, got=%q", TokenMinus, tokens[0].Type)
	}
	if tokens[1].Type != TokenArrow {
		t.Errorf("tokens[1] type wrong. expected=%q, got=%q", TokenArrow, tokens[1].Type)
	}
	if tokens[1].Literal != "->" {
		t.Errorf("tokens[1] literal wrong. expected=%q, got=%q", "->", tokens[1].Literal)
	}
	if tokens[2].Type != TokenMinus {
		t.Errorf("tokens[2] type wrong. expected=%q, got=%q", TokenMinus, tokens[2].Type)
	}
}

func TestTokenizeStringLiteralKeepsQuotes(t *testing.T) {
	tokens, err := New(`printnl("Hello, World!");`).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize() failed: %v", err)
	}

	if tokens[2].Type != TokenString {
		t.Fatalf("tokens[2] type wrong. expected=%q, got=%q", TokenString, tokens[2].Type)
	}
	if tokens[2].Literal != `"Hello, World!"` {
		t.Errorf("string literal wrong. expected=%q, got=%q",
			`"Hello, World!"`, tokens[2].Literal)
	}
}

func TestTokenizeEscapedQuoteInString(t *testing.T) {
	tokens, err := New(`"say \"hi\""`).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize() failed: %v", err)
	}
	if tokens[0].Type != TokenString {
		t.Fatalf("tokens[0] type wrong. expected=%q, got=%q", TokenString, tokens[0].Type)
	}
	if tokens[0].Literal != `"say \"hi\""` {
		t.Errorf("string literal wrong. expected=%q, got=%q",
			`"say \"hi\""`, tokens[0].Literal)
	}
	if tokens[1].Type != TokenEOF {
		t.Errorf("tokens[1] type wrong. expected=%q, got=%q", TokenEOF, tokens[1].Type)
	}
}

func TestTokenizeComments(t *testing.T) {
	input := `// leading comment
fn /* inline */ main() {} // trailing`

	tests := []TokenType{
		TokenFn, TokenIdentifier, TokenLParen, TokenRParen,
		TokenLBrace, TokenRBrace, TokenEOF,
	}

	tokens, err := New(input).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize() failed: %v", err)
	}
	if len(tokens) != len(tests) {
		t.Fatalf("token count wrong. expected=%d, got=%d", len(tests), len(tokens))
	}
	for i, expected := range tests {
		if tokens[i].Type != expected {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, expected, tokens[i].Type)
		}
	}
}

func TestTokenizeSingleEOF(t *testing.T) {
	tokens, err := New("   \n\t  ").Tokenize()
	if err != nil {
		t.Fatalf("Tokenize() failed: %v", err)
	}
	if len(tokens) != 1 {
		t.Fatalf("token count wrong. expected=1, got=%d", len(tokens))
	}
	if tokens[0].Type != TokenEOF {
		t.Errorf("tokens[0] type wrong. expected=%q, got=%q", TokenEOF, tokens[0].Type)
	}
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{"unexpected character", "let @x = 1;", "unexpected character"},
		{"string hits newline", "\"abc\nrest", "unterminated string literal"},
		{"string hits eof", `"abc`, "unterminated string literal"},
		{"unterminated block comment", "fn main() { /* nope", "unterminated block comment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.input).Tokenize()
			if err == nil {
				t.Fatalf("Tokenize(%q) succeeded, want error", tt.input)
			}
			lexErr, ok := err.(*LexError)
			if !ok {
				t.Fatalf("error type wrong. expected=*LexError, got=%T", err)
			}
			if !strings.Contains(lexErr.Message, tt.wantMsg) {
				t.Errorf("error message wrong. expected to contain %q, got %q",
					tt.wantMsg, lexErr.Message)
			}
		})
	}
}

func TestTokenizePositions(t *testing.T) {
	input := "fn main\nreturn"
	tokens, err := NewWithFilename(input, "test.blitz").Tokenize()
	if err != nil {
		t.Fatalf("Tokenize() failed: %v", err)
	}

	fn := tokens[0]
	if fn.Span.Start.Line != 1 || fn.Span.Start.Column != 1 {
		t.Errorf("fn position wrong. expected=1:1, got=%d:%d",
			fn.Span.Start.Line, fn.Span.Start.Column)
	}
	main := tokens[1]
	if main.Span.Start.Line != 1 || main.Span.Start.Column != 4 {
		t.Errorf("main position wrong. expected=1:4, got=%d:%d",
			main.Span.Start.Line, main.Span.Start.Column)
	}
	ret := tokens[2]
	if ret.Span.Start.Line != 2 || ret.Span.Start.Column != 1 {
		t.Errorf("return position wrong. expected=2:1, got=%d:%d",
			ret.Span.Start.Line, ret.Span.Start.Column)
	}
	if ret.Span.Start.Filename != "test.blitz" {
		t.Errorf("filename wrong. expected=%q, got=%q", "test.blitz", ret.Span.Start.Filename)
	}
}
