package lexer

import (
	"testing"

	perrors "github.com/sambeau/itlang/pkg/itlang/errors"
)

func TestTokenizeLetStatement(t *testing.T) {
	input := `let x = 5;`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{LET, "let"},
		{IDENT, "x"},
		{ASSIGN, "="},
		{NUMBER, "5"},
		{SEMICOLON, ";"},
		{EOF, ""},
	}

	tokens, err := Tokenize(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tokens) != len(tests) {
		t.Fatalf("expected %d tokens, got %d: %v", len(tests), len(tokens), tokens)
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

func TestTokenizeOperators(t *testing.T) {
	input := `+ - * / % ++ -- ** // > < >= <= == = && || %%`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{BINARY_OP, "+"},
		{BINARY_OP, "-"},
		{BINARY_OP, "*"},
		{BINARY_OP, "/"},
		{BINARY_OP, "%"},
		{UNARY_OP, "++"},
		{UNARY_OP, "--"},
		{UNARY_OP, "**"},
		{UNARY_OP, "//"},
		{BOOLEAN_OP, ">"},
		{BOOLEAN_OP, "<"},
		{BOOLEAN_OP, ">="},
		{BOOLEAN_OP, "<="},
		{BOOLEAN_OP, "=="},
		{ASSIGN, "="},
		{BOOLEAN_OP, "&&"},
		{BOOLEAN_OP, "||"},
		{BINARY_OP, "%"},
		{BINARY_OP, "%"},
		{EOF, ""},
	}

	tokens, err := Tokenize(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, tt := range tests {
		if i >= len(tokens) {
			t.Fatalf("ran out of tokens at %d", i)
		}
		tok := tokens[i]
		if tok.Type != tt.expectedType || tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - expected %s(%q), got %s(%q)",
				i, tt.expectedType, tt.expectedLiteral, tok.Type, tok.Literal)
		}
	}
}

func TestTokenizePunctuationAndKeywords(t *testing.T) {
	input := `func add(a, b) { a.b[0]; } if elif else for while const obj: x`

	expected := []TokenType{
		FUNC, IDENT, LPAREN, IDENT, COMMA, IDENT, RPAREN, LBRACE,
		IDENT, DOT, IDENT, LBRACKET, NUMBER, RBRACKET, SEMICOLON, RBRACE,
		IF, ELIF, ELSE, FOR, WHILE, CONST, IDENT, COLON, IDENT, EOF,
	}

	tokens, err := Tokenize(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d", len(expected), len(tokens))
	}
	for i, tt := range expected {
		if tokens[i].Type != tt {
			t.Errorf("tests[%d] - expected %s, got %s (%q)", i, tt, tokens[i].Type, tokens[i].Literal)
		}
	}
}

func TestTokenizeDecimalIsThreeTokens(t *testing.T) {
	tokens, err := Tokenize("1.05")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Token{
		{Type: NUMBER, Literal: "1"},
		{Type: DOT, Literal: "."},
		{Type: NUMBER, Literal: "05"},
	}
	for i, w := range want {
		if tokens[i].Type != w.Type || tokens[i].Literal != w.Literal {
			t.Errorf("tokens[%d] = %s(%q), want %s(%q)", i, tokens[i].Type, tokens[i].Literal, w.Type, w.Literal)
		}
	}
}

func TestTokenizeStrings(t *testing.T) {
	tests := []struct {
		input  string
		marker TokenType
		value  string
	}{
		{`"hello"`, QUOTE, "hello"},
		{`'hello'`, APOSTROPHE, "hello"},
		{`""`, QUOTE, ""},
		{`"a\nb"`, QUOTE, "a\nb"},
		{`"tab\there"`, QUOTE, "tab\there"},
		{`"\r\v\f\0"`, QUOTE, "\r\v\f\x00"},
		{`"say \"hi\""`, QUOTE, `say "hi"`},
		{`'it\'s'`, APOSTROPHE, "it's"},
		{`"back\\slash"`, QUOTE, `back\slash`},
		{`"# not a comment"`, QUOTE, "# not a comment"},
	}

	for _, tt := range tests {
		tokens, err := Tokenize(tt.input)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.input, err)
		}
		if len(tokens) != 4 {
			t.Fatalf("%s: expected 4 tokens, got %d", tt.input, len(tokens))
		}
		if tokens[0].Type != tt.marker || tokens[2].Type != tt.marker {
			t.Errorf("%s: expected %s markers, got %s and %s", tt.input, tt.marker, tokens[0].Type, tokens[2].Type)
		}
		if tokens[1].Type != STRING || tokens[1].Literal != tt.value {
			t.Errorf("%s: expected STRING(%q), got %s(%q)", tt.input, tt.value, tokens[1].Type, tokens[1].Literal)
		}
	}
}

func TestTokenizeComments(t *testing.T) {
	input := "# leading comment\nlet a = 1; # trailing\n# only comment"

	tokens, err := Tokenize(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []TokenType{LET, IDENT, ASSIGN, NUMBER, SEMICOLON, EOF}
	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d: %v", len(expected), len(tokens), tokens)
	}
	for i, tt := range expected {
		if tokens[i].Type != tt {
			t.Errorf("tests[%d] - expected %s, got %s", i, tt, tokens[i].Type)
		}
	}
}

func TestTokenizeEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   \n\t ", "# just a comment"} {
		tokens, err := Tokenize(input)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", input, err)
		}
		if len(tokens) != 1 || tokens[0].Type != EOF {
			t.Errorf("%q: expected only EOF, got %v", input, tokens)
		}
	}
}

func TestTokenLineNumbers(t *testing.T) {
	input := "let a = 1;\n\nlet b = 2;\n# note\nb"

	tokens, err := Tokenize(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		index int
		line  int
	}{
		{0, 1},  // let
		{5, 3},  // let
		{10, 5}, // b
	}
	for _, tt := range tests {
		if tokens[tt.index].Line != tt.line {
			t.Errorf("token %d (%q): expected line %d, got %d",
				tt.index, tokens[tt.index].Literal, tt.line, tokens[tt.index].Line)
		}
	}
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		input string
		code  string
		line  int
	}{
		{"let a = 1 & 2;", "LEX-0005", 1},
		{"a | b", "LEX-0005", 1},
		{"let s = \"open", "LEX-0002", 1},
		{"\n\"it's\"", "LEX-0003", 2},
		{`"bad \q escape"`, "LEX-0004", 1},
		{"x = @", "LEX-0001", 1},
		{"\n\n!", "LEX-0001", 3},
	}

	for _, tt := range tests {
		_, err := Tokenize(tt.input)
		if err == nil {
			t.Errorf("%q: expected error", tt.input)
			continue
		}
		itlErr, ok := err.(*perrors.ItlError)
		if !ok {
			t.Fatalf("%q: expected *ItlError, got %T", tt.input, err)
		}
		if itlErr.Class != perrors.ClassLexical {
			t.Errorf("%q: expected lexical class, got %s", tt.input, itlErr.Class)
		}
		if itlErr.Code != tt.code {
			t.Errorf("%q: expected code %s, got %s (%s)", tt.input, tt.code, itlErr.Code, itlErr.Message)
		}
		if itlErr.Line != tt.line {
			t.Errorf("%q: expected line %d, got %d", tt.input, tt.line, itlErr.Line)
		}
	}
}

func TestCustomKeywords(t *testing.T) {
	kw := DefaultKeywords()
	delete(kw, "while")

	tokens, err := NewWithKeywords("while let", kw).Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokens[0].Type != IDENT || tokens[1].Type != LET {
		t.Errorf("unexpected tokens %v", tokens)
	}

	// The default table is unaffected.
	if defaultKeywords.LookupIdent("while") != WHILE {
		t.Error("default keyword table was mutated")
	}
}
