package lexer

import (
	"fmt"

	perrors "github.com/sambeau/itlang/pkg/itlang/errors"
)

// TokenType represents different types of tokens
type TokenType int

const (
	EOF TokenType = iota

	// Literals
	NUMBER // 1343456 (integers only, decimals are joined by the parser)
	STRING // the text between a pair of quote markers
	IDENT  // add, foobar, x, y, ...

	// Keywords
	LET
	CONST
	FUNC
	IF
	ELIF
	ELSE
	FOR
	WHILE

	// Operators
	BINARY_OP  // + - * / %
	BOOLEAN_OP // == >= <= > < && ||
	UNARY_OP   // ++ -- ** //
	ASSIGN     // =

	// Delimiters
	COMMA     // ,
	DOT       // .
	COLON     // :
	SEMICOLON // ;
	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }
	LBRACKET  // [
	RBRACKET  // ]

	// String markers
	QUOTE      // "
	APOSTROPHE // '
)

// Token represents a single token
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

// String returns a string representation of the token
func (t Token) String() string {
	return fmt.Sprintf("{Type: %s, Literal: %s, Line: %d, Column: %d}",
		t.Type.String(), t.Literal, t.Line, t.Column)
}

// Display returns the token text as it should appear in error messages
func (t Token) Display() string {
	switch t.Type {
	case EOF:
		return "end of input"
	case STRING:
		return `"` + t.Literal + `"`
	}
	return t.Literal
}

// String returns a string representation of the token type
func (tt TokenType) String() string {
	switch tt {
	case EOF:
		return "EOF"
	case NUMBER:
		return "NUMBER"
	case STRING:
		return "STRING"
	case IDENT:
		return "IDENT"
	case LET:
		return "LET"
	case CONST:
		return "CONST"
	case FUNC:
		return "FUNC"
	case IF:
		return "IF"
	case ELIF:
		return "ELIF"
	case ELSE:
		return "ELSE"
	case FOR:
		return "FOR"
	case WHILE:
		return "WHILE"
	case BINARY_OP:
		return "BINARY_OP"
	case BOOLEAN_OP:
		return "BOOLEAN_OP"
	case UNARY_OP:
		return "UNARY_OP"
	case ASSIGN:
		return "ASSIGN"
	case COMMA:
		return "COMMA"
	case DOT:
		return "DOT"
	case COLON:
		return "COLON"
	case SEMICOLON:
		return "SEMICOLON"
	case LPAREN:
		return "LPAREN"
	case RPAREN:
		return "RPAREN"
	case LBRACE:
		return "LBRACE"
	case RBRACE:
		return "RBRACE"
	case LBRACKET:
		return "LBRACKET"
	case RBRACKET:
		return "RBRACKET"
	case QUOTE:
		return "QUOTE"
	case APOSTROPHE:
		return "APOSTROPHE"
	default:
		return fmt.Sprintf("TokenType(%d)", int(tt))
	}
}

// Keywords maps reserved words to their token types.
type Keywords map[string]TokenType

var defaultKeywords = Keywords{
	"let":   LET,
	"const": CONST,
	"func":  FUNC,
	"if":    IF,
	"elif":  ELIF,
	"else":  ELSE,
	"for":   FOR,
	"while": WHILE,
}

// DefaultKeywords returns the language's keyword table. The shared table is
// never mutated; callers that want to extend it get their own copy.
func DefaultKeywords() Keywords {
	kw := make(Keywords, len(defaultKeywords))
	for word, tt := range defaultKeywords {
		kw[word] = tt
	}
	return kw
}

// LookupIdent checks if an identifier is a keyword
func (k Keywords) LookupIdent(ident string) TokenType {
	if tok, ok := k[ident]; ok {
		return tok
	}
	return IDENT
}

// Lexer represents the lexical analyzer
type Lexer struct {
	input        string
	keywords     Keywords
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination
	line         int
	column       int
	tokens       []Token
}

// New creates a new lexer instance using the default keyword table
func New(input string) *Lexer {
	return NewWithKeywords(input, defaultKeywords)
}

// NewWithKeywords creates a new lexer instance with a specific keyword table
func NewWithKeywords(input string, keywords Keywords) *Lexer {
	l := &Lexer{
		input:    input,
		keywords: keywords,
		line:     1,
		column:   0,
	}
	l.readChar()
	return l
}

// Tokenize scans input with the default keyword table.
func Tokenize(input string) ([]Token, error) {
	return New(input).Tokenize()
}

// readChar reads the next character and advances position
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = len(l.input)
		l.readPosition = len(l.input) + 1
		return
	}
	l.ch = l.input[l.readPosition]
	l.position = l.readPosition
	l.readPosition++
	l.column++
}

// peekChar returns the next character without advancing position
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) atEnd() bool {
	return l.position >= len(l.input)
}

// Tokenize scans the whole input and returns the token sequence, which
// always ends with an EOF token. Scanning stops at the first lexical error.
// A Lexer scans its input once; later calls only return EOF.
func (l *Lexer) Tokenize() ([]Token, error) {
	l.tokens = nil
	for {
		l.skipWhitespaceAndComments()
		if l.atEnd() {
			l.tokens = append(l.tokens, Token{Type: EOF, Literal: "", Line: l.line, Column: l.column})
			return l.tokens, nil
		}
		if err := l.scanToken(); err != nil {
			return nil, err
		}
	}
}

// scanToken appends the token(s) starting at the current character
func (l *Lexer) scanToken() error {
	line, column := l.line, l.column

	switch l.ch {
	case '(':
		l.emit(newToken(LPAREN, l.ch, line, column))
	case ')':
		l.emit(newToken(RPAREN, l.ch, line, column))
	case '{':
		l.emit(newToken(LBRACE, l.ch, line, column))
	case '}':
		l.emit(newToken(RBRACE, l.ch, line, column))
	case '[':
		l.emit(newToken(LBRACKET, l.ch, line, column))
	case ']':
		l.emit(newToken(RBRACKET, l.ch, line, column))
	case ';':
		l.emit(newToken(SEMICOLON, l.ch, line, column))
	case ':':
		l.emit(newToken(COLON, l.ch, line, column))
	case ',':
		l.emit(newToken(COMMA, l.ch, line, column))
	case '.':
		l.emit(newToken(DOT, l.ch, line, column))
	case '"', '\'':
		return l.readString()
	case '+', '-', '*', '/':
		if l.peekChar() == l.ch {
			ch := l.ch
			l.readChar()
			l.emit(Token{Type: UNARY_OP, Literal: string([]byte{ch, ch}), Line: line, Column: column})
		} else {
			l.emit(newToken(BINARY_OP, l.ch, line, column))
		}
	case '%':
		l.emit(newToken(BINARY_OP, l.ch, line, column))
	case '>', '<':
		if l.peekChar() == '=' {
			ch := l.ch
			l.readChar()
			l.emit(Token{Type: BOOLEAN_OP, Literal: string(ch) + "=", Line: line, Column: column})
		} else {
			l.emit(newToken(BOOLEAN_OP, l.ch, line, column))
		}
	case '=':
		if l.peekChar() == '=' {
			l.readChar()
			l.emit(Token{Type: BOOLEAN_OP, Literal: "==", Line: line, Column: column})
		} else {
			l.emit(newToken(ASSIGN, l.ch, line, column))
		}
	case '&', '|':
		if l.peekChar() != l.ch {
			return perrors.NewWithPosition("LEX-0005", line, column, map[string]any{"Char": string(l.ch)})
		}
		ch := l.ch
		l.readChar()
		l.emit(Token{Type: BOOLEAN_OP, Literal: string([]byte{ch, ch}), Line: line, Column: column})
	default:
		if isLetter(l.ch) {
			ident := l.readIdentifier()
			l.tokens = append(l.tokens, Token{Type: l.keywords.LookupIdent(ident), Literal: ident, Line: line, Column: column})
			return nil
		}
		if isDigit(l.ch) {
			l.tokens = append(l.tokens, Token{Type: NUMBER, Literal: l.readNumber(), Line: line, Column: column})
			return nil
		}
		return perrors.NewWithPosition("LEX-0001", line, column, map[string]any{"Char": string(l.ch)})
	}
	l.readChar()
	return nil
}

func (l *Lexer) emit(tok Token) {
	l.tokens = append(l.tokens, tok)
}

// newToken creates a new token with the given parameters
func newToken(tokenType TokenType, ch byte, line, column int) Token {
	return Token{Type: tokenType, Literal: string(ch), Line: line, Column: column}
}

// skipWhitespaceAndComments skips blanks and '#' comments
func (l *Lexer) skipWhitespaceAndComments() {
	for !l.atEnd() {
		switch l.ch {
		case ' ', '\t', '\r', '\n':
			l.readChar()
		case '#':
			for !l.atEnd() && l.ch != '\n' {
				l.readChar()
			}
		default:
			return
		}
	}
}

// readIdentifier reads an identifier or keyword
func (l *Lexer) readIdentifier() string {
	position := l.position
	for !l.atEnd() && (isLetter(l.ch) || isDigit(l.ch)) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readNumber reads a run of decimal digits
func (l *Lexer) readNumber() string {
	position := l.position
	for !l.atEnd() && isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readString reads a quoted string literal and emits the opening marker,
// the value and the closing marker.
func (l *Lexer) readString() error {
	open := l.ch
	line, column := l.line, l.column
	marker := QUOTE
	if open == '\'' {
		marker = APOSTROPHE
	}
	l.emit(newToken(marker, open, line, column))
	l.readChar() // skip opening quote

	valueLine, valueColumn := l.line, l.column
	var result []byte
	for !l.atEnd() && l.ch != '"' && l.ch != '\'' {
		if l.ch == '\\' {
			l.readChar() // consume backslash
			if l.atEnd() {
				break
			}
			switch l.ch {
			case 'n':
				result = append(result, '\n')
			case 'r':
				result = append(result, '\r')
			case 't':
				result = append(result, '\t')
			case 'v':
				result = append(result, '\v')
			case 'f':
				result = append(result, '\f')
			case '0':
				result = append(result, 0)
			case '"', '\'', '\\':
				result = append(result, l.ch)
			default:
				return perrors.NewWithPosition("LEX-0004", l.line, l.column, map[string]any{"Char": string(l.ch)})
			}
		} else {
			result = append(result, l.ch)
		}
		l.readChar()
	}

	if l.atEnd() {
		return perrors.NewWithPosition("LEX-0002", line, column, map[string]any{"Quote": string(open)})
	}
	if l.ch != open {
		return perrors.NewWithPosition("LEX-0003", l.line, l.column, map[string]any{
			"Open":  string(open),
			"Close": string(l.ch),
		})
	}

	l.emit(Token{Type: STRING, Literal: string(result), Line: valueLine, Column: valueColumn})
	l.emit(newToken(marker, l.ch, l.line, l.column))
	l.readChar() // skip closing quote
	return nil
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
