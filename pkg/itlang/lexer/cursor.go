package lexer

import (
	perrors "github.com/sambeau/itlang/pkg/itlang/errors"
)

// Cursor is a replayable forward cursor over a scanned token sequence.
// The sequence must end with an EOF token; the cursor never moves past it.
type Cursor struct {
	tokens []Token
	pos    int
}

// NewCursor creates a cursor positioned at the first token.
func NewCursor(tokens []Token) *Cursor {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != EOF {
		tokens = append(tokens, Token{Type: EOF, Line: 1})
	}
	return &Cursor{tokens: tokens}
}

// Peek returns the current token without consuming it.
func (c *Cursor) Peek() Token {
	return c.PeekAt(0)
}

// PeekAt returns the token offset positions ahead of the current one,
// clamped to the EOF token.
func (c *Cursor) PeekAt(offset int) Token {
	i := c.pos + offset
	if i >= len(c.tokens) {
		i = len(c.tokens) - 1
	}
	if i < 0 {
		i = 0
	}
	return c.tokens[i]
}

// Next consumes and returns the current token.
func (c *Cursor) Next() Token {
	tok := c.tokens[c.pos]
	if c.pos < len(c.tokens)-1 {
		c.pos++
	}
	return tok
}

// Expect consumes the current token if it has the given type; otherwise it
// returns a syntax error naming the expected type and the offending token.
func (c *Cursor) Expect(tt TokenType, message string) (Token, error) {
	tok := c.Next()
	if tok.Type != tt {
		err := perrors.NewWithPosition("SYNTAX-0001", tok.Line, tok.Column, map[string]any{
			"Expected": tt.String(),
			"Got":      tok.Display(),
		})
		if message != "" {
			err.Hints = append(err.Hints, message)
		}
		return tok, err
	}
	return tok, nil
}

// Is reports whether the current token has the given type.
func (c *Cursor) Is(tt TokenType) bool {
	return c.Peek().Type == tt
}

// More reports whether any tokens remain before EOF.
func (c *Cursor) More() bool {
	return c.Peek().Type != EOF
}

// Restart rewinds the cursor to the first token.
func (c *Cursor) Restart() {
	c.pos = 0
}

// Line returns the line of the current token.
func (c *Cursor) Line() int {
	return c.Peek().Line
}

// Len returns the number of tokens, including EOF.
func (c *Cursor) Len() int {
	return len(c.tokens)
}
