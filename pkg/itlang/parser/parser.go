package parser

import (
	"strconv"
	"strings"

	"github.com/sambeau/itlang/pkg/itlang/ast"
	perrors "github.com/sambeau/itlang/pkg/itlang/errors"
	"github.com/sambeau/itlang/pkg/itlang/lexer"
)

// Parser turns source text into an AST by recursive descent.
//
// Precedence, loosest to tightest:
//
//	assignment      x = value (right associative)
//	object literal  { key: value, key }
//	additive        + -  followed by postfix ++ --
//	multiplicative  * / %
//	boolean         == >= <= > < && ||
//	call / member   f(x)  o.p  o[p]
//	primary         identifier, number, (expr), "string", bare ++
//
// Comparisons bind tighter than arithmetic, so a + b == c parses as
// a + (b == c).
type Parser struct {
	keywords lexer.Keywords
	source   string
	cursor   *lexer.Cursor
	scans    int

	structuredErrors []*perrors.ItlError
}

// New creates a parser using the default keyword table
func New() *Parser {
	return NewWithKeywords(lexer.DefaultKeywords())
}

// NewWithKeywords creates a parser that scans with the given keyword table
func NewWithKeywords(keywords lexer.Keywords) *Parser {
	return &Parser{keywords: keywords}
}

// Parse scans and parses source. When source is identical to the text of
// the previous call the existing token sequence is replayed instead of
// scanning again.
func (p *Parser) Parse(source string) (*ast.Program, error) {
	p.structuredErrors = nil

	if p.cursor != nil && source == p.source {
		p.cursor.Restart()
	} else {
		tokens, err := lexer.NewWithKeywords(source, p.keywords).Tokenize()
		p.scans++
		if err != nil {
			p.cursor = nil
			p.source = ""
			return nil, p.fail(err)
		}
		p.source = source
		p.cursor = lexer.NewCursor(tokens)
	}

	return p.ParseProgram()
}

// Scans returns how many times the parser has scanned source text.
// Re-parsing identical text does not count.
func (p *Parser) Scans() int {
	return p.scans
}

// Errors returns the parser error messages with their positions.
func (p *Parser) Errors() []string {
	result := make([]string, len(p.structuredErrors))
	for i, err := range p.structuredErrors {
		result[i] = err.String()
	}
	return result
}

// StructuredErrors returns the errors of the last parse. Parsing stops at
// the first error, so there is at most one.
func (p *Parser) StructuredErrors() []*perrors.ItlError {
	return p.structuredErrors
}

// fail records err and returns it
func (p *Parser) fail(err error) error {
	if itlErr, ok := err.(*perrors.ItlError); ok {
		p.structuredErrors = append(p.structuredErrors, itlErr)
	}
	return err
}

// errorAt builds a catalog error positioned at tok
func (p *Parser) errorAt(code string, tok lexer.Token, data map[string]any) error {
	return p.fail(perrors.NewWithPosition(code, tok.Line, tok.Column, data))
}

// expect consumes a token of type tt or fails
func (p *Parser) expect(tt lexer.TokenType, message string) (lexer.Token, error) {
	tok, err := p.cursor.Expect(tt, message)
	if err != nil {
		return tok, p.fail(err)
	}
	return tok, nil
}

// ParseProgram parses statements from the current cursor until EOF.
func (p *Parser) ParseProgram() (*ast.Program, error) {
	program := &ast.Program{}
	program.Statements = []ast.Statement{}

	for p.cursor.More() {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		program.Statements = append(program.Statements, stmt)
	}

	return program, nil
}

// parseStatement dispatches on the leading keyword
func (p *Parser) parseStatement() (ast.Statement, error) {
	switch p.cursor.Peek().Type {
	case lexer.LET, lexer.CONST:
		return p.parseVarDeclaration()
	case lexer.FUNC:
		return p.parseFunctionDeclaration()
	case lexer.IF:
		return p.parseIfStatement()
	case lexer.WHILE:
		return p.parseWhileLoop()
	case lexer.FOR:
		return p.parseForLoop()
	}

	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if p.cursor.Is(lexer.SEMICOLON) {
		p.cursor.Next()
	}
	return expr, nil
}

// parseBody parses '{ statements }'
func (p *Parser) parseBody() ([]ast.Statement, error) {
	if _, err := p.expect(lexer.LBRACE, "expected '{' to open a block"); err != nil {
		return nil, err
	}

	body := []ast.Statement{}
	for p.cursor.More() && !p.cursor.Is(lexer.RBRACE) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		body = append(body, stmt)
	}

	if _, err := p.expect(lexer.RBRACE, "expected '}' to close the block"); err != nil {
		return nil, err
	}
	return body, nil
}

// parseVarDeclaration parses 'let x;', 'let x = v;' and 'const x = v;'
func (p *Parser) parseVarDeclaration() (*ast.VarDeclaration, error) {
	tok := p.cursor.Next()
	if tok.Type != lexer.LET && tok.Type != lexer.CONST {
		return nil, p.errorAt("SYNTAX-0001", tok, map[string]any{"Expected": "LET", "Got": tok.Display()})
	}
	decl := &ast.VarDeclaration{Token: tok, Constant: tok.Type == lexer.CONST}

	nameTok, err := p.expect(lexer.IDENT, "expected a name after "+tok.Literal)
	if err != nil {
		return nil, err
	}
	decl.Name = &ast.Identifier{Token: nameTok, Value: nameTok.Literal}

	if p.cursor.Is(lexer.SEMICOLON) {
		if decl.Constant {
			return nil, p.errorAt("SYNTAX-0004", nameTok, map[string]any{"Name": nameTok.Literal})
		}
		p.cursor.Next()
		return decl, nil
	}

	if _, err := p.expect(lexer.ASSIGN, "expected '=' after the variable name"); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	// A comparison left over after the initializer belongs to it.
	if p.cursor.Is(lexer.BOOLEAN_OP) {
		opTok := p.cursor.Next()
		rhs, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		value = &ast.BinaryOp{Token: opTok, Left: value, Operator: opTok.Literal, Right: rhs}
	}
	decl.Value = value

	if _, err := p.expect(lexer.SEMICOLON, "expected ';' after the declaration"); err != nil {
		return nil, err
	}
	return decl, nil
}

// parseFunctionDeclaration parses 'func name(a, b) { ... }'
func (p *Parser) parseFunctionDeclaration() (*ast.FunctionDeclaration, error) {
	fn := &ast.FunctionDeclaration{Token: p.cursor.Next()}

	nameTok, err := p.expect(lexer.IDENT, "expected a function name after func")
	if err != nil {
		return nil, err
	}
	fn.Name = &ast.Identifier{Token: nameTok, Value: nameTok.Literal}

	args, err := p.parseArgs()
	if err != nil {
		return nil, err
	}
	for _, arg := range args {
		ident, ok := arg.(*ast.Identifier)
		if !ok {
			return nil, p.errorAt("SYNTAX-0003", nameTok, map[string]any{"Got": arg.String()})
		}
		fn.Params = append(fn.Params, ident)
	}

	if fn.Body, err = p.parseBody(); err != nil {
		return nil, err
	}
	return fn, nil
}

// parseIfStatement parses an if or elif link and the rest of its chain
func (p *Parser) parseIfStatement() (*ast.IfStatement, error) {
	stmt := &ast.IfStatement{Token: p.cursor.Next()}

	if _, err := p.expect(lexer.LPAREN, "expected '(' after "+stmt.Token.Literal); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	stmt.Condition = cond
	if _, err := p.expect(lexer.RPAREN, "expected ')' after the condition"); err != nil {
		return nil, err
	}

	if stmt.Body, err = p.parseBody(); err != nil {
		return nil, err
	}

	switch p.cursor.Peek().Type {
	case lexer.ELIF:
		if stmt.Else, err = p.parseIfStatement(); err != nil {
			return nil, err
		}
	case lexer.ELSE:
		elseTok := p.cursor.Next()
		body, err := p.parseBody()
		if err != nil {
			return nil, err
		}
		stmt.Else = &ast.IfStatement{
			Token:     elseTok,
			Condition: &ast.BooleanLiteral{Token: elseTok, Value: true},
			Body:      body,
		}
	}

	return stmt, nil
}

// parseWhileLoop parses 'while (cond) { ... }'
func (p *Parser) parseWhileLoop() (*ast.WhileLoop, error) {
	loop := &ast.WhileLoop{Token: p.cursor.Next()}

	if _, err := p.expect(lexer.LPAREN, "expected '(' after while"); err != nil {
		return nil, err
	}
	cond, err := p.parseBoolean()
	if err != nil {
		return nil, err
	}
	loop.Condition = cond
	if _, err := p.expect(lexer.RPAREN, "expected ')' after the condition"); err != nil {
		return nil, err
	}

	if loop.Body, err = p.parseBody(); err != nil {
		return nil, err
	}
	return loop, nil
}

// parseForLoop parses 'for (let i = 0; i < n; i++) { ... }'. The post
// expression is only read when it starts with an identifier.
func (p *Parser) parseForLoop() (*ast.ForLoop, error) {
	loop := &ast.ForLoop{Token: p.cursor.Next()}

	if _, err := p.expect(lexer.LPAREN, "expected '(' after for"); err != nil {
		return nil, err
	}

	init, err := p.parseVarDeclaration()
	if err != nil {
		return nil, err
	}
	loop.Init = init

	cond, err := p.parseBoolean()
	if err != nil {
		return nil, err
	}
	loop.Condition = cond
	if _, err := p.expect(lexer.SEMICOLON, "expected ';' after the loop condition"); err != nil {
		return nil, err
	}

	if p.cursor.Is(lexer.IDENT) {
		if loop.Post, err = p.parseExpression(); err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(lexer.RPAREN, "expected ')' to close the loop header"); err != nil {
		return nil, err
	}

	if loop.Body, err = p.parseBody(); err != nil {
		return nil, err
	}
	return loop, nil
}

func (p *Parser) parseExpression() (ast.Expression, error) {
	return p.parseAssignment()
}

// parseAssignment parses 'target = value'
func (p *Parser) parseAssignment() (ast.Expression, error) {
	left, err := p.parseObject()
	if err != nil {
		return nil, err
	}

	if !p.cursor.Is(lexer.ASSIGN) {
		return left, nil
	}
	tok := p.cursor.Next()
	value, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	return &ast.Assignment{Token: tok, Target: left, Value: value}, nil
}

// parseObject parses '{ key: value, key }' or falls through to additive
func (p *Parser) parseObject() (ast.Expression, error) {
	if !p.cursor.Is(lexer.LBRACE) {
		return p.parseAdditive()
	}

	obj := &ast.ObjectLiteral{Token: p.cursor.Next()}
	obj.Properties = []*ast.Property{}

	for p.cursor.More() && !p.cursor.Is(lexer.RBRACE) {
		keyTok := p.cursor.Next()
		if keyTok.Type != lexer.IDENT {
			return nil, p.errorAt("SYNTAX-0008", keyTok, map[string]any{"Got": keyTok.Display()})
		}
		prop := &ast.Property{Key: &ast.Identifier{Token: keyTok, Value: keyTok.Literal}}

		// Shorthand: { key } or { key, ... }
		if p.cursor.Is(lexer.COMMA) {
			p.cursor.Next()
			obj.Properties = append(obj.Properties, prop)
			continue
		}
		if p.cursor.Is(lexer.RBRACE) {
			obj.Properties = append(obj.Properties, prop)
			continue
		}

		if _, err := p.expect(lexer.COLON, "expected ':' after the property name"); err != nil {
			return nil, err
		}
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		prop.Value = value
		obj.Properties = append(obj.Properties, prop)

		if !p.cursor.Is(lexer.RBRACE) {
			if _, err := p.expect(lexer.COMMA, "expected ',' or '}' after the property"); err != nil {
				return nil, err
			}
		}
	}

	if _, err := p.expect(lexer.RBRACE, "object literal is missing its closing '}'"); err != nil {
		return nil, err
	}
	return obj, nil
}

// parseAdditive parses '+ -' chains and trailing postfix operators
func (p *Parser) parseAdditive() (ast.Expression, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}

	for p.binaryOpIs("+", "-") {
		tok := p.cursor.Next()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Token: tok, Left: left, Operator: tok.Literal, Right: right}
	}

	for p.cursor.Is(lexer.UNARY_OP) {
		tok := p.cursor.Next()
		left = &ast.UnaryOp{Token: tok, Operand: left, Operator: tok.Literal}
	}

	return left, nil
}

// parseMultiplicative parses '* / %' chains
func (p *Parser) parseMultiplicative() (ast.Expression, error) {
	left, err := p.parseBoolean()
	if err != nil {
		return nil, err
	}

	for p.binaryOpIs("*", "/", "%") {
		tok := p.cursor.Next()
		right, err := p.parseBoolean()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Token: tok, Left: left, Operator: tok.Literal, Right: right}
	}

	return left, nil
}

// parseBoolean parses comparison and logical chains
func (p *Parser) parseBoolean() (ast.Expression, error) {
	left, err := p.parseCallMember()
	if err != nil {
		return nil, err
	}

	for p.cursor.Is(lexer.BOOLEAN_OP) {
		tok := p.cursor.Next()
		right, err := p.parseCallMember()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Token: tok, Left: left, Operator: tok.Literal, Right: right}
	}

	return left, nil
}

func (p *Parser) binaryOpIs(ops ...string) bool {
	tok := p.cursor.Peek()
	if tok.Type != lexer.BINARY_OP {
		return false
	}
	for _, op := range ops {
		if tok.Literal == op {
			return true
		}
	}
	return false
}

// parseCallMember parses a primary followed by any chain of calls and
// member accesses
func (p *Parser) parseCallMember() (ast.Expression, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch p.cursor.Peek().Type {
		case lexer.LPAREN:
			tok := p.cursor.Peek()
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			expr = &ast.Call{Token: tok, Callee: expr, Args: args}
		case lexer.DOT, lexer.LBRACKET:
			if expr, err = p.parseMember(expr); err != nil {
				return nil, err
			}
		default:
			return expr, nil
		}
	}
}

// parseMember parses one '.prop' or '[expr]' suffix. A '.' between two
// number literals joins them into a decimal.
func (p *Parser) parseMember(obj ast.Expression) (ast.Expression, error) {
	tok := p.cursor.Next()

	if tok.Type == lexer.LBRACKET {
		prop, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RBRACKET, "expected ']' after the computed property"); err != nil {
			return nil, err
		}
		return &ast.Member{Token: tok, Object: obj, Property: prop, Computed: true}, nil
	}

	propTok := p.cursor.Peek()
	prop, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	if whole, ok := obj.(*ast.NumberLiteral); ok {
		if frac, ok := prop.(*ast.NumberLiteral); ok {
			return p.joinDecimal(whole, frac)
		}
	}

	if _, ok := prop.(*ast.Identifier); !ok {
		return nil, p.errorAt("SYNTAX-0007", propTok, map[string]any{"Got": prop.String()})
	}
	return &ast.Member{Token: tok, Object: obj, Property: prop, Computed: false}, nil
}

// joinDecimal builds the literal for 'whole.frac'
func (p *Parser) joinDecimal(whole, frac *ast.NumberLiteral) (ast.Expression, error) {
	text := whole.Text + "." + frac.Text
	if strings.Contains(whole.Text, ".") || strings.Contains(frac.Text, ".") {
		return nil, p.errorAt("SYNTAX-0005", whole.Token, map[string]any{"Literal": text})
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, p.errorAt("SYNTAX-0006", whole.Token, map[string]any{"Literal": text})
	}
	return &ast.NumberLiteral{Token: whole.Token, Value: value, Text: text}, nil
}

// parseArgs parses '(a, b, ...)'
func (p *Parser) parseArgs() ([]ast.Expression, error) {
	if _, err := p.expect(lexer.LPAREN, "expected '('"); err != nil {
		return nil, err
	}

	args := []ast.Expression{}
	if p.cursor.Is(lexer.RPAREN) {
		p.cursor.Next()
		return args, nil
	}

	arg, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	args = append(args, arg)

	for p.cursor.Is(lexer.COMMA) {
		p.cursor.Next()
		arg, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	if _, err := p.expect(lexer.RPAREN, "expected ')' after the arguments"); err != nil {
		return nil, err
	}
	return args, nil
}

// parsePrimary parses identifiers, numbers, groups, strings and bare
// unary operators
func (p *Parser) parsePrimary() (ast.Expression, error) {
	tok := p.cursor.Peek()

	switch tok.Type {
	case lexer.IDENT:
		p.cursor.Next()
		return &ast.Identifier{Token: tok, Value: tok.Literal}, nil

	case lexer.NUMBER:
		p.cursor.Next()
		value, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			return nil, p.errorAt("SYNTAX-0006", tok, map[string]any{"Literal": tok.Literal})
		}
		return &ast.NumberLiteral{Token: tok, Value: value, Text: tok.Literal}, nil

	case lexer.LPAREN:
		p.cursor.Next()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN, "expected ')' to close the parenthesised expression"); err != nil {
			return nil, err
		}
		return expr, nil

	case lexer.QUOTE, lexer.APOSTROPHE:
		p.cursor.Next()
		strTok, err := p.expect(lexer.STRING, "")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tok.Type, ""); err != nil {
			return nil, err
		}
		return &ast.StringLiteral{Token: strTok, Value: strTok.Literal}, nil

	case lexer.UNARY_OP:
		p.cursor.Next()
		return &ast.UnaryOp{Token: tok, Operator: tok.Literal}, nil
	}

	p.cursor.Next()
	return nil, p.errorAt("SYNTAX-0002", tok, map[string]any{"Got": tok.Display()})
}
