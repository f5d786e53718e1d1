package ast

import (
	"bytes"
	"strings"

	"github.com/sambeau/itlang/pkg/itlang/lexer"
)

// Node represents any node in the AST
type Node interface {
	TokenLiteral() string
	String() string
}

// Statement represents statement nodes
type Statement interface {
	Node
	statementNode()
}

// Expression represents expression nodes. Every expression may also stand
// on its own as a statement.
type Expression interface {
	Statement
	expressionNode()
}

// Program represents the root node of every AST
type Program struct {
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

func (p *Program) String() string {
	parts := make([]string, len(p.Statements))
	for i, s := range p.Statements {
		parts[i] = statementString(s)
	}
	return strings.Join(parts, "\n")
}

// VarDeclaration represents 'let x = 5;', 'let x;' and 'const x = 5;'
type VarDeclaration struct {
	Token    lexer.Token // the LET or CONST token
	Name     *Identifier
	Constant bool
	Value    Expression // nil when declared without an initializer
}

func (vd *VarDeclaration) statementNode()       {}
func (vd *VarDeclaration) TokenLiteral() string { return vd.Token.Literal }
func (vd *VarDeclaration) String() string {
	var out bytes.Buffer

	if vd.Constant {
		out.WriteString("const ")
	} else {
		out.WriteString("let ")
	}
	out.WriteString(vd.Name.String())
	if vd.Value != nil {
		out.WriteString(" = ")
		out.WriteString(vd.Value.String())
	}
	out.WriteString(";")
	return out.String()
}

// FunctionDeclaration represents 'func name(a, b) { ... }'
type FunctionDeclaration struct {
	Token  lexer.Token // the FUNC token
	Name   *Identifier
	Params []*Identifier
	Body   []Statement
}

func (fd *FunctionDeclaration) statementNode()       {}
func (fd *FunctionDeclaration) TokenLiteral() string { return fd.Token.Literal }
func (fd *FunctionDeclaration) String() string {
	params := make([]string, len(fd.Params))
	for i, p := range fd.Params {
		params[i] = p.String()
	}
	return "func " + fd.Name.String() + "(" + strings.Join(params, ", ") + ") " + blockString(fd.Body)
}

// IfStatement represents one link of an if/elif/else chain. An elif is a
// nested IfStatement in Else; a bare else is an IfStatement whose condition
// is the literal true.
type IfStatement struct {
	Token     lexer.Token // the IF, ELIF or ELSE token
	Condition Expression
	Body      []Statement
	Else      *IfStatement
}

func (is *IfStatement) statementNode()       {}
func (is *IfStatement) TokenLiteral() string { return is.Token.Literal }
func (is *IfStatement) String() string {
	var out bytes.Buffer

	switch is.Token.Type {
	case lexer.ELSE:
		out.WriteString("else ")
	case lexer.ELIF:
		out.WriteString("elif (" + is.Condition.String() + ") ")
	default:
		out.WriteString("if (" + is.Condition.String() + ") ")
	}
	out.WriteString(blockString(is.Body))
	if is.Else != nil {
		out.WriteString(" ")
		out.WriteString(is.Else.String())
	}
	return out.String()
}

// WhileLoop represents 'while (cond) { ... }'
type WhileLoop struct {
	Token     lexer.Token // the WHILE token
	Condition Expression
	Body      []Statement
}

func (wl *WhileLoop) statementNode()       {}
func (wl *WhileLoop) TokenLiteral() string { return wl.Token.Literal }
func (wl *WhileLoop) String() string {
	return "while (" + wl.Condition.String() + ") " + blockString(wl.Body)
}

// ForLoop represents 'for (let i = 0; i < n; i++) { ... }'
type ForLoop struct {
	Token     lexer.Token // the FOR token
	Init      *VarDeclaration
	Condition Expression
	Post      Expression // nil when omitted
	Body      []Statement
}

func (fl *ForLoop) statementNode()       {}
func (fl *ForLoop) TokenLiteral() string { return fl.Token.Literal }
func (fl *ForLoop) String() string {
	var out bytes.Buffer

	out.WriteString("for (")
	out.WriteString(fl.Init.String())
	out.WriteString(" ")
	out.WriteString(fl.Condition.String())
	out.WriteString(";")
	if fl.Post != nil {
		out.WriteString(" ")
		out.WriteString(fl.Post.String())
	}
	out.WriteString(") ")
	out.WriteString(blockString(fl.Body))
	return out.String()
}

// Assignment represents 'target = value'
type Assignment struct {
	Token  lexer.Token // the '=' token
	Target Expression
	Value  Expression
}

func (a *Assignment) statementNode()       {}
func (a *Assignment) expressionNode()      {}
func (a *Assignment) TokenLiteral() string { return a.Token.Literal }
func (a *Assignment) String() string {
	return a.Target.String() + " = " + a.Value.String()
}

// BinaryOp represents arithmetic and boolean infix operations
type BinaryOp struct {
	Token    lexer.Token // the operator token
	Left     Expression
	Operator string
	Right    Expression
}

func (bo *BinaryOp) statementNode()       {}
func (bo *BinaryOp) expressionNode()      {}
func (bo *BinaryOp) TokenLiteral() string { return bo.Token.Literal }
func (bo *BinaryOp) String() string {
	return "(" + bo.Left.String() + " " + bo.Operator + " " + bo.Right.String() + ")"
}

// UnaryOp represents '++' and friends. Operand is nil for a bare operator.
type UnaryOp struct {
	Token    lexer.Token // the operator token
	Operand  Expression
	Operator string
}

func (uo *UnaryOp) statementNode()       {}
func (uo *UnaryOp) expressionNode()      {}
func (uo *UnaryOp) TokenLiteral() string { return uo.Token.Literal }
func (uo *UnaryOp) String() string {
	if uo.Operand == nil {
		return uo.Operator
	}
	return "(" + uo.Operand.String() + uo.Operator + ")"
}

// Call represents 'callee(args...)'
type Call struct {
	Token  lexer.Token // the '(' token
	Callee Expression
	Args   []Expression
}

func (c *Call) statementNode()       {}
func (c *Call) expressionNode()      {}
func (c *Call) TokenLiteral() string { return c.Token.Literal }
func (c *Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return c.Callee.String() + "(" + strings.Join(args, ", ") + ")"
}

// Member represents 'obj.prop' and 'obj[expr]'
type Member struct {
	Token    lexer.Token // the '.' or '[' token
	Object   Expression
	Property Expression
	Computed bool
}

func (m *Member) statementNode()       {}
func (m *Member) expressionNode()      {}
func (m *Member) TokenLiteral() string { return m.Token.Literal }
func (m *Member) String() string {
	if m.Computed {
		return m.Object.String() + "[" + m.Property.String() + "]"
	}
	return m.Object.String() + "." + m.Property.String()
}

// Identifier represents a name
type Identifier struct {
	Token lexer.Token // the IDENT token
	Value string
}

func (i *Identifier) statementNode()       {}
func (i *Identifier) expressionNode()      {}
func (i *Identifier) TokenLiteral() string { return i.Token.Literal }
func (i *Identifier) String() string       { return i.Value }

// NumberLiteral represents integer and decimal literals. Text keeps the
// source spelling so that decimals can be reassembled exactly.
type NumberLiteral struct {
	Token lexer.Token
	Value float64
	Text  string
}

func (nl *NumberLiteral) statementNode()       {}
func (nl *NumberLiteral) expressionNode()      {}
func (nl *NumberLiteral) TokenLiteral() string { return nl.Token.Literal }
func (nl *NumberLiteral) String() string       { return nl.Text }

// StringLiteral represents quoted text
type StringLiteral struct {
	Token lexer.Token // the STRING token
	Value string
}

func (sl *StringLiteral) statementNode()       {}
func (sl *StringLiteral) expressionNode()      {}
func (sl *StringLiteral) TokenLiteral() string { return sl.Token.Literal }
func (sl *StringLiteral) String() string       { return `"` + sl.Value + `"` }

// BooleanLiteral only appears as the condition of a bare else branch.
type BooleanLiteral struct {
	Token lexer.Token
	Value bool
}

func (bl *BooleanLiteral) statementNode()       {}
func (bl *BooleanLiteral) expressionNode()      {}
func (bl *BooleanLiteral) TokenLiteral() string { return bl.Token.Literal }
func (bl *BooleanLiteral) String() string {
	if bl.Value {
		return "true"
	}
	return "false"
}

// Property is one 'key: value' or shorthand 'key' entry of an object literal
type Property struct {
	Key   *Identifier
	Value Expression // nil for shorthand
}

// ObjectLiteral represents '{ a: 1, b }'
type ObjectLiteral struct {
	Token      lexer.Token // the '{' token
	Properties []*Property
}

func (ol *ObjectLiteral) statementNode()       {}
func (ol *ObjectLiteral) expressionNode()      {}
func (ol *ObjectLiteral) TokenLiteral() string { return ol.Token.Literal }
func (ol *ObjectLiteral) String() string {
	props := make([]string, len(ol.Properties))
	for i, p := range ol.Properties {
		if p.Value == nil {
			props[i] = p.Key.String()
		} else {
			props[i] = p.Key.String() + ": " + p.Value.String()
		}
	}
	return "{" + strings.Join(props, ", ") + "}"
}

// statementString renders a statement, terminating bare expressions with ';'
func statementString(s Statement) string {
	if _, ok := s.(Expression); ok {
		return s.String() + ";"
	}
	return s.String()
}

func blockString(body []Statement) string {
	if len(body) == 0 {
		return "{ }"
	}
	parts := make([]string, len(body))
	for i, s := range body {
		parts[i] = statementString(s)
	}
	return "{ " + strings.Join(parts, " ") + " }"
}
