package evaluator

import (
	"math"

	"github.com/sambeau/itlang/pkg/itlang/ast"
	perrors "github.com/sambeau/itlang/pkg/itlang/errors"
	"github.com/sambeau/itlang/pkg/itlang/lexer"
)

// Eval evaluates node in env. Failures come back as *Error values and
// exit() as a *Halt; both stop evaluation of the enclosing nodes.
func Eval(node ast.Node, env *Environment) Object {
	switch node := node.(type) {

	// Statements
	case *ast.Program:
		return evalStatements(node.Statements, env)

	case *ast.VarDeclaration:
		return evalVarDeclaration(node, env)

	case *ast.FunctionDeclaration:
		params := make([]string, len(node.Params))
		for i, p := range node.Params {
			params[i] = p.Value
		}
		fn := &Function{Name: node.Name.Value, Params: params, Body: node.Body, Env: env}
		return withPosition(env.Declare(node.Name.Value, fn, true), node.Name.Token)

	case *ast.IfStatement:
		return evalIfStatement(node, NewEnclosedEnvironment(env))

	case *ast.WhileLoop:
		return evalWhileLoop(node, env)

	case *ast.ForLoop:
		return evalForLoop(node, env)

	// Expressions
	case *ast.NumberLiteral:
		return &Number{Value: node.Value}

	case *ast.StringLiteral:
		return &String{Value: node.Value}

	case *ast.BooleanLiteral:
		return nativeBoolToBooleanObject(node.Value)

	case *ast.Identifier:
		return withPosition(env.Lookup(node.Value), node.Token)

	case *ast.ObjectLiteral:
		return evalObjectLiteral(node, env)

	case *ast.Assignment:
		return evalAssignment(node, env)

	case *ast.BinaryOp:
		left := Eval(node.Left, env)
		if isUnwinding(left) {
			return left
		}
		right := Eval(node.Right, env)
		if isUnwinding(right) {
			return right
		}
		return evalBinaryOp(node.Token, node.Operator, left, right)

	case *ast.UnaryOp:
		return evalUnaryOp(node, env)

	case *ast.Member:
		return evalMember(node, env)

	case *ast.Call:
		callee := Eval(node.Callee, env)
		if isUnwinding(callee) {
			return callee
		}
		args := evalExpressions(node.Args, env)
		if len(args) == 1 && isUnwinding(args[0]) {
			return args[0]
		}
		return applyFunction(callee, args, env, node.Token)
	}

	return NULL
}

// evalStatements runs a block and returns the value of its last statement
func evalStatements(stmts []ast.Statement, env *Environment) Object {
	var result Object = NULL

	for _, statement := range stmts {
		result = Eval(statement, env)
		if isUnwinding(result) {
			return result
		}
	}

	return result
}

func evalExpressions(exps []ast.Expression, env *Environment) []Object {
	result := make([]Object, 0, len(exps))

	for _, e := range exps {
		evaluated := Eval(e, env)
		if isUnwinding(evaluated) {
			return []Object{evaluated}
		}
		result = append(result, evaluated)
	}

	return result
}

func evalVarDeclaration(node *ast.VarDeclaration, env *Environment) Object {
	var val Object = NULL
	if node.Value != nil {
		val = Eval(node.Value, env)
		if isUnwinding(val) {
			return val
		}
	}
	return withPosition(env.Declare(node.Name.Value, val, node.Constant), node.Name.Token)
}

func evalAssignment(node *ast.Assignment, env *Environment) Object {
	target, ok := node.Target.(*ast.Identifier)
	if !ok {
		return newStructuredError("TYPE-0006", node.Token, map[string]any{"Got": node.Target.String()})
	}
	val := Eval(node.Value, env)
	if isUnwinding(val) {
		return val
	}
	return withPosition(env.Assign(target.Value, val), target.Token)
}

// evalIfStatement runs one link of an if/elif/else chain. The whole chain
// shares the single child scope created for its first link.
func evalIfStatement(node *ast.IfStatement, env *Environment) Object {
	cond, errObj := evalCondition(node.Condition, node.Token, env)
	if errObj != nil {
		return errObj
	}
	if cond.Value {
		return evalStatements(node.Body, env)
	}
	if node.Else != nil {
		return evalIfStatement(node.Else, env)
	}
	return NULL
}

// evalWhileLoop returns the condition value that ended the loop
func evalWhileLoop(node *ast.WhileLoop, env *Environment) Object {
	loopEnv := NewEnclosedEnvironment(env)
	for {
		cond, errObj := evalCondition(node.Condition, node.Token, loopEnv)
		if errObj != nil {
			return errObj
		}
		if !cond.Value {
			return cond
		}
		if result := evalStatements(node.Body, loopEnv); isUnwinding(result) {
			return result
		}
	}
}

// evalForLoop returns the condition value that ended the loop
func evalForLoop(node *ast.ForLoop, env *Environment) Object {
	loopEnv := NewEnclosedEnvironment(env)
	if node.Init != nil {
		if init := Eval(node.Init, loopEnv); isUnwinding(init) {
			return init
		}
	}
	for {
		cond, errObj := evalCondition(node.Condition, node.Token, loopEnv)
		if errObj != nil {
			return errObj
		}
		if !cond.Value {
			return cond
		}
		if result := evalStatements(node.Body, loopEnv); isUnwinding(result) {
			return result
		}
		if node.Post != nil {
			if post := Eval(node.Post, loopEnv); isUnwinding(post) {
				return post
			}
		}
	}
}

// evalCondition evaluates a branch or loop condition, which must be a Boolean
func evalCondition(cond ast.Expression, tok lexer.Token, env *Environment) (*Boolean, Object) {
	val := Eval(cond, env)
	if isUnwinding(val) {
		return nil, val
	}
	b, ok := val.(*Boolean)
	if !ok {
		return nil, newStructuredError("TYPE-0007", tok, map[string]any{"Got": typeName(val)})
	}
	return b, nil
}

func evalObjectLiteral(node *ast.ObjectLiteral, env *Environment) Object {
	dict := NewDictionary()
	for _, prop := range node.Properties {
		var val Object
		if prop.Value != nil {
			val = Eval(prop.Value, env)
		} else {
			val = withPosition(env.Lookup(prop.Key.Value), prop.Key.Token)
		}
		if isUnwinding(val) {
			return val
		}
		if res := dict.Props.Declare(prop.Key.Value, val, false); isError(res) {
			return withPosition(res, prop.Key.Token)
		}
	}
	return dict
}

func evalMember(node *ast.Member, env *Environment) Object {
	obj := Eval(node.Object, env)
	if isUnwinding(obj) {
		return obj
	}
	dict, ok := obj.(*Dictionary)
	if !ok {
		return newStructuredError("TYPE-0008", node.Token, map[string]any{"Got": typeName(obj)})
	}

	var key string
	if node.Computed {
		k := Eval(node.Property, env)
		if isUnwinding(k) {
			return k
		}
		s, ok := k.(*String)
		if !ok {
			return newStructuredError("TYPE-0009", node.Token, map[string]any{"Got": typeName(k)})
		}
		key = s.Value
	} else {
		ident, ok := node.Property.(*ast.Identifier)
		if !ok {
			return newStructuredError("TYPE-0009", node.Token, map[string]any{"Got": node.Property.String()})
		}
		key = ident.Value
	}

	val, ok := dict.Get(key)
	if !ok {
		return newStructuredError("RESOLVE-0005", node.Token, map[string]any{"Name": key})
	}
	return val
}

func applyFunction(fn Object, args []Object, env *Environment, tok lexer.Token) Object {
	switch fn := fn.(type) {
	case *Builtin:
		if result := fn.Fn(env, args...); result != nil {
			return result
		}
		return NULL

	case *Function:
		callEnv := NewEnclosedEnvironment(fn.Env)
		for i, param := range fn.Params {
			if i >= len(args) {
				break
			}
			if res := callEnv.Declare(param, args[i], false); isError(res) {
				return withPosition(res, tok)
			}
		}
		return evalStatements(fn.Body, callEnv)

	default:
		return newStructuredError("TYPE-0005", tok, map[string]any{"Got": typeName(fn)})
	}
}

func evalBinaryOp(tok lexer.Token, operator string, left, right Object) Object {
	if tok.Type == lexer.BOOLEAN_OP {
		return evalBooleanOp(tok, operator, left, right)
	}

	l, lok := left.(*Number)
	r, rok := right.(*Number)
	if !lok || !rok {
		return NULL
	}
	return evalArithmetic(operator, l.Value, r.Value)
}

func evalArithmetic(operator string, l, r float64) Object {
	switch operator {
	case "+":
		return &Number{Value: l + r}
	case "-":
		return &Number{Value: l - r}
	case "*":
		return &Number{Value: l * r}
	case "/":
		return &Number{Value: l / r}
	case "%":
		return &Number{Value: math.Mod(l, r)}
	default:
		return NULL
	}
}

// evalBooleanOp dispatches comparison and logical operators on the type
// pair of the operands
func evalBooleanOp(tok lexer.Token, operator string, left, right Object) Object {
	switch {
	case left.Type() == NUMBER_OBJ && right.Type() == NUMBER_OBJ:
		l := left.(*Number).Value
		r := right.(*Number).Value
		switch operator {
		case "==":
			return nativeBoolToBooleanObject(l == r)
		case "<":
			return nativeBoolToBooleanObject(l < r)
		case ">":
			return nativeBoolToBooleanObject(l > r)
		case "<=":
			return nativeBoolToBooleanObject(l <= r)
		case ">=":
			return nativeBoolToBooleanObject(l >= r)
		}

	case left.Type() == BOOLEAN_OBJ && right.Type() == BOOLEAN_OBJ:
		l := left.(*Boolean).Value
		r := right.(*Boolean).Value
		switch operator {
		case "==":
			return nativeBoolToBooleanObject(l == r)
		case "&&":
			return nativeBoolToBooleanObject(l && r)
		case "||":
			return nativeBoolToBooleanObject(l || r)
		}

	case left.Type() == DICTIONARY_OBJ && right.Type() == DICTIONARY_OBJ:
		if operator == "==" {
			return nativeBoolToBooleanObject(objectsEqual(left, right))
		}

	default:
		if operator == "==" {
			return nativeBoolToBooleanObject(left.Inspect() == right.Inspect())
		}
	}

	return newStructuredError("TYPE-0001", tok, map[string]any{
		"Operator": operator,
		"Left":     typeName(left),
		"Right":    typeName(right),
	})
}

// objectsEqual applies the rules of '==' recursively. Objects are equal
// when they have the same keys and pairwise equal values.
func objectsEqual(left, right Object) bool {
	switch {
	case left.Type() == NUMBER_OBJ && right.Type() == NUMBER_OBJ:
		return left.(*Number).Value == right.(*Number).Value
	case left.Type() == BOOLEAN_OBJ && right.Type() == BOOLEAN_OBJ:
		return left.(*Boolean).Value == right.(*Boolean).Value
	case left.Type() == DICTIONARY_OBJ && right.Type() == DICTIONARY_OBJ:
		l := left.(*Dictionary)
		r := right.(*Dictionary)
		if l.Len() != r.Len() {
			return false
		}
		for _, key := range l.Keys() {
			lv, _ := l.Get(key)
			rv, ok := r.Get(key)
			if !ok || !objectsEqual(lv, rv) {
				return false
			}
		}
		return true
	default:
		return left.Inspect() == right.Inspect()
	}
}

func evalUnaryOp(node *ast.UnaryOp, env *Environment) Object {
	if node.Operand == nil {
		return newStructuredError("TYPE-0003", node.Token, map[string]any{"Operator": node.Operator})
	}
	val := Eval(node.Operand, env)
	if isUnwinding(val) {
		return val
	}
	num, ok := val.(*Number)
	if !ok {
		return newStructuredError("TYPE-0002", node.Token, map[string]any{
			"Operator": node.Operator,
			"Got":      typeName(val),
		})
	}

	var result *Number
	switch node.Operator {
	case "++":
		result = &Number{Value: num.Value + 1}
	case "--":
		result = &Number{Value: num.Value - 1}
	default:
		return newStructuredError("TYPE-0004", node.Token, map[string]any{"Operator": node.Operator})
	}

	if ident, ok := node.Operand.(*ast.Identifier); ok {
		if res := env.Assign(ident.Value, result); isError(res) {
			return withPosition(res, ident.Token)
		}
	}
	return result
}

// newStructuredError creates an error from the catalog at tok
func newStructuredError(code string, tok lexer.Token, data map[string]any) *Error {
	return errorFromItl(perrors.NewWithPosition(code, tok.Line, tok.Column, data))
}

// withPosition stamps an unpositioned error with the location of tok
func withPosition(obj Object, tok lexer.Token) Object {
	if err, ok := obj.(*Error); ok && err.Line == 0 {
		err.Line = tok.Line
		err.Column = tok.Column
	}
	return obj
}

func isError(obj Object) bool {
	if obj != nil {
		return obj.Type() == ERROR_OBJ
	}
	return false
}

// isUnwinding reports whether obj is an error or a halt
func isUnwinding(obj Object) bool {
	if obj != nil {
		return obj.Type() == ERROR_OBJ || obj.Type() == HALT_OBJ
	}
	return false
}
