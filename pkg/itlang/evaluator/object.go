package evaluator

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/sambeau/itlang/pkg/itlang/ast"
	perrors "github.com/sambeau/itlang/pkg/itlang/errors"
)

// ObjectType represents the type of objects in our language
type ObjectType string

const (
	NULL_OBJ       = "NULL"
	BOOLEAN_OBJ    = "BOOLEAN"
	NUMBER_OBJ     = "NUMBER"
	STRING_OBJ     = "STRING"
	DICTIONARY_OBJ = "OBJECT"
	FUNCTION_OBJ   = "FUNCTION"
	BUILTIN_OBJ    = "NATIVE_FUNCTION"
	ERROR_OBJ      = "ERROR"
	HALT_OBJ       = "HALT"
)

// Object represents all values in our language
type Object interface {
	Type() ObjectType
	Inspect() string
}

var (
	NULL  = &Null{}
	TRUE  = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}
)

// Null represents the absence of a value
type Null struct{}

func (n *Null) Inspect() string  { return "null" }
func (n *Null) Type() ObjectType { return NULL_OBJ }

// Boolean represents boolean objects
type Boolean struct {
	Value bool
}

func (b *Boolean) Inspect() string  { return strconv.FormatBool(b.Value) }
func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }

// Number represents every numeric value
type Number struct {
	Value float64
}

func (n *Number) Inspect() string  { return formatNumber(n.Value) }
func (n *Number) Type() ObjectType { return NUMBER_OBJ }

// formatNumber prints integers without a fraction and other values in
// their shortest exact form
func formatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// String represents string objects
type String struct {
	Value string
}

func (s *String) Inspect() string  { return s.Value }
func (s *String) Type() ObjectType { return STRING_OBJ }

// Dictionary is the value of an object literal. Its properties live in a
// parentless environment so they follow the same declaration rules as
// variables.
type Dictionary struct {
	Props *Environment
}

// NewDictionary creates an empty object value
func NewDictionary() *Dictionary {
	return &Dictionary{Props: NewEnvironment()}
}

func (d *Dictionary) Type() ObjectType { return DICTIONARY_OBJ }
func (d *Dictionary) Inspect() string {
	keys := d.Keys()
	pairs := make([]string, len(keys))
	for i, key := range keys {
		val, _ := d.Get(key)
		if s, ok := val.(*String); ok {
			pairs[i] = key + ": " + strconv.Quote(s.Value)
		} else {
			pairs[i] = key + ": " + val.Inspect()
		}
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}

// Get returns the named property
func (d *Dictionary) Get(key string) (Object, bool) {
	val, ok := d.Props.store[key]
	return val, ok
}

// Keys returns the property names in sorted order
func (d *Dictionary) Keys() []string {
	keys := make([]string, 0, len(d.Props.store))
	for k := range d.Props.store {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of properties
func (d *Dictionary) Len() int {
	return len(d.Props.store)
}

// Function represents a user function and the scope it closes over
type Function struct {
	Name   string
	Params []string
	Body   []ast.Statement
	Env    *Environment
}

func (f *Function) Type() ObjectType { return FUNCTION_OBJ }
func (f *Function) Inspect() string {
	return fmt.Sprintf("func %s(%s)", f.Name, strings.Join(f.Params, ", "))
}

// BuiltinFunction is the host side of a native function. It receives the
// caller's scope and the evaluated arguments. It may return a *Halt but
// must not return an *Error for bad arguments.
type BuiltinFunction func(env *Environment, args ...Object) Object

// Builtin represents native function objects
type Builtin struct {
	Name string
	Fn   BuiltinFunction
}

func (b *Builtin) Type() ObjectType { return BUILTIN_OBJ }
func (b *Builtin) Inspect() string  { return "native function " + b.Name }

// Halt is raised by exit() and unwinds the whole program. It is not an
// error; only the top-level driver handles it.
type Halt struct {
	Code    int
	Message string
}

func (h *Halt) Type() ObjectType { return HALT_OBJ }
func (h *Halt) Inspect() string  { return h.Report() }

// Report returns the line printed when the program halts
func (h *Halt) Report() string {
	report := fmt.Sprintf("Exit code: %d", h.Code)
	if h.Message != "" {
		report += " " + h.Message
	}
	return report
}

// Error represents a failed evaluation. It carries the catalog fields of
// errors.ItlError so it can be converted at the driver boundary.
type Error struct {
	Message string
	Line    int
	Column  int
	Class   perrors.ErrorClass
	Code    string
	Hints   []string
	File    string
	Data    map[string]any
}

func (e *Error) Type() ObjectType { return ERROR_OBJ }
func (e *Error) Inspect() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Message)
	}
	return "ERROR: " + e.Message
}

// ToItlError converts this Error to an ItlError for structured handling.
func (e *Error) ToItlError() *perrors.ItlError {
	class := e.Class
	if class == "" {
		class = perrors.ClassType
	}
	return &perrors.ItlError{
		Class:   class,
		Code:    e.Code,
		Message: e.Message,
		Hints:   e.Hints,
		Line:    e.Line,
		Column:  e.Column,
		File:    e.File,
		Data:    e.Data,
	}
}

// errorFromItl wraps a catalog error as an evaluator error value
func errorFromItl(perr *perrors.ItlError) *Error {
	return &Error{
		Message: perr.Message,
		Line:    perr.Line,
		Column:  perr.Column,
		Class:   perr.Class,
		Code:    perr.Code,
		Hints:   perr.Hints,
		Data:    perr.Data,
	}
}

// typeName returns the lowercase name used in messages, e.g. "number"
func typeName(obj Object) string {
	return strings.ReplaceAll(strings.ToLower(string(obj.Type())), "_", " ")
}

func nativeBoolToBooleanObject(input bool) *Boolean {
	if input {
		return TRUE
	}
	return FALSE
}
