package evaluator

import (
	"fmt"
	"strings"

	perrors "github.com/sambeau/itlang/pkg/itlang/errors"
)

// Logger receives the output of print() and println()
type Logger interface {
	Log(values ...any)
	LogLine(values ...any)
}

// defaultStdoutLogger is the default logger that writes to stdout
type defaultStdoutLogger struct{}

func (l *defaultStdoutLogger) Log(values ...any) {
	fmt.Print(joinValues(values))
}

func (l *defaultStdoutLogger) LogLine(values ...any) {
	fmt.Println(joinValues(values))
}

func joinValues(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, " ")
}

// DefaultLogger is the default stdout logger
var DefaultLogger Logger = &defaultStdoutLogger{}

// Environment is one scope in the chain. Closures keep their defining
// environment reachable for as long as the function value lives.
type Environment struct {
	store     map[string]Object
	constants map[string]bool
	outer     *Environment
	Filename  string
	Logger    Logger // Output for print()/println()
}

// NewEnvironment creates a new root environment
func NewEnvironment() *Environment {
	return &Environment{
		store:     make(map[string]Object),
		constants: make(map[string]bool),
		Logger:    DefaultLogger,
	}
}

// NewEnclosedEnvironment creates a child environment of outer
func NewEnclosedEnvironment(outer *Environment) *Environment {
	env := NewEnvironment()
	env.outer = outer
	if outer != nil {
		env.Filename = outer.Filename
		env.Logger = outer.Logger
	}
	return env
}

// NewGlobalEnvironment creates the root scope of a program: the constants
// true, false and null plus the given native functions.
func NewGlobalEnvironment(builtins map[string]*Builtin) *Environment {
	env := NewEnvironment()
	env.Declare("true", TRUE, true)
	env.Declare("false", FALSE, true)
	env.Declare("null", NULL, true)
	for name, b := range builtins {
		env.Declare(name, b, true)
	}
	return env
}

// Outer returns the parent environment, or nil at the root
func (e *Environment) Outer() *Environment {
	return e.outer
}

// Declare binds name in this scope. It fails if this scope already binds
// name; outer bindings may be shadowed.
func (e *Environment) Declare(name string, val Object, constant bool) Object {
	if _, exists := e.store[name]; exists {
		return errorFromItl(perrors.New("RESOLVE-0002", map[string]any{"Name": name}))
	}
	e.store[name] = val
	if constant {
		e.constants[name] = true
	}
	return val
}

// Assign overwrites name in the nearest scope that declares it.
func (e *Environment) Assign(name string, val Object) Object {
	owner, ok := e.Resolve(name)
	if !ok {
		return errorFromItl(perrors.New("RESOLVE-0004", map[string]any{"Name": name}))
	}
	if owner.constants[name] {
		return errorFromItl(perrors.New("RESOLVE-0003", map[string]any{"Name": name}))
	}
	owner.store[name] = val
	return val
}

// Lookup returns the value bound to name in the nearest scope
func (e *Environment) Lookup(name string) Object {
	if val, ok := e.Get(name); ok {
		return val
	}
	return errorFromItl(perrors.NewUndefinedIdentifier(name, e.AllIdentifiers()))
}

// Resolve returns the scope that owns name
func (e *Environment) Resolve(name string) (*Environment, bool) {
	for env := e; env != nil; env = env.outer {
		if _, ok := env.store[name]; ok {
			return env, true
		}
	}
	return nil, false
}

// Get retrieves a value from the environment chain
func (e *Environment) Get(name string) (Object, bool) {
	owner, ok := e.Resolve(name)
	if !ok {
		return nil, false
	}
	return owner.store[name], true
}

// IsConstant reports whether the binding that name resolves to is constant
func (e *Environment) IsConstant(name string) bool {
	owner, ok := e.Resolve(name)
	return ok && owner.constants[name]
}

// AllIdentifiers returns all identifiers visible from this environment.
// This is used for fuzzy matching in error messages.
func (e *Environment) AllIdentifiers() []string {
	seen := make(map[string]bool)
	var result []string

	for env := e; env != nil; env = env.outer {
		for name := range env.store {
			if !seen[name] {
				seen[name] = true
				result = append(result, name)
			}
		}
	}

	return result
}

// UserVariables returns the bindings of this scope that the program
// declared, leaving out natives and the predeclared literals.
func (e *Environment) UserVariables() map[string]Object {
	vars := make(map[string]Object)
	for name, val := range e.store {
		if _, ok := val.(*Builtin); ok {
			continue
		}
		if e.outer == nil && e.constants[name] && (name == "true" || name == "false" || name == "null") {
			continue
		}
		vars[name] = val
	}
	return vars
}
