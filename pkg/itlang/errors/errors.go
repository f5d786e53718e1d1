// Package errors provides structured error types for the ITLang language.
//
// ItlError is the single error type returned by the scanner, the parser and
// the evaluator. Every error belongs to a class (lexical, syntax, resolution
// or type) and carries a catalog code, a rendered message, optional hints and
// the source position where it was raised.
package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// ErrorClass categorizes errors for filtering and display.
type ErrorClass string

const (
	ClassLexical    ErrorClass = "lexical"    // Bad characters, strings, operator pairs
	ClassSyntax     ErrorClass = "syntax"     // Unexpected tokens
	ClassResolution ErrorClass = "resolution" // Undeclared, redeclared or constant names
	ClassType       ErrorClass = "type"       // Wrong value kind for an operation
)

// ItlError represents any error from scanning, parsing or evaluation.
type ItlError struct {
	Class   ErrorClass     `json:"class"`
	Code    string         `json:"code"` // e.g. "SYNTAX-0001"
	Message string         `json:"message"`
	Hints   []string       `json:"hints,omitempty"`
	Line    int            `json:"line"`   // 1-based (0 if unknown)
	Column  int            `json:"column"` // 1-based (0 if unknown)
	File    string         `json:"file,omitempty"`
	Data    map[string]any `json:"data,omitempty"` // Template variables
}

// Error implements the error interface.
func (e *ItlError) Error() string {
	return e.String()
}

// String returns a single-line representation prefixed with the location.
func (e *ItlError) String() string {
	var sb strings.Builder

	if e.File != "" {
		sb.WriteString(e.File)
		sb.WriteString(": ")
	}
	if e.Line > 0 {
		sb.WriteString(fmt.Sprintf("line %d, column %d: ", e.Line, e.Column))
	}

	sb.WriteString(e.Message)

	for _, hint := range e.Hints {
		sb.WriteString("\n  ")
		sb.WriteString(hint)
	}

	return sb.String()
}

// PrettyString returns a multi-line formatted string for display.
func (e *ItlError) PrettyString() string {
	var sb strings.Builder

	switch e.Class {
	case ClassLexical:
		sb.WriteString("Lexical error")
	case ClassSyntax:
		sb.WriteString("Syntax error")
	default:
		sb.WriteString("Runtime error")
	}

	if e.File != "" {
		sb.WriteString(":\n  in: ")
		sb.WriteString(e.File)
		if e.Line > 0 {
			sb.WriteString(fmt.Sprintf("\n  at: line %d, column %d", e.Line, e.Column))
		}
		sb.WriteString("\n  ")
	} else if e.Line > 0 {
		sb.WriteString(fmt.Sprintf(": line %d, column %d\n  ", e.Line, e.Column))
	} else {
		sb.WriteString(":\n  ")
	}

	sb.WriteString(e.Message)

	for _, hint := range e.Hints {
		sb.WriteString("\n  hint: ")
		sb.WriteString(hint)
	}

	return sb.String()
}

// ToJSON returns the error as JSON bytes.
func (e *ItlError) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// WithFile returns a copy of the error with the file path set.
func (e *ItlError) WithFile(file string) *ItlError {
	copy := *e
	copy.File = file
	return &copy
}

// WithPosition returns a copy of the error with line and column set.
func (e *ItlError) WithPosition(line, column int) *ItlError {
	copy := *e
	copy.Line = line
	copy.Column = column
	return &copy
}

// IsStatic reports whether the error was raised before evaluation started.
func (e *ItlError) IsStatic() bool {
	return e.Class == ClassLexical || e.Class == ClassSyntax
}

// ErrorDef defines an error in the catalog.
type ErrorDef struct {
	Class    ErrorClass
	Template string   // Message template with {{.placeholders}}
	Hints    []string // Hint templates
}

// ErrorCatalog maps error codes to their definitions.
var ErrorCatalog = map[string]ErrorDef{
	// Lexical errors (LEX-0xxx)
	"LEX-0001": {
		Class:    ClassLexical,
		Template: "unrecognized character '{{.Char}}'",
	},
	"LEX-0002": {
		Class:    ClassLexical,
		Template: "unterminated string literal",
		Hints:    []string{"close the string with {{.Quote}}"},
	},
	"LEX-0003": {
		Class:    ClassLexical,
		Template: "string opened with {{.Open}} but closed with {{.Close}}",
	},
	"LEX-0004": {
		Class:    ClassLexical,
		Template: "unknown escape sequence '\\{{.Char}}'",
		Hints:    []string{`recognized escapes are \n \r \t \v \f \0 \" \' \\`},
	},
	"LEX-0005": {
		Class:    ClassLexical,
		Template: "'{{.Char}}' must be doubled to form '{{.Char}}{{.Char}}'",
	},

	// Syntax errors (SYNTAX-0xxx)
	"SYNTAX-0001": {
		Class:    ClassSyntax,
		Template: "expected {{.Expected}}, got '{{.Got}}'",
	},
	"SYNTAX-0002": {
		Class:    ClassSyntax,
		Template: "unexpected token '{{.Got}}'",
	},
	"SYNTAX-0003": {
		Class:    ClassSyntax,
		Template: "function parameters must be identifiers, got '{{.Got}}'",
	},
	"SYNTAX-0004": {
		Class:    ClassSyntax,
		Template: "constant '{{.Name}}' must be initialized",
		Hints:    []string{"const {{.Name}} = value;"},
	},
	"SYNTAX-0005": {
		Class:    ClassSyntax,
		Template: "number literal '{{.Literal}}' has more than one decimal point",
	},
	"SYNTAX-0006": {
		Class:    ClassSyntax,
		Template: "invalid number literal '{{.Literal}}'",
	},
	"SYNTAX-0007": {
		Class:    ClassSyntax,
		Template: "member access with '.' requires an identifier, got '{{.Got}}'",
	},
	"SYNTAX-0008": {
		Class:    ClassSyntax,
		Template: "object literal keys must be identifiers, got '{{.Got}}'",
	},

	// Resolution errors (RESOLVE-0xxx)
	"RESOLVE-0001": {
		Class:    ClassResolution,
		Template: "identifier not found: {{.Name}}",
	},
	"RESOLVE-0002": {
		Class:    ClassResolution,
		Template: "'{{.Name}}' is already declared in this scope",
	},
	"RESOLVE-0003": {
		Class:    ClassResolution,
		Template: "cannot assign to constant '{{.Name}}'",
	},
	"RESOLVE-0004": {
		Class:    ClassResolution,
		Template: "cannot assign to undeclared variable '{{.Name}}'",
		Hints:    []string{"let {{.Name}} = value;"},
	},
	"RESOLVE-0005": {
		Class:    ClassResolution,
		Template: "object has no property '{{.Name}}'",
	},

	// Type errors (TYPE-0xxx)
	"TYPE-0001": {
		Class:    ClassType,
		Template: "operator '{{.Operator}}' is not supported for {{.Left}} and {{.Right}}",
	},
	"TYPE-0002": {
		Class:    ClassType,
		Template: "operator '{{.Operator}}' requires a number operand, got {{.Got}}",
	},
	"TYPE-0003": {
		Class:    ClassType,
		Template: "operator '{{.Operator}}' has no operand",
	},
	"TYPE-0004": {
		Class:    ClassType,
		Template: "unary operator '{{.Operator}}' is not supported",
	},
	"TYPE-0005": {
		Class:    ClassType,
		Template: "{{.Got}} is not a function",
	},
	"TYPE-0006": {
		Class:    ClassType,
		Template: "assignment target must be an identifier, got {{.Got}}",
	},
	"TYPE-0007": {
		Class:    ClassType,
		Template: "condition must be a boolean, got {{.Got}}",
	},
	"TYPE-0008": {
		Class:    ClassType,
		Template: "member access requires an object, got {{.Got}}",
	},
	"TYPE-0009": {
		Class:    ClassType,
		Template: "computed member access requires a string key, got {{.Got}}",
	},
}

// New creates an error from the catalog with the given template data.
func New(code string, data map[string]any) *ItlError {
	def, ok := ErrorCatalog[code]
	if !ok {
		return &ItlError{
			Class:   ClassType,
			Code:    code,
			Message: fmt.Sprintf("unknown error code: %s", code),
			Data:    data,
		}
	}

	err := &ItlError{
		Class:   def.Class,
		Code:    code,
		Message: renderTemplate(def.Template, data),
		Data:    data,
	}
	for _, h := range def.Hints {
		err.Hints = append(err.Hints, renderTemplate(h, data))
	}
	return err
}

// NewWithPosition creates a catalog error at the given source position.
func NewWithPosition(code string, line, column int, data map[string]any) *ItlError {
	err := New(code, data)
	err.Line = line
	err.Column = column
	return err
}

// renderTemplate renders a Go template with the given data.
func renderTemplate(tmplStr string, data map[string]any) string {
	if data == nil {
		return tmplStr
	}

	tmpl, err := template.New("").Parse(tmplStr)
	if err != nil {
		return tmplStr
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return tmplStr
	}

	return buf.String()
}

// levenshteinDistance computes the edit distance between two strings.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

// FindClosestMatch returns the candidate closest to input, or "" when
// nothing is near enough. Short names allow one edit, medium names two and
// longer names three.
func FindClosestMatch(input string, candidates []string) string {
	if len(input) == 0 || len(candidates) == 0 {
		return ""
	}

	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)

	inputLower := strings.ToLower(input)
	var bestMatch string
	bestDistance := -1

	for _, candidate := range sorted {
		dist := levenshteinDistance(inputLower, strings.ToLower(candidate))
		if bestDistance == -1 || dist < bestDistance {
			bestDistance = dist
			bestMatch = candidate
		}
	}

	threshold := 1
	if len(input) >= 4 && len(input) <= 6 {
		threshold = 2
	} else if len(input) >= 7 {
		threshold = 3
	}

	if bestDistance <= 0 || bestDistance > threshold {
		return ""
	}
	return bestMatch
}

// NewUndefinedIdentifier creates an undeclared-identifier error with a
// "Did you mean" hint when a close match is in scope.
func NewUndefinedIdentifier(name string, available []string) *ItlError {
	err := New("RESOLVE-0001", map[string]any{"Name": name})
	if suggestion := FindClosestMatch(name, available); suggestion != "" {
		err.Hints = append(err.Hints, "Did you mean `"+suggestion+"`?")
	}
	return err
}
