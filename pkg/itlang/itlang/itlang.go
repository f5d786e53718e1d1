// Package itlang provides a public API for embedding the ITLang interpreter.
//
// Basic usage:
//
//	interp := itlang.New(itlang.WithLogger(itlang.WriterLogger(os.Stdout)))
//	result, err := interp.Run(`println("hello");`)
//
// An Interpreter keeps its global scope between runs, so declarations made
// by one Run are visible to the next. Running the same source twice reuses
// the tokens of the first scan.
package itlang

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/sambeau/itlang/pkg/itlang/ast"
	perrors "github.com/sambeau/itlang/pkg/itlang/errors"
	"github.com/sambeau/itlang/pkg/itlang/evaluator"
	"github.com/sambeau/itlang/pkg/itlang/parser"
)

// Result is the outcome of a run that did not fail
type Result struct {
	Value    evaluator.Object // value of the last statement, nil for an empty program
	Halted   bool             // the program called exit()
	ExitCode int
	Message  string // halt report, e.g. "Exit code: 2 bye"
}

// String returns the printable form of the result value
func (r *Result) String() string {
	if r == nil || r.Value == nil {
		return ""
	}
	return r.Value.Inspect()
}

// Option configures an Interpreter
type Option func(*options)

type options struct {
	logger   Logger
	slog     *slog.Logger
	clock    evaluator.Clock
	filename string
}

// WithLogger sets where print() and println() write
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithSlog sets the logger for interpreter diagnostics
func WithSlog(logger *slog.Logger) Option {
	return func(o *options) {
		o.slog = logger
	}
}

// WithClock sets the time source for time()
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithFilename sets the file name attached to errors
func WithFilename(name string) Option {
	return func(o *options) {
		o.filename = name
	}
}

// Interpreter runs programs against one global scope
type Interpreter struct {
	parser   *parser.Parser
	builtins map[string]*evaluator.Builtin
	env      *evaluator.Environment
	logger   Logger
	log      *slog.Logger
	filename string
}

// New creates an interpreter with a fresh global scope
func New(opts ...Option) *Interpreter {
	o := &options{
		logger: StdoutLogger(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.slog == nil {
		o.slog = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	interp := &Interpreter{
		parser:   parser.New(),
		builtins: evaluator.NewBuiltins(o.clock),
		logger:   o.logger,
		log:      o.slog,
		filename: o.filename,
	}
	interp.Reset()
	return interp
}

// Reset discards every user declaration
func (i *Interpreter) Reset() {
	i.env = evaluator.NewGlobalEnvironment(i.builtins)
	i.env.Logger = i.logger
	i.env.Filename = i.filename
}

// Env returns the global scope
func (i *Interpreter) Env() *evaluator.Environment {
	return i.env
}

// Filename returns the file name attached to errors
func (i *Interpreter) Filename() string {
	return i.filename
}

// Parse parses source through the interpreter's caching parser
func (i *Interpreter) Parse(source string) (*ast.Program, error) {
	before := i.parser.Scans()
	program, err := i.parser.Parse(source)
	if i.parser.Scans() == before {
		i.log.Debug("parse CACHE HIT", slog.String("file", i.filename))
	} else {
		i.log.Debug("parse CACHE MISS", slog.String("file", i.filename), slog.Int("scans", i.parser.Scans()))
	}
	if err != nil {
		return nil, i.attachFile(err)
	}
	return program, nil
}

// Run parses and evaluates source in the global scope. Lexical, syntax,
// resolution and type failures are returned as *errors.ItlError; exit()
// is reported through the Result.
func (i *Interpreter) Run(source string) (*Result, error) {
	program, err := i.Parse(source)
	if err != nil {
		return nil, err
	}
	if len(program.Statements) == 0 {
		return &Result{}, nil
	}

	obj := evaluator.Eval(program, i.env)
	switch obj := obj.(type) {
	case *evaluator.Error:
		perr := obj.ToItlError()
		if perr.File == "" {
			perr.File = i.filename
		}
		i.log.Debug("run failed", slog.String("file", i.filename), slog.String("code", perr.Code))
		return nil, perr
	case *evaluator.Halt:
		i.log.Debug("program halted", slog.String("file", i.filename), slog.Int("code", obj.Code))
		return &Result{Halted: true, ExitCode: obj.Code, Message: obj.Report()}, nil
	}
	return &Result{Value: obj}, nil
}

// RunFile reads path and runs it with path attached to errors
func (i *Interpreter) RunFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	i.filename = path
	i.env.Filename = path
	return i.Run(string(data))
}

func (i *Interpreter) attachFile(err error) error {
	var perr *perrors.ItlError
	if i.filename != "" && errors.As(err, &perr) && perr.File == "" {
		return perr.WithFile(i.filename)
	}
	return err
}

// Check parses source without evaluating it. It is safe to call from
// several goroutines.
func Check(filename, source string) error {
	if _, err := parser.New().Parse(source); err != nil {
		var perr *perrors.ItlError
		if errors.As(err, &perr) && filename != "" {
			return perr.WithFile(filename)
		}
		return err
	}
	return nil
}
