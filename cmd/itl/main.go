package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/sambeau/itlang/config"
	perrors "github.com/sambeau/itlang/pkg/itlang/errors"
	"github.com/sambeau/itlang/pkg/itlang/itlang"
	"github.com/sambeau/itlang/pkg/itlang/repl"
)

// Version is set at build time via -ldflags
var Version = "0.1.0-dev"

func main() {
	ctx := context.Background()
	code, err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if code == 0 {
			code = 1
		}
	}
	os.Exit(code)
}

// run is the main entry point, designed for testability (Mat Ryer pattern).
// It returns the process exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, getenv func(string) string) (int, error) {
	flags := flag.NewFlagSet("itl", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() { printUsage(stderr) }

	var (
		configPath  = flags.String("config", "", "Path to config file")
		evalCode    = flags.String("e", "", "Evaluate code string")
		checkMode   = flags.Bool("check", false, "Check syntax without executing")
		watchMode   = flags.Bool("watch", false, "Re-run the script whenever it changes")
		showVersion = flags.Bool("version", false, "Show version")
		showHelp    = flags.Bool("help", false, "Show help")
	)
	flags.StringVar(evalCode, "eval", "", "Evaluate code string")
	flags.BoolVar(showVersion, "V", false, "Show version")
	flags.BoolVar(showHelp, "h", false, "Show help")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0, nil
		}
		return 2, err
	}

	if *showHelp {
		printUsage(stdout)
		return 0, nil
	}

	if *showVersion {
		fmt.Fprintf(stdout, "itl version %s\n", Version)
		return 0, nil
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(*configPath, getenv)
	if err != nil {
		return 1, fmt.Errorf("loading config: %w", err)
	}

	logger, closeLog, err := config.NewLogger(cfg.Logging, stdout, stderr)
	if err != nil {
		return 1, fmt.Errorf("creating logger: %w", err)
	}
	defer closeLog()

	newInterpreter := func(filename string) *itlang.Interpreter {
		return itlang.New(
			itlang.WithLogger(itlang.WriterLogger(stdout)),
			itlang.WithSlog(logger),
			itlang.WithFilename(filename),
		)
	}

	switch {
	case *evalCode != "":
		return runInline(*evalCode, newInterpreter("<eval>"), stdout, stderr), nil

	case *checkMode:
		if flags.NArg() == 0 {
			return 2, errors.New("--check requires at least one file")
		}
		return checkFiles(ctx, flags.Args(), stdout, stderr)

	case *watchMode:
		if flags.NArg() != 1 {
			return 2, errors.New("--watch requires exactly one file")
		}
		path := flags.Arg(0)
		return watchScript(ctx, path, newInterpreter(path), cfg.Watch.Debounce, stdout, stderr, logger)

	case flags.NArg() > 0:
		return runPath(flags.Arg(0), cfg.Scripts.Extension, newInterpreter, stdout, stderr, logger)

	default:
		interp := newInterpreter("<repl>")
		return repl.Start(stdout, interp, repl.Options{
			Version:     Version,
			Prompt:      cfg.REPL.Prompt,
			HistoryFile: cfg.REPL.HistoryFile,
		}), nil
	}
}

// runInline evaluates code given with -e and prints its value
func runInline(code string, interp *itlang.Interpreter, stdout, stderr io.Writer) int {
	result, err := interp.Run(code)
	if err != nil {
		reportError(stderr, err, code)
		return 1
	}
	if result.Halted {
		fmt.Fprintln(stdout, result.Message)
		return result.ExitCode
	}
	if result.Value != nil {
		fmt.Fprintln(stdout, result.String())
	}
	return 0
}

// runPath runs a script, or every script in a directory in name order. A
// directory run stops at the first failure or halt.
func runPath(path, ext string, newInterpreter func(string) *itlang.Interpreter, stdout, stderr io.Writer, logger *slog.Logger) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 1, err
	}

	files := []string{path}
	if info.IsDir() {
		files, err = scriptsIn(path, ext)
		if err != nil {
			return 1, err
		}
		if len(files) == 0 {
			return 1, fmt.Errorf("no %s files in %s", ext, path)
		}
	}

	for _, file := range files {
		logger.Debug("running script", slog.String("file", file))
		if code, stop := runFile(file, newInterpreter(file), stdout, stderr); stop {
			return code, nil
		}
	}
	return 0, nil
}

// runFile runs one script. It reports whether the caller should stop, with
// the exit status to stop with.
func runFile(path string, interp *itlang.Interpreter, stdout, stderr io.Writer) (int, bool) {
	content, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "Error reading file '%s': %v\n", path, err)
		return 1, true
	}
	result, err := interp.Run(string(content))
	if err != nil {
		reportError(stderr, err, string(content))
		return 1, true
	}
	if result.Halted {
		fmt.Fprintln(stdout, result.Message)
		return result.ExitCode, true
	}
	return 0, false
}

// scriptsIn lists the files in dir with the given extension, sorted by name
func scriptsIn(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// reportError prints an error with the offending source line
func reportError(w io.Writer, err error, source string) {
	var perr *perrors.ItlError
	if !errors.As(err, &perr) {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(w, perr.PrettyString())
	printSourceContext(w, strings.Split(source, "\n"), perr.Line, perr.Column)
}

// printSourceContext prints the source line and error pointer
func printSourceContext(w io.Writer, lines []string, lineNum, colNum int) {
	if lineNum <= 0 || lineNum > len(lines) {
		return
	}

	sourceLine := lines[lineNum-1]

	// Columns trimmed from the left, tabs counting as 8
	trimCount := 0
	for i := 0; i < len(sourceLine); i++ {
		if sourceLine[i] == '\t' {
			trimCount += 8
		} else if sourceLine[i] == ' ' {
			trimCount++
		} else {
			break
		}
	}

	fmt.Fprintf(w, "    %s\n", strings.TrimLeft(sourceLine, " \t"))

	if colNum > 0 {
		visualCol := 0
		for i := 0; i < colNum-1 && i < len(sourceLine); i++ {
			if sourceLine[i] == '\t' {
				visualCol += 8
			} else {
				visualCol++
			}
		}

		adjustedCol := max(visualCol-trimCount, 0)
		fmt.Fprintf(w, "    %s^\n", strings.Repeat(" ", adjustedCol))
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `itl - ITLang interpreter version %s

Usage:
  itl [options] [file | dir]
  itl -e "code"
  itl --check <file>...
  itl --watch <file>

Options:
  -e, --eval CODE  Evaluate code and print the result
  --check          Check syntax without executing (can specify multiple files)
  --watch          Re-run the script every time it is saved
  --config PATH    Path to config file (default: auto-detect)
  -V, --version    Show version
  -h, --help       Show this help

Config Resolution:
  1. --config flag
  2. ITL_CONFIG environment variable
  3. ./itl.yaml
  4. ~/.config/itl/itl.yaml

Examples:
  itl                         Start interactive REPL
  itl hello.itl               Run a script
  itl scripts/                Run every .itl file in a directory, in name order
  itl -e "1 + 2 * 3;"         Evaluate inline code (outputs: 7)
  itl --check *.itl           Check several files
  itl --watch hello.itl       Re-run on save

`, Version)
}
