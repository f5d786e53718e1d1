package repl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/peterh/liner"

	perrors "github.com/sambeau/itlang/pkg/itlang/errors"
	"github.com/sambeau/itlang/pkg/itlang/itlang"
)

const PROMPT = ">> "
const CONTINUATION_PROMPT = ".. "

const LOGO = `
█ ▀█▀ █░░ ▄▀█ █▄░█ █▀▀
█ ░█░ █▄▄ █▀█ █░▀█ █▄█ `

// Keywords, natives and predeclared constants for tab completion
var completionWords = []string{
	// Keywords
	"let", "const", "func", "if", "elif", "else", "for", "while",
	// Natives
	"print", "println", "time", "exit",
	// Constants
	"true", "false", "null",
}

// Options configures a REPL session
type Options struct {
	Version     string
	Prompt      string // defaults to PROMPT
	HistoryFile string // defaults to .itl_history in the temp dir
}

// Start runs the REPL with line editing, history, and tab completion. It
// returns the exit status: 0 on Ctrl+D or 'exit', the halt code if a
// program calls exit().
func Start(out io.Writer, interp *itlang.Interpreter, opts Options) int {
	line := liner.NewLiner()
	defer line.Close()

	// Enable Ctrl+C to abort current line
	line.SetCtrlCAborts(true)

	line.SetCompleter(func(line string) []string {
		return filterCompletions(line)
	})

	historyFile := opts.HistoryFile
	if historyFile == "" {
		historyFile = filepath.Join(os.TempDir(), ".itl_history")
	}
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}

	// Save history on exit
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	basePrompt := opts.Prompt
	if basePrompt == "" {
		basePrompt = PROMPT
	}

	fmt.Fprintf(out, "%s", LOGO)
	fmt.Fprintln(out, "v", opts.Version)
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Type 'exit' or Ctrl+D to quit")
	fmt.Fprintln(out, "Use Tab for completion, ↑↓ for history")
	fmt.Fprintln(out, "Type ':help' for REPL commands")
	fmt.Fprintln(out, "")

	var inputBuffer strings.Builder

	for {
		currentPrompt := basePrompt
		if inputBuffer.Len() > 0 {
			currentPrompt = CONTINUATION_PROMPT
		}
		input, err := line.Prompt(currentPrompt)
		if err != nil {
			if err == liner.ErrPromptAborted {
				// Ctrl+C clears any buffered input
				if inputBuffer.Len() > 0 {
					fmt.Fprintln(out, "^C (cleared)")
				} else {
					fmt.Fprintln(out, "^C")
				}
				inputBuffer.Reset()
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(out, "\nGoodbye!")
				return 0
			}
			fmt.Fprintf(out, "Error reading input: %v\n", err)
			continue
		}

		trimmed := strings.TrimSpace(input)
		if inputBuffer.Len() == 0 && (trimmed == "exit" || trimmed == "quit") {
			fmt.Fprintln(out, "Goodbye!")
			return 0
		}

		if inputBuffer.Len() == 0 && strings.HasPrefix(trimmed, ":") {
			handleReplCommand(trimmed, interp, out)
			continue
		}

		if inputBuffer.Len() == 0 && trimmed == "" {
			continue
		}

		if inputBuffer.Len() > 0 {
			inputBuffer.WriteString("\n")
		}
		inputBuffer.WriteString(input)

		fullInput := inputBuffer.String()
		if needsMoreInput(fullInput) {
			continue
		}

		line.AppendHistory(fullInput)
		inputBuffer.Reset()

		if code, halted := evalInput(fullInput, interp, out); halted {
			return code
		}
	}
}

// evalInput runs one complete entry and prints its value or error. It
// reports whether the entry halted the session.
func evalInput(input string, interp *itlang.Interpreter, out io.Writer) (int, bool) {
	result, err := interp.Run(input)
	if err != nil {
		printError(out, err)
		return 0, false
	}
	if result.Halted {
		fmt.Fprintln(out, result.Message)
		return result.ExitCode, true
	}
	if result.Value == nil {
		return 0, false
	}
	io.WriteString(out, result.String())
	io.WriteString(out, "\n")
	return 0, false
}

// handleReplCommand handles REPL meta-commands that start with ':'
func handleReplCommand(cmd string, interp *itlang.Interpreter, out io.Writer) {
	name, arg, _ := strings.Cut(cmd, " ")
	switch name {
	case ":help", ":h", ":?":
		fmt.Fprintln(out, "REPL Commands:")
		fmt.Fprintln(out, "  :help, :h, :?   Show this help")
		fmt.Fprintln(out, "  :env            Show variables in scope")
		fmt.Fprintln(out, "  :clear          Clear all user variables")
		fmt.Fprintln(out, "  :ast <code>     Show how code is parsed")
		fmt.Fprintln(out, "  exit, quit      Exit the REPL")

	case ":env":
		printEnvironment(interp, out)

	case ":clear":
		interp.Reset()
		fmt.Fprintln(out, "Environment cleared")

	case ":ast":
		program, err := interp.Parse(strings.TrimSpace(arg))
		if err != nil {
			printError(out, err)
			return
		}
		fmt.Fprintln(out, program.String())

	default:
		fmt.Fprintf(out, "Unknown command: %s (type :help for commands)\n", cmd)
	}
}

// printEnvironment displays all user-defined variables in the global scope
func printEnvironment(interp *itlang.Interpreter, out io.Writer) {
	env := interp.Env()
	vars := env.UserVariables()
	if len(vars) == 0 {
		fmt.Fprintln(out, "(no user variables)")
		return
	}

	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		obj := vars[name]
		typeStr := strings.ToLower(string(obj.Type()))
		value := obj.Inspect()
		if len(value) > 60 {
			value = value[:57] + "..."
		}
		kind := "let"
		if env.IsConstant(name) {
			kind = "const"
		}
		fmt.Fprintf(out, "  %s %s: %s = %s\n", kind, name, typeStr, value)
	}
}

// filterCompletions returns completion suggestions based on current input
func filterCompletions(line string) []string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil
	}

	// Don't complete if line ends with whitespace (including tabs from pasting)
	if line[len(line)-1] == ' ' || line[len(line)-1] == '\t' {
		return nil
	}

	// Complete the identifier at the end of the line, keeping what precedes it
	start := len(line)
	for start > 0 && isIdentChar(line[start-1]) {
		start--
	}
	prefix, lastWord := line[:start], line[start:]
	if lastWord == "" {
		return nil
	}

	var matches []string
	for _, word := range completionWords {
		if strings.HasPrefix(word, lastWord) {
			matches = append(matches, prefix+word)
		}
	}
	return matches
}

func isIdentChar(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

// needsMoreInput checks if the input has unclosed braces, brackets or
// parentheses
func needsMoreInput(input string) bool {
	input = strings.TrimSpace(input)
	if input == "" {
		return false
	}

	braceCount := 0
	bracketCount := 0
	parenCount := 0
	var quote byte
	inComment := false

	for i := 0; i < len(input); i++ {
		ch := input[i]

		if inComment {
			if ch == '\n' {
				inComment = false
			}
			continue
		}

		if quote != 0 {
			switch ch {
			case '\\':
				i++
			case '"', '\'':
				quote = 0
			}
			continue
		}

		switch ch {
		case '"', '\'':
			quote = ch
		case '#':
			inComment = true
		case '{':
			braceCount++
		case '}':
			braceCount--
		case '[':
			bracketCount++
		case ']':
			bracketCount--
		case '(':
			parenCount++
		case ')':
			parenCount--
		}
	}

	return braceCount > 0 || bracketCount > 0 || parenCount > 0
}

// printError prints lexical, syntax and runtime errors
func printError(out io.Writer, err error) {
	if perr, ok := err.(*perrors.ItlError); ok {
		io.WriteString(out, perr.PrettyString())
		io.WriteString(out, "\n")
		return
	}
	fmt.Fprintf(out, "Error: %v\n", err)
}
