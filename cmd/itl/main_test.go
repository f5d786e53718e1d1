package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func noEnv(string) string { return "" }

// testConfig writes a config that keeps diagnostics off stderr so tests
// can assert on it exactly
func testConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "itl.yaml")
	content := "logging:\n  level: error\n  output: " + filepath.Join(dir, "itl.log") + "\nwatch:\n  debounce: 10ms\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeScript(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	dir := t.TempDir()
	args = append([]string{"--config", testConfig(t, dir)}, args...)
	var stdout, stderr bytes.Buffer
	code, err := run(context.Background(), args, &stdout, &stderr, noEnv)
	if err != nil {
		stderr.WriteString("error: " + err.Error() + "\n")
	}
	return code, stdout.String(), stderr.String()
}

func TestRunVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code, err := run(context.Background(), []string{"--version"}, &stdout, &stderr, noEnv)
	if err != nil || code != 0 {
		t.Fatalf("unexpected result %d %v", code, err)
	}
	if !strings.Contains(stdout.String(), "itl version") {
		t.Errorf("expected version output, got %q", stdout.String())
	}
}

func TestRunHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code, err := run(context.Background(), []string{"--help"}, &stdout, &stderr, noEnv)
	if err != nil || code != 0 {
		t.Fatalf("unexpected result %d %v", code, err)
	}
	if !strings.Contains(stdout.String(), "Usage:") {
		t.Errorf("expected usage, got %q", stdout.String())
	}
}

func TestRunUnknownFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code, err := run(context.Background(), []string{"--bogus"}, &stdout, &stderr, noEnv)
	if err == nil || code != 2 {
		t.Errorf("expected a flag error with status 2, got %d %v", code, err)
	}
}

func TestEvaluateInline(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		expected string
		status   int
	}{
		{"arithmetic", "1 + 2 * 3;", "7\n", 0},
		{"if chain", "if (1 == 2) { 5; } else { 10; }", "10\n", 0},
		{"function", "func add(a, b) { a + b; } add(2, 3);", "5\n", 0},
		{"postfix", "let x = 5; x++; x;", "6\n", 0},
		{"object", "let o = { a: 1, b: 2 }; o.a;", "1\n", 0},
		{"equality", "let o1 = {a:1}; let o2 = {a:1}; o1 == o2;", "true\n", 0},
		{"print", `println("hi", 2);`, "hi 2\nnull\n", 0},
		{"comment only", "# nothing", "", 0},
		{"halt", `exit(2, "bye"); println("never");`, "Exit code: 2 bye\n", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, "-e", tt.code)
			if code != tt.status {
				t.Errorf("expected status %d, got %d (stderr %q)", tt.status, code, stderr)
			}
			if stdout != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, stdout)
			}
		})
	}
}

func TestEvaluateInlineError(t *testing.T) {
	code, _, stderr := runCLI(t, "-e", "let a = 1;\n  a + missing;")
	if code != 1 {
		t.Errorf("expected status 1, got %d", code)
	}
	for _, want := range []string{"Runtime error", "identifier not found: missing", "a + missing;", "    ^"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr should contain %q:\n%s", want, stderr)
		}
	}
}

func TestRunFile(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "hello.itl", `
let greeting = "hello";
println(greeting);
for (let i = 0; i < 3; i++) { print(i); }
println();
`)

	code, stdout, stderr := runCLI(t, path)
	if code != 0 {
		t.Fatalf("expected status 0, got %d: %s", code, stderr)
	}
	if stdout != "hello\n012\n" {
		t.Errorf("unexpected output %q", stdout)
	}
}

func TestRunFileErrors(t *testing.T) {
	dir := t.TempDir()

	syntax := writeScript(t, dir, "syntax.itl", "let x = ;\n")
	code, _, stderr := runCLI(t, syntax)
	if code != 1 || !strings.Contains(stderr, "Syntax error") || !strings.Contains(stderr, syntax) {
		t.Errorf("expected a syntax error naming the file, got %d %q", code, stderr)
	}

	code, _, stderr = runCLI(t, filepath.Join(dir, "absent.itl"))
	if code != 1 || !strings.Contains(stderr, "error:") {
		t.Errorf("expected failure for a missing file, got %d %q", code, stderr)
	}
}

func TestRunFileHalt(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "halt.itl", "println(\"a\");\nexit(3);\nprintln(\"b\");\n")

	code, stdout, _ := runCLI(t, path)
	if code != 3 {
		t.Errorf("expected status 3, got %d", code)
	}
	if stdout != "a\nExit code: 3\n" {
		t.Errorf("unexpected output %q", stdout)
	}
}

func TestRunDirectory(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "b.itl", `println("second");`)
	writeScript(t, dir, "a.itl", `println("first");`)
	writeScript(t, dir, "notes.txt", `println("skipped");`)

	code, stdout, stderr := runCLI(t, dir)
	if code != 0 {
		t.Fatalf("expected status 0, got %d: %s", code, stderr)
	}
	if stdout != "first\nsecond\n" {
		t.Errorf("unexpected output %q", stdout)
	}

	// each file gets its own global scope
	writeScript(t, dir, "c.itl", "let shared = 1;")
	writeScript(t, dir, "d.itl", "let shared = 2;")
	if code, _, stderr := runCLI(t, dir); code != 0 {
		t.Errorf("files should not share declarations: %s", stderr)
	}
}

func TestRunDirectoryStopsAtHalt(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "1.itl", `println("one"); exit(4);`)
	writeScript(t, dir, "2.itl", `println("two");`)

	code, stdout, _ := runCLI(t, dir)
	if code != 4 {
		t.Errorf("expected status 4, got %d", code)
	}
	if strings.Contains(stdout, "two") {
		t.Errorf("second script should not run: %q", stdout)
	}
}

func TestCheckFiles(t *testing.T) {
	dir := t.TempDir()
	good := writeScript(t, dir, "good.itl", "let a = 1; undeclared;")
	bad := writeScript(t, dir, "bad.itl", "func f(1) { }")
	lexBad := writeScript(t, dir, "lex.itl", "let a = @;")

	code, stdout, _ := runCLI(t, "--check", good)
	if code != 0 || stdout != good+": ok\n" {
		t.Errorf("expected clean check, got %d %q", code, stdout)
	}

	code, stdout, stderr := runCLI(t, "--check", good, bad, lexBad)
	if code != 1 {
		t.Errorf("expected status 1, got %d", code)
	}
	if !strings.Contains(stdout, good+": ok") {
		t.Errorf("good file should be reported ok: %q", stdout)
	}
	for _, want := range []string{bad, lexBad, "Syntax error", "Lexical error", "2 of 3 files have errors"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr should contain %q:\n%s", want, stderr)
		}
	}
	if strings.Index(stderr, bad) > strings.Index(stderr, lexBad) {
		t.Error("errors should be reported in argument order")
	}

	code, _, _ = runCLI(t, "--check", filepath.Join(dir, "absent.itl"))
	if code != 2 {
		t.Errorf("expected status 2 for an unreadable file, got %d", code)
	}

	code, _, _ = runCLI(t, "--check")
	if code != 2 {
		t.Errorf("expected status 2 without files, got %d", code)
	}
}

func TestBadConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "itl.yaml", "logging:\n  level: loud\n")
	var stdout, stderr bytes.Buffer
	code, err := run(context.Background(), []string{"--config", path, "-e", "1;"}, &stdout, &stderr, noEnv)
	if err == nil || code != 1 || !strings.Contains(err.Error(), "invalid log level") {
		t.Errorf("expected a config error, got %d %v", code, err)
	}
}

// syncBuffer is a bytes.Buffer safe for the watcher goroutine
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitFor(t *testing.T, buf *syncBuffer, want string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(buf.String(), want) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %q, output so far %q", want, buf.String())
}

func TestWatchRerunsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "watched.itl", `println("v1");`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stdout, stderr syncBuffer
	args := []string{"--config", testConfig(t, dir), "--watch", path}
	done := make(chan int)
	go func() {
		code, _ := run(ctx, args, &stdout, &stderr, noEnv)
		done <- code
	}()

	waitFor(t, &stdout, "v1\n")
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte(`println("v2");`), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, &stdout, "v2\n")

	cancel()
	select {
	case code := <-done:
		if code != 0 {
			t.Errorf("expected status 0 after cancel, got %d", code)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}
