package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Logging.Level != "warn" {
		t.Errorf("expected default log level 'warn', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("expected default log format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Scripts.Extension != ".itl" {
		t.Errorf("expected default extension '.itl', got %q", cfg.Scripts.Extension)
	}
	if cfg.Watch.Debounce != 100*time.Millisecond {
		t.Errorf("expected 100ms debounce, got %s", cfg.Watch.Debounce)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestInterpolateEnv(t *testing.T) {
	getenv := func(key string) string {
		switch key {
		case "TEST_LEVEL":
			return "debug"
		case "TEST_DIR":
			return "scripts"
		default:
			return ""
		}
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple substitution",
			input:    "level: ${TEST_LEVEL}",
			expected: "level: debug",
		},
		{
			name:     "with default (env set)",
			input:    "level: ${TEST_LEVEL:-info}",
			expected: "level: debug",
		},
		{
			name:     "with default (env not set)",
			input:    "level: ${UNSET_VAR:-info}",
			expected: "level: info",
		},
		{
			name:     "multiple substitutions",
			input:    "dir: ${TEST_DIR}/${TEST_LEVEL}",
			expected: "dir: scripts/debug",
		},
		{
			name:     "no substitution needed",
			input:    "static: value",
			expected: "static: value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := string(interpolateEnv([]byte(tt.input), getenv))
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "itl.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func noEnv(string) string { return "" }

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: ${ITL_LEVEL:-debug}
  format: json
  output: logs/itl.log
scripts:
  extension: .it
repl:
  history_file: .history
  prompt: "itl> "
watch:
  debounce: 250ms
`)

	cfg, resolved, err := LoadWithPath(path, noEnv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	base := filepath.Dir(resolved)

	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging %+v", cfg.Logging)
	}
	if cfg.Logging.Output != filepath.Join(base, "logs/itl.log") {
		t.Errorf("log file should resolve against the config dir, got %q", cfg.Logging.Output)
	}
	if cfg.Scripts.Extension != ".it" {
		t.Errorf("unexpected scripts %+v", cfg.Scripts)
	}
	if cfg.REPL.Prompt != "itl> " || cfg.REPL.HistoryFile != filepath.Join(base, ".history") {
		t.Errorf("unexpected repl %+v", cfg.REPL)
	}
	if cfg.Watch.Debounce != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %s", cfg.Watch.Debounce)
	}
	if cfg.BaseDir != base {
		t.Errorf("expected base dir %q, got %q", base, cfg.BaseDir)
	}
}

func TestLoadKeepsDefaultsForMissingFields(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: error\n")

	cfg, err := Load(path, noEnv)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("expected error level, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Output != "stderr" || cfg.Scripts.Extension != ".itl" {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadFromEnvVariable(t *testing.T) {
	path := writeConfig(t, "repl:\n  prompt: \"env> \"\n")
	getenv := func(key string) string {
		if key == "ITL_CONFIG" {
			return path
		}
		return ""
	}

	cfg, err := Load("", getenv)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.REPL.Prompt != "env> " {
		t.Errorf("expected prompt from ITL_CONFIG file, got %q", cfg.REPL.Prompt)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr []string
	}{
		{
			name:    "invalid yaml",
			content: "logging: [",
			wantErr: []string{"failed to parse config"},
		},
		{
			name:    "every problem is reported",
			content: "logging:\n  level: loud\n  format: xml\nscripts:\n  extension: itl\n",
			wantErr: []string{"invalid log level: loud", "invalid log format: xml", "invalid script extension"},
		},
		{
			name:    "negative debounce",
			content: "watch:\n  debounce: -1s\n",
			wantErr: []string{"invalid watch debounce"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content), noEnv)
			if err == nil {
				t.Fatal("expected error")
			}
			for _, want := range tt.wantErr {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("error %q should contain %q", err.Error(), want)
				}
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), noEnv); err == nil {
		t.Error("an explicit missing file should fail")
	}
}

func TestNewLogger(t *testing.T) {
	var stdout, stderr bytes.Buffer

	logger, closeLog, err := NewLogger(LoggingConfig{Level: "info", Format: "text", Output: "stderr"}, &stdout, &stderr)
	if err != nil {
		t.Fatal(err)
	}
	defer closeLog()
	logger.Debug("hidden")
	logger.Info("shown", "file", "main.itl")

	if strings.Contains(stderr.String(), "hidden") {
		t.Error("debug record should be filtered at info level")
	}
	if !strings.Contains(stderr.String(), "msg=shown") || !strings.Contains(stderr.String(), "file=main.itl") {
		t.Errorf("unexpected text output %q", stderr.String())
	}
	if stdout.Len() != 0 {
		t.Error("nothing should reach stdout")
	}

	logger, _, err = NewLogger(LoggingConfig{Level: "debug", Format: "json", Output: "stdout"}, &stdout, &stderr)
	if err != nil {
		t.Fatal(err)
	}
	logger.Debug("json record")
	if !strings.Contains(stdout.String(), `"msg":"json record"`) {
		t.Errorf("unexpected json output %q", stdout.String())
	}

	path := filepath.Join(t.TempDir(), "itl.log")
	logger, closeFile, err := NewLogger(LoggingConfig{Level: "warn", Format: "text", Output: path}, &stdout, &stderr)
	if err != nil {
		t.Fatal(err)
	}
	logger.Warn("to file")
	if err := closeFile(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil || !strings.Contains(string(data), "to file") {
		t.Errorf("expected record in log file, got %q (%v)", data, err)
	}

	if _, _, err := NewLogger(LoggingConfig{Level: "loud"}, &stdout, &stderr); err == nil {
		t.Error("expected an error for an unknown level")
	}
}
