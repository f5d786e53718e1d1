package config

import "time"

// Config represents the complete itl configuration
type Config struct {
	BaseDir string        `yaml:"-"` // Directory containing config file, for resolving relative paths
	Logging LoggingConfig `yaml:"logging"`
	Scripts ScriptsConfig `yaml:"scripts"`
	REPL    REPLConfig    `yaml:"repl"`
	Watch   WatchConfig   `yaml:"watch"`
}

// LoggingConfig holds diagnostic logging settings. Program output from
// print() is not affected.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or text
	Output string `yaml:"output"` // stderr, stdout, or file path
}

// ScriptsConfig controls how directories of scripts are run
type ScriptsConfig struct {
	Extension string `yaml:"extension"` // file extension picked up when running a directory (default: ".itl")
}

// REPLConfig holds interactive session settings
type REPLConfig struct {
	HistoryFile string `yaml:"history_file"` // default: .itl_history in the temp dir
	Prompt      string `yaml:"prompt"`
}

// WatchConfig holds --watch settings
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"` // quiet period before a changed file is re-run (default: 100ms)
}

// Defaults returns a Config with sensible defaults
func Defaults() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
			Output: "stderr",
		},
		Scripts: ScriptsConfig{
			Extension: ".itl",
		},
		REPL: REPLConfig{
			Prompt: ">> ",
		},
		Watch: WatchConfig{
			Debounce: 100 * time.Millisecond,
		},
	}
}
