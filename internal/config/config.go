package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// Config holds all configurable fixexif settings.
type Config struct {
	ToolPath  string   `json:"tool_path"`  // exiftool binary; empty means look it up on PATH
	ToolArgs  []string `json:"tool_args"`  // prepended to every invocation, e.g. the script for perl
	Patterns  []string `json:"patterns"`   // doublestar globs relative to the scanned directory
	RulesPath string   `json:"rules_path"` // YAML rule file; empty means the built-in rules
	// OverwriteOriginal is a pointer so a file can turn it off explicitly.
	OverwriteOriginal   *bool  `json:"overwrite_original,omitempty"`
	ReportFormat        string `json:"report_format"` // "text" | "json" | "markdown"
	CloseTimeoutSeconds int    `json:"close_timeout_seconds"`
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	overwrite := true
	return Config{
		Patterns:            []string{"**/*.jpg", "**/*.tif"},
		OverwriteOriginal:   &overwrite,
		ReportFormat:        "text",
		CloseTimeoutSeconds: 5,
	}
}

// Overwrite reports whether exiftool should skip its backup copies.
func (c Config) Overwrite() bool {
	return c.OverwriteOriginal == nil || *c.OverwriteOriginal
}

// CloseTimeout returns CloseTimeoutSeconds as a duration.
func (c Config) CloseTimeout() time.Duration {
	return time.Duration(c.CloseTimeoutSeconds) * time.Second
}

// ConfigDir returns the fixexif config directory.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "fixexif"), nil
}

// LoadGlobal reads ~/.config/fixexif/config.json.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	return loadFile(filepath.Join(dir, "config.json"), true)
}

// LoadProject reads .fixexifconfig in the current working directory.
// Returns nil (no error) if the file is absent.
func LoadProject() (*Config, error) {
	return loadFile(".fixexifconfig", false)
}

// loadFile reads and parses a JSON config file at path.
// If returnDefaults is true, returns defaults when the file is absent.
// If returnDefaults is false, returns nil when the file is absent.
func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()
	for _, layer := range []*Config{global, project} {
		if layer == nil {
			continue
		}
		if layer.ToolPath != "" {
			result.ToolPath = layer.ToolPath
		}
		if len(layer.ToolArgs) > 0 {
			result.ToolArgs = layer.ToolArgs
		}
		if len(layer.Patterns) > 0 {
			result.Patterns = layer.Patterns
		}
		if layer.RulesPath != "" {
			result.RulesPath = layer.RulesPath
		}
		if layer.OverwriteOriginal != nil {
			result.OverwriteOriginal = layer.OverwriteOriginal
		}
		if layer.ReportFormat != "" {
			result.ReportFormat = layer.ReportFormat
		}
		if layer.CloseTimeoutSeconds > 0 {
			result.CloseTimeoutSeconds = layer.CloseTimeoutSeconds
		}
	}
	return result
}

// ResolveToolPath returns the exiftool executable to run: ToolPath when set,
// otherwise "exiftool" looked up on PATH.
func (c Config) ResolveToolPath() (string, error) {
	if c.ToolPath != "" {
		return c.ToolPath, nil
	}
	path, err := exec.LookPath("exiftool")
	if err != nil {
		return "", fmt.Errorf("exiftool not found on PATH (set tool_path in the config or pass --tool): %w", err)
	}
	return path, nil
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
