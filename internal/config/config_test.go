package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pgregory.net/rapid"
)

// Feature: fixexif, Property 4: Config merge precedence
func TestConfigMergePrecedence(t *testing.T) {
	nonEmptyString := rapid.StringMatching(`[a-zA-Z0-9/_.-]{1,20}`)

	configGen := rapid.Custom(func(t *rapid.T) *Config {
		cfg := &Config{}
		if rapid.Bool().Draw(t, "hasToolPath") {
			cfg.ToolPath = nonEmptyString.Draw(t, "toolPath")
		}
		if rapid.Bool().Draw(t, "hasRulesPath") {
			cfg.RulesPath = nonEmptyString.Draw(t, "rulesPath")
		}
		if rapid.Bool().Draw(t, "hasReportFormat") {
			cfg.ReportFormat = nonEmptyString.Draw(t, "reportFormat")
		}
		if rapid.Bool().Draw(t, "hasOverwrite") {
			v := rapid.Bool().Draw(t, "overwrite")
			cfg.OverwriteOriginal = &v
		}
		return cfg
	})

	rapid.Check(t, func(t *rapid.T) {
		global := configGen.Draw(t, "global")
		project := configGen.Draw(t, "project")

		merged := Merge(global, project)
		defaults := Defaults()

		checkStringField(t, "ToolPath",
			global.ToolPath, project.ToolPath, defaults.ToolPath,
			merged.ToolPath)
		checkStringField(t, "RulesPath",
			global.RulesPath, project.RulesPath, defaults.RulesPath,
			merged.RulesPath)
		checkStringField(t, "ReportFormat",
			global.ReportFormat, project.ReportFormat, defaults.ReportFormat,
			merged.ReportFormat)

		want := true
		switch {
		case project.OverwriteOriginal != nil:
			want = *project.OverwriteOriginal
		case global.OverwriteOriginal != nil:
			want = *global.OverwriteOriginal
		}
		if merged.Overwrite() != want {
			t.Fatalf("Overwrite: expected %v, got %v", want, merged.Overwrite())
		}
	})
}

// checkStringField asserts the merge precedence rule for a single string field:
//   - project non-empty  → merged == project
//   - project empty, global non-empty → merged == global
//   - both empty → merged == defaultVal
func checkStringField(t *rapid.T, name, globalVal, projectVal, defaultVal, mergedVal string) {
	t.Helper()
	switch {
	case projectVal != "":
		if mergedVal != projectVal {
			t.Fatalf("%s: both set, expected project value %q, got %q", name, projectVal, mergedVal)
		}
	case globalVal != "":
		if mergedVal != globalVal {
			t.Fatalf("%s: only global set, expected global value %q, got %q", name, globalVal, mergedVal)
		}
	default:
		if mergedVal != defaultVal {
			t.Fatalf("%s: neither set, expected default %q, got %q", name, defaultVal, mergedVal)
		}
	}
}

func TestDefaultsValues(t *testing.T) {
	d := Defaults()
	if d.ReportFormat != "text" {
		t.Errorf("ReportFormat: want %q, got %q", "text", d.ReportFormat)
	}
	if len(d.Patterns) != 2 || d.Patterns[0] != "**/*.jpg" || d.Patterns[1] != "**/*.tif" {
		t.Errorf("Patterns: got %v", d.Patterns)
	}
	if !d.Overwrite() {
		t.Error("Overwrite: want true by default")
	}
	if d.CloseTimeout().Seconds() != 5 {
		t.Errorf("CloseTimeout: want 5s, got %v", d.CloseTimeout())
	}
}

func TestProjectCanDisableOverwrite(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, ".fixexifconfig")
	if err := os.WriteFile(path, []byte(`{"overwrite_original": false, "patterns": ["*.png"]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	project, err := loadFile(path, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	merged := Merge(nil, project)
	if merged.Overwrite() {
		t.Error("expected overwrite to be disabled by the project config")
	}
	if len(merged.Patterns) != 1 || merged.Patterns[0] != "*.png" {
		t.Errorf("Patterns: got %v", merged.Patterns)
	}
}

func TestLoadGlobalMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadGlobal()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected non-nil config, got nil")
	}
	if cfg.ReportFormat != Defaults().ReportFormat {
		t.Errorf("ReportFormat: want %q, got %q", Defaults().ReportFormat, cfg.ReportFormat)
	}
}

func TestLoadProjectMissingFileReturnsNil(t *testing.T) {
	tmp := t.TempDir()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(tmp); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(orig) })

	cfg, err := LoadProject()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != nil {
		t.Errorf("expected nil config, got %+v", cfg)
	}
}

func TestLoadGlobalParseError(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	cfgDir := filepath.Join(tmp, ".config", "fixexif")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "config.json"), []byte("{invalid json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadGlobal()
	if err == nil {
		t.Fatal("expected an error for invalid JSON, got nil")
	}
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("expected *ParseError, got %T: %v", err, err)
	}
}

func TestResolveToolPath(t *testing.T) {
	cfg := Config{ToolPath: "/opt/exiftool/exiftool"}
	got, err := cfg.ResolveToolPath()
	if err != nil || got != "/opt/exiftool/exiftool" {
		t.Errorf("explicit ToolPath: got %q, %v", got, err)
	}

	t.Setenv("PATH", t.TempDir())
	if _, err := (Config{}).ResolveToolPath(); err == nil {
		t.Error("expected an error when exiftool is not on PATH")
	}
}
