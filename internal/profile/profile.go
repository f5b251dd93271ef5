// Package profile manages the user's persistent fixexif profile.
// The profile is stored at ~/.config/fixexif/profile.json and holds the
// author and device defaults the built-in rules write into every image.
package profile

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Profile holds user-level defaults set during setup.
type Profile struct {
	Artist          string `json:"artist"`
	CopyrightHolder string `json:"copyright_holder"` // "Copyright (c) <year> <holder>"
	Make            string `json:"make"`
	Model           string `json:"model"`
	Software        string `json:"software"`
}

// Defaults returns the profile used when none was saved.
func Defaults() *Profile {
	return &Profile{
		Make:     "Canon",
		Model:    "CanoScan LiDE 100",
		Software: "fixexif",
	}
}

// profilePath returns the path to the profile file.
func profilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "profile.json"), nil
}

// ConfigDir returns the fixexif config directory.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "fixexif"), nil
}

// Exists reports whether a profile file is present on disk.
func Exists() bool {
	p, err := profilePath()
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// Load reads the profile from disk. Returns an error if the file is missing or malformed.
func Load() (*Profile, error) {
	p, err := profilePath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("profile not found, run 'fixexif setup' to configure: %w", err)
	}
	var prof Profile
	if err := json.Unmarshal(data, &prof); err != nil {
		return nil, fmt.Errorf("malformed profile at %s: %w", p, err)
	}
	return &prof, nil
}

// LoadOrDefaults returns the saved profile, or Defaults when none exists.
func LoadOrDefaults() (*Profile, error) {
	if !Exists() {
		return Defaults(), nil
	}
	return Load()
}

// Save writes the profile to disk, creating the config directory if needed.
func Save(prof *Profile) error {
	p, err := profilePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(prof, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

// Copyright returns the copyright notice for year, or "" without a holder.
func (p *Profile) Copyright(year int) string {
	if p.CopyrightHolder == "" {
		return ""
	}
	return fmt.Sprintf("Copyright (c) %d %s", year, p.CopyrightHolder)
}

// RunSetup runs the interactive setup wizard, reading answers from in and
// prompting on out. If existing is non-nil, it is used as the default for
// each prompt (edit mode).
func RunSetup(existing *Profile, in io.Reader, out io.Writer) (*Profile, error) {
	r := bufio.NewReader(in)

	ask := func(prompt, defaultVal string) (string, error) {
		if defaultVal != "" {
			fmt.Fprintf(out, "%s [%s]: ", prompt, defaultVal)
		} else {
			fmt.Fprintf(out, "%s: ", prompt)
		}
		line, err := r.ReadString('\n')
		if err != nil && !(err == io.EOF && line != "") {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return defaultVal, nil
		}
		return line, nil
	}

	prof := Defaults()
	if existing != nil {
		*prof = *existing
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "  ┌─────────────────────────────────┐")
	fmt.Fprintln(out, "  │   fixexif profile setup         │")
	fmt.Fprintln(out, "  └─────────────────────────────────┘")
	fmt.Fprintln(out)

	fields := []struct {
		prompt string
		dst    *string
	}{
		{"  Artist (written to images missing one)", &prof.Artist},
		{"  Copyright holder", &prof.CopyrightHolder},
		{"  Camera or scanner make", &prof.Make},
		{"  Camera or scanner model", &prof.Model},
		{"  Software tag", &prof.Software},
	}
	for _, f := range fields {
		v, err := ask(f.prompt, *f.dst)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}

	fmt.Fprintln(out)
	return prof, nil
}
