// Package scan finds the image files to fix under a directory and watches it
// for new ones.
package scan

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// IgnoreFile lists extra patterns, one per line, that exclude files under the
// scanned directory. Blank lines and lines starting with # are skipped.
const IgnoreFile = ".fixexifignore"

// Matcher decides which files under Root are processed. Patterns are
// doublestar globs matched case-insensitively against the slash-separated
// path relative to Root.
type Matcher struct {
	root     string
	patterns []string
	ignore   []string
}

// NewMatcher validates patterns and loads root's ignore file, if any.
func NewMatcher(root string, patterns []string) (*Matcher, error) {
	if len(patterns) == 0 {
		return nil, errors.New("no file patterns given")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	m := &Matcher{root: abs}
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid pattern %q", p)
		}
		m.patterns = append(m.patterns, strings.ToLower(p))
	}

	ignore, err := readPatternFile(filepath.Join(abs, IgnoreFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading %s: %w", IgnoreFile, err)
	}
	for _, p := range ignore {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("%s: invalid pattern %q", IgnoreFile, p)
		}
		m.ignore = append(m.ignore, strings.ToLower(p))
	}
	return m, nil
}

// Root returns the absolute directory the matcher is anchored at.
func (m *Matcher) Root() string { return m.root }

// Match reports whether path, absolute or relative to the working
// directory, is selected.
func (m *Matcher) Match(path string) bool {
	return m.index(path) >= 0
}

// index returns the position of the first pattern matching path, or -1 when
// none does or the path is ignored.
func (m *Matcher) index(path string) int {
	abs, err := filepath.Abs(path)
	if err != nil {
		return -1
	}
	rel, err := filepath.Rel(m.root, abs)
	if err != nil || rel == "." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || rel == ".." {
		return -1
	}
	rel = strings.ToLower(filepath.ToSlash(rel))
	base := pathBase(rel)
	for _, p := range m.ignore {
		if ok, _ := doublestar.Match(p, rel); ok {
			return -1
		}
		if ok, _ := doublestar.Match(p, base); ok {
			return -1
		}
	}
	for i, p := range m.patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return i
		}
	}
	return -1
}

// Files returns the regular files under root matching any pattern, as
// absolute paths. They are grouped by the first pattern they match, in
// pattern order, and sorted within each group.
func Files(root string, patterns []string) ([]string, error) {
	m, err := NewMatcher(root, patterns)
	if err != nil {
		return nil, err
	}
	return m.Files()
}

// Files walks Root and returns the matching files. See the package-level
// Files for the ordering.
func (m *Matcher) Files() ([]string, error) {
	groups := make([][]string, len(m.patterns))
	err := filepath.WalkDir(m.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == m.root {
				return err
			}
			return nil // skip unreadable entries
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if i := m.index(path); i >= 0 {
			groups[i] = append(groups[i], path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var files []string
	for _, g := range groups {
		sort.Strings(g)
		files = append(files, g...)
	}
	return files, nil
}

func pathBase(slashPath string) string {
	if i := strings.LastIndexByte(slashPath, '/'); i >= 0 {
		return slashPath[i+1:]
	}
	return slashPath
}

// readPatternFile reads a gitignore-style file and returns non-empty, non-comment lines.
func readPatternFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns, scanner.Err()
}
