package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/fakeyudi/fixexif/internal/exiftool"
)

// ErrDuplicateTag is returned when a dump lists the same tag name twice.
var ErrDuplicateTag = errors.New("duplicate tag in exiftool output")

// Snapshot is the set of tags read from a file in one exiftool query.
type Snapshot struct {
	tags map[string]string
}

// ParseSnapshot parses the short-name dump produced by "exiftool -S".
// Each line is split at its first colon and both sides are trimmed. Lines
// without a colon are ignored.
func ParseSnapshot(output string) (*Snapshot, error) {
	tags := make(map[string]string)
	for _, line := range strings.Split(output, "\n") {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := tags[name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTag, name)
		}
		tags[name] = strings.TrimSpace(value)
	}
	return &Snapshot{tags: tags}, nil
}

// Get returns the value of name and whether the file has it.
func (s *Snapshot) Get(name string) (string, bool) {
	v, ok := s.tags[name]
	return v, ok
}

// Names returns the tag names in sorted order.
func (s *Snapshot) Names() []string {
	names := make([]string, 0, len(s.tags))
	for n := range s.tags {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of tags.
func (s *Snapshot) Len() int { return len(s.tags) }

// load reads the selected file's tags unless they were already read since
// the file was selected.
func (s *Session) load(ctx context.Context) (*Snapshot, error) {
	if s.snapshot != nil {
		return s.snapshot, nil
	}
	s.logger.Debug("reading tags", "path", s.fileName)
	out, err := s.tool.Query(ctx, exiftool.ShortNames, exiftool.Fast, s.fileName)
	if err != nil {
		return nil, fmt.Errorf("reading tags of %s: %w", s.fileName, err)
	}
	snap, err := ParseSnapshot(out)
	if err != nil {
		return nil, fmt.Errorf("reading tags of %s: %w", s.fileName, err)
	}
	s.snapshot = snap
	return snap, nil
}

// Tags returns the selected file's snapshot, reading it if needed.
func (s *Session) Tags(ctx context.Context) (*Snapshot, error) {
	if err := s.requireFile(); err != nil {
		return nil, err
	}
	return s.load(ctx)
}

// GetTagValue focuses name for the following edits and returns its current
// value, or "" when the file does not have the tag.
func (s *Session) GetTagValue(ctx context.Context, name string) (string, error) {
	if err := s.requireFile(); err != nil {
		return "", err
	}
	snap, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	value, ok := snap.Get(name)
	s.tagName, s.tagValue = name, value
	if ok {
		s.narrate("tag value", "tag", name, "value", value)
	} else {
		s.narrate("tag missing", "tag", name)
	}
	return value, nil
}
