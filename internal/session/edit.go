package session

import (
	"strings"
	"time"

	"github.com/fakeyudi/fixexif/internal/exiftool"
	"github.com/fakeyudi/fixexif/internal/queue"
)

// DateLayout is the exiftool date-time format.
const DateLayout = "2006:01:02 15:04:05"

// FormatDate renders t in DateLayout, in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ValidDate reports whether v parses exactly as DateLayout.
func ValidDate(v string) bool {
	_, err := time.Parse(DateLayout, v)
	return err == nil
}

// Value computes a replacement value. It is only evaluated when an edit
// actually needs the value.
type Value func(s *Session) (string, error)

// Literal returns a Value that always yields v.
func Literal(v string) Value {
	return func(*Session) (string, error) { return v, nil }
}

// FileModifiedDate yields the selected file's modification time in
// DateLayout.
func FileModifiedDate() Value {
	return func(s *Session) (string, error) { return FormatDate(s.DateFileModified()), nil }
}

// IfMissingReplaceWith assigns v to the focused tag when its value is empty
// or whitespace.
func (s *Session) IfMissingReplaceWith(v Value) error {
	if err := s.requireFocus(); err != nil {
		return err
	}
	if strings.TrimSpace(s.tagValue) != "" {
		return nil
	}
	return s.replaceFocused(v, false, "applying missing value")
}

// IfInvalidDateReplaceWith assigns v to the focused tag unless its value is a
// valid exiftool date-time. A missing value is invalid.
func (s *Session) IfInvalidDateReplaceWith(v Value) error {
	if err := s.requireFocus(); err != nil {
		return err
	}
	if ValidDate(s.tagValue) {
		return nil
	}
	return s.replaceFocused(v, false, "replacing invalid date")
}

// ReplaceWith assigns v to the focused tag unless it already has that value.
func (s *Session) ReplaceWith(v Value) error {
	if err := s.requireFocus(); err != nil {
		return err
	}
	return s.replaceFocused(v, true, "replacing")
}

func (s *Session) replaceFocused(v Value, skipEqual bool, msg string) error {
	value, err := v(s)
	if err != nil {
		return err
	}
	if skipEqual && value == s.tagValue {
		return nil
	}
	if err := exiftool.CheckArgs(s.tagName, value); err != nil {
		return err
	}
	s.narrate(msg, "tag", s.tagName, "old", s.tagValue, "new", value)
	s.tagValue = value
	s.queueAssignment(s.tagName, value)
	return nil
}

// SetTagValue queues an unconditional assignment of name, without reading the
// file or moving the focus. A name or value with a line break is rejected
// with an *exiftool.ArgError and nothing is queued.
func (s *Session) SetTagValue(name, value string) error {
	if err := s.requireFile(); err != nil {
		return err
	}
	if err := exiftool.CheckArgs(name, value); err != nil {
		return err
	}
	s.narrate("setting", "tag", name, "value", value)
	if name == s.tagName {
		s.tagValue = value
	}
	s.queueAssignment(name, value)
	return nil
}

func (s *Session) queueAssignment(name, value string) {
	args := make([]string, 0, 3)
	args = append(args, s.fileName)
	if s.overwrite {
		args = append(args, exiftool.OverwriteInPlace)
	}
	args = append(args, exiftool.SetTag(name, value))
	s.queue.Add(s.fileName, queue.ToolInvocation{Args: args})
	s.dirty = true
}

// PreserveDateFileModified queues a restore of the selected file's
// modification time as captured at selection. It does nothing when no edits
// were queued since selection or a restore is already queued.
func (s *Session) PreserveDateFileModified() error {
	if err := s.requireFile(); err != nil {
		return err
	}
	if !s.dirty || s.queue.HasRestore(s.fileName) {
		return nil
	}
	s.narrate("preserving modification time", "mtime", s.modTime)
	s.queue.Add(s.fileName, queue.RestoreTimestamp{TicksUTC: queue.TicksFromTime(s.modTime)})
	return nil
}
