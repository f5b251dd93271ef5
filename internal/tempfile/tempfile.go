// Package tempfile provides scoped temporary files that are removed on Close.
//
// A File is owned by whoever created it. Callers defer Close immediately
// after New so the file is deleted on every exit path, including errors.
package tempfile

import (
	"bufio"
	"errors"
	"fmt"
	"os"
)

// File is a transient file on disk.
type File struct {
	path   string
	closed bool
}

// New creates an empty temporary file in dir (os.TempDir when empty) whose
// name follows pattern, as in os.CreateTemp.
func New(dir, pattern string) (*File, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return nil, fmt.Errorf("creating temporary file: %w", err)
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("creating temporary file: %w", err)
	}
	return &File{path: path}, nil
}

// Path returns the location of the file.
func (f *File) Path() string {
	return f.path
}

// Append writes each line followed by a newline to the end of the file.
// The file is opened and closed per call so that a reader polling the same
// path sees complete lines once Append returns.
func (f *File) Append(lines ...string) error {
	if f.closed {
		return fmt.Errorf("append to %s: %w", f.path, os.ErrClosed)
	}
	out, err := os.OpenFile(f.path, os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("append to %s: %w", f.path, err)
	}
	w := bufio.NewWriter(out)
	for _, line := range lines {
		w.WriteString(line)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		out.Close()
		return fmt.Errorf("append to %s: %w", f.path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("append to %s: %w", f.path, err)
	}
	return nil
}

// Close deletes the file. It is safe to call more than once, and a file
// that has already disappeared is not an error.
func (f *File) Close() error {
	if f == nil || f.closed {
		return nil
	}
	f.closed = true
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing temporary file: %w", err)
	}
	return nil
}
