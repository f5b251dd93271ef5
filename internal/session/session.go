// Package session implements the per-file editing workflow: select a file,
// read its tags once, apply conditional edits to a focused tag, queue the
// resulting exiftool arguments and commit everything in one batch.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/fakeyudi/fixexif/internal/exiftool"
	"github.com/fakeyudi/fixexif/internal/queue"
	"github.com/fakeyudi/fixexif/internal/ui"
)

var (
	// ErrNoFile is returned by tag operations before a file was selected.
	ErrNoFile = errors.New("no file selected")
	// ErrNoTag is returned by focus-based edits before GetTagValue was called.
	ErrNoTag = errors.New("no tag selected")
)

// FileError reports a file that could not be selected.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string { return fmt.Sprintf("cannot use %s: %v", e.Path, e.Err) }
func (e *FileError) Unwrap() error { return e.Err }

// Tool is the exiftool driver a Session talks to. *exiftool.Channel
// implements it.
type Tool interface {
	Query(ctx context.Context, args ...string) (string, error)
	Run(ctx context.Context, script []string) (string, error)
	Close() error
}

// Options configures a Session.
type Options struct {
	Tool Tool
	// Overwrite adds -overwrite_original_in_place to every assignment so
	// exiftool keeps no backup copies.
	Overwrite bool
	// Verbose narrates every tag read and edit at info level instead of debug.
	Verbose bool
	Logger  *log.Logger
	// Journal, when set, records pending timestamp restores while a commit
	// is in flight.
	Journal Store
}

// Session edits one file at a time and accumulates the edits of many files
// until SaveChanges. It is not safe for concurrent use.
type Session struct {
	tool      Tool
	logger    *log.Logger
	overwrite bool
	verbose   bool
	journal   Store
	queue     *queue.Queue

	fileName string
	modTime  time.Time
	snapshot *Snapshot
	tagName  string
	tagValue string
	dirty    bool
}

// New returns a Session with nothing selected.
func New(opts Options) *Session {
	return &Session{
		tool:      opts.Tool,
		logger:    ui.OrDiscard(opts.Logger),
		overwrite: opts.Overwrite,
		verbose:   opts.Verbose,
		journal:   opts.Journal,
		queue:     queue.New(),
	}
}

// UseFileName selects path for editing. The tag snapshot and focus are
// reset and the file's current modification time is captured. Edits queued
// for other files are kept.
//
// A path that does not exist fails with a *FileError wrapping
// fs.ErrNotExist and leaves no file selected.
func (s *Session) UseFileName(path string) error {
	s.fileName = ""
	s.modTime = time.Time{}
	s.snapshot = nil
	s.tagName, s.tagValue = "", ""
	s.dirty = false

	abs, err := filepath.Abs(path)
	if err != nil {
		return &FileError{Path: path, Err: err}
	}
	info, err := os.Stat(abs)
	if err != nil {
		return &FileError{Path: abs, Err: err}
	}
	if !info.Mode().IsRegular() {
		return &FileError{Path: abs, Err: errors.New("not a regular file")}
	}
	if err := exiftool.CheckArgs(abs); err != nil {
		return &FileError{Path: abs, Err: err}
	}

	s.fileName = abs
	s.modTime = info.ModTime().UTC()
	s.narrate("using file", "path", abs)
	return nil
}

// FileName returns the selected file, or "" when none is selected.
func (s *Session) FileName() string { return s.fileName }

// TagName returns the focused tag.
func (s *Session) TagName() string { return s.tagName }

// Dirty reports whether edits were queued since the file was selected.
func (s *Session) Dirty() bool { return s.dirty }

// DateFileModified returns the selected file's modification time as it was
// when the file was selected.
func (s *Session) DateFileModified() time.Time { return s.modTime }

// Pending returns the number of files with queued edits.
func (s *Session) Pending() int { return s.queue.Len() }

// Discard drops every edit queued for the selected file.
func (s *Session) Discard() {
	if s.fileName == "" {
		return
	}
	s.queue.Discard(s.fileName)
	s.dirty = false
}

// DiscardAll drops every queued edit for every file.
func (s *Session) DiscardAll() {
	s.queue.Clear()
	s.dirty = false
}

// Close stops the interactive exiftool process. Queued edits are kept.
func (s *Session) Close() error {
	return s.tool.Close()
}

// narrate logs an edit step at info level in verbose mode and at debug
// level otherwise.
func (s *Session) narrate(msg string, keyvals ...any) {
	if s.verbose {
		s.logger.Info(msg, keyvals...)
		return
	}
	s.logger.Debug(msg, keyvals...)
}

func (s *Session) requireFile() error {
	if s.fileName == "" {
		return ErrNoFile
	}
	return nil
}

func (s *Session) requireFocus() error {
	if err := s.requireFile(); err != nil {
		return err
	}
	if s.tagName == "" {
		return ErrNoTag
	}
	return nil
}
