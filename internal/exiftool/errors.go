package exiftool

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTruncated is returned when exiftool stops producing output before it
// reports the current batch as finished. The partial output is not valid.
var ErrTruncated = errors.New("exiftool exited before signalling ready")

// ErrLineBreak is returned for an argument containing a carriage return or
// line feed.
var ErrLineBreak = errors.New("argument contains a line break")

// ArgError reports an argument that was rejected before reaching exiftool.
type ArgError struct {
	Arg string
	Err error
}

func (e *ArgError) Error() string {
	return fmt.Sprintf("invalid exiftool argument %q: %v", e.Arg, e.Err)
}

func (e *ArgError) Unwrap() error {
	return e.Err
}

// LaunchError is returned when the exiftool process cannot be started.
type LaunchError struct {
	Path string
	Err  error
}

func (e *LaunchError) Error() string {
	return "failed to launch exiftool (" + e.Path + "): " + e.Err.Error()
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// QueryError describes a failed interactive query. Output holds whatever
// exiftool printed before the failure.
type QueryError struct {
	Args   []string
	Output string
	Err    error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("exiftool query %q: %v", strings.Join(e.Args, " "), e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// RunError is returned when a standalone batch exits unsuccessfully.
type RunError struct {
	Output string
	Stderr string
	Err    error
}

func (e *RunError) Error() string {
	msg := "exiftool batch failed: " + e.Err.Error()
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *RunError) Unwrap() error {
	return e.Err
}
