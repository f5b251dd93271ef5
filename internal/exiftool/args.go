package exiftool

import (
	"strconv"
	"strings"
)

// Argument-file directives understood by exiftool.
const (
	// Execute ends one batch of arguments. exiftool may also receive it with
	// a numeric suffix, in which case it echoes the number in its ready marker.
	Execute = "-execute"
	// OverwriteInPlace tells exiftool not to keep a backup copy of the file.
	OverwriteInPlace = "-overwrite_original_in_place"
	// ShortNames selects tag names without descriptions in dumps.
	ShortNames = "-S"
	// Fast skips scanning to the end of the file for trailers.
	Fast = "-fast"
)

// SetTag returns the assignment argument for one tag.
func SetTag(name, value string) string {
	return "-" + name + "=" + value
}

// CheckArgs returns an *ArgError for the first argument that cannot be
// written to an argument file. Each line of the file is one argument, so a
// line break would split a value into extra arguments.
func CheckArgs(args ...string) error {
	for _, a := range args {
		if strings.ContainsAny(a, "\r\n") {
			return &ArgError{Arg: a, Err: ErrLineBreak}
		}
	}
	return nil
}

// IsExecute reports whether arg is an execute sentinel, numbered or not.
func IsExecute(arg string) bool {
	if !strings.HasPrefix(arg, Execute) {
		return false
	}
	return isDigits(arg[len(Execute):])
}

// readyMarker reports whether line is a ready marker and, when it carries a
// sequence number, returns it. Unnumbered markers report n == -1. Matching is
// case-insensitive and tolerant of surrounding whitespace.
func readyMarker(line string) (n int, ok bool) {
	s := strings.ToLower(strings.TrimSpace(line))
	if !strings.HasPrefix(s, "{ready") || !strings.HasSuffix(s, "}") {
		return 0, false
	}
	num := s[len("{ready") : len(s)-1]
	if num == "" {
		return -1, true
	}
	if !isDigits(num) {
		return 0, false
	}
	n, err := strconv.Atoi(num)
	if err != nil {
		return 0, false
	}
	return n, true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
