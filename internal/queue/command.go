// Package queue holds the pending edits of an editing session, keyed by file.
package queue

import "time"

// Command is one pending edit for a file. The set of implementations is
// closed: ToolInvocation and RestoreTimestamp.
type Command interface {
	command()
}

// ToolInvocation is a batch of exiftool arguments. Before merging it holds a
// single tag assignment; after merging it carries every assignment for the
// file followed by the file path and the execute sentinel.
type ToolInvocation struct {
	Args []string `json:"args"`
}

// RestoreTimestamp resets the file's modification time after exiftool ran.
type RestoreTimestamp struct {
	// TicksUTC is the modification time in nanoseconds since the Unix epoch.
	TicksUTC int64 `json:"ticks_utc"`
}

func (ToolInvocation) command()   {}
func (RestoreTimestamp) command() {}

// TicksFromTime converts t to RestoreTimestamp ticks.
func TicksFromTime(t time.Time) int64 {
	return t.UTC().UnixNano()
}

// Time returns the modification time to restore.
func (r RestoreTimestamp) Time() time.Time {
	return time.Unix(0, r.TicksUTC).UTC()
}
