package queue

import (
	"fmt"
	"strings"

	"github.com/fakeyudi/fixexif/internal/exiftool"
)

// Queue maps file paths to their ordered pending commands. Paths compare
// case-insensitively; the spelling used for a file's first command is kept.
// Files are reported in the order they were first queued.
type Queue struct {
	order   []string
	entries map[string]*entry
}

type entry struct {
	path     string
	commands []Command
}

// New returns an empty queue.
func New() *Queue {
	return &Queue{entries: make(map[string]*entry)}
}

func key(path string) string {
	return strings.ToLower(path)
}

// Add appends c to the commands for path.
func (q *Queue) Add(path string, c Command) {
	k := key(path)
	e, ok := q.entries[k]
	if !ok {
		e = &entry{path: path}
		q.entries[k] = e
		q.order = append(q.order, k)
	}
	e.commands = append(e.commands, c)
}

// Len returns the number of files with pending commands.
func (q *Queue) Len() int {
	return len(q.order)
}

// Paths returns the queued files in first-queued order.
func (q *Queue) Paths() []string {
	paths := make([]string, 0, len(q.order))
	for _, k := range q.order {
		paths = append(paths, q.entries[k].path)
	}
	return paths
}

// Commands returns a copy of the pending commands for path.
func (q *Queue) Commands(path string) []Command {
	e, ok := q.entries[key(path)]
	if !ok {
		return nil
	}
	out := make([]Command, len(e.commands))
	copy(out, e.commands)
	return out
}

// HasRestore reports whether path already has a RestoreTimestamp queued.
func (q *Queue) HasRestore(path string) bool {
	e, ok := q.entries[key(path)]
	if !ok {
		return false
	}
	for _, c := range e.commands {
		if _, ok := c.(RestoreTimestamp); ok {
			return true
		}
	}
	return false
}

// Discard drops every pending command for path.
func (q *Queue) Discard(path string) {
	k := key(path)
	if _, ok := q.entries[k]; !ok {
		return
	}
	delete(q.entries, k)
	for i, o := range q.order {
		if o == k {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
}

// Clear drops every pending command for every file.
func (q *Queue) Clear() {
	q.order = nil
	q.entries = make(map[string]*entry)
}

// MergeAll replaces each file's commands with their merged form. Running it
// again on an already merged queue leaves it unchanged.
func (q *Queue) MergeAll() {
	for _, k := range q.order {
		e := q.entries[k]
		e.commands = Merge(e.path, e.commands)
	}
}

// Merge collapses the commands for one file into at most one ToolInvocation
// and at most one RestoreTimestamp.
//
// Arguments are concatenated in queue order with the file path and execute
// sentinels removed, then deduplicated by exact string equality. The first
// occurrence wins: when two assignments of the same tag carry the same text
// only the earliest survives, and conflicting values for one tag are both
// kept in queue order. The file path and a single execute sentinel close the
// invocation. The first RestoreTimestamp is kept.
func Merge(path string, commands []Command) []Command {
	var (
		args    []string
		seen    = make(map[string]bool)
		restore *RestoreTimestamp
	)
	for _, c := range commands {
		switch c := c.(type) {
		case ToolInvocation:
			for _, arg := range c.Args {
				// Paths are queue keys, which compare case-insensitively, so a
				// file selected under another spelling is still the same path.
				if strings.EqualFold(arg, path) || exiftool.IsExecute(arg) || seen[arg] {
					continue
				}
				seen[arg] = true
				args = append(args, arg)
			}
		case RestoreTimestamp:
			if restore == nil {
				r := c
				restore = &r
			}
		default:
			panic(fmt.Sprintf("queue: unknown command type %T", c))
		}
	}

	var merged []Command
	if len(args) > 0 {
		args = append(args, path, exiftool.Execute)
		merged = append(merged, ToolInvocation{Args: args})
	}
	if restore != nil {
		merged = append(merged, *restore)
	}
	return merged
}
