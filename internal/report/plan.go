// Package report describes pending metadata edits and renders them for
// preview.
package report

import (
	"encoding/json"
	"fmt"
	"time"
)

// Plan lists the merged, not yet executed edits of an editing session.
type Plan struct {
	Files []FileChange `json:"files"`
}

// FileChange holds the merged edits for one file.
type FileChange struct {
	Path string `json:"path"`
	// Args is the merged exiftool invocation, ending with the path and the
	// execute sentinel. Empty when only a timestamp restore is pending.
	Args []string `json:"args,omitempty"`
	// RestoreModTime is the modification time put back after the commit.
	RestoreModTime *time.Time `json:"restore_mod_time,omitempty"`
}

// Empty reports whether the plan has nothing to do.
func (p *Plan) Empty() bool {
	return p == nil || len(p.Files) == 0
}

// ParsePlan decodes a plan written by JSONRenderer.
func ParsePlan(data []byte) (*Plan, error) {
	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("invalid plan JSON: %w", err)
	}
	for i, f := range p.Files {
		if f.Path == "" {
			return nil, fmt.Errorf("plan entry %d has no path", i+1)
		}
	}
	return &p, nil
}
