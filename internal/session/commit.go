package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/fakeyudi/fixexif/internal/exiftool"
	"github.com/fakeyudi/fixexif/internal/queue"
	"github.com/fakeyudi/fixexif/internal/report"
)

// Result summarizes a commit.
type Result struct {
	// Files is the number of files that had edits queued.
	Files int
	// Restored is the number of modification times put back.
	Restored int
	// Output is what exiftool printed during the batch.
	Output string
}

// Plan merges the queued edits and describes them. Merging is idempotent, so
// Plan can be called any number of times before SaveChanges.
func (s *Session) Plan() *report.Plan {
	s.queue.MergeAll()
	plan := &report.Plan{}
	for _, path := range s.queue.Paths() {
		fc := report.FileChange{Path: path}
		for _, c := range s.queue.Commands(path) {
			switch c := c.(type) {
			case queue.ToolInvocation:
				fc.Args = c.Args
			case queue.RestoreTimestamp:
				t := c.Time()
				fc.RestoreModTime = &t
			default:
				panic(fmt.Sprintf("session: unknown command type %T", c))
			}
		}
		plan.Files = append(plan.Files, fc)
	}
	return plan
}

// Preview writes the pending edits to w using r, without running or
// clearing them.
func (s *Session) Preview(w io.Writer, r report.Renderer) error {
	data, err := r.Render(s.Plan())
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// SaveChanges commits every queued edit in a single standalone exiftool run
// and then restores the queued modification times.
//
// The interactive process is stopped first. When a journal store is
// configured the restores are recorded before the run and the record is
// removed once they were applied. If exiftool fails the queue is kept and the
// journal is left for recovery, since some files may already have been
// rewritten.
//
// Restores still pending from an earlier failed commit are carried into the
// new journal and stay there until recovered. A file that appears in both
// gets its earlier captured time, which predates the failed write.
func (s *Session) SaveChanges(ctx context.Context) (*Result, error) {
	res := &Result{}
	if s.queue.Len() == 0 {
		return res, nil
	}
	if err := s.tool.Close(); err != nil {
		s.logger.Warn("stopping exiftool", "err", err)
	}

	prior, err := s.pendingJournal()
	if err != nil {
		return nil, err
	}
	earlier := make(map[string]time.Time)
	if prior != nil {
		for _, r := range prior.Restores {
			earlier[r.Path] = r.ModTime
		}
	}

	plan := s.Plan()
	current := &Journal{}
	var script []string
	for _, f := range plan.Files {
		script = append(script, f.Args...)
		if f.RestoreModTime == nil {
			continue
		}
		mt := *f.RestoreModTime
		if t, ok := earlier[f.Path]; ok {
			mt = t
			delete(earlier, f.Path)
		}
		current.Restores = append(current.Restores, PendingRestore{Path: f.Path, ModTime: mt})
	}
	carried := &Journal{ID: uuid.NewString(), Created: time.Now().UTC()}
	if prior != nil {
		carried.ID, carried.Created = prior.ID, prior.Created
		for _, r := range prior.Restores {
			if _, ok := earlier[r.Path]; ok {
				carried.Restores = append(carried.Restores, r)
			}
		}
	}

	journal := &Journal{ID: uuid.NewString(), Created: time.Now().UTC()}
	journal.Restores = append(journal.Restores, carried.Restores...)
	journal.Restores = append(journal.Restores, current.Restores...)

	journaled := s.journal != nil && len(journal.Restores) > 0
	if journaled {
		if err := s.journal.Save(journal); err != nil {
			return nil, err
		}
	}

	s.logger.Info("saving changes", "files", len(plan.Files))
	if len(script) > 0 {
		out, err := s.tool.Run(ctx, script)
		res.Output = out
		if err != nil {
			var lerr *exiftool.LaunchError
			if journaled && errors.As(err, &lerr) {
				// Nothing was written, so only the earlier restores are still owed.
				s.settleJournal(prior)
			}
			return res, fmt.Errorf("committing edits: %w", err)
		}
	}

	restored, err := current.Apply()
	res.Files = len(plan.Files)
	res.Restored = restored
	s.queue.Clear()
	s.dirty = false
	if err != nil {
		return res, err
	}
	if journaled {
		s.settleJournal(carried)
	}
	return res, nil
}

// pendingJournal returns the journal left by an earlier failed commit, or nil.
func (s *Session) pendingJournal() (*Journal, error) {
	if s.journal == nil {
		return nil, nil
	}
	j, err := s.journal.Load()
	if errors.Is(err, ErrNoPending) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading pending restores: %w", err)
	}
	return j, nil
}

// settleJournal leaves exactly the restores of keep on disk, removing the
// journal when there are none.
func (s *Session) settleJournal(keep *Journal) {
	if keep == nil || len(keep.Restores) == 0 {
		s.deleteJournal()
		return
	}
	if err := s.journal.Save(keep); err != nil {
		s.logger.Warn("saving journal", "err", err)
	}
}

func (s *Session) deleteJournal() {
	if err := s.journal.Delete(); err != nil {
		s.logger.Warn("removing journal", "err", err)
	}
}
