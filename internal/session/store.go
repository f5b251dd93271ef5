package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrNoPending is returned by Load when no journal exists on disk.
var ErrNoPending = errors.New("no pending timestamp restores")

// Journal records the modification times a commit still has to put back.
// It is written before the batch runs and removed once every restore was
// applied, so an interrupted commit can be finished later.
type Journal struct {
	ID       string           `json:"id"`
	Created  time.Time        `json:"created"`
	Restores []PendingRestore `json:"restores"`
}

// PendingRestore is one file whose modification time must be reset.
type PendingRestore struct {
	Path    string    `json:"path"`
	ModTime time.Time `json:"mod_time"`
}

// Apply resets the modification time of every listed file, leaving access
// times alone. It returns how many files were restored; failures are joined.
func (j *Journal) Apply() (int, error) {
	var (
		n    int
		errs []error
	)
	for _, r := range j.Restores {
		if err := os.Chtimes(r.Path, time.Time{}, r.ModTime); err != nil {
			errs = append(errs, fmt.Errorf("restoring modification time of %s: %w", r.Path, err))
			continue
		}
		n++
	}
	return n, errors.Join(errs...)
}

// Store persists the Journal of an in-flight commit.
type Store interface {
	Save(j *Journal) error
	Load() (*Journal, error) // returns ErrNoPending if none exists
	Delete() error
}

// diskStore is the concrete Store that writes to the XDG data directory.
type diskStore struct {
	path string // full path to journal.json
}

// NewStore returns a Store backed by the XDG data directory.
// Path: $XDG_DATA_HOME/fixexif/journal.json or ~/.local/share/fixexif/journal.json
func NewStore() (Store, error) {
	dir, err := dataDir()
	if err != nil {
		return nil, fmt.Errorf("resolving data directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &diskStore{path: filepath.Join(dir, "journal.json")}, nil
}

func dataDir() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "fixexif"), nil
}

// Save marshals j to JSON and writes it atomically via a temp file + os.Rename.
func (d *diskStore) Save(j *Journal) (err error) {
	data, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to write journal: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(d.path), "journal-*.json.tmp")
	if err != nil {
		return fmt.Errorf("failed to write journal: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write journal: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to write journal: %w", err)
	}
	if err = os.Rename(tmpName, d.path); err != nil {
		return fmt.Errorf("failed to write journal: %w", err)
	}
	return nil
}

// Load reads the journal. Returns ErrNoPending if the file does not exist.
func (d *diskStore) Load() (*Journal, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoPending
		}
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}

	var j Journal
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("failed to parse journal: %w", err)
	}
	return &j, nil
}

// Delete removes the journal from disk.
func (d *diskStore) Delete() error {
	if err := os.Remove(d.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete journal: %w", err)
	}
	return nil
}
