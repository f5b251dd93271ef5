package scan

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/fakeyudi/fixexif/internal/ui"
)

// DefaultDebounce is how long a batch waits for the directory to go quiet.
const DefaultDebounce = 500 * time.Millisecond

// DefaultSelfWriteWindow is how long events for files that were just handled
// are ignored, so that the handler's own writes do not trigger it again.
const DefaultSelfWriteWindow = 2 * time.Second

// Handler processes one debounced batch of matching files.
type Handler func(ctx context.Context, files []string) error

// Watcher reports files matching its Matcher as they are created or
// written anywhere below the matcher's root.
type Watcher struct {
	Matcher         *Matcher
	Debounce        time.Duration
	SelfWriteWindow time.Duration
	Logger          *log.Logger
}

// Run watches recursively until ctx is cancelled. Matching files are
// collected until no new event arrived for Debounce, then handed to handle
// as one sorted batch. Handler errors are logged and watching continues.
func (w *Watcher) Run(ctx context.Context, handle Handler) error {
	logger := ui.OrDiscard(w.Logger)
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	window := w.SelfWriteWindow
	if window <= 0 {
		window = DefaultSelfWriteWindow
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	root := w.Matcher.Root()
	if err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	}); err != nil {
		return err
	}
	logger.Info("watching", "dir", root)

	var (
		pending = make(map[string]bool)
		handled = make(map[string]time.Time)
		timer   = time.NewTimer(debounce)
	)
	if !timer.Stop() {
		<-timer.C
	}

	queue := func(path string) {
		if until, ok := handled[path]; ok {
			if time.Now().Before(until) {
				return
			}
			delete(handled, path)
		}
		if !w.Matcher.Match(path) {
			return
		}
		pending[path] = true
		timer.Reset(debounce)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					// Files may land in a new directory before its watch is added.
					w.addTree(watcher, event.Name, queue, logger)
					continue
				}
			}
			queue(event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "err", err)

		case <-timer.C:
			batch := make([]string, 0, len(pending))
			for path := range pending {
				if _, err := os.Stat(path); err == nil {
					batch = append(batch, path)
				}
			}
			pending = make(map[string]bool)
			if len(batch) == 0 {
				continue
			}
			sort.Strings(batch)
			if err := handle(ctx, batch); err != nil {
				logger.Error("processing batch", "files", len(batch), "err", err)
			}
			until := time.Now().Add(window)
			for _, path := range batch {
				handled[path] = until
			}
		}
	}
}

// addTree watches dir and every directory below it, queuing the files
// already there.
func (w *Watcher) addTree(watcher *fsnotify.Watcher, dir string, queue func(string), logger *log.Logger) {
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := watcher.Add(path); err != nil {
				logger.Warn("cannot watch directory", "dir", path, "err", err)
			}
			return nil
		}
		queue(path)
		return nil
	})
}
