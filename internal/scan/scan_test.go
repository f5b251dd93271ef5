package scan

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func touch(t *testing.T, root string, rel ...string) {
	t.Helper()
	for _, r := range rel {
		path := filepath.Join(root, filepath.FromSlash(r))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}
}

func relAll(t *testing.T, root string, paths []string) []string {
	t.Helper()
	abs, err := filepath.Abs(root)
	require.NoError(t, err)
	out := make([]string, len(paths))
	for i, p := range paths {
		r, err := filepath.Rel(abs, p)
		require.NoError(t, err)
		out[i] = filepath.ToSlash(r)
	}
	return out
}

func TestFilesOrderedByPatternThenPath(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "b.jpg", "a/z.tif", "a.jpg", "a/b/IMG.JPG", "notes.txt", "scan.tif")

	files, err := Files(root, []string{"**/*.jpg", "**/*.tif"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg", "a/b/IMG.JPG", "b.jpg", "a/z.tif", "scan.tif"}, relAll(t, root, files))
	for _, f := range files {
		assert.True(t, filepath.IsAbs(f), f)
	}
}

func TestFilesHonoursIgnoreFile(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "keep.jpg", "thumbs/small.jpg", "skip-me.jpg")
	require.NoError(t, os.WriteFile(filepath.Join(root, IgnoreFile), []byte("# generated\nthumbs/**\nskip-*\n"), 0o644))

	files, err := Files(root, []string{"**/*.jpg"})
	require.NoError(t, err)
	assert.Equal(t, []string{"keep.jpg"}, relAll(t, root, files))
}

func TestNewMatcherRejectsBadPatterns(t *testing.T) {
	_, err := NewMatcher(t.TempDir(), nil)
	assert.Error(t, err)

	_, err = NewMatcher(t.TempDir(), []string{"[unclosed"})
	assert.Error(t, err)
}

func TestMatchOutsideRoot(t *testing.T) {
	root := t.TempDir()
	m, err := NewMatcher(filepath.Join(root, "photos"), []string{"**/*.jpg"})
	require.NoError(t, err)
	assert.True(t, m.Match(filepath.Join(root, "photos", "x", "a.jpg")))
	assert.False(t, m.Match(filepath.Join(root, "other.jpg")))
	assert.False(t, m.Match(filepath.Join(root, "photos")))
}

// Feature: fixexif, Property 5: every matching file is listed exactly once
func TestFilesListsEachMatchOnce(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		root, err := os.MkdirTemp("", "scan-prop-*")
		if err != nil {
			rt.Fatal(err)
		}
		defer os.RemoveAll(root)

		names := rapid.SliceOfNDistinct(
			rapid.StringMatching(`([a-c]/){0,2}[a-e]\.(jpg|tif|JPG|png)`), 1, 12,
			func(s string) string { return strings.ToLower(s) },
		).Draw(rt, "names")

		want := 0
		for _, n := range names {
			path := filepath.Join(root, filepath.FromSlash(n))
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				rt.Fatal(err)
			}
			if err := os.WriteFile(path, nil, 0o644); err != nil {
				rt.Fatal(err)
			}
			if !strings.HasSuffix(n, ".png") {
				want++
			}
		}

		files, err := Files(root, []string{"**/*.jpg", "**/*.tif", "**/*.jpg"})
		if err != nil {
			rt.Fatal(err)
		}
		if len(files) != want {
			rt.Fatalf("got %d files, want %d: %v", len(files), want, files)
		}
		seen := make(map[string]bool)
		for _, f := range files {
			if seen[f] {
				rt.Fatalf("duplicate %s", f)
			}
			seen[f] = true
		}
	})
}

func TestWatchBatchesMatchingFiles(t *testing.T) {
	root := t.TempDir()
	m, err := NewMatcher(root, []string{"**/*.jpg"})
	require.NoError(t, err)

	var (
		mu      sync.Mutex
		batches [][]string
	)
	handle := func(_ context.Context, files []string) error {
		mu.Lock()
		defer mu.Unlock()
		batches = append(batches, relAll(t, root, files))
		// Writing back to a handled file must not trigger another batch.
		for _, f := range files {
			os.WriteFile(f, []byte("fixed"), 0o644)
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	w := &Watcher{Matcher: m, Debounce: 100 * time.Millisecond, SelfWriteWindow: time.Minute}
	go func() { done <- w.Run(ctx, handle) }()

	// Give the watcher time to register the tree.
	time.Sleep(200 * time.Millisecond)
	touch(t, root, "a.jpg", "b.jpg", "notes.txt")
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o755))
	touch(t, root, "sub/c.jpg")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		n := 0
		for _, b := range batches {
			n += len(b)
		}
		return n >= 3
	}, 5*time.Second, 50*time.Millisecond)

	time.Sleep(500 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	var all []string
	for _, b := range batches {
		all = append(all, b...)
	}
	assert.ElementsMatch(t, []string{"a.jpg", "b.jpg", "sub/c.jpg"}, all)
}
