package tui

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakeyudi/fixexif/internal/report"
)

func testPlan() *report.Plan {
	restore := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	return &report.Plan{Files: []report.FileChange{
		{
			Path:           "/photos/2020/a.jpg",
			Args:           []string{"-CreateDate=2020:01:01 00:00:00", "-Artist=Me", "/photos/2020/a.jpg", "-execute"},
			RestoreModTime: &restore,
		},
		{
			Path: "/photos/2020/b.jpg",
			Args: []string{"-Artist=Me", "/photos/2020/b.jpg", "-execute"},
		},
	}}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sized(t *testing.T, m Model) Model {
	t.Helper()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model)
}

func TestConfirmKeys(t *testing.T) {
	for k, want := range map[string]bool{"y": true, "Y": true, "n": false, "q": false, "esc": false} {
		m := sized(t, New(testPlan(), "/photos"))
		next, cmd := m.Update(key(k))
		require.NotNil(t, cmd, k)
		assert.IsType(t, tea.QuitMsg{}, cmd(), k)
		assert.Equal(t, want, next.(Model).Confirmed(), k)
	}
}

func TestFilesTabExpandsSelection(t *testing.T) {
	m := sized(t, New(testPlan(), "/photos"))
	view := m.View()
	assert.Contains(t, view, "2 file(s) to update")
	assert.Contains(t, view, filepath.Join("2020", "a.jpg"))
	assert.NotContains(t, view, "CreateDate")

	next, _ := m.Update(key("enter"))
	m = next.(Model)
	assert.Contains(t, m.View(), "CreateDate")

	next, _ = m.Update(key("down"))
	m = next.(Model)
	assert.Equal(t, 1, m.cursor)
	next, _ = m.Update(key("down"))
	assert.Equal(t, 1, next.(Model).cursor, "cursor stops at the last file")
}

func TestTagsTabCountsFiles(t *testing.T) {
	m := sized(t, New(testPlan(), ""))
	next, _ := m.Update(key("tab"))
	m = next.(Model)
	require.Equal(t, tabTags, m.activeTab)

	out := m.renderTags()
	assert.Regexp(t, `Artist\s+2 file\(s\)`, out)
	assert.Regexp(t, `CreateDate\s+1 file\(s\)`, out)
}

func TestEmptyPlan(t *testing.T) {
	m := sized(t, New(nil, ""))
	assert.Contains(t, m.View(), "nothing to change")
}

func TestConfirmWithoutTerminalReadsAnswer(t *testing.T) {
	in, err := os.CreateTemp(t.TempDir(), "answer")
	require.NoError(t, err)
	defer in.Close()
	_, err = in.WriteString("yes\n")
	require.NoError(t, err)
	_, err = in.Seek(0, 0)
	require.NoError(t, err)

	var out bytes.Buffer
	ok, err := Confirm(testPlan(), "", []byte("preview\n"), in, &out)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, strings.HasPrefix(out.String(), "preview\nApply changes to 2 file(s)? (y/n): "))
}
