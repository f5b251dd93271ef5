package rules

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakeyudi/fixexif/internal/exiftool"
	"github.com/fakeyudi/fixexif/internal/profile"
	"github.com/fakeyudi/fixexif/internal/report"
	"github.com/fakeyudi/fixexif/internal/session"
)

type fixedTool struct{ dump string }

func (f fixedTool) Query(context.Context, ...string) (string, error) { return f.dump, nil }
func (f fixedTool) Run(context.Context, []string) (string, error)    { return "", nil }
func (f fixedTool) Close() error                                     { return nil }

var modTime = time.Date(2019, 7, 14, 9, 30, 0, 0, time.UTC)

func selectPhoto(t *testing.T, dump string) (*session.Session, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "a.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg"), 0o644))
	require.NoError(t, os.Chtimes(path, modTime, modTime))

	s := session.New(session.Options{Tool: fixedTool{dump: dump}})
	require.NoError(t, s.UseFileName(path))
	return s, path
}

func planArgs(t *testing.T, s *session.Session) ([]string, *time.Time) {
	t.Helper()
	plan := s.Plan()
	if plan.Empty() {
		return nil, nil
	}
	require.Len(t, plan.Files, 1)
	return plan.Files[0].Args, plan.Files[0].RestoreModTime
}

func TestParseKeepsActionOrder(t *testing.T) {
	set, err := Parse([]byte(`
rules:
  - tag: CreateDate
    if_invalid_date: "{{mtime}}"
    if_missing: "{{ mtime }}"
  - tag: Software
    set: fixexif
preserve_mod_time: false
`))
	require.NoError(t, err)
	require.Len(t, set.Rules, 2)
	assert.Equal(t, Rule{Tag: "CreateDate", Steps: []Step{
		{Action: IfInvalidDate, Value: "{{mtime}}"},
		{Action: IfMissing, Value: "{{ mtime }}"},
	}}, set.Rules[0])
	assert.Equal(t, []Step{{Action: Assign, Value: "fixexif"}}, set.Rules[1].Steps)
	assert.False(t, set.preserve())
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("rules:\n  - tag: Make\n    if_absent: Canon\n"))
	assert.True(t, errors.Is(err, ErrUnknownAction), "got %v", err)

	_, err = Parse([]byte("rules:\n  - if_missing: Canon\n"))
	assert.ErrorContains(t, err, "missing tag")

	_, err = Parse([]byte("rules:\n  - tag: Make\n"))
	assert.ErrorContains(t, err, "no actions")

	_, err = Parse([]byte("rules:\n  - tag: Make\n    if_missing: \"{{camera}}\"\n"))
	assert.ErrorContains(t, err, "unknown placeholder {{camera}}")

	_, err = Parse([]byte("rules:\n  - tag: Make\n    if_missing: [a, b]\n"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  - tag: Artist\n    replace: \"{{artist}}\"\n"), 0o644))

	set, err := LoadOrDefault(path)
	require.NoError(t, err)
	assert.Equal(t, []Rule{{Tag: "Artist", Steps: []Step{{Action: Replace, Value: "{{artist}}"}}}}, set.Rules)

	set, err = LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, Default(), set)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDefaultFillsMissingTags(t *testing.T) {
	s, path := selectPhoto(t, "CreateDate: 0000:00:00 00:00:00\nDateTimeOriginal: 2001:02:03 04:05:06\nMake: Epson\n")
	prof := &profile.Profile{Artist: "Jane", CopyrightHolder: "Jane", Make: "Canon", Model: "LiDE", Software: "fixexif"}

	require.NoError(t, Default().Apply(context.Background(), s, prof))

	args, restore := planArgs(t, s)
	assert.Equal(t, []string{
		"-CreateDate=2019:07:14 09:30:00",
		"-ModifyDate=2019:07:14 09:30:00",
		"-Model=LiDE",
		"-Artist=Jane",
		"-Copyright=Copyright (c) 2019 Jane",
		"-Software=fixexif",
		path, "-execute",
	}, args)
	require.NotNil(t, restore)
	assert.True(t, restore.Equal(modTime))
}

func TestBlankProfileFieldIsSkipped(t *testing.T) {
	s, _ := selectPhoto(t, "")
	set := &Set{Rules: []Rule{
		{Tag: "Artist", Steps: []Step{{Action: IfMissing, Value: "{{artist}}"}}},
		{Tag: "Copyright", Steps: []Step{{Action: Assign, Value: "{{copyright}}"}}},
	}}

	require.NoError(t, set.Apply(context.Background(), s, &profile.Profile{}))
	args, restore := planArgs(t, s)
	assert.Nil(t, args)
	assert.Nil(t, restore)
	assert.False(t, s.Dirty())
}

func TestLineBreakInRuleValueFailsFile(t *testing.T) {
	set, err := Parse([]byte("rules:\n  - tag: Artist\n    set: \"Me\\n-Make=Injected\"\n"))
	require.NoError(t, err)
	s, _ := selectPhoto(t, "")

	err = set.Apply(context.Background(), s, profile.Defaults())
	require.ErrorIs(t, err, exiftool.ErrLineBreak)
	args, _ := planArgs(t, s)
	assert.Nil(t, args)
}

func TestReplaceAndYearPlaceholder(t *testing.T) {
	s, path := selectPhoto(t, "Software: old\nComment: scanned 2019\n")
	no := false
	set := &Set{PreserveModTime: &no, Rules: []Rule{
		{Tag: "Software", Steps: []Step{{Action: Replace, Value: "fixexif"}}},
		{Tag: "Comment", Steps: []Step{{Action: Replace, Value: "scanned {{year}}"}}},
	}}

	require.NoError(t, set.Apply(context.Background(), s, nil))
	args, restore := planArgs(t, s)
	assert.Equal(t, []string{"-Software=fixexif", path, "-execute"}, args)
	assert.Nil(t, restore)

	var buf bytes.Buffer
	require.NoError(t, s.Preview(&buf, &report.TextRenderer{}))
	assert.Contains(t, buf.String(), "-Software=fixexif")
}
