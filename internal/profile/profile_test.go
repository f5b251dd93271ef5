package profile

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSetupKeepsDefaultsOnEmptyAnswers(t *testing.T) {
	in := strings.NewReader("Jane Doe\nJane Doe\n\n\n\n")
	var out bytes.Buffer

	prof, err := RunSetup(nil, in, &out)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", prof.Artist)
	assert.Equal(t, "Jane Doe", prof.CopyrightHolder)
	assert.Equal(t, "Canon", prof.Make)
	assert.Equal(t, "CanoScan LiDE 100", prof.Model)
	assert.Equal(t, "fixexif", prof.Software)
	assert.Contains(t, out.String(), "Camera or scanner make [Canon]")
}

func TestRunSetupEditsExisting(t *testing.T) {
	existing := &Profile{Artist: "A", Make: "Nikon", Model: "D90", Software: "x"}
	// The last answer has no trailing newline.
	in := strings.NewReader("\nHolder\n\n\ny")

	prof, err := RunSetup(existing, in, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, &Profile{Artist: "A", CopyrightHolder: "Holder", Make: "Nikon", Model: "D90", Software: "y"}, prof)
	assert.Equal(t, "A", existing.Artist, "existing profile must not be modified")
}

func TestRunSetupShortInput(t *testing.T) {
	_, err := RunSetup(nil, strings.NewReader("only one\n"), &bytes.Buffer{})
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	assert.False(t, Exists())

	got, err := LoadOrDefaults()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), got)

	want := &Profile{Artist: "Me", CopyrightHolder: "Me", Make: "Epson", Model: "V600", Software: "fixexif"}
	require.NoError(t, Save(want))
	assert.True(t, Exists())

	got, err = Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCopyright(t *testing.T) {
	assert.Equal(t, "Copyright (c) 2020 Jane", (&Profile{CopyrightHolder: "Jane"}).Copyright(2020))
	assert.Equal(t, "", (&Profile{}).Copyright(2020))
}
