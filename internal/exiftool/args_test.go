package exiftool

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadyMarker(t *testing.T) {
	cases := []struct {
		line string
		n    int
		ok   bool
	}{
		{"{ready}", -1, true},
		{"{ready7}", 7, true},
		{"  {READY12}  ", 12, true},
		{"{ready}\r", -1, true},
		{"{readyx}", 0, false},
		{"ready", 0, false},
		{"Comment: {ready}", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		n, ok := readyMarker(tc.line)
		assert.Equal(t, tc.ok, ok, "line %q", tc.line)
		if tc.ok {
			assert.Equal(t, tc.n, n, "line %q", tc.line)
		}
	}
}

func TestIsExecute(t *testing.T) {
	assert.True(t, IsExecute("-execute"))
	assert.True(t, IsExecute("-execute42"))
	assert.False(t, IsExecute("-executed"))
	assert.False(t, IsExecute("-Execute"))
	assert.False(t, IsExecute("execute"))
}

func TestSetTag(t *testing.T) {
	assert.Equal(t, "-CreateDate=2020:01:01 00:00:00", SetTag("CreateDate", "2020:01:01 00:00:00"))
	assert.Equal(t, "-Artist=", SetTag("Artist", ""))
}

func TestStripReady(t *testing.T) {
	in := "    1 image files updated\n{ready}\n    1 image files updated\n{ready2}\n"
	assert.Equal(t, "    1 image files updated\n    1 image files updated\n", stripReady(in))
}

func TestCheckArgs(t *testing.T) {
	assert.NoError(t, CheckArgs("/photos/a.jpg", SetTag("Artist", "Ada Lovelace"), Execute))
	assert.NoError(t, CheckArgs())

	for _, bad := range []string{"Me\n-Make=Injected", "Me\r", "\n-execute"} {
		err := CheckArgs("/photos/a.jpg", SetTag("Artist", bad))
		var aerr *ArgError
		if assert.True(t, errors.As(err, &aerr), "%q: got %v", bad, err) {
			assert.Equal(t, SetTag("Artist", bad), aerr.Arg)
			assert.True(t, errors.Is(err, ErrLineBreak))
		}
	}
}
