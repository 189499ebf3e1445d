package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLog(t *testing.T, lines int) string {
	t.Helper()

	var b strings.Builder
	for i := 1; i <= lines; i++ {
		fmt.Fprintf(&b, "[12:00:%02d] [Server thread/INFO]: line %d\n", i%60, i)
	}
	path := filepath.Join(t.TempDir(), "latest.log")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	return path
}

func TestTail(t *testing.T) {
	tests := []struct {
		name      string
		lines     int
		request   int
		wantLen   int
		wantFirst string
		wantLast  string
	}{
		{name: "fewer lines than requested", lines: 3, request: 10, wantLen: 3, wantFirst: "line 1", wantLast: "line 3"},
		{name: "exact count", lines: 5, request: 5, wantLen: 5, wantFirst: "line 1", wantLast: "line 5"},
		{name: "tail of longer file", lines: 120, request: 50, wantLen: 50, wantFirst: "line 71", wantLast: "line 120"},
		{name: "zero request uses default", lines: 80, request: 0, wantLen: DefaultLines, wantFirst: "line 31", wantLast: "line 80"},
		{name: "request above cap is clamped", lines: 700, request: 1000, wantLen: MaxLines, wantFirst: "line 201", wantLast: "line 700"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeLog(t, tt.lines)

			got, err := Tail(path, tt.request)
			require.NoError(t, err)
			require.Len(t, got, tt.wantLen)
			assert.True(t, strings.HasSuffix(got[0], tt.wantFirst), "first line %q", got[0])
			assert.True(t, strings.HasSuffix(got[len(got)-1], tt.wantLast), "last line %q", got[len(got)-1])
		})
	}
}

func TestTail_MissingFile(t *testing.T) {
	got, err := Tail(filepath.Join(t.TempDir(), "missing.log"), 50)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTail_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latest.log")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	got, err := Tail(path, 50)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTail_LongLine(t *testing.T) {
	long := strings.Repeat("x", 2<<20)
	path := filepath.Join(t.TempDir(), "latest.log")
	require.NoError(t, os.WriteFile(path, []byte("first\n"+long+"\nlast\n"), 0o600))

	got, err := Tail(path, 50)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0])
	assert.Len(t, got[1], maxLineSize)
	assert.Equal(t, "last", got[2])
}

func TestTail_LineEndings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latest.log")
	require.NoError(t, os.WriteFile(path, []byte("crlf\r\nbad \xff byte\nno newline"), 0o600))

	got, err := Tail(path, 50)
	require.NoError(t, err)
	assert.Equal(t, []string{"crlf", "bad \uFFFD byte", "no newline"}, got)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, DefaultLines, Clamp(-1))
	assert.Equal(t, DefaultLines, Clamp(0))
	assert.Equal(t, 7, Clamp(7))
	assert.Equal(t, MaxLines, Clamp(MaxLines+1))
}
