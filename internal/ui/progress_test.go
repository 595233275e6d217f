package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shadersmith/internal/build"
)

func TestApplyEvents(t *testing.T) {
	files := []string{"/p/a.vert", "/p/b.frag"}
	m := NewProgressModel("building", files, []string{"a.vert", "b.frag"}, nil).(*progressModel)

	m.applyEvent(build.Event{File: files[0], Stage: build.StageLookup, Status: build.StatusCached, Elapsed: 3 * time.Millisecond})
	m.applyEvent(build.Event{File: files[1], Stage: build.StageCompile, Status: build.StatusWorking})
	assert.Equal(t, "cached", m.items[0].status)
	assert.Equal(t, "compiling", m.items[1].status)
	assert.InDelta(t, 0.75, m.fraction(), 1e-9)

	// A late lookup event does not reopen a finished item.
	m.applyEvent(build.Event{File: files[0], Stage: build.StageLookup, Status: build.StatusWorking})
	assert.Equal(t, "cached", m.items[0].status)

	m.applyEvent(build.Event{File: files[1], Stage: build.StageCompile, Status: build.StatusError, Err: errors.New("boom")})
	assert.Equal(t, "error", m.items[1].status)
	assert.InDelta(t, 1.0, m.fraction(), 1e-9)

	m.applyEvent(build.Event{File: "/unknown", Status: build.StatusDone})

	m.done = true
	view := m.View()
	require.True(t, strings.HasPrefix(stripANSI(view), "done: building  2/2 built, 1 cached, 1 failed"), view)
	assert.Contains(t, view, "3ms")
	assert.Contains(t, view, "a.vert")
	assert.Contains(t, view, "b.frag")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd...", truncate("abcdefghij", 7))
	assert.Equal(t, "ab", truncate("abcdefghij", 2))
	assert.Equal(t, "全角...", truncate("全角文字列です", 7))
}

func stripANSI(s string) string {
	var b strings.Builder
	skip := false
	for _, r := range s {
		switch {
		case r == 0x1b:
			skip = true
		case skip && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'):
			skip = false
		case !skip:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "12ms", formatElapsed(12*time.Millisecond))
	assert.Equal(t, "1.50s", formatElapsed(1500*time.Millisecond))
}
