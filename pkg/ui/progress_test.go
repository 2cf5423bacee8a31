package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"twhydrate/pkg/followers"
	"twhydrate/pkg/hydrate"
)

func captureOut(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Out
	Out = &buf
	t.Cleanup(func() { Out = prev })
	return &buf
}

func TestBar(t *testing.T) {
	tests := []struct {
		done, total int
		filled      int
	}{
		{0, 2, 0},
		{1, 2, 10},
		{2, 2, 20},
		{3, 2, 20},
		{0, 0, 0},
	}

	for _, tt := range tests {
		bar := Bar(tt.done, tt.total)
		assert.Equal(t, tt.filled, strings.Count(bar, ProgressBar), bar)
		assert.Equal(t, barWidth-tt.filled, strings.Count(bar, ProgressEmpty), bar)
	}
}

func TestRate(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	st := &StatusTracker{StartTime: start, now: func() time.Time { return start.Add(2 * time.Minute) }}
	assert.InDelta(t, 75.0, st.Rate(150), 0.001)

	st.now = func() time.Time { return start }
	assert.Zero(t, st.Rate(150))
}

func TestPrintBatchEndsLineOnLastBatch(t *testing.T) {
	buf := captureOut(t)
	st := NewStatusTracker()

	st.PrintBatch(hydrate.Progress{Mode: hydrate.ModeIDs, Batch: 1, Batches: 2, Stats: hydrate.Stats{Processed: 100}})
	assert.False(t, strings.HasSuffix(buf.String(), "\n"))

	st.PrintBatch(hydrate.Progress{Mode: hydrate.ModeIDs, Batch: 2, Batches: 2, Stats: hydrate.Stats{Processed: 149, Failures: 1}})
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
	assert.Contains(t, buf.String(), "failed 1")
}

func TestPrintRoot(t *testing.T) {
	buf := captureOut(t)
	st := NewStatusTracker()

	st.PrintRoot(followers.RootResult{
		Root:      2,
		State:     followers.StateSkipped,
		Pages:     1,
		Followers: []int64{1, 2, 3, 4, 5},
		Err:       errors.New("not authorized"),
	})
	assert.Contains(t, buf.String(), "[ROOT 2]")
	assert.Contains(t, buf.String(), "skipped 5 followers in 1 pages")
}

func TestPrintStats(t *testing.T) {
	buf := captureOut(t)

	PrintLookupStats(hydrate.Stats{Requested: 150, Processed: 149, Failures: 1, Batches: 2, Fallbacks: 1}, time.Minute)
	PrintPullStats(followers.Stats{Roots: 3, Completed: 2, Skipped: 1, Followers: 25}, time.Minute)

	out := buf.String()
	assert.Contains(t, out, "Processed: 149")
	assert.Contains(t, out, "2 (1 fell back)")
	assert.Contains(t, out, "Skipped: 1")
	assert.NotContains(t, out, "Resumed")
}

func TestPrintBannerPlainWhenNotATerminal(t *testing.T) {
	buf := captureOut(t)
	PrintBanner()
	assert.Equal(t, Banner+"\n", buf.String())
}
