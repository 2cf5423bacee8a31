package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"twhydrate/pkg/followers"
	"twhydrate/pkg/hydrate"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
	barWidth      = 20
)

// StatusTracker renders lookup and follower-pull progress on one line
type StatusTracker struct {
	StartTime time.Time
	now       func() time.Time
}

func NewStatusTracker() *StatusTracker {
	return &StatusTracker{StartTime: time.Now(), now: time.Now}
}

// Bar returns a fixed-width progress bar for done out of total
func Bar(done, total int) string {
	filled := 0
	if total > 0 {
		filled = done * barWidth / total
	}
	if filled > barWidth {
		filled = barWidth
	}
	return fmt.Sprintf("[%s%s] %d/%d",
		strings.Repeat(ProgressBar, filled),
		strings.Repeat(ProgressEmpty, barWidth-filled),
		done, total)
}

// Rate returns users per minute since the tracker started
func (st *StatusTracker) Rate(processed int) float64 {
	elapsed := st.now().Sub(st.StartTime).Minutes()
	if elapsed <= 0 {
		return 0
	}
	return float64(processed) / elapsed
}

// PrintBatch is a hydrate progress callback
func (st *StatusTracker) PrintBatch(p hydrate.Progress) {
	fmt.Fprintf(Out, "\r%s %s processed %d, failed %d, %.0f/min",
		Magenta("[LOOKUP "+p.Mode+"]"),
		Bar(p.Batch, p.Batches),
		p.Stats.Processed,
		p.Stats.Failures,
		st.Rate(p.Stats.Processed))
	if p.Batch == p.Batches {
		fmt.Fprintln(Out)
	}
}

// PrintRoot reports one finished follower root
func (st *StatusTracker) PrintRoot(r followers.RootResult) {
	state := Green(r.State.String())
	if r.Err != nil {
		state = Yellow(r.State.String())
	}
	fmt.Fprintf(Out, "%s %s %d followers in %d pages\n",
		Magenta("[ROOT "+strconv.FormatInt(r.Root, 10)+"]"), state, len(r.Followers), r.Pages)
}

// PrintLookupStats prints the totals of a lookup run
func PrintLookupStats(s hydrate.Stats, elapsed time.Duration) {
	PrintInfo("Requested", strconv.Itoa(s.Requested))
	PrintInfo("Processed", strconv.Itoa(s.Processed))
	PrintInfo("Failures", strconv.Itoa(s.Failures))
	PrintInfo("Batches", fmt.Sprintf("%d (%d fell back)", s.Batches, s.Fallbacks))
	PrintInfo("Elapsed", elapsed.Round(time.Second).String())
}

// PrintPullStats prints the totals of a follower pull
func PrintPullStats(s followers.Stats, elapsed time.Duration) {
	PrintInfo("Roots", strconv.Itoa(s.Roots))
	PrintInfo("Completed", strconv.Itoa(s.Completed))
	PrintInfo("Limit reached", strconv.Itoa(s.LimitReached))
	PrintInfo("Skipped", strconv.Itoa(s.Skipped))
	if s.Repeated > 0 {
		PrintInfo("Repeated", strconv.Itoa(s.Repeated))
	}
	if s.Resumed > 0 {
		PrintInfo("Resumed", strconv.Itoa(s.Resumed))
	}
	PrintInfo("Followers", strconv.Itoa(s.Followers))
	PrintInfo("Elapsed", elapsed.Round(time.Second).String())
}
