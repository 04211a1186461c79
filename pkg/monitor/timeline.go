package monitor

import (
	"time"

	"github.com/jl-0/automated-cookie-eval/pkg/cookiejar"
)

// Outcome is the terminal result of a monitoring run.
type Outcome string

const (
	// OutcomeCompleted means the full observation window elapsed.
	OutcomeCompleted Outcome = "Completed"

	// OutcomeAborted means the session-identifying cookies vanished
	// with no replacement before the window ended. This is the signal
	// the tool exists to detect, not a failure.
	OutcomeAborted Outcome = "Aborted"

	// OutcomeUnreadable means the cookie jar stopped being readable
	// (two consecutive transient read failures on one tick).
	OutcomeUnreadable Outcome = "SessionUnreadable"

	// OutcomeInterrupted means an external stop signal ended the run
	// between ticks.
	OutcomeInterrupted Outcome = "Interrupted"

	// OutcomeError means an unclassified browser failure aborted the
	// run. The timeline collected so far is still reportable.
	OutcomeError Outcome = "Error"
)

// Timeline is the full observation record of one run: every snapshot in
// order, every detected event in order, and the terminal outcome. It has
// a single writer (the monitor) and is handed to the reporter read-only
// once the run is over.
type Timeline struct {
	TargetURL string
	StartedAt time.Time
	EndedAt   time.Time

	Snapshots []cookiejar.Snapshot
	Events    []cookiejar.Event

	Outcome Outcome
}

// SampleCount returns the number of samples taken, including tick 0.
func (t *Timeline) SampleCount() int {
	return len(t.Snapshots)
}

// EventCounts returns the number of events by kind.
func (t *Timeline) EventCounts() map[cookiejar.EventKind]int {
	counts := make(map[cookiejar.EventKind]int)
	for _, e := range t.Events {
		counts[e.Kind]++
	}
	return counts
}

// TimeToFirstChange returns the elapsed time from tick 0 to the first
// detected event, and false if the run produced no events.
func (t *Timeline) TimeToFirstChange() (time.Duration, bool) {
	if len(t.Events) == 0 || len(t.Snapshots) == 0 {
		return 0, false
	}
	return t.Events[0].DetectedAt.Sub(t.Snapshots[0].TakenAt), true
}
