// Package monitor runs the timed cookie observation loop.
//
// The loop is a plain sequential state machine: sample, diff, sleep,
// repeat. The only suspension points are the inter-tick sleep and the
// settle delay before a retry, and cancellation is observed at both.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jl-0/automated-cookie-eval/pkg/cookiejar"
	"github.com/jl-0/automated-cookie-eval/pkg/logging"
)

// State is the monitor's position in its lifecycle.
type State int

const (
	// StatePending is before the first sample.
	StatePending State = iota

	// StateSampling is the normal ticking state.
	StateSampling

	// StateCompleted means the window elapsed.
	StateCompleted

	// StateAborted means the session was invalidated early.
	StateAborted
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "Pending"
	case StateSampling:
		return "Sampling"
	case StateCompleted:
		return "Completed"
	case StateAborted:
		return "Aborted"
	default:
		return "Unknown"
	}
}

// ErrSessionUnreadable marks two consecutive transient read failures on
// one tick: the jar can no longer be observed, which is distinct from a
// cleanly detected expiration.
var ErrSessionUnreadable = errors.New("session unreadable: cookie jar read failed twice")

// ErrUnexpected wraps browser failures with no more specific
// classification.
var ErrUnexpected = errors.New("unexpected monitor failure")

// Sampler produces one cookie snapshot per call.
type Sampler interface {
	Sample() (cookiejar.Snapshot, error)
}

// Clock abstracts time for the loop so tests can drive it.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until the context is cancelled.
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Options configures a monitoring run.
type Options struct {
	TargetURL     string
	TotalDuration time.Duration
	PollInterval  time.Duration

	// SettleDelay is the pause before the single retry after a
	// transient jar read failure.
	SettleDelay time.Duration

	// SessionCookies are the identities established during login. The
	// run aborts when all of them are gone and nothing session-shaped
	// replaced them.
	SessionCookies []cookiejar.Identity

	// Clock defaults to wall-clock time.
	Clock Clock
}

// Monitor owns the observation loop and the timeline it accumulates.
type Monitor struct {
	sampler Sampler
	opts    Options
	clock   Clock
	log     *logging.Logger

	state   State
	tracked map[cookiejar.Identity]struct{}
}

// New creates a Monitor in the Pending state.
func New(sampler Sampler, opts Options, log *logging.Logger) *Monitor {
	clock := opts.Clock
	if clock == nil {
		clock = realClock{}
	}

	tracked := make(map[cookiejar.Identity]struct{}, len(opts.SessionCookies))
	for _, id := range opts.SessionCookies {
		tracked[id] = struct{}{}
	}

	return &Monitor{
		sampler: sampler,
		opts:    opts,
		clock:   clock,
		log:     log,
		state:   StatePending,
		tracked: tracked,
	}
}

// State returns the monitor's current lifecycle state.
func (m *Monitor) State() State {
	return m.state
}

// Run executes the observation loop until the window elapses, the
// session is invalidated, the jar becomes unreadable, or the context is
// cancelled. The returned Timeline is always non-nil so partial
// observations survive every failure mode.
func (m *Monitor) Run(ctx context.Context) (*Timeline, error) {
	start := m.clock.Now()
	timeline := &Timeline{
		TargetURL: m.opts.TargetURL,
		StartedAt: start,
	}

	finish := func(outcome Outcome) {
		timeline.Outcome = outcome
		timeline.EndedAt = m.clock.Now()
	}

	// Tick 0 seeds the history.
	snap, err := m.sampleWithRetry(ctx)
	if err != nil {
		finish(m.outcomeForError(err))
		return timeline, err
	}
	timeline.Snapshots = append(timeline.Snapshots, snap)
	m.state = StateSampling
	m.log.Infof("observation started: %d cookie(s) in scope, window %s, interval %s",
		len(snap.Cookies), m.opts.TotalDuration, m.opts.PollInterval)

	// An interval at or beyond the window means tick 0 is the only
	// sample there is room for.
	if m.opts.PollInterval >= m.opts.TotalDuration {
		m.state = StateCompleted
		finish(OutcomeCompleted)
		return timeline, nil
	}

	prev := snap
	for tick := 1; ; tick++ {
		offset := time.Duration(tick) * m.opts.PollInterval
		if offset > m.opts.TotalDuration {
			m.state = StateCompleted
			finish(OutcomeCompleted)
			m.log.Infof("observation window elapsed after %d sample(s)", timeline.SampleCount())
			return timeline, nil
		}

		// Ticks are anchored to the start time so sampling latency
		// never compounds into drift.
		wait := start.Add(offset).Sub(m.clock.Now())
		if wait > 0 {
			if err := m.clock.Sleep(ctx, wait); err != nil {
				m.state = StateAborted
				finish(OutcomeInterrupted)
				m.log.Warnf("run interrupted between ticks: %v", err)
				return timeline, err
			}
		}

		curr, err := m.sampleWithRetry(ctx)
		if err != nil {
			m.state = StateAborted
			finish(m.outcomeForError(err))
			return timeline, err
		}
		timeline.Snapshots = append(timeline.Snapshots, curr)

		events := cookiejar.Diff(prev, curr)
		timeline.Events = append(timeline.Events, events...)
		for _, e := range events {
			m.log.Infof("tick %d: %s %s", tick, e.Kind, e.Identity)
		}

		if m.sessionInvalidated(curr) {
			m.state = StateAborted
			finish(OutcomeAborted)
			m.log.Warnf("session invalidated at tick %d: session cookies gone with no replacement", tick)
			return timeline, nil
		}

		prev = curr
	}
}

// sampleWithRetry takes one snapshot, retrying exactly once after the
// settle delay when the read fails transiently. A second consecutive
// failure escalates to ErrSessionUnreadable.
func (m *Monitor) sampleWithRetry(ctx context.Context) (cookiejar.Snapshot, error) {
	snap, err := m.sampler.Sample()
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, cookiejar.ErrTransientRead) {
		return cookiejar.Snapshot{}, fmt.Errorf("%w: %v", ErrUnexpected, err)
	}

	m.log.Warnf("transient jar read failure, retrying after %s: %v", m.opts.SettleDelay, err)
	if sleepErr := m.clock.Sleep(ctx, m.opts.SettleDelay); sleepErr != nil {
		return cookiejar.Snapshot{}, sleepErr
	}

	snap, err = m.sampler.Sample()
	if err == nil {
		return snap, nil
	}
	if errors.Is(err, cookiejar.ErrTransientRead) {
		return cookiejar.Snapshot{}, fmt.Errorf("%w: %v", ErrSessionUnreadable, err)
	}
	return cookiejar.Snapshot{}, fmt.Errorf("%w: %v", ErrUnexpected, err)
}

// sessionInvalidated reports whether every tracked session cookie is
// gone from the snapshot and nothing session-shaped remains to take
// over. A rotation (new session-role cookie in the same tick) adopts
// the new identities instead of aborting.
func (m *Monitor) sessionInvalidated(snap cookiejar.Snapshot) bool {
	if len(m.tracked) == 0 {
		return false
	}

	for id := range m.tracked {
		if _, ok := snap.Cookies[id]; ok {
			return false
		}
	}

	var replacements []cookiejar.Identity
	for _, id := range snap.Identities() {
		if cookiejar.LooksLikeSessionCookie(id.Name) {
			replacements = append(replacements, id)
		}
	}
	if len(replacements) == 0 {
		return true
	}

	m.log.Infof("session cookies rotated: now tracking %d identity(ies)", len(replacements))
	m.tracked = make(map[cookiejar.Identity]struct{}, len(replacements))
	for _, id := range replacements {
		m.tracked[id] = struct{}{}
	}
	return false
}

func (m *Monitor) outcomeForError(err error) Outcome {
	switch {
	case errors.Is(err, ErrSessionUnreadable):
		return OutcomeUnreadable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeInterrupted
	default:
		return OutcomeError
	}
}
