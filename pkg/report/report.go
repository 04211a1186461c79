// Package report renders a finished Timeline as operator-readable text.
// Rendering is a pure function of the timeline; the only side effect is
// writing to the supplied sink.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/jl-0/automated-cookie-eval/pkg/cookiejar"
	"github.com/jl-0/automated-cookie-eval/pkg/monitor"
)

// Render writes the chronological event list and the summary block for
// one run.
func Render(w io.Writer, tl *monitor.Timeline) error {
	var start time.Time
	if len(tl.Snapshots) > 0 {
		start = tl.Snapshots[0].TakenAt
	} else {
		start = tl.StartedAt
	}

	fmt.Fprintf(w, "cookie lifecycle report\n")
	fmt.Fprintf(w, "target:  %s\n", tl.TargetURL)
	fmt.Fprintf(w, "started: %s\n", start.Format(time.RFC3339))
	fmt.Fprintf(w, "\n")

	if len(tl.Events) == 0 {
		fmt.Fprintf(w, "no cookie changes observed\n")
	} else {
		fmt.Fprintf(w, "events:\n")
		for _, e := range tl.Events {
			offset := e.DetectedAt.Sub(start).Round(time.Second)
			fmt.Fprintf(w, "  [+%s] %-13s %s  %s\n", offset, e.Kind, e.Identity, describe(e))
		}
	}

	counts := tl.EventCounts()
	fmt.Fprintf(w, "\nsummary:\n")
	fmt.Fprintf(w, "  samples taken:   %d\n", tl.SampleCount())
	fmt.Fprintf(w, "  appeared:        %d\n", counts[cookiejar.Appeared])
	fmt.Fprintf(w, "  disappeared:     %d\n", counts[cookiejar.Disappeared])
	fmt.Fprintf(w, "  value changes:   %d\n", counts[cookiejar.ValueChanged])
	fmt.Fprintf(w, "  expiry changes:  %d\n", counts[cookiejar.ExpiryChanged])

	if ttfc, ok := tl.TimeToFirstChange(); ok {
		fmt.Fprintf(w, "  first change:    after %s\n", ttfc.Round(time.Second))
	} else {
		fmt.Fprintf(w, "  first change:    none observed\n")
	}

	fmt.Fprintf(w, "  outcome:         %s\n", tl.Outcome)
	return nil
}

// describe produces the human-readable tail of an event line. Cookie
// values are opaque tokens; only expiry timestamps are ever printed.
func describe(e cookiejar.Event) string {
	switch e.Kind {
	case cookiejar.Appeared:
		if e.Current != nil && e.Current.Expires != nil {
			return fmt.Sprintf("new cookie, expires %s", e.Current.Expires.Format(time.RFC3339))
		}
		return "new cookie (no expiry)"
	case cookiejar.Disappeared:
		return "cookie removed from jar"
	case cookiejar.ValueChanged:
		return "value token rotated"
	case cookiejar.ExpiryChanged:
		return fmt.Sprintf("expiry %s -> %s", formatExpiry(e.Previous), formatExpiry(e.Current))
	default:
		return ""
	}
}

func formatExpiry(r *cookiejar.Record) string {
	if r == nil || r.Expires == nil {
		return "none"
	}
	return r.Expires.Format(time.RFC3339)
}
