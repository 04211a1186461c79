package cookiejar

import "time"

// EventKind classifies one detected change between consecutive snapshots.
type EventKind string

const (
	// Appeared marks an identity present now that was absent before.
	Appeared EventKind = "Appeared"

	// Disappeared marks an identity absent now that was present before.
	Disappeared EventKind = "Disappeared"

	// ValueChanged marks an identity whose value token differs.
	ValueChanged EventKind = "ValueChanged"

	// ExpiryChanged marks an identity whose expiry timestamp differs.
	ExpiryChanged EventKind = "ExpiryChanged"
)

// Event is one detected change. Previous and Current are nil depending
// on the kind: Appeared has no Previous, Disappeared has no Current.
// Events are immutable once created.
type Event struct {
	Kind       EventKind
	Identity   Identity
	Previous   *Record
	Current    *Record
	DetectedAt time.Time
}

// Diff compares two consecutive snapshots by identity key and returns
// the changes, timestamped with the current snapshot's sample time.
//
// An identity with both a value change and an expiry change yields one
// event per differing field, with identical timestamps. The result order
// is deterministic: identities in sorted order, ValueChanged before
// ExpiryChanged for the same identity.
func Diff(prev, curr Snapshot) []Event {
	var events []Event
	at := curr.TakenAt

	for _, id := range prev.Identities() {
		before := prev.Cookies[id]
		after, ok := curr.Cookies[id]
		if !ok {
			b := before
			events = append(events, Event{
				Kind:       Disappeared,
				Identity:   id,
				Previous:   &b,
				DetectedAt: at,
			})
			continue
		}

		if before.Value != after.Value {
			b, a := before, after
			events = append(events, Event{
				Kind:       ValueChanged,
				Identity:   id,
				Previous:   &b,
				Current:    &a,
				DetectedAt: at,
			})
		}
		if !sameExpiry(before.Expires, after.Expires) {
			b, a := before, after
			events = append(events, Event{
				Kind:       ExpiryChanged,
				Identity:   id,
				Previous:   &b,
				Current:    &a,
				DetectedAt: at,
			})
		}
	}

	for _, id := range curr.Identities() {
		if _, ok := prev.Cookies[id]; ok {
			continue
		}
		a := curr.Cookies[id]
		events = append(events, Event{
			Kind:       Appeared,
			Identity:   id,
			Current:    &a,
			DetectedAt: at,
		})
	}

	return events
}

func sameExpiry(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
