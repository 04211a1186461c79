// Package cookiejar models observed cookie state: normalized records,
// point-in-time snapshots, and the diff between consecutive snapshots.
//
// Raw attribute tuples from the browser cross into this package exactly
// once, through Normalize; everything downstream works with the fixed
// Record shape.
package cookiejar

import (
	"sort"
	"strings"
	"time"

	"github.com/jl-0/automated-cookie-eval/pkg/browser"
)

// Identity is the key a cookie is tracked under across samples.
type Identity struct {
	Name   string
	Domain string
	Path   string
}

// String renders the identity as name (domain path).
func (id Identity) String() string {
	return id.Name + " (" + id.Domain + id.Path + ")"
}

// Record is one cookie's observable state at a sample point. The value
// is an opaque comparable token, never decoded.
type Record struct {
	Identity Identity
	Value    string

	// Expires is nil for session cookies with no expiry.
	Expires *time.Time

	Secure   bool
	HTTPOnly bool
}

// Snapshot is the full cookie state visible at one sample tick.
type Snapshot struct {
	TakenAt time.Time
	Cookies map[Identity]Record
}

// Normalize converts raw browser cookie tuples into a Snapshot stamped
// with the given sample time.
func Normalize(raw []browser.Cookie, takenAt time.Time) Snapshot {
	cookies := make(map[Identity]Record, len(raw))
	for _, c := range raw {
		id := Identity{Name: c.Name, Domain: c.Domain, Path: c.Path}

		var expires *time.Time
		if c.Expires >= 0 {
			t := time.Unix(int64(c.Expires), 0).UTC()
			expires = &t
		}

		cookies[id] = Record{
			Identity: id,
			Value:    c.Value,
			Expires:  expires,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
		}
	}
	return Snapshot{TakenAt: takenAt, Cookies: cookies}
}

// Identities returns the snapshot's identities in deterministic order.
func (s Snapshot) Identities() []Identity {
	ids := make([]Identity, 0, len(s.Cookies))
	for id := range s.Cookies {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := ids[i], ids[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.Domain != b.Domain {
			return a.Domain < b.Domain
		}
		return a.Path < b.Path
	})
	return ids
}

// sessionNameHints are name fragments that mark a cookie as carrying a
// session role. The list covers the Cognito/OIDC deployments this tool
// is pointed at plus the generic names.
var sessionNameHints = []string{
	"session",
	"token",
	"sid",
	"auth",
	"oidc",
	"cognito",
}

// LooksLikeSessionCookie reports whether a cookie name suggests it
// carries the session. Used to distinguish a rotated session cookie from
// a session that vanished outright.
func LooksLikeSessionCookie(name string) bool {
	lower := strings.ToLower(name)
	for _, hint := range sessionNameHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}
