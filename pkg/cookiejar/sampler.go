package cookiejar

import (
	"errors"
	"fmt"
	"time"

	"github.com/jl-0/automated-cookie-eval/pkg/browser"
)

// ErrTransientRead marks a cookie jar read that failed because the page
// was mid-navigation or the context momentarily unavailable. Callers may
// retry; it does not mean the session is gone.
var ErrTransientRead = errors.New("transient cookie jar read failure")

// Jar is the capability the sampler needs from the browser session: a
// read of the cookie jar scoped to one or more URLs.
type Jar interface {
	Cookies(urls ...string) ([]browser.Cookie, error)
}

// Sampler takes point-in-time snapshots of the cookies scoped to the
// target URL. Sampling is a pure read: it never navigates or clicks.
type Sampler struct {
	jar      Jar
	scopeURL string
	now      func() time.Time
}

// NewSampler creates a sampler scoped to the target URL. The scope
// includes parent-domain cookies, since portals commonly set their
// session cookies one level up.
func NewSampler(jar Jar, scopeURL string) *Sampler {
	return &Sampler{
		jar:      jar,
		scopeURL: scopeURL,
		now:      time.Now,
	}
}

// Sample reads the jar once and normalizes it into a Snapshot stamped
// with the current wall-clock time. Read failures are reported as
// ErrTransientRead so the monitor can retry.
func (s *Sampler) Sample() (Snapshot, error) {
	raw, err := s.jar.Cookies(s.scopeURL)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrTransientRead, err)
	}
	return Normalize(raw, s.now()), nil
}
