package browser

import "time"

// Cookie is one raw cookie attribute tuple as read from the browser
// context. It is the untyped boundary shape: downstream code normalizes
// it immediately and never holds on to it.
type Cookie struct {
	Name     string
	Value    string
	Domain   string
	Path     string
	// Expires is a unix timestamp in seconds. A negative value marks a
	// session cookie with no expiry.
	Expires float64
	Secure   bool
	HTTPOnly bool
}

// Options configures the single browser session a run owns.
type Options struct {
	// Headed launches a visible browser window. Headless is the default
	// for unattended runs.
	Headed bool

	// ActionTimeout is the default bound for individual page operations.
	ActionTimeout time.Duration

	// IgnoreHTTPSErrors accepts invalid certificates, matching portals
	// fronted by internal CAs.
	IgnoreHTTPSErrors bool
}

// Default values for session setup.
const (
	DefaultActionTimeout  = 30 * time.Second
	defaultViewportWidth  = 1280
	defaultViewportHeight = 720
)
