// Package auth drives the browser session through the portal's
// single-sign-on login ceremony.
//
// The ceremony is one attempt: navigate to the portal, wait for the
// identity provider's form, submit the credentials, wait for the
// redirect back. It either produces an authenticated session with at
// least one session-identifying cookie, or a classified Error.
package auth

import (
	"context"
	"strings"
	"time"

	"github.com/jl-0/automated-cookie-eval/pkg/browser"
	"github.com/jl-0/automated-cookie-eval/pkg/cookiejar"
	"github.com/jl-0/automated-cookie-eval/pkg/logging"
	"github.com/jl-0/automated-cookie-eval/pkg/secrets"
)

// Driver is the browser capability surface the login ceremony consumes.
type Driver interface {
	Navigate(url string, timeout time.Duration) error
	WaitForSelector(selector string, timeout time.Duration) error
	Fill(selector, value string, timeout time.Duration) error
	Click(selector string, timeout time.Duration) error
	HasVisible(selector string) (bool, error)
	URL() string
	Cookies(urls ...string) ([]browser.Cookie, error)
}

// Selectors identifies the login form's elements. Each field lists
// candidates in preference order; the first one that renders wins.
// Login pages commonly duplicate IDs between mobile and desktop layouts,
// hence the visible-element waits.
type Selectors struct {
	Username       []string
	Password       []string
	Submit         []string
	ErrorIndicator string
}

// CognitoSelectors returns the selector set for the Cognito hosted
// login UI, the provider fronting the portals this tool was built for.
func CognitoSelectors() Selectors {
	return Selectors{
		Username:       []string{"#signInFormUsername", `input[name="username"]`},
		Password:       []string{"#signInFormPassword", `input[type="password"]`},
		Submit:         []string{`input[name="signInSubmitButton"]`, `input[type="submit"]`},
		ErrorIndicator: ".error-message, .alert-error",
	}
}

// Result describes a successful login.
type Result struct {
	// LandingURL is the portal URL the provider redirected back to.
	LandingURL string

	// SessionCookies are the identities of the session-identifying
	// cookies present immediately after login. The monitor watches
	// these for disappearance.
	SessionCookies []cookiejar.Identity
}

// Options configures the login ceremony.
type Options struct {
	TargetURL     string
	LoginTimeout  time.Duration
	ActionTimeout time.Duration

	// SettleDelay is the pause after each credential fill, giving the
	// form's scripts time to process the input before submit.
	SettleDelay time.Duration

	Selectors Selectors
}

// Authenticator performs the login ceremony against a Driver.
type Authenticator struct {
	drv  Driver
	opts Options
	log  *logging.Logger

	// test seams
	sleep     func(ctx context.Context, d time.Duration) error
	now       func() time.Time
	pollEvery time.Duration
}

// New creates an Authenticator. A zero Selectors value defaults to the
// Cognito hosted UI set.
func New(drv Driver, opts Options, log *logging.Logger) *Authenticator {
	if len(opts.Selectors.Username) == 0 {
		opts.Selectors = CognitoSelectors()
	}
	return &Authenticator{
		drv:       drv,
		opts:      opts,
		log:       log,
		sleep:     sleepCtx,
		now:       time.Now,
		pollEvery: 250 * time.Millisecond,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Login runs the ceremony once. On success the driver's page sits on the
// authenticated portal and the returned Result names the session
// cookies. On failure the returned error is an *Error with the kind the
// operator needs to tell "bad credentials" from "portal unreachable"
// from "login UI changed or slow".
func (a *Authenticator) Login(ctx context.Context, creds secrets.Credentials) (*Result, error) {
	a.log.Infof("navigating to %s", a.opts.TargetURL)
	if err := a.drv.Navigate(a.opts.TargetURL, a.opts.ActionTimeout); err != nil {
		return nil, &Error{Kind: KindNavigation, Message: "could not reach target URL", Err: err}
	}

	deadline := a.now().Add(a.opts.LoginTimeout)

	usernameSel, err := a.waitForAny(ctx, a.opts.Selectors.Username, deadline)
	if err != nil {
		return nil, &Error{Kind: KindTimeout, Message: "login form did not render", Err: err}
	}
	loginURL := a.drv.URL()
	a.log.Debugf("login form rendered at %s", loginURL)

	if err := a.drv.Fill(usernameSel, creds.Username, a.opts.ActionTimeout); err != nil {
		return nil, &Error{Kind: KindTimeout, Message: "could not fill username field", Err: err}
	}
	if err := a.sleep(ctx, a.opts.SettleDelay); err != nil {
		return nil, &Error{Kind: KindTimeout, Message: "interrupted during login", Err: err}
	}

	passwordSel, err := a.waitForAny(ctx, a.opts.Selectors.Password, deadline)
	if err != nil {
		return nil, &Error{Kind: KindTimeout, Message: "password field did not render", Err: err}
	}
	if err := a.drv.Fill(passwordSel, creds.Password, a.opts.ActionTimeout); err != nil {
		return nil, &Error{Kind: KindTimeout, Message: "could not fill password field", Err: err}
	}
	if err := a.sleep(ctx, a.opts.SettleDelay); err != nil {
		return nil, &Error{Kind: KindTimeout, Message: "interrupted during login", Err: err}
	}

	submitSel, err := a.waitForAny(ctx, a.opts.Selectors.Submit, deadline)
	if err != nil {
		return nil, &Error{Kind: KindTimeout, Message: "submit button did not render", Err: err}
	}
	a.log.Infof("submitting login form")
	if err := a.drv.Click(submitSel, a.opts.ActionTimeout); err != nil {
		return nil, &Error{Kind: KindTimeout, Message: "could not click submit", Err: err}
	}

	if err := a.awaitRedirect(ctx, loginURL, deadline); err != nil {
		return nil, err
	}

	// Land back on the portal proper before observation begins, so the
	// first sample sees the authenticated application's cookie set.
	if err := a.drv.Navigate(a.opts.TargetURL, a.opts.ActionTimeout); err != nil {
		return nil, &Error{Kind: KindNavigation, Message: "could not return to target after login", Err: err}
	}

	sessionCookies, err := a.sessionCookieIdentities()
	if err != nil {
		return nil, err
	}

	landing := a.drv.URL()
	a.log.Infof("authenticated, landed on %s with %d session cookie(s)", landing, len(sessionCookies))
	return &Result{LandingURL: landing, SessionCookies: sessionCookies}, nil
}

// waitForAny waits for the first of the candidate selectors to become
// visible, trying each in turn until the overall deadline.
func (a *Authenticator) waitForAny(ctx context.Context, candidates []string, deadline time.Time) (string, error) {
	var lastErr error
	for {
		for _, sel := range candidates {
			remaining := deadline.Sub(a.now())
			if remaining <= 0 {
				if lastErr != nil {
					return "", lastErr
				}
				return "", context.DeadlineExceeded
			}
			perTry := a.pollEvery * 8
			if perTry > remaining {
				perTry = remaining
			}
			if err := a.drv.WaitForSelector(sel, perTry); err != nil {
				lastErr = err
				continue
			}
			return sel, nil
		}
		if a.now().After(deadline) {
			if lastErr == nil {
				lastErr = context.DeadlineExceeded
			}
			return "", lastErr
		}
		if err := a.sleep(ctx, a.pollEvery); err != nil {
			return "", err
		}
	}
}

// awaitRedirect polls until the page leaves the login URL, then checks
// the landing state for a provider error bounce.
func (a *Authenticator) awaitRedirect(ctx context.Context, loginURL string, deadline time.Time) error {
	for a.now().Before(deadline) {
		current := a.drv.URL()
		if current != loginURL {
			if looksLikeLoginURL(current) {
				if a.errorIndicatorVisible() {
					return &Error{Kind: KindInvalidCredentials, Message: "provider returned to login form with an error"}
				}
			}
			return nil
		}

		// Some providers reject credentials without changing the URL.
		if a.errorIndicatorVisible() {
			return &Error{Kind: KindInvalidCredentials, Message: "login form shows an error indicator"}
		}

		if err := a.sleep(ctx, a.pollEvery); err != nil {
			return &Error{Kind: KindTimeout, Message: "interrupted waiting for redirect", Err: err}
		}
	}

	if a.errorIndicatorVisible() {
		return &Error{Kind: KindInvalidCredentials, Message: "login form shows an error indicator"}
	}
	return &Error{Kind: KindTimeout, Message: "no redirect from the login page within the login timeout"}
}

func (a *Authenticator) errorIndicatorVisible() bool {
	if a.opts.Selectors.ErrorIndicator == "" {
		return false
	}
	visible, err := a.drv.HasVisible(a.opts.Selectors.ErrorIndicator)
	if err != nil {
		return false
	}
	return visible
}

func looksLikeLoginURL(u string) bool {
	lower := strings.ToLower(u)
	return strings.Contains(lower, "login") || strings.Contains(lower, "signin")
}

// sessionCookieIdentities reads the jar and returns the identities of
// cookies that carry a session role. Login without at least one is not
// a success.
func (a *Authenticator) sessionCookieIdentities() ([]cookiejar.Identity, error) {
	raw, err := a.drv.Cookies(a.opts.TargetURL)
	if err != nil {
		return nil, &Error{Kind: KindTimeout, Message: "could not read cookie jar after login", Err: err}
	}

	snap := cookiejar.Normalize(raw, a.now())
	var ids []cookiejar.Identity
	for _, id := range snap.Identities() {
		if cookiejar.LooksLikeSessionCookie(id.Name) {
			ids = append(ids, id)
		}
	}

	if len(ids) == 0 {
		return nil, &Error{Kind: KindTimeout, Message: "login completed but no session-identifying cookie was established"}
	}
	return ids, nil
}
