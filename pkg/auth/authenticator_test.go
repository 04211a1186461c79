package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jl-0/automated-cookie-eval/pkg/browser"
	"github.com/jl-0/automated-cookie-eval/pkg/logging"
	"github.com/jl-0/automated-cookie-eval/pkg/secrets"
)

const (
	portalURL = "https://portal.example.com/home"
	idpURL    = "https://auth.example.com/login"
	landedURL = "https://portal.example.com/dashboard"
)

// fakeDriver models a portal that redirects to an identity provider and
// back. Behavior is scripted through its fields.
type fakeDriver struct {
	url string

	// navTargets maps a requested URL to the URL the page ends up on.
	navTargets map[string]string
	navErr     error

	// visibleSelectors are the selectors WaitForSelector resolves.
	visibleSelectors map[string]bool

	// errorVisible makes the error indicator visible.
	errorVisible bool

	// onClick runs when the submit button is clicked.
	onClick func()

	cookies    []browser.Cookie
	cookiesErr error

	fills map[string]string
}

func (d *fakeDriver) Navigate(url string, _ time.Duration) error {
	if d.navErr != nil {
		return d.navErr
	}
	if dest, ok := d.navTargets[url]; ok {
		d.url = dest
	} else {
		d.url = url
	}
	return nil
}

func (d *fakeDriver) WaitForSelector(selector string, _ time.Duration) error {
	if d.visibleSelectors[selector] {
		return nil
	}
	return errors.New("selector not found")
}

func (d *fakeDriver) Fill(selector, value string, _ time.Duration) error {
	if d.fills == nil {
		d.fills = make(map[string]string)
	}
	d.fills[selector] = value
	return nil
}

func (d *fakeDriver) Click(string, time.Duration) error {
	if d.onClick != nil {
		d.onClick()
	}
	return nil
}

func (d *fakeDriver) HasVisible(string) (bool, error) {
	return d.errorVisible, nil
}

func (d *fakeDriver) URL() string {
	return d.url
}

func (d *fakeDriver) Cookies(...string) ([]browser.Cookie, error) {
	if d.cookiesErr != nil {
		return nil, d.cookiesErr
	}
	return d.cookies, nil
}

func cognitoFormDriver() *fakeDriver {
	d := &fakeDriver{
		navTargets: map[string]string{portalURL: idpURL},
		visibleSelectors: map[string]bool{
			"#signInFormUsername":              true,
			"#signInFormPassword":              true,
			`input[name="signInSubmitButton"]`: true,
		},
	}
	d.onClick = func() {
		// Successful submit: the provider redirects back to the portal
		// and the navTargets entry stops bouncing to the login page.
		d.url = landedURL
		delete(d.navTargets, portalURL)
		d.cookies = []browser.Cookie{
			{Name: "CognitoIdentityServiceProvider.idToken", Domain: ".example.com", Path: "/", Value: "tok", Expires: -1},
			{Name: "theme", Domain: ".example.com", Path: "/", Value: "dark", Expires: -1},
		}
	}
	return d
}

func newTestAuthenticator(drv Driver) *Authenticator {
	a := New(drv, Options{
		TargetURL:     portalURL,
		LoginTimeout:  2 * time.Second,
		ActionTimeout: time.Second,
		SettleDelay:   time.Millisecond,
	}, logging.Discard())
	a.pollEvery = time.Millisecond
	return a
}

func testCreds() secrets.Credentials {
	return secrets.Credentials{Username: "operator", Password: "hunter2"}
}

func TestLogin_Success(t *testing.T) {
	drv := cognitoFormDriver()
	a := newTestAuthenticator(drv)

	result, err := a.Login(context.Background(), testCreds())

	require.NoError(t, err)
	assert.Equal(t, portalURL, result.LandingURL)

	require.Len(t, result.SessionCookies, 1, "only the session-role cookie is tracked")
	assert.Equal(t, "CognitoIdentityServiceProvider.idToken", result.SessionCookies[0].Name)

	assert.Equal(t, "operator", drv.fills["#signInFormUsername"])
	assert.Equal(t, "hunter2", drv.fills["#signInFormPassword"])
}

func TestLogin_FallbackSelectors(t *testing.T) {
	drv := cognitoFormDriver()
	// Only the generic form selectors render.
	drv.visibleSelectors = map[string]bool{
		`input[name="username"]`: true,
		`input[type="password"]`: true,
		`input[type="submit"]`:   true,
	}
	a := newTestAuthenticator(drv)

	_, err := a.Login(context.Background(), testCreds())

	require.NoError(t, err)
	assert.Equal(t, "operator", drv.fills[`input[name="username"]`])
}

func TestLogin_InvalidCredentials(t *testing.T) {
	drv := cognitoFormDriver()
	drv.onClick = func() {
		// The provider stays on the login form and shows an error.
		drv.errorVisible = true
	}
	a := newTestAuthenticator(drv)

	_, err := a.Login(context.Background(), testCreds())

	require.Error(t, err)
	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, KindInvalidCredentials, authErr.Kind)
}

func TestLogin_NavigationFailure(t *testing.T) {
	drv := &fakeDriver{navErr: errors.New("dns lookup failed")}
	a := newTestAuthenticator(drv)

	_, err := a.Login(context.Background(), testCreds())

	require.Error(t, err)
	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, KindNavigation, authErr.Kind)
}

func TestLogin_FormNeverRendersTimesOut(t *testing.T) {
	drv := &fakeDriver{
		navTargets:       map[string]string{portalURL: idpURL},
		visibleSelectors: map[string]bool{}, // nothing ever renders
	}
	a := newTestAuthenticator(drv)
	a.opts.LoginTimeout = 20 * time.Millisecond

	_, err := a.Login(context.Background(), testCreds())

	require.Error(t, err)
	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, KindTimeout, authErr.Kind)
}

func TestLogin_NoRedirectTimesOut(t *testing.T) {
	drv := cognitoFormDriver()
	drv.onClick = nil // submit does nothing, no error indicator either
	a := newTestAuthenticator(drv)
	a.opts.LoginTimeout = 50 * time.Millisecond

	_, err := a.Login(context.Background(), testCreds())

	require.Error(t, err)
	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, KindTimeout, authErr.Kind)
}

func TestLogin_NoSessionCookieIsNotSuccess(t *testing.T) {
	drv := cognitoFormDriver()
	base := drv.onClick
	drv.onClick = func() {
		base()
		// The redirect happened but only non-session cookies were set.
		drv.cookies = []browser.Cookie{
			{Name: "theme", Domain: ".example.com", Path: "/", Value: "dark", Expires: -1},
		}
	}
	a := newTestAuthenticator(drv)

	_, err := a.Login(context.Background(), testCreds())

	require.Error(t, err)
	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, KindTimeout, authErr.Kind)
}

func TestLogin_CredentialsNeverLeakIntoError(t *testing.T) {
	drv := cognitoFormDriver()
	drv.onClick = func() { drv.errorVisible = true }
	a := newTestAuthenticator(drv)

	_, err := a.Login(context.Background(), testCreds())

	require.Error(t, err)
	assert.NotContains(t, err.Error(), "operator")
	assert.NotContains(t, err.Error(), "hunter2")
}
