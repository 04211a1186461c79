// Package browser wraps a single Playwright-driven Chromium session.
//
// One run owns exactly one Session. The rest of the program consumes it
// through narrow interfaces (navigate, fill, click, wait, read the
// cookie jar), so nothing outside this package touches Playwright types.
package browser

import (
	"fmt"
	"io"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Session is an active browser session and its underlying resources.
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page

	actionTimeout time.Duration
	createdAt     time.Time
}

// Launch installs the browser driver if needed, starts Playwright and
// opens a fresh Chromium context with a single page.
func Launch(opts Options) (*Session, error) {
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = DefaultActionTimeout
	}

	// Driver install is quiet so stdout stays clean for the report.
	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}

	if err := playwright.Install(runOpts); err != nil {
		return nil, fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	headless := !opts.Headed
	b, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: &headless,
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	ctx, err := b.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  defaultViewportWidth,
			Height: defaultViewportHeight,
		},
		IgnoreHttpsErrors: &opts.IgnoreHTTPSErrors,
	})
	if err != nil {
		b.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := ctx.NewPage()
	if err != nil {
		ctx.Close()
		b.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	page.SetDefaultTimeout(float64(opts.ActionTimeout.Milliseconds()))

	return &Session{
		pw:            pw,
		browser:       b,
		context:       ctx,
		page:          page,
		actionTimeout: opts.ActionTimeout,
		createdAt:     time.Now(),
	}, nil
}

func (s *Session) timeoutMillis(timeout time.Duration) float64 {
	if timeout <= 0 {
		timeout = s.actionTimeout
	}
	return float64(timeout.Milliseconds())
}

// Navigate drives the page to the given URL, waiting for the DOM to load.
func (s *Session) Navigate(url string, timeout time.Duration) error {
	millis := s.timeoutMillis(timeout)
	waitUntil := playwright.WaitUntilStateDomcontentloaded
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   &millis,
		WaitUntil: waitUntil,
	})
	if err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

// WaitForSelector waits for an element matching the selector to become
// visible.
func (s *Session) WaitForSelector(selector string, timeout time.Duration) error {
	millis := s.timeoutMillis(timeout)
	state := playwright.WaitForSelectorStateVisible
	_, err := s.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		State:   state,
		Timeout: &millis,
	})
	if err != nil {
		return fmt.Errorf("wait for %q failed: %w", selector, err)
	}
	return nil
}

// Fill writes a value into the input matching the selector.
func (s *Session) Fill(selector, value string, timeout time.Duration) error {
	millis := s.timeoutMillis(timeout)
	if err := s.page.Fill(selector, value, playwright.PageFillOptions{Timeout: &millis}); err != nil {
		return fmt.Errorf("fill %q failed: %w", selector, err)
	}
	return nil
}

// Click clicks the element matching the selector.
func (s *Session) Click(selector string, timeout time.Duration) error {
	millis := s.timeoutMillis(timeout)
	if err := s.page.Click(selector, playwright.PageClickOptions{Timeout: &millis}); err != nil {
		return fmt.Errorf("click %q failed: %w", selector, err)
	}
	return nil
}

// HasVisible reports whether an element matching the selector exists and
// is currently visible. It never waits.
func (s *Session) HasVisible(selector string) (bool, error) {
	element, err := s.page.QuerySelector(selector)
	if err != nil {
		return false, fmt.Errorf("selector query failed: %w", err)
	}
	if element == nil {
		return false, nil
	}
	visible, err := element.IsVisible()
	if err != nil {
		return false, fmt.Errorf("visibility check failed: %w", err)
	}
	return visible, nil
}

// URL returns the page's current URL.
func (s *Session) URL() string {
	return s.page.URL()
}

// Cookies reads the cookie jar scoped to the given URLs. The read does
// not mutate browser state.
func (s *Session) Cookies(urls ...string) ([]Cookie, error) {
	raw, err := s.context.Cookies(urls...)
	if err != nil {
		return nil, fmt.Errorf("cookie jar read failed: %w", err)
	}

	cookies := make([]Cookie, 0, len(raw))
	for _, c := range raw {
		cookies = append(cookies, Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HTTPOnly: c.HttpOnly,
		})
	}
	return cookies, nil
}

// Close tears down the page, context, browser and driver in order.
// Errors from individual teardown steps do not stop the remaining steps.
func (s *Session) Close() error {
	var errs []error

	if err := s.page.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.context.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.browser.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.pw.Stop(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing session: %v", errs)
	}
	return nil
}
