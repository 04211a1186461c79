package cookiejar

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jl-0/automated-cookie-eval/pkg/browser"
)

type fakeJar struct {
	cookies  []browser.Cookie
	err      error
	lastURLs []string
}

func (j *fakeJar) Cookies(urls ...string) ([]browser.Cookie, error) {
	j.lastURLs = urls
	if j.err != nil {
		return nil, j.err
	}
	return j.cookies, nil
}

func TestSampler_ScopesReadToTargetURL(t *testing.T) {
	jar := &fakeJar{cookies: []browser.Cookie{
		{Name: "sessionid", Domain: ".example.com", Path: "/", Value: "v", Expires: -1},
	}}
	sampler := NewSampler(jar, "https://portal.example.com/home")

	snap, err := sampler.Sample()

	require.NoError(t, err)
	assert.Equal(t, []string{"https://portal.example.com/home"}, jar.lastURLs)
	assert.Len(t, snap.Cookies, 1)
	assert.False(t, snap.TakenAt.IsZero())
}

func TestSampler_ReadFailureIsTransient(t *testing.T) {
	jar := &fakeJar{err: errors.New("page is navigating")}
	sampler := NewSampler(jar, "https://portal.example.com")

	_, err := sampler.Sample()

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransientRead)
}

func TestSampler_StampsInjectedClock(t *testing.T) {
	jar := &fakeJar{}
	sampler := NewSampler(jar, "https://portal.example.com")
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sampler.now = func() time.Time { return fixed }

	snap, err := sampler.Sample()

	require.NoError(t, err)
	assert.Equal(t, fixed, snap.TakenAt)
}
