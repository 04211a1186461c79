package cookiejar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jl-0/automated-cookie-eval/pkg/browser"
)

func TestNormalize_SessionCookieHasNilExpiry(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	raw := []browser.Cookie{
		{Name: "sessionid", Domain: ".example.com", Path: "/", Value: "abc", Expires: -1},
		{Name: "pref", Domain: ".example.com", Path: "/", Value: "dark", Expires: 1893456000},
	}

	snap := Normalize(raw, at)

	require.Len(t, snap.Cookies, 2)
	assert.Equal(t, at, snap.TakenAt)

	session := snap.Cookies[Identity{Name: "sessionid", Domain: ".example.com", Path: "/"}]
	assert.Nil(t, session.Expires)

	pref := snap.Cookies[Identity{Name: "pref", Domain: ".example.com", Path: "/"}]
	require.NotNil(t, pref.Expires)
	assert.Equal(t, int64(1893456000), pref.Expires.Unix())
}

func TestNormalize_IdentityKeyIsNameDomainPath(t *testing.T) {
	raw := []browser.Cookie{
		{Name: "token", Domain: "a.example.com", Path: "/", Value: "1"},
		{Name: "token", Domain: "b.example.com", Path: "/", Value: "2"},
		{Name: "token", Domain: "a.example.com", Path: "/api", Value: "3"},
	}

	snap := Normalize(raw, time.Now())

	assert.Len(t, snap.Cookies, 3, "same name on different domain/path must not collide")
}

func TestIdentities_SortedDeterministically(t *testing.T) {
	raw := []browser.Cookie{
		{Name: "zeta", Domain: ".example.com", Path: "/"},
		{Name: "alpha", Domain: ".example.com", Path: "/b"},
		{Name: "alpha", Domain: ".example.com", Path: "/a"},
	}
	snap := Normalize(raw, time.Now())

	ids := snap.Identities()

	require.Len(t, ids, 3)
	assert.Equal(t, "alpha", ids[0].Name)
	assert.Equal(t, "/a", ids[0].Path)
	assert.Equal(t, "/b", ids[1].Path)
	assert.Equal(t, "zeta", ids[2].Name)
}

func TestLooksLikeSessionCookie(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"sessionid", true},
		{"JSESSIONID", true},
		{"oidc_access_token", true},
		{"CognitoIdentityServiceProvider.abc.idToken", true},
		{"connect.sid", true},
		{"theme", false},
		{"_ga", false},
		{"csrf", false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, LooksLikeSessionCookie(tc.name), "cookie %q", tc.name)
	}
}
