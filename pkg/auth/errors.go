package auth

import "fmt"

// ErrKind classifies why a login attempt failed. Every kind is terminal:
// authentication is a single attempt and the run aborts on failure.
type ErrKind int

const (
	// KindTimeout means the login ceremony did not complete within the
	// configured login timeout.
	KindTimeout ErrKind = iota

	// KindInvalidCredentials means the identity provider returned to
	// the login form with a visible error indicator.
	KindInvalidCredentials

	// KindNavigation means the portal or provider could not be reached
	// at all (network, DNS, TLS).
	KindNavigation
)

func (k ErrKind) String() string {
	switch k {
	case KindTimeout:
		return "Timeout"
	case KindInvalidCredentials:
		return "InvalidCredentials"
	case KindNavigation:
		return "NavigationFailure"
	default:
		return "Unknown"
	}
}

// Error is a classified authentication failure.
type Error struct {
	Kind    ErrKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed (%s): %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("authentication failed (%s): %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}
