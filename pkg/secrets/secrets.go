// Package secrets retrieves the portal credentials for a run.
//
// Credentials are opaque: they are handed to the authenticator and
// nowhere else. Nothing in this package or its callers may log or
// persist them.
package secrets

import (
	"fmt"
	"os"

	"github.com/zalando/go-keyring"
)

const (
	// EnvUsername and EnvPassword are the environment variables checked
	// first for credentials.
	EnvUsername = "COOKIEWATCH_USERNAME"
	EnvPassword = "COOKIEWATCH_PASSWORD"

	// keyringService is the OS keyring service name used when the
	// environment does not supply credentials.
	keyringService = "cookiewatch"

	keyringUserKey     = "username"
	keyringPasswordKey = "password"
)

// Credentials is the opaque username/password pair for the login ceremony.
type Credentials struct {
	Username string
	Password string
}

// Load resolves credentials from the process environment, falling back
// to the OS keyring when either value is absent from the environment.
func Load() (Credentials, error) {
	creds := Credentials{
		Username: os.Getenv(EnvUsername),
		Password: os.Getenv(EnvPassword),
	}

	if creds.Username == "" {
		v, err := keyring.Get(keyringService, keyringUserKey)
		if err != nil {
			return Credentials{}, fmt.Errorf("username not found in %s or OS keyring: %w", EnvUsername, err)
		}
		creds.Username = v
	}

	if creds.Password == "" {
		v, err := keyring.Get(keyringService, keyringPasswordKey)
		if err != nil {
			return Credentials{}, fmt.Errorf("password not found in %s or OS keyring: %w", EnvPassword, err)
		}
		creds.Password = v
	}

	return creds, nil
}

// Store writes credentials to the OS keyring so later runs can omit the
// environment variables.
func Store(creds Credentials) error {
	if err := keyring.Set(keyringService, keyringUserKey, creds.Username); err != nil {
		return fmt.Errorf("failed to store username in keyring: %w", err)
	}
	if err := keyring.Set(keyringService, keyringPasswordKey, creds.Password); err != nil {
		return fmt.Errorf("failed to store password in keyring: %w", err)
	}
	return nil
}
