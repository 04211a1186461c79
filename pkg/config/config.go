// Package config holds the immutable run parameters for a monitoring run.
//
// Parameters arrive three ways, lowest to highest precedence: positional
// command-line values (the historical invocation form), a labeled YAML
// file, and labeled command-line flags. The labeled forms exist because
// six bare integers on a command line are easy to supply in the wrong
// order.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the validated, immutable parameter set for one run.
type Config struct {
	// TargetURL is the portal address the run authenticates against
	// and whose cookie scope is observed.
	TargetURL string

	// TotalDuration is the full observation window.
	TotalDuration time.Duration

	// PollInterval is the spacing between cookie samples.
	PollInterval time.Duration

	// LoginTimeout bounds the whole login ceremony.
	LoginTimeout time.Duration

	// ActionTimeout bounds each individual browser action.
	ActionTimeout time.Duration

	// SettleDelay is the pause before retrying a transient jar read,
	// and the pause between credential fills during login.
	SettleDelay time.Duration

	// Headed launches a visible browser window instead of headless.
	Headed bool
}

// positionalCount is the historical invocation form:
// <url> <total> <interval> <login-timeout> <action-timeout> <settle-delay>.
const positionalCount = 6

// FromPositional builds a Config from the six positional arguments, all
// durations given as whole seconds.
func FromPositional(args []string) (*Config, error) {
	if len(args) != positionalCount {
		return nil, fmt.Errorf("expected %d positional arguments (url and five durations), got %d", positionalCount, len(args))
	}

	cfg := &Config{TargetURL: args[0]}

	fields := []struct {
		name string
		dst  *time.Duration
	}{
		{"total duration", &cfg.TotalDuration},
		{"poll interval", &cfg.PollInterval},
		{"login timeout", &cfg.LoginTimeout},
		{"action timeout", &cfg.ActionTimeout},
		{"settle delay", &cfg.SettleDelay},
	}

	for i, f := range fields {
		seconds, err := strconv.Atoi(args[i+1])
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not an integer number of seconds", f.name, args[i+1])
		}
		*f.dst = time.Duration(seconds) * time.Second
	}

	return cfg, nil
}

// fileConfig is the labeled YAML form. All durations are whole seconds.
type fileConfig struct {
	TargetURL     string `yaml:"target_url"`
	TotalSeconds  *int   `yaml:"total_duration_seconds"`
	PollSeconds   *int   `yaml:"poll_interval_seconds"`
	LoginSeconds  *int   `yaml:"login_timeout_seconds"`
	ActionSeconds *int   `yaml:"action_timeout_seconds"`
	SettleSeconds *int   `yaml:"settle_delay_seconds"`
	Headed        *bool  `yaml:"headed"`
}

// MergeFile overlays labeled values from a YAML file onto c. Only keys
// present in the file are applied.
func (c *Config) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if fc.TargetURL != "" {
		c.TargetURL = fc.TargetURL
	}
	overlays := []struct {
		src *int
		dst *time.Duration
	}{
		{fc.TotalSeconds, &c.TotalDuration},
		{fc.PollSeconds, &c.PollInterval},
		{fc.LoginSeconds, &c.LoginTimeout},
		{fc.ActionSeconds, &c.ActionTimeout},
		{fc.SettleSeconds, &c.SettleDelay},
	}
	for _, o := range overlays {
		if o.src != nil {
			*o.dst = time.Duration(*o.src) * time.Second
		}
	}
	if fc.Headed != nil {
		c.Headed = *fc.Headed
	}

	return nil
}

// Validate checks the invariants every run depends on: a parseable
// http(s) target and strictly positive, mutually consistent durations.
func (c *Config) Validate() error {
	if c.TargetURL == "" {
		return fmt.Errorf("target URL is required")
	}
	u, err := url.Parse(c.TargetURL)
	if err != nil {
		return fmt.Errorf("target URL is not parseable: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("target URL must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("target URL has no host")
	}

	durations := []struct {
		name string
		d    time.Duration
	}{
		{"total duration", c.TotalDuration},
		{"poll interval", c.PollInterval},
		{"login timeout", c.LoginTimeout},
		{"action timeout", c.ActionTimeout},
		{"settle delay", c.SettleDelay},
	}
	for _, d := range durations {
		if d.d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", d.name, d.d)
		}
	}

	if c.PollInterval >= c.TotalDuration {
		return fmt.Errorf("poll interval (%s) must be shorter than total duration (%s)", c.PollInterval, c.TotalDuration)
	}

	return nil
}
