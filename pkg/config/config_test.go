package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPositional() []string {
	return []string{"https://portal.example.com", "3500", "60", "30", "15", "5"}
}

func TestFromPositional_MapsArgumentsInOrder(t *testing.T) {
	cfg, err := FromPositional(validPositional())

	require.NoError(t, err)
	assert.Equal(t, "https://portal.example.com", cfg.TargetURL)
	assert.Equal(t, 3500*time.Second, cfg.TotalDuration)
	assert.Equal(t, 60*time.Second, cfg.PollInterval)
	assert.Equal(t, 30*time.Second, cfg.LoginTimeout)
	assert.Equal(t, 15*time.Second, cfg.ActionTimeout)
	assert.Equal(t, 5*time.Second, cfg.SettleDelay)
}

func TestFromPositional_WrongCount(t *testing.T) {
	_, err := FromPositional([]string{"https://portal.example.com", "3500"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "positional arguments")
}

func TestFromPositional_NonIntegerDuration(t *testing.T) {
	args := validPositional()
	args[2] = "sixty"

	_, err := FromPositional(args)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "poll interval")
}

func TestMergeFile_LabeledKeysOverride(t *testing.T) {
	cfg, err := FromPositional(validPositional())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "run.yaml")
	content := []byte("poll_interval_seconds: 120\nheaded: true\n")
	require.NoError(t, os.WriteFile(path, content, 0600))

	require.NoError(t, cfg.MergeFile(path))

	assert.Equal(t, 120*time.Second, cfg.PollInterval, "file key overrides positional value")
	assert.Equal(t, 3500*time.Second, cfg.TotalDuration, "absent keys stay untouched")
	assert.True(t, cfg.Headed)
}

func TestMergeFile_FullyLabeledRun(t *testing.T) {
	cfg := &Config{}

	path := filepath.Join(t.TempDir(), "run.yaml")
	content := []byte(`target_url: https://portal.example.com
total_duration_seconds: 600
poll_interval_seconds: 60
login_timeout_seconds: 30
action_timeout_seconds: 15
settle_delay_seconds: 5
`)
	require.NoError(t, os.WriteFile(path, content, 0600))

	require.NoError(t, cfg.MergeFile(path))
	require.NoError(t, cfg.Validate())
}

func TestMergeFile_MissingFile(t *testing.T) {
	cfg := &Config{}
	err := cfg.MergeFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			TargetURL:     "https://portal.example.com",
			TotalDuration: 10 * time.Minute,
			PollInterval:  time.Minute,
			LoginTimeout:  30 * time.Second,
			ActionTimeout: 15 * time.Second,
			SettleDelay:   5 * time.Second,
		}
	}

	t.Run("valid config passes", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("missing URL", func(t *testing.T) {
		cfg := valid()
		cfg.TargetURL = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-http scheme", func(t *testing.T) {
		cfg := valid()
		cfg.TargetURL = "ftp://portal.example.com"
		assert.Error(t, cfg.Validate())
	})

	t.Run("no host", func(t *testing.T) {
		cfg := valid()
		cfg.TargetURL = "https://"
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero duration", func(t *testing.T) {
		cfg := valid()
		cfg.SettleDelay = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("negative duration", func(t *testing.T) {
		cfg := valid()
		cfg.LoginTimeout = -time.Second
		assert.Error(t, cfg.Validate())
	})

	t.Run("interval must be shorter than window", func(t *testing.T) {
		cfg := valid()
		cfg.PollInterval = cfg.TotalDuration
		assert.Error(t, cfg.Validate())

		cfg.PollInterval = cfg.TotalDuration + time.Second
		assert.Error(t, cfg.Validate())
	})
}
