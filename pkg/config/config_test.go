package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, time.Second, cfg.Pacing.Delay)
	assert.Equal(t, 50, cfg.Pacing.BatchSize)
	assert.Equal(t, 10*time.Second, cfg.Pacing.BatchBreak)
	assert.Equal(t, "936619743392459", cfg.Instagram.AppID)
	assert.Equal(t, filepath.Join("data", "instagram_cancellation_progress.json"), cfg.ProgressPath())
	assert.Equal(t, filepath.Join("data", "failed_cancellations.txt"), cfg.FailedPath())
	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("IGCANCEL_SESSION_ID", "test-session-id")
	t.Setenv("IGCANCEL_CSRF_TOKEN", "test-csrf-token")
	t.Setenv("IGCANCEL_DELAY", "2.5")
	t.Setenv("IGCANCEL_DELAY_MIN", "2s")
	t.Setenv("IGCANCEL_DELAY_MAX", "4s")
	t.Setenv("IGCANCEL_BATCH_SIZE", "10")
	t.Setenv("IGCANCEL_BATCH_BREAK", "25s")
	t.Setenv("IGCANCEL_DATA_DIR", "/tmp/igcancel")
	t.Setenv("IGCANCEL_NOTIFICATIONS_ENABLED", "true")
	t.Setenv("IGCANCEL_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "test-session-id", cfg.Instagram.SessionID)
	assert.Equal(t, "test-csrf-token", cfg.Instagram.CSRFToken)
	assert.Equal(t, 2500*time.Millisecond, cfg.Pacing.Delay)
	assert.Equal(t, 2*time.Second, cfg.Pacing.DelayMin)
	assert.Equal(t, 4*time.Second, cfg.Pacing.DelayMax)
	assert.Equal(t, 10, cfg.Pacing.BatchSize)
	assert.Equal(t, 25*time.Second, cfg.Pacing.BatchBreak)
	assert.Equal(t, "/tmp/igcancel", cfg.Input.DataDir)
	assert.True(t, cfg.Notifications.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvRejectsGarbage(t *testing.T) {
	t.Setenv("IGCANCEL_BATCH_SIZE", "many")
	t.Setenv("IGCANCEL_DELAY", "soon")

	cfg := DefaultConfig()
	err := cfg.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IGCANCEL_BATCH_SIZE")
	assert.Contains(t, err.Error(), "IGCANCEL_DELAY")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantError bool
	}{
		{
			name:      "defaults",
			mutate:    func(c *Config) {},
			wantError: false,
		},
		{
			name:      "zero batch size",
			mutate:    func(c *Config) { c.Pacing.BatchSize = 0 },
			wantError: true,
		},
		{
			name: "inverted delay bounds",
			mutate: func(c *Config) {
				c.Pacing.DelayMin = 5 * time.Second
				c.Pacing.DelayMax = 2 * time.Second
			},
			wantError: true,
		},
		{
			name: "batch break shorter than item delay",
			mutate: func(c *Config) {
				c.Pacing.Delay = 5 * time.Second
				c.Pacing.BatchBreak = 3 * time.Second
			},
			wantError: true,
		},
		{
			name: "randomized pacing",
			mutate: func(c *Config) {
				c.Pacing.DelayMin = 2 * time.Second
				c.Pacing.DelayMax = 4 * time.Second
				c.Pacing.BatchBreakMin = 20 * time.Second
				c.Pacing.BatchBreakMax = 30 * time.Second
			},
			wantError: false,
		},
		{
			name: "no delays at all",
			mutate: func(c *Config) {
				c.Pacing.Delay = 0
				c.Pacing.BatchBreak = 0
			},
			wantError: false,
		},
		{
			name:      "invalid log level",
			mutate:    func(c *Config) { c.Logging.Level = "loud" },
			wantError: true,
		},
		{
			name:      "missing progress file",
			mutate:    func(c *Config) { c.Output.ProgressFile = "" },
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()

	cfg.MergeCommandLineFlags(map[string]interface{}{
		"session-id":     "flag-session",
		"delay":          3 * time.Second,
		"batch-size":     7,
		"batch-break":    30 * time.Second,
		"html":           "export.html",
		"usernames-file": "names.txt",
		"data-dir":       "/flag/data",
		"log-level":      "error",
	})

	assert.Equal(t, "flag-session", cfg.Instagram.SessionID)
	assert.Equal(t, 3*time.Second, cfg.Pacing.Delay)
	assert.Equal(t, 7, cfg.Pacing.BatchSize)
	assert.Equal(t, 30*time.Second, cfg.Pacing.BatchBreak)
	assert.Equal(t, "export.html", cfg.Input.HTMLFile)
	assert.Equal(t, "names.txt", cfg.Input.UsernamesFile)
	assert.Equal(t, filepath.Join("/flag/data", "failed_cancellations.txt"), cfg.FailedPath())
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestSaveAndLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "igcancel.yaml")

	cfg := DefaultConfig()
	cfg.Instagram.SessionID = "save-test-session"
	cfg.Pacing.BatchSize = 8
	cfg.Pacing.DelayMin = 2 * time.Second
	cfg.Pacing.DelayMax = 4 * time.Second

	require.NoError(t, cfg.Save(configPath))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(configPath))

	assert.Equal(t, "save-test-session", loaded.Instagram.SessionID)
	assert.Equal(t, 8, loaded.Pacing.BatchSize)
	assert.Equal(t, 2*time.Second, loaded.Pacing.DelayMin)
	assert.Equal(t, 4*time.Second, loaded.Pacing.DelayMax)
}

func TestLoadAppliesFlagsLast(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("IGCANCEL_BATCH_SIZE", "20")

	cfg, err := Load("", map[string]interface{}{"batch-size": 5})
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Pacing.BatchSize)
}

func TestLoadFailsValidation(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := Load("", map[string]interface{}{"log-level": "chatty"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
}
