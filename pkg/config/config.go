package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable the tool reads
const EnvPrefix = "IGCANCEL_"

// Config holds all configuration options for the follow request canceller
type Config struct {
	// Instagram session cookies
	Instagram InstagramConfig `yaml:"instagram" json:"instagram"`

	// Pacing between cancellations
	Pacing PacingConfig `yaml:"pacing" json:"pacing"`

	// Client side request budget
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Where identifiers come from
	Input InputConfig `yaml:"input" json:"input"`

	// Where progress and failures are written
	Output OutputConfig `yaml:"output" json:"output"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// InstagramConfig holds the cookie session used for API calls
type InstagramConfig struct {
	SessionID string `yaml:"session_id" json:"session_id"`
	CSRFToken string `yaml:"csrf_token" json:"csrf_token"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`
	AppID     string `yaml:"app_id" json:"app_id"`
}

// PacingConfig controls the delays the batch runner inserts.
// When DelayMin and DelayMax are both zero the fixed Delay is used; the same
// rule applies to the batch break bounds.
type PacingConfig struct {
	Delay         time.Duration `yaml:"delay" json:"delay"`
	DelayMin      time.Duration `yaml:"delay_min" json:"delay_min"`
	DelayMax      time.Duration `yaml:"delay_max" json:"delay_max"`
	BatchSize     int           `yaml:"batch_size" json:"batch_size"`
	BatchBreak    time.Duration `yaml:"batch_break" json:"batch_break"`
	BatchBreakMin time.Duration `yaml:"batch_break_min" json:"batch_break_min"`
	BatchBreakMax time.Duration `yaml:"batch_break_max" json:"batch_break_max"`
}

// RateLimitConfig holds the HTTP client request budget
type RateLimitConfig struct {
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int           `yaml:"burst_size" json:"burst_size"`
	RequestTimeout    time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// InputConfig points at the identifier source
type InputConfig struct {
	HTMLFile      string `yaml:"html_file" json:"html_file"`
	UsernamesFile string `yaml:"usernames_file" json:"usernames_file"`
	DataDir       string `yaml:"data_dir" json:"data_dir"`
}

// OutputConfig names the files written next to the data directory
type OutputConfig struct {
	ProgressFile string `yaml:"progress_file" json:"progress_file"`
	FailedFile   string `yaml:"failed_file" json:"failed_file"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled    bool `yaml:"enabled" json:"enabled"`
	OnComplete bool `yaml:"on_complete" json:"on_complete"`
	OnError    bool `yaml:"on_error" json:"on_error"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`

	// NoConsole drops console output, for full screen interfaces
	NoConsole bool `yaml:"-" json:"-"`

	// Sink receives every record as JSON in addition to the other outputs
	Sink io.Writer `yaml:"-" json:"-"`
}

// DefaultConfig returns a Config with the pacing the API mode has always used:
// one second between requests and a ten second break every fifty.
func DefaultConfig() *Config {
	return &Config{
		Instagram: InstagramConfig{
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			AppID:     "936619743392459",
		},
		Pacing: PacingConfig{
			Delay:      time.Second,
			BatchSize:  50,
			BatchBreak: 10 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			BurstSize:         5,
			RequestTimeout:    30 * time.Second,
		},
		Input: InputConfig{
			DataDir: "data",
		},
		Output: OutputConfig{
			ProgressFile: "instagram_cancellation_progress.json",
			FailedFile:   "failed_cancellations.txt",
		},
		Notifications: NotificationConfig{
			Enabled:    false,
			OnComplete: true,
			OnError:    true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// ProgressPath returns the checkpoint location inside the data directory
func (c *Config) ProgressPath() string {
	return resolveIn(c.Input.DataDir, c.Output.ProgressFile)
}

// FailedPath returns the failed identifier list location
func (c *Config) FailedPath() string {
	return resolveIn(c.Input.DataDir, c.Output.FailedFile)
}

func resolveIn(dir, name string) string {
	if filepath.IsAbs(name) || dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

// LoadFromEnv loads configuration from IGCANCEL_* environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	setString := func(key string, dst *string) {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		v := os.Getenv(EnvPrefix + key)
		if v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
			return
		}
		*dst = n
	}
	setDuration := func(key string, dst *time.Duration) {
		v := os.Getenv(EnvPrefix + key)
		if v == "" {
			return
		}
		d, err := parseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
			return
		}
		*dst = d
	}

	setString("SESSION_ID", &c.Instagram.SessionID)
	setString("CSRF_TOKEN", &c.Instagram.CSRFToken)
	setString("USER_AGENT", &c.Instagram.UserAgent)

	setDuration("DELAY", &c.Pacing.Delay)
	setDuration("DELAY_MIN", &c.Pacing.DelayMin)
	setDuration("DELAY_MAX", &c.Pacing.DelayMax)
	setInt("BATCH_SIZE", &c.Pacing.BatchSize)
	setDuration("BATCH_BREAK", &c.Pacing.BatchBreak)

	setInt("REQUESTS_PER_MINUTE", &c.RateLimit.RequestsPerMinute)

	setString("HTML_FILE", &c.Input.HTMLFile)
	setString("USERNAMES_FILE", &c.Input.UsernamesFile)
	setString("DATA_DIR", &c.Input.DataDir)

	if v := os.Getenv(EnvPrefix + "NOTIFICATIONS_ENABLED"); v != "" {
		c.Notifications.Enabled = strings.ToLower(v) == "true"
	}

	setString("LOG_LEVEL", &c.Logging.Level)
	setString("LOG_FILE", &c.Logging.File)

	return errors.Join(errs...)
}

// parseDuration accepts Go durations ("1.5s") and bare seconds ("2", "0.5")
func parseDuration(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".igcancel.yaml",
		".igcancel.yml",
		filepath.Join(home, ".config", "igcancel", "config.yaml"),
		filepath.Join(home, ".config", "igcancel", "config.yml"),
		filepath.Join(home, ".igcancel.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks the configuration. Credentials are not required here since
// they may come from the credential store instead.
func (c *Config) Validate() error {
	var errs []error

	p := c.Pacing
	if p.BatchSize <= 0 {
		errs = append(errs, errors.New("batch size must be positive"))
	}
	if p.Delay < 0 || p.DelayMin < 0 || p.DelayMax < 0 {
		errs = append(errs, errors.New("delays cannot be negative"))
	}
	if p.DelayMin > p.DelayMax {
		errs = append(errs, errors.New("delay_min cannot exceed delay_max"))
	}
	if p.BatchBreakMin > p.BatchBreakMax {
		errs = append(errs, errors.New("batch_break_min cannot exceed batch_break_max"))
	}
	if c.longestItemDelay() > 0 && c.shortestBatchBreak() <= c.longestItemDelay() {
		errs = append(errs, errors.New("batch break must be longer than the per-item delay"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive"))
	}
	if c.RateLimit.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	if c.Output.ProgressFile == "" {
		errs = append(errs, errors.New("progress file is required"))
	}
	if c.Output.FailedFile == "" {
		errs = append(errs, errors.New("failed file is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	return errors.Join(errs...)
}

func (c *Config) longestItemDelay() time.Duration {
	if c.Pacing.DelayMax > 0 {
		return c.Pacing.DelayMax
	}
	return c.Pacing.Delay
}

func (c *Config) shortestBatchBreak() time.Duration {
	if c.Pacing.BatchBreakMax > 0 {
		return c.Pacing.BatchBreakMin
	}
	return c.Pacing.BatchBreak
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Keys match the long flag names of the cancel command.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["session-id"].(string); ok && v != "" {
		c.Instagram.SessionID = v
	}
	if v, ok := flags["csrf-token"].(string); ok && v != "" {
		c.Instagram.CSRFToken = v
	}
	if v, ok := flags["delay"].(time.Duration); ok {
		c.Pacing.Delay = v
	}
	if v, ok := flags["delay-min"].(time.Duration); ok {
		c.Pacing.DelayMin = v
	}
	if v, ok := flags["delay-max"].(time.Duration); ok {
		c.Pacing.DelayMax = v
	}
	if v, ok := flags["batch-size"].(int); ok && v > 0 {
		c.Pacing.BatchSize = v
	}
	if v, ok := flags["batch-break"].(time.Duration); ok {
		c.Pacing.BatchBreak = v
	}
	if v, ok := flags["html"].(string); ok && v != "" {
		c.Input.HTMLFile = v
	}
	if v, ok := flags["usernames-file"].(string); ok && v != "" {
		c.Input.UsernamesFile = v
	}
	if v, ok := flags["data-dir"].(string); ok && v != "" {
		c.Input.DataDir = v
	}
	if v, ok := flags["notifications"].(bool); ok {
		c.Notifications.Enabled = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".igcancel.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
