package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"igcancel/pkg/config"
	"igcancel/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage igcancel configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (IGCANCEL_*)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.igcancel.yaml'
unless a different path is specified with the --config flag.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration after merging every source.

Session cookies are masked.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Validate the configuration for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Pacing (positive batch size, batch break longer than the request delay)
  - Rate limit values
  - Path accessibility`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

const exampleConfig = `# igcancel configuration file
#
# Every option can also be set through environment variables prefixed with
# IGCANCEL_, for example IGCANCEL_SESSION_ID or IGCANCEL_DELAY.

# Instagram session cookies. Prefer 'igcancel auth login', which keeps them
# in the system keychain or an encrypted file instead of plain text.
instagram:
  session_id: ""
  csrf_token: ""
  # Leave empty to use the built-in browser user agent
  user_agent: ""

# Pauses between cancellations
pacing:
  # Fixed pause after every request
  delay: 1s
  # Set both to pick a random pause in [delay_min, delay_max] instead
  delay_min: 0s
  delay_max: 0s
  # Requests per batch and the longer break between batches
  batch_size: 50
  batch_break: 10s
  batch_break_min: 0s
  batch_break_max: 0s

# Client side request budget, on top of the pacing above
rate_limit:
  requests_per_minute: 60
  burst_size: 5
  request_timeout: 30s

# Where the pending follow requests come from
input:
  # pending_follow_requests.html or .json from the Instagram data export
  html_file: ""
  # Plain text list, one username per line (takes precedence)
  usernames_file: ""
  # Searched for an export when html_file is empty; progress lives here too
  data_dir: "data"

# Files written inside data_dir
output:
  progress_file: "instagram_cancellation_progress.json"
  failed_file: "failed_cancellations.txt"

notifications:
  enabled: false
  on_complete: true
  on_error: true

logging:
  # debug, info, warn, error
  level: "info"
  # Optional log file, written in addition to the console
  file: ""
`

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".igcancel.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s (remove it first to start over)", configPath)
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Run 'igcancel auth login' to store your session cookies")
	fmt.Println("2. Run 'igcancel config validate' to check the configuration")
	fmt.Println("3. Start with 'igcancel --html path/to/pending_follow_requests.html'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(maskedConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (IGCANCEL_*)")
	fmt.Println("3. .env files")
	if configFile != "" {
		fmt.Printf("4. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("4. Configuration file: (searched in default locations)")
	}
	fmt.Println("5. Default values")
	return nil
}

// maskedConfig returns a copy safe to print
func maskedConfig(cfg *config.Config) config.Config {
	display := *cfg
	display.Instagram.SessionID = mask(display.Instagram.SessionID)
	display.Instagram.CSRFToken = mask(display.Instagram.CSRFToken)
	return display
}

func mask(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) > 8:
		return s[:4] + "..." + s[len(s)-4:]
	default:
		return "***"
	}
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		ui.PrintInfo("Validating configuration", configFile)
	}

	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	var warnings []string
	if cfg.Instagram.SessionID != "" {
		warnings = append(warnings, "session cookies are stored in plain text, consider 'igcancel auth login'")
	}
	if cfg.Input.HTMLFile != "" {
		if _, err := os.Stat(cfg.Input.HTMLFile); err != nil {
			warnings = append(warnings, fmt.Sprintf("html_file is not readable: %v", err))
		}
	}
	if cfg.Input.UsernamesFile != "" {
		if _, err := os.Stat(cfg.Input.UsernamesFile); err != nil {
			warnings = append(warnings, fmt.Sprintf("usernames_file is not readable: %v", err))
		}
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			return fmt.Errorf("cannot create log directory: %w", err)
		}
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:")
		for _, warn := range warnings {
			fmt.Printf("  - %s\n", warn)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Data directory: %s\n", cfg.Input.DataDir)
	fmt.Printf("  Delay: %s (random %s-%s when set)\n", cfg.Pacing.Delay, cfg.Pacing.DelayMin, cfg.Pacing.DelayMax)
	fmt.Printf("  Batches: %d requests, %s break\n", cfg.Pacing.BatchSize, cfg.Pacing.BatchBreak)
	fmt.Printf("  Rate limit: %d requests/minute\n", cfg.RateLimit.RequestsPerMinute)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
	return nil
}
