package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"igcancel/pkg/config"
	"igcancel/pkg/logger"
	"igcancel/pkg/storage"
	"igcancel/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile    string
	logLevel      string
	notifications bool
	quiet         bool
	verbose       bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "igcancel",
	Short: "Cancel pending Instagram follow requests in bulk",
	Long: `igcancel withdraws the follow requests you sent that are still pending.

It reads the list of pending requests from your Instagram data export
(pending_follow_requests.html or the JSON variant) or from a plain text list,
then cancels them one by one with pauses between requests and longer breaks
between batches.

Progress is saved after every account, so an interrupted run can be picked up
with --continue. Accounts that could not be cancelled are written to a failed
list that can be fed back in with --usernames-file.

Running igcancel without a subcommand is the same as 'igcancel cancel'.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	Args:    cobra.NoArgs,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			logLevel = "error"
		}
		if verbose && !cmd.Flags().Changed("log-level") {
			logLevel = "debug"
		}

		// Don't show logo for commands whose output is meant to be read by tools
		switch cmd.Name() {
		case "version", "help", "show", "list":
			return
		}
		if !quiet && !useTUI {
			ui.PrintLogo()
		}
	},
	RunE: runCancel,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	code := exitCode(err)
	if code == 1 {
		ui.PrintError("Error", err)
	}
	if code != 0 {
		os.Exit(code)
	}
}

// exitCode maps the outcome of a command to the process exit status
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errInterrupted):
		return exitInterrupted
	default:
		return 1
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.igcancel.yaml or ~/.config/igcancel/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&notifications, "notifications", false, "send a desktop notification when a run ends")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print every outcome and debug logs")

	rootCmd.SetVersionTemplate(`igcancel {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig loads configuration with the flags the user actually set and
// initializes the global logger from it.
func loadConfig(cmd *cobra.Command, flags map[string]interface{}) (*config.Config, error) {
	if flags == nil {
		flags = make(map[string]interface{})
	}
	if cmd.Flags().Changed("log-level") || quiet || verbose {
		flags["log-level"] = logLevel
	}
	if cmd.Flags().Changed("notifications") {
		flags["notifications"] = notifications
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}

	dir, err := storage.ResolveDir(cfg.Input.DataDir)
	if err != nil {
		return nil, err
	}
	cfg.Input.DataDir = dir

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}
