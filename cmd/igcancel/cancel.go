package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"igcancel/pkg/auth"
	"igcancel/pkg/batch"
	"igcancel/pkg/canceller"
	"igcancel/pkg/config"
	errs "igcancel/pkg/errors"
	"igcancel/pkg/identifiers"
	"igcancel/pkg/instagram"
	"igcancel/pkg/logger"
	"igcancel/pkg/pacing"
	"igcancel/pkg/ui"
	"igcancel/pkg/ui/tui"
)

var (
	// Cancel command flags
	htmlFile      string
	usernamesFile string
	dataDir       string
	delay         time.Duration
	delayMin      time.Duration
	delayMax      time.Duration
	batchSize     int
	batchBreak    time.Duration
	resumeRun     bool
	accountName   string
	assumeYes     bool
	dryRun        bool
	useTUI        bool
)

// exitInterrupted is the conventional exit status after SIGINT
const exitInterrupted = 130

// errInterrupted ends a run that stopped on a signal with progress saved
var errInterrupted = errors.New("run interrupted")

// cancelCmd represents the cancel command
var cancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel every pending follow request in the export",
	Long: `Cancel pending follow requests listed in your Instagram data export.

Identifiers are read from, in order of preference:
  - --usernames-file, one username per line (e.g. a previous failed list)
  - --html, the pending_follow_requests.html (or .json) export
  - the first export found in the data directory

Credentials come from --account, the IGCANCEL_SESSION_ID and
IGCANCEL_CSRF_TOKEN environment variables, the config file, or the most
recently stored account ('igcancel auth login').

Press Ctrl+C to stop. Progress is saved after every account; run again with
--continue to pick up where you left off.`,
	Example: `  # Cancel everything in the export found in ./data
  igcancel

  # Use a specific export and a random 2-4s pause between requests
  igcancel cancel --html ~/Downloads/pending_follow_requests.html --delay-min 2s --delay-max 4s

  # Resume an interrupted run
  igcancel cancel --continue

  # Retry the accounts that failed last time
  igcancel cancel --usernames-file data/failed_cancellations.txt

  # See what would happen without touching Instagram
  igcancel cancel --dry-run --yes`,
	Args: cobra.NoArgs,
	RunE: runCancel,
}

func init() {
	rootCmd.AddCommand(cancelCmd)
	addCancelFlags(cancelCmd)
	addCancelFlags(rootCmd)
}

// addCancelFlags registers the cancel flags; the root command gets them too
// since it runs a cancel by default.
func addCancelFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&htmlFile, "html", "", "path to the pending follow requests export (.html or .json)")
	f.StringVar(&usernamesFile, "usernames-file", "", "text file with one username per line")
	f.StringVar(&dataDir, "data-dir", "", "directory for the export, progress and failed list (default ./data)")
	f.DurationVar(&delay, "delay", time.Second, "fixed pause between requests")
	f.DurationVar(&delayMin, "delay-min", 0, "lower bound of a random pause between requests")
	f.DurationVar(&delayMax, "delay-max", 0, "upper bound of a random pause between requests")
	f.IntVar(&batchSize, "batch-size", 50, "requests per batch")
	f.DurationVar(&batchBreak, "batch-break", 10*time.Second, "pause between batches")
	f.BoolVar(&resumeRun, "continue", false, "resume from the saved progress")
	f.StringVarP(&accountName, "account", "a", "", "use a specific stored account")
	f.BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation")
	f.BoolVar(&dryRun, "dry-run", false, "go through the list without contacting Instagram")
	f.BoolVar(&useTUI, "tui", false, "show a full screen dashboard")
}

// cancelFlags collects the flags the user set explicitly
func cancelFlags(cmd *cobra.Command) map[string]interface{} {
	f := cmd.Flags()
	flags := make(map[string]interface{})
	set := func(name string, value interface{}) {
		if f.Changed(name) {
			flags[name] = value
		}
	}
	set("html", htmlFile)
	set("usernames-file", usernamesFile)
	set("data-dir", dataDir)
	set("delay", delay)
	set("delay-min", delayMin)
	set("delay-max", delayMax)
	set("batch-size", batchSize)
	set("batch-break", batchBreak)
	return flags
}

func runCancel(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, cancelFlags(cmd))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	var forwarder *ui.LogForwarder
	if useTUI {
		forwarder = ui.NewLogForwarder(zerolog.WarnLevel)
		cfg.Logging.NoConsole = true
		cfg.Logging.Sink = forwarder
		if err := logger.Initialize(&cfg.Logging); err != nil {
			return err
		}
	}
	log := logger.GetLogger()

	ids, source, err := loadIdentifiers(cfg)
	if err != nil {
		return err
	}
	log.InfoWithFields("Identifiers loaded", map[string]interface{}{
		"source": source,
		"count":  len(ids),
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	action, err := buildAction(ctx, cfg, log)
	if err != nil {
		return err
	}

	svcOpts := []canceller.Option{canceller.WithLogger(log)}
	if dryRun {
		svcOpts = append(svcOpts, canceller.WithDryRun())
	}
	svc, err := canceller.New(cfg, action, svcOpts...)
	if err != nil {
		return err
	}

	plan, err := svc.Plan(ids, resumeRun)
	if errors.Is(err, canceller.ErrNothingToResume) {
		ui.PrintSuccess("Nothing left to do: every identifier in the list was already processed.")
		fmt.Println("Run 'igcancel progress reset' to start over.")
		return nil
	}
	if err != nil {
		return err
	}
	if plan.Source == "" {
		plan.Source = source
	}

	if !quiet {
		printPlan(cfg, plan)
	}
	if !assumeYes {
		question := fmt.Sprintf("Cancel %d pending follow requests?", plan.Remaining())
		if dryRun {
			question = fmt.Sprintf("Dry run over %d identifiers?", plan.Remaining())
		}
		ok, err := ui.ConfirmStdin(question)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Cancelled by user.")
			return nil
		}
	}

	var summary *canceller.Summary
	if useTUI {
		summary, err = runWithDashboard(ctx, svc, plan, forwarder)
	} else {
		summary, err = runWithProgress(ctx, svc, plan)
	}

	notify(cfg, summary, err)
	if err != nil {
		return err
	}
	if summary.Interrupted {
		return errInterrupted
	}
	return nil
}

// loadIdentifiers picks the identifier source from configuration
func loadIdentifiers(cfg *config.Config) ([]string, string, error) {
	var path string
	var load func(string) ([]string, error)

	switch {
	case cfg.Input.UsernamesFile != "":
		path, load = cfg.Input.UsernamesFile, identifiers.LoadList
	case cfg.Input.HTMLFile != "":
		path, load = cfg.Input.HTMLFile, identifiers.LoadFile
	default:
		found, err := identifiers.Discover(cfg.Input.DataDir)
		if err != nil {
			return nil, "", fmt.Errorf("%w; pass --html or put pending_follow_requests.html in %s", err, cfg.Input.DataDir)
		}
		path, load = found, identifiers.LoadFile
	}

	ids, err := load(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read identifiers from %s: %w", path, err)
	}
	if len(ids) == 0 {
		return nil, "", fmt.Errorf("no pending follow requests found in %s", path)
	}
	return ids, path, nil
}

// buildAction returns the dry run action or an API action on a verified session
func buildAction(ctx context.Context, cfg *config.Config, log logger.Logger) (batch.Action, error) {
	if dryRun {
		return canceller.DryRunAction{Logger: log}, nil
	}

	account, err := resolveAccount(cfg)
	if err != nil {
		return nil, err
	}

	client := instagram.NewClient(instagram.Options{
		SessionID:         account.SessionID,
		CSRFToken:         account.CSRFToken,
		UserAgent:         account.UserAgent,
		AppID:             cfg.Instagram.AppID,
		Timeout:           cfg.RateLimit.RequestTimeout,
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Burst:             cfg.RateLimit.BurstSize,
	}, log)

	verifyCtx, cancel := context.WithTimeout(ctx, cfg.RateLimit.RequestTimeout)
	defer cancel()
	username, err := client.VerifySession(verifyCtx)
	if err != nil {
		if errs.TypeOf(err) == errs.ErrorTypeAuth {
			return nil, fmt.Errorf("instagram rejected the session, run 'igcancel auth login' again: %w", err)
		}
		return nil, fmt.Errorf("failed to verify session: %w", err)
	}
	if !quiet && !useTUI {
		ui.PrintInfo("Logged in as", username)
	}

	return canceller.NewAPIAction(client, log), nil
}

// resolveAccount finds the session cookies to use
func resolveAccount(cfg *config.Config) (*auth.Account, error) {
	if accountName == "" && cfg.Instagram.SessionID != "" {
		logger.Info("Using credentials from configuration")
		return &auth.Account{
			Username:  "config",
			SessionID: cfg.Instagram.SessionID,
			CSRFToken: cfg.Instagram.CSRFToken,
			UserAgent: cfg.Instagram.UserAgent,
		}, nil
	}

	dir, err := auth.ConfigDir()
	if err != nil {
		return nil, err
	}
	manager, err := auth.NewManager(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	account, err := manager.Resolve(accountName)
	if errors.Is(err, auth.ErrCredentialsNotFound) {
		if accountName != "" {
			return nil, fmt.Errorf("account %q not found, see 'igcancel auth list'", accountName)
		}
		return nil, errors.New("no Instagram credentials found, run 'igcancel auth login' or set IGCANCEL_SESSION_ID and IGCANCEL_CSRF_TOKEN")
	}
	if err != nil {
		return nil, err
	}
	if account.UserAgent == "" {
		account.UserAgent = cfg.Instagram.UserAgent
	}

	logger.WithField("account", account.Username).Info("Using stored credentials")
	return account, nil
}

func printPlan(cfg *config.Config, plan *canceller.Plan) {
	p := cfg.Pacing
	itemDelay := pacing.FromBounds(p.Delay, p.DelayMin, p.DelayMax)
	breakDelay := pacing.FromBounds(p.BatchBreak, p.BatchBreakMin, p.BatchBreakMax)

	ui.PrintInfo("Source", plan.Source)
	ui.PrintInfo("Pending requests", fmt.Sprint(len(plan.Identifiers)))
	if plan.Resumed {
		ui.PrintInfo("Resuming at", fmt.Sprintf("%d (%d cancelled, %d failed so far)",
			plan.StartOffset, plan.Baseline.SuccessCount, plan.Baseline.FailedCount()))
	}
	ui.PrintInfo("Pacing", fmt.Sprintf("%s between requests, %s every %d",
		pacing.Describe(itemDelay), pacing.Describe(breakDelay), p.BatchSize))
	if dryRun {
		ui.PrintWarning("Dry run: no requests will be sent")
	}
	fmt.Println()
}

func runWithProgress(ctx context.Context, svc *canceller.Service, plan *canceller.Plan) (*canceller.Summary, error) {
	display := ui.NewProgressDisplay(os.Stdout, verbose)
	if plan.Baseline != nil {
		display.Begin(len(plan.Identifiers), plan.StartOffset, plan.Baseline.SuccessCount, plan.Baseline.FailedCount())
	} else {
		display.Begin(len(plan.Identifiers), plan.StartOffset, 0, 0)
	}

	svc.SetObserver(display)
	summary, err := svc.Execute(ctx, plan)
	if !quiet || err != nil {
		display.Finish(summary, err)
	}
	if !quiet {
		logRetryHint(display, summary)
	}
	return summary, err
}

// logRetryHint tells the user how to retry the failures of a finished run
func logRetryHint(view ui.RunView, summary *canceller.Summary) {
	if summary == nil || summary.FailedPath == "" {
		return
	}
	view.LogInfo("Retry the failures with: igcancel cancel --usernames-file %s", summary.FailedPath)
}

func runWithDashboard(ctx context.Context, svc *canceller.Service, plan *canceller.Plan, forwarder *ui.LogForwarder) (*canceller.Summary, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := tui.Options{
		Total:    len(plan.Identifiers),
		Position: plan.StartOffset,
		DryRun:   dryRun,
		OnQuit:   cancel,
	}
	if plan.Baseline != nil {
		opts.SuccessCount = plan.Baseline.SuccessCount
		opts.FailedCount = plan.Baseline.FailedCount()
	}
	dashboard := tui.NewTUI(opts)
	svc.SetObserver(dashboard)
	if forwarder != nil {
		forwarder.SetView(dashboard)
	}

	type outcome struct {
		summary *canceller.Summary
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		if plan.Resumed {
			dashboard.LogInfo("Resuming at %d of %d", plan.StartOffset, len(plan.Identifiers))
		}
		summary, err := svc.Execute(runCtx, plan)
		logRetryHint(dashboard, summary)
		dashboard.Finish(summary, err)
		done <- outcome{summary, err}
	}()

	err := dashboard.Start()
	if forwarder != nil {
		forwarder.SetView(nil)
	}
	if err != nil {
		logger.WithError(err).Error("Dashboard failed")
		cancel()
	}
	res := <-done

	// The dashboard has left the alternate screen; keep a record in the scrollback.
	scrollback := ui.NewProgressDisplay(os.Stdout, false)
	scrollback.Finish(res.summary, res.err)
	logRetryHint(scrollback, res.summary)
	return res.summary, res.err
}

func notify(cfg *config.Config, summary *canceller.Summary, err error) {
	if !cfg.Notifications.Enabled {
		return
	}
	notifier := ui.NewNotifier(true)

	switch {
	case err != nil:
		if cfg.Notifications.OnError {
			notifier.SendError("igcancel stopped", err.Error())
		}
	case summary != nil && summary.Interrupted:
		if cfg.Notifications.OnError {
			notifier.SendNotification("igcancel paused",
				fmt.Sprintf("%d of %d processed, resume with --continue", summary.Position, summary.Total))
		}
	case summary != nil:
		if cfg.Notifications.OnComplete {
			notifier.SendSuccess("igcancel finished",
				fmt.Sprintf("%d cancelled, %d failed", summary.SuccessCount, summary.FailedCount()))
		}
	}
}
