package canceller

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"igcancel/pkg/batch"
	"igcancel/pkg/checkpoint"
	"igcancel/pkg/config"
	"igcancel/pkg/logger"
	"igcancel/pkg/pacing"
	"igcancel/pkg/storage"
)

var (
	// ErrNoIdentifiers is returned when there is nothing to plan
	ErrNoIdentifiers = errors.New("no identifiers to process")
	// ErrNothingToResume is returned when the progress file already covers the whole list
	ErrNothingToResume = errors.New("all identifiers were already processed")
)

// Service orchestrates a cancellation run
type Service struct {
	config      *config.Config
	action      batch.Action
	checkpoints *checkpoint.Manager
	observer    batch.Observer
	sleeper     pacing.Sleeper
	logger      logger.Logger
	newRunID    func() string
	dryRun      bool
}

// Option customises a Service
type Option func(*Service)

// WithObserver sets the observer notified of run events
func WithObserver(o batch.Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithSleeper replaces the timer based sleeper
func WithSleeper(sl pacing.Sleeper) Option {
	return func(s *Service) { s.sleeper = sl }
}

// WithLogger sets the service logger
func WithLogger(l logger.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithRunID overrides run id generation
func WithRunID(fn func() string) Option {
	return func(s *Service) { s.newRunID = fn }
}

// WithDryRun keeps the run away from the progress file and the failed list.
// It is implied when the action is a DryRunAction.
func WithDryRun() Option {
	return func(s *Service) { s.dryRun = true }
}

// New creates a Service for cfg that cancels through action
func New(cfg *config.Config, action batch.Action, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if action == nil {
		return nil, errors.New("action is required")
	}

	s := &Service{
		config:      cfg,
		action:      action,
		checkpoints: checkpoint.NewManager(cfg.ProgressPath()),
		logger:      logger.GetLogger(),
		newRunID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	switch action.(type) {
	case DryRunAction, *DryRunAction:
		s.dryRun = true
	}
	return s, nil
}

// SetObserver sets the observer for subsequent runs
func (s *Service) SetObserver(o batch.Observer) {
	s.observer = o
}

// DryRun reports whether runs leave persisted state untouched
func (s *Service) DryRun() bool {
	return s.dryRun
}

// Checkpoints returns the progress file manager
func (s *Service) Checkpoints() *checkpoint.Manager {
	return s.checkpoints
}

// Plan says where a run starts and what it carries over
type Plan struct {
	Identifiers []string
	StartOffset int
	Baseline    *checkpoint.Progress
	Source      string
	Resumed     bool
}

// Remaining returns how many identifiers the run will process
func (p *Plan) Remaining() int {
	return len(p.Identifiers) - p.StartOffset
}

// Plan builds a run over ids. With resume set, the stored progress decides the
// start offset; without a progress file the run starts at the beginning.
func (s *Service) Plan(ids []string, resume bool) (*Plan, error) {
	if len(ids) == 0 {
		return nil, ErrNoIdentifiers
	}
	plan := &Plan{Identifiers: ids}

	if !resume {
		if s.dryRun {
			return plan, nil
		}
		if s.checkpoints.Exists() {
			if err := s.checkpoints.Backup(); err != nil {
				s.logger.WithError(err).Warn("Could not back up previous progress")
			}
			s.logger.InfoWithFields("Starting over, previous progress will be replaced", map[string]interface{}{
				"backup": s.checkpoints.BackupPath(),
			})
		}
		return plan, nil
	}

	progress, err := s.checkpoints.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	if progress == nil {
		s.logger.Info("No saved progress found, starting from the beginning")
		return plan, nil
	}

	if progress.Total > 0 && progress.Total != len(ids) {
		s.logger.WarnWithFields("Identifier list changed since the saved run", map[string]interface{}{
			"saved_total":   progress.Total,
			"current_total": len(ids),
		})
	}
	if progress.Done(len(ids)) {
		return nil, fmt.Errorf("%w (position %d of %d)", ErrNothingToResume, progress.Position, len(ids))
	}

	plan.StartOffset = progress.Position
	plan.Baseline = progress
	plan.Resumed = true
	if progress.Source != "" {
		plan.Source = progress.Source
	}

	s.logger.InfoWithFields("Resuming from saved progress", map[string]interface{}{
		"position":      progress.Position,
		"success_count": progress.SuccessCount,
		"failed_count":  progress.FailedCount(),
		"remaining":     plan.Remaining(),
	})
	return plan, nil
}

// Summary reports a finished or interrupted run. Counts include any resumed
// baseline; Processed and Failures cover this invocation only.
type Summary struct {
	RunID             string
	Total             int
	Position          int
	Processed         int
	SuccessCount      int
	FailedIdentifiers []string
	Failures          []batch.Failure
	Elapsed           time.Duration
	Interrupted       bool

	// FailedPath is set when the failed list was written
	FailedPath string
}

// FailedCount returns the cumulative number of failures
func (s *Summary) FailedCount() int {
	return len(s.FailedIdentifiers)
}

// Execute runs plan. An interrupted run is not an error: the summary says so
// and the progress file is a valid resume point. The failed list is written
// whenever there are failures, interrupted or not.
func (s *Service) Execute(ctx context.Context, plan *Plan) (*Summary, error) {
	if plan == nil {
		return nil, errors.New("plan is required")
	}

	var checkpointer batch.Checkpointer = s.checkpoints
	if s.dryRun {
		// Records still flow to the observer through the runner; nothing is written.
		checkpointer = batch.CheckpointFunc(func(*checkpoint.Progress) error { return nil })
	}

	p := s.config.Pacing
	runner, err := batch.NewRunner(s.action, checkpointer, batch.Options{
		BatchSize:  p.BatchSize,
		ItemDelay:  pacing.FromBounds(p.Delay, p.DelayMin, p.DelayMax),
		BatchBreak: pacing.FromBounds(p.BatchBreak, p.BatchBreakMin, p.BatchBreakMax),
		Sleeper:    s.sleeper,
		Observer:   s.observer,
		Logger:     s.logger,
	})
	if err != nil {
		return nil, err
	}

	runID := s.newRunID()
	result, runErr := runner.Run(ctx, batch.Job{
		Identifiers: plan.Identifiers,
		StartOffset: plan.StartOffset,
		Baseline:    plan.Baseline,
		RunID:       runID,
		Source:      plan.Source,
	})
	if result == nil {
		return nil, runErr
	}

	summary := s.summarize(runID, plan, result)
	if runErr != nil && (errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded)) {
		summary.Interrupted = true
		runErr = nil
	}

	if !s.dryRun {
		if err := s.writeFailedList(summary); err != nil {
			runErr = errors.Join(runErr, err)
		}
	}

	s.logger.InfoWithFields("Run summary", map[string]interface{}{
		"run_id":      runID,
		"position":    summary.Position,
		"total":       summary.Total,
		"succeeded":   summary.SuccessCount,
		"failed":      summary.FailedCount(),
		"interrupted": summary.Interrupted,
		"dry_run":     s.dryRun,
		"elapsed":     summary.Elapsed,
	})
	return summary, runErr
}

// writeFailedList replaces the failed list with the cumulative failures, or
// removes a list left by an earlier run when there are none.
func (s *Service) writeFailedList(summary *Summary) error {
	path := s.config.FailedPath()
	if summary.FailedCount() == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.WithError(err).WarnWithFields("Could not remove stale failed list", map[string]interface{}{
				"path": path,
			})
			return fmt.Errorf("failed to remove stale failed list: %w", err)
		}
		return nil
	}

	if err := storage.WriteLines(path, summary.FailedIdentifiers); err != nil {
		s.logger.WithError(err).ErrorWithFields("Failed to write failed list", map[string]interface{}{
			"path": path,
		})
		return fmt.Errorf("failed to write failed list: %w", err)
	}
	summary.FailedPath = path
	return nil
}

func (s *Service) summarize(runID string, plan *Plan, result *batch.Result) *Summary {
	base := plan.Baseline
	if base == nil {
		base = &checkpoint.Progress{Position: plan.StartOffset}
	}

	failed := make([]string, 0, base.FailedCount()+len(result.FailedIdentifiers))
	failed = append(failed, base.FailedIdentifiers...)
	failed = append(failed, result.FailedIdentifiers...)

	position := base.Position + result.Processed
	total := len(plan.Identifiers) + base.Position - plan.StartOffset
	if result.Last != nil {
		position = result.Last.Position
		total = result.Last.Total
	}

	return &Summary{
		RunID:             runID,
		Total:             total,
		Position:          position,
		Processed:         result.Processed,
		SuccessCount:      base.SuccessCount + result.SuccessCount,
		FailedIdentifiers: failed,
		Failures:          result.Failures,
		Elapsed:           result.Elapsed,
	}
}
