package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"igcancel/pkg/checkpoint"
	errs "igcancel/pkg/errors"
	"igcancel/pkg/logger"
	"igcancel/pkg/pacing"
)

var (
	// ErrInvalidBatchSize is returned when BatchSize is not positive
	ErrInvalidBatchSize = errors.New("batch size must be positive")
	// ErrInvalidOffset is returned when StartOffset is outside the list
	ErrInvalidOffset = errors.New("start offset out of range")
)

// Options configure a Runner
type Options struct {
	BatchSize  int
	ItemDelay  pacing.Policy
	BatchBreak pacing.Policy
	Sleeper    pacing.Sleeper
	Observer   Observer
	Logger     logger.Logger
	Now        func() time.Time
}

// Job is one invocation of the runner
type Job struct {
	Identifiers []string
	StartOffset int

	// Baseline is the progress record of an earlier run being resumed.
	// Its counts are folded into every checkpoint written by this job.
	Baseline *checkpoint.Progress

	RunID  string
	Source string
}

// Failure is one failed identifier and why it failed
type Failure struct {
	Identifier string
	Reason     error
}

// Result covers only the identifiers processed by this invocation
type Result struct {
	SuccessCount      int
	FailedIdentifiers []string
	Failures          []Failure
	Processed         int
	Elapsed           time.Duration

	// Last is the most recent checkpoint written, nil if none was
	Last *checkpoint.Progress
}

// Runner processes identifiers sequentially with pacing and checkpoints
type Runner struct {
	action       Action
	checkpointer Checkpointer
	opts         Options
}

// NewRunner validates the options and fills in defaults
func NewRunner(action Action, checkpointer Checkpointer, opts Options) (*Runner, error) {
	if action == nil {
		return nil, errors.New("action is required")
	}
	if checkpointer == nil {
		return nil, errors.New("checkpointer is required")
	}
	if opts.BatchSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBatchSize, opts.BatchSize)
	}
	if opts.ItemDelay == nil {
		opts.ItemDelay = pacing.Fixed{}
	}
	if opts.BatchBreak == nil {
		opts.BatchBreak = pacing.Fixed{}
	}
	if opts.Sleeper == nil {
		opts.Sleeper = pacing.TimerSleeper{}
	}
	if opts.Observer == nil {
		opts.Observer = NopObserver{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Runner{action: action, checkpointer: checkpointer, opts: opts}, nil
}

// Run processes job.Identifiers from job.StartOffset to the end.
//
// When ctx is cancelled the partial result is returned together with
// ctx.Err(); the last written checkpoint is a valid resume point. A checkpoint
// write failure ends the run with an error.
func (r *Runner) Run(ctx context.Context, job Job) (*Result, error) {
	ids := job.Identifiers
	if job.StartOffset < 0 || job.StartOffset > len(ids) {
		return nil, fmt.Errorf("%w: %d not in [0, %d]", ErrInvalidOffset, job.StartOffset, len(ids))
	}

	base := job.Baseline
	if base == nil {
		base = &checkpoint.Progress{}
	}
	total := len(ids)
	positionShift := 0
	if job.Baseline != nil {
		positionShift = base.Position - job.StartOffset
		total += positionShift
	}

	log := r.opts.Logger.WithFields(map[string]interface{}{
		"run_id": job.RunID,
		"batch":  r.opts.BatchSize,
	})
	log.InfoWithFields("Batch run started", map[string]interface{}{
		"identifiers": len(ids),
		"offset":      job.StartOffset,
		"remaining":   len(ids) - job.StartOffset,
	})

	started := r.opts.Now()
	result := &Result{FailedIdentifiers: []string{}}
	finish := func(err error) (*Result, error) {
		result.Elapsed = r.opts.Now().Sub(started)
		return result, err
	}

	last := len(ids) - 1
	for i := job.StartOffset; i < len(ids); i++ {
		if err := ctx.Err(); err != nil {
			log.WarnWithFields("Batch run interrupted", map[string]interface{}{"next_index": i})
			return finish(err)
		}

		id := ids[i]
		r.opts.Observer.ItemStarted(i, len(ids), id)

		outcome := r.invoke(ctx, log, id)
		if !outcome.Success && ctx.Err() != nil {
			// The action was cut short; leave the item for the next run.
			log.WarnWithFields("Batch run interrupted during action", map[string]interface{}{
				"identifier": id,
			})
			return finish(ctx.Err())
		}

		result.Processed++
		if outcome.Success {
			result.SuccessCount++
		} else {
			result.FailedIdentifiers = append(result.FailedIdentifiers, id)
			result.Failures = append(result.Failures, Failure{Identifier: id, Reason: outcome.Reason})
		}
		r.opts.Observer.ItemFinished(i, len(ids), id, outcome)

		progress := &checkpoint.Progress{
			Position:          positionShift + i + 1,
			SuccessCount:      base.SuccessCount + result.SuccessCount,
			FailedIdentifiers: concat(base.FailedIdentifiers, result.FailedIdentifiers),
			Timestamp:         checkpoint.Timestamp{Time: r.opts.Now()},
			RunID:             job.RunID,
			Total:             total,
			Source:            job.Source,
		}
		if err := r.checkpointer.Save(progress); err != nil {
			log.WithError(err).ErrorWithFields("Checkpoint write failed", map[string]interface{}{
				"position": progress.Position,
			})
			return finish(fmt.Errorf("checkpoint after %q: %w", id, err))
		}
		result.Last = progress
		r.opts.Observer.Checkpointed(progress.Clone())

		if i == last {
			break
		}

		if err := r.opts.Sleeper.Sleep(ctx, r.opts.ItemDelay.Next()); err != nil {
			return finish(r.sleepErr(ctx, err))
		}

		if (i+1)%r.opts.BatchSize == 0 {
			pause := r.opts.BatchBreak.Next()
			log.InfoWithFields("Batch break", map[string]interface{}{
				"after": i + 1,
				"pause": pause,
			})
			r.opts.Observer.BatchBreak(i+1, pause)
			if err := r.opts.Sleeper.Sleep(ctx, pause); err != nil {
				return finish(r.sleepErr(ctx, err))
			}
		}
	}

	log.InfoWithFields("Batch run finished", map[string]interface{}{
		"processed": result.Processed,
		"succeeded": result.SuccessCount,
		"failed":    len(result.FailedIdentifiers),
	})
	return finish(nil)
}

// invoke calls the action, converting a panic into a failed outcome
func (r *Runner) invoke(ctx context.Context, log logger.Logger, id string) (outcome Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			reason := errs.Internal(rec)
			log.WithError(reason).ErrorWithFields("Cancel action panicked", map[string]interface{}{
				"identifier": id,
			})
			outcome = Failed(reason)
		}
	}()

	outcome = r.action.Cancel(ctx, id)
	if !outcome.Success && outcome.Reason == nil {
		outcome.Reason = errs.ReasonUnknown
	}
	return outcome
}

func (r *Runner) sleepErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("pacing sleep: %w", err)
}

func concat(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
