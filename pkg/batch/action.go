package batch

import (
	"context"
	"time"

	"igcancel/pkg/checkpoint"
)

// Outcome is the result of one cancel attempt
type Outcome struct {
	Success bool
	Reason  error
}

// Succeeded returns a successful outcome
func Succeeded() Outcome {
	return Outcome{Success: true}
}

// Failed returns a failed outcome with the given reason
func Failed(reason error) Outcome {
	return Outcome{Reason: reason}
}

// Action cancels the pending request for one identifier. Implementations
// report failure through the Outcome rather than by panicking.
type Action interface {
	Cancel(ctx context.Context, identifier string) Outcome
}

// ActionFunc adapts a function to Action
type ActionFunc func(ctx context.Context, identifier string) Outcome

// Cancel calls f
func (f ActionFunc) Cancel(ctx context.Context, identifier string) Outcome {
	return f(ctx, identifier)
}

// Checkpointer persists a progress record. The record must not be retained.
type Checkpointer interface {
	Save(progress *checkpoint.Progress) error
}

// CheckpointFunc adapts a function to Checkpointer
type CheckpointFunc func(progress *checkpoint.Progress) error

// Save calls f
func (f CheckpointFunc) Save(progress *checkpoint.Progress) error {
	return f(progress)
}

// Observer receives run events. Calls happen on the runner's goroutine.
type Observer interface {
	ItemStarted(index, total int, identifier string)
	ItemFinished(index, total int, identifier string, outcome Outcome)
	BatchBreak(afterIndex int, pause time.Duration)
	Checkpointed(progress *checkpoint.Progress)
}

// NopObserver ignores all events
type NopObserver struct{}

func (NopObserver) ItemStarted(int, int, string)           {}
func (NopObserver) ItemFinished(int, int, string, Outcome) {}
func (NopObserver) BatchBreak(int, time.Duration)          {}
func (NopObserver) Checkpointed(*checkpoint.Progress)      {}

// Observers fans events out to several observers in order
type Observers []Observer

func (o Observers) ItemStarted(index, total int, identifier string) {
	for _, obs := range o {
		obs.ItemStarted(index, total, identifier)
	}
}

func (o Observers) ItemFinished(index, total int, identifier string, outcome Outcome) {
	for _, obs := range o {
		obs.ItemFinished(index, total, identifier, outcome)
	}
}

func (o Observers) BatchBreak(afterIndex int, pause time.Duration) {
	for _, obs := range o {
		obs.BatchBreak(afterIndex, pause)
	}
}

func (o Observers) Checkpointed(progress *checkpoint.Progress) {
	for _, obs := range o {
		obs.Checkpointed(progress)
	}
}
