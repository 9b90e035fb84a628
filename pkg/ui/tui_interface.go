package ui

import (
	"igcancel/pkg/batch"
	"igcancel/pkg/canceller"
)

// RunView shows a cancellation run as it happens. The line printer and the
// full screen dashboard both implement it.
type RunView interface {
	batch.Observer
	LogInfo(format string, args ...interface{})
	LogSuccess(format string, args ...interface{})
	LogWarning(format string, args ...interface{})
	LogError(format string, args ...interface{})
	Finish(summary *canceller.Summary, err error)
}
