// Package logger provides the structured logging interface used by igcancel.
//
// It wraps zerolog with:
//   - levelled logging (Debug, Info, Warn, Error)
//   - structured fields and derived loggers
//   - coloured console output on stderr, optionally mirrored to a file
//   - a global logger for packages that are not handed one explicitly
//   - an in-memory TestLogger and a no-op logger for tests
//
// Basic usage:
//
//	err := logger.Initialize(&config.LoggingConfig{Level: "info"})
//
//	logger.Info("Run started")
//	logger.WithField("identifier", "some_user").Info("Follow request cancelled")
//	logger.WithError(err).Error("Checkpoint write failed")
//
// Passing a logger around:
//
//	log := logger.GetLogger().WithField("run_id", runID)
//	log.InfoWithFields("Batch break", map[string]interface{}{
//	    "after": 50,
//	    "pause": 10 * time.Second,
//	})
package logger
