package ui

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igcancel/pkg/canceller"
	"igcancel/pkg/config"
	"igcancel/pkg/logger"
)

// recordingView keeps the log lines a run view receives
type recordingView struct {
	*ProgressDisplay
	lines []string
}

func (v *recordingView) LogInfo(format string, args ...interface{}) {
	v.lines = append(v.lines, "info "+fmt.Sprintf(format, args...))
}

func (v *recordingView) LogSuccess(format string, args ...interface{}) {
	v.lines = append(v.lines, "success "+fmt.Sprintf(format, args...))
}

func (v *recordingView) LogWarning(format string, args ...interface{}) {
	v.lines = append(v.lines, "warn "+fmt.Sprintf(format, args...))
}

func (v *recordingView) LogError(format string, args ...interface{}) {
	v.lines = append(v.lines, "error "+fmt.Sprintf(format, args...))
}

func (v *recordingView) Finish(*canceller.Summary, error) {}

func TestLogForwarderRoutesByLevel(t *testing.T) {
	forwarder := NewLogForwarder(zerolog.WarnLevel)
	log, err := logger.New(&config.LoggingConfig{Level: "debug", NoConsole: true, Sink: forwarder})
	require.NoError(t, err)

	log.Warn("dropped before a view is attached")

	view := &recordingView{ProgressDisplay: NewProgressDisplay(nil, false)}
	forwarder.SetView(view)

	log.Info("below the forwarding level")
	log.WithField("username", "ghost").WithError(errors.New("not found")).Warn("Cancel failed")
	log.ErrorWithFields("Failed to write failed list", map[string]interface{}{"path": "/tmp/failed.txt"})

	require.Len(t, view.lines, 2)
	assert.Equal(t, "warn Cancel failed username=ghost error=not found", view.lines[0])
	assert.Equal(t, "error Failed to write failed list path=/tmp/failed.txt", view.lines[1])

	forwarder.SetView(nil)
	log.Error("detached")
	assert.Len(t, view.lines, 2)
}

func TestLogForwarderIgnoresMalformedRecords(t *testing.T) {
	forwarder := NewLogForwarder(zerolog.InfoLevel)
	view := &recordingView{ProgressDisplay: NewProgressDisplay(nil, false)}
	forwarder.SetView(view)

	n, err := forwarder.Write([]byte("not json"))
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	_, err = forwarder.Write([]byte(`{"level":"info","message":"ready"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"info ready"}, view.lines)
}
