package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igcancel/pkg/config"
)

func newBufferLogger(buf *bytes.Buffer) *zerologLogger {
	return &zerologLogger{zl: zerolog.New(buf).Level(zerolog.DebugLevel)}
}

func TestNew(t *testing.T) {
	l, err := New(&config.LoggingConfig{Level: "debug"})
	require.NoError(t, err)
	assert.NotNil(t, l)

	_, err = New(&config.LoggingConfig{Level: "shouty"})
	assert.Error(t, err)
}

func TestNewWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "igcancel.log")

	l, err := New(&config.LoggingConfig{Level: "info", File: path})
	require.NoError(t, err)
	l.Info("written to file")

	assert.FileExists(t, path)
}

func TestNewWithoutConsole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "igcancel.log")

	l, err := New(&config.LoggingConfig{Level: "info", File: path, NoConsole: true})
	require.NoError(t, err)
	l.Info("file only")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "file only")
}

func TestNewWithSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "igcancel.log")
	var sink bytes.Buffer

	l, err := New(&config.LoggingConfig{Level: "info", File: path, NoConsole: true, Sink: &sink})
	require.NoError(t, err)
	l.WithField("username", "alice").Warn("to both")
	l.Debug("below level")

	assert.Contains(t, sink.String(), `"message":"to both"`)
	assert.Contains(t, sink.String(), `"username":"alice"`)
	assert.NotContains(t, sink.String(), "below level")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to both")
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"", zerolog.InfoLevel, false},
		{"WARN", zerolog.WarnLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"invalid", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestLoggerMethods(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf)

	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message")

	out := buf.String()
	assert.Contains(t, out, `"level":"debug","message":"debug message"`)
	assert.Contains(t, out, `"level":"info","message":"info message"`)
	assert.Contains(t, out, `"level":"warn","message":"warn message"`)
	assert.Contains(t, out, `"level":"error","message":"error message"`)
}

func TestWithFieldDoesNotLeakIntoParent(t *testing.T) {
	var buf bytes.Buffer
	parent := newBufferLogger(&buf)

	child := parent.WithField("identifier", "alice")
	child.Info("child")
	assert.Contains(t, buf.String(), `"identifier":"alice"`)

	buf.Reset()
	parent.Info("parent")
	assert.NotContains(t, buf.String(), "identifier")
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf)

	l.WithFields(map[string]interface{}{
		"position": 3,
		"dry_run":  true,
		"source":   "export.html",
	}).Info("progress")

	out := buf.String()
	assert.Contains(t, out, `"position":3`)
	assert.Contains(t, out, `"dry_run":true`)
	assert.Contains(t, out, `"source":"export.html"`)
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf)

	assert.Same(t, l, l.WithError(nil))

	l.WithError(errors.New("boom")).Error("failed")
	assert.Contains(t, buf.String(), `"error":"boom"`)
}

func TestLogWithFields(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf)

	l.InfoWithFields("checkpoint saved", map[string]interface{}{
		"success_count": 12,
		"failed":        []string{"bob"},
	})

	out := buf.String()
	assert.Contains(t, out, "checkpoint saved")
	assert.Contains(t, out, `"success_count":12`)
	assert.Contains(t, out, `"failed":["bob"]`)
}

func TestTestLogger(t *testing.T) {
	tl := NewTestLogger()

	tl.Info("starting")
	tl.WithField("identifier", "carol").WithError(errors.New("not found")).Warn("cancel failed")
	tl.ErrorWithFields("checkpoint failed", map[string]interface{}{"path": "p.json"})

	messages := tl.GetMessages()
	require.Len(t, messages, 3)
	assert.True(t, tl.HasMessage("starting"))
	assert.True(t, tl.HasError())

	warn := tl.GetMessagesByLevel("WARN")
	require.Len(t, warn, 1)
	assert.Equal(t, "carol", warn[0].Fields["identifier"])
	assert.EqualError(t, warn[0].Error, "not found")

	assert.Contains(t, tl.String(), "[ERROR] checkpoint failed")
}

func TestGlobalLogger(t *testing.T) {
	tl := NewTestLogger()
	SetLogger(tl)
	t.Cleanup(func() { SetLogger(nil) })

	Info("global info")
	WithField("k", "v").Info("with field")

	assert.Same(t, tl, GetLogger())
	assert.True(t, tl.HasMessage("global info"))
	assert.True(t, tl.HasMessage("with field"))
}
