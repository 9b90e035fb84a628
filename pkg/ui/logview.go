package ui

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// logViewFields are appended to forwarded messages when present
var logViewFields = []string{"username", "path", "error"}

// LogForwarder is a logger sink that replays records at or above a level on a
// RunView. Records written before a view is attached are dropped.
type LogForwarder struct {
	mu   sync.Mutex
	min  zerolog.Level
	view RunView
}

// NewLogForwarder creates a forwarder passing records at min and above
func NewLogForwarder(min zerolog.Level) *LogForwarder {
	return &LogForwarder{min: min}
}

// SetView attaches the view records are forwarded to. A nil view detaches.
func (f *LogForwarder) SetView(view RunView) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.view = view
}

// Write decodes one JSON record. It never fails so the other log outputs are
// not affected by a malformed or filtered record.
func (f *LogForwarder) Write(p []byte) (int, error) {
	f.mu.Lock()
	view := f.view
	f.mu.Unlock()
	if view == nil {
		return len(p), nil
	}

	var record map[string]interface{}
	if err := json.Unmarshal(p, &record); err != nil {
		return len(p), nil
	}

	levelName, _ := record[zerolog.LevelFieldName].(string)
	level, err := zerolog.ParseLevel(levelName)
	if err != nil || level < f.min {
		return len(p), nil
	}

	text := formatRecord(record)
	switch {
	case level >= zerolog.ErrorLevel:
		view.LogError("%s", text)
	case level == zerolog.WarnLevel:
		view.LogWarning("%s", text)
	default:
		view.LogInfo("%s", text)
	}
	return len(p), nil
}

func formatRecord(record map[string]interface{}) string {
	var b strings.Builder
	msg, _ := record[zerolog.MessageFieldName].(string)
	b.WriteString(msg)
	for _, key := range logViewFields {
		if value, ok := record[key]; ok {
			fmt.Fprintf(&b, " %s=%v", key, value)
		}
	}
	return b.String()
}
