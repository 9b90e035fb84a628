package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"igcancel/pkg/batch"
	"igcancel/pkg/canceller"
	"igcancel/pkg/checkpoint"
	"igcancel/pkg/ui"
)

// TUI runs the dashboard and forwards run events to it. Its observer
// methods may be called from the runner goroutine.
type TUI struct {
	program *tea.Program
	model   *Model
}

var _ ui.RunView = (*TUI)(nil)

// NewTUI creates a full screen dashboard
func NewTUI(opts Options, programOpts ...tea.ProgramOption) *TUI {
	model := NewModel(opts)
	if len(programOpts) == 0 {
		programOpts = []tea.ProgramOption{tea.WithAltScreen()}
	}
	return &TUI{
		program: tea.NewProgram(model, programOpts...),
		model:   model,
	}
}

// Start runs the event loop until the user quits
func (t *TUI) Start() error {
	_, err := t.program.Run()
	return err
}

// Stop stops the TUI
func (t *TUI) Stop() {
	t.program.Quit()
}

// Send sends a message to the TUI
func (t *TUI) Send(msg tea.Msg) {
	if t.program != nil {
		t.program.Send(msg)
	}
}

func (t *TUI) ItemStarted(index, total int, identifier string) {
	t.Send(ItemStartedMsg{Index: index, Total: total, Identifier: identifier})
}

func (t *TUI) ItemFinished(index, total int, identifier string, outcome batch.Outcome) {
	t.Send(ItemFinishedMsg{Index: index, Identifier: identifier, Outcome: outcome})
}

func (t *TUI) BatchBreak(afterIndex int, pause time.Duration) {
	t.Send(BatchBreakMsg{After: afterIndex, Pause: pause})
}

func (t *TUI) Checkpointed(progress *checkpoint.Progress) {
	t.Send(CheckpointMsg{Progress: progress})
}

// Finish reports the end of the run
func (t *TUI) Finish(summary *canceller.Summary, err error) {
	t.Send(DoneMsg{Summary: summary, Err: err})
}

// Log sends a log message to the TUI
func (t *TUI) Log(level, format string, args ...interface{}) {
	t.Send(LogMsg{Level: level, Message: fmt.Sprintf(format, args...)})
}

// LogInfo logs an info message
func (t *TUI) LogInfo(format string, args ...interface{}) {
	t.Log("INFO", format, args...)
}

// LogSuccess logs a success message
func (t *TUI) LogSuccess(format string, args ...interface{}) {
	t.Log("SUCCESS", format, args...)
}

// LogWarning logs a warning message
func (t *TUI) LogWarning(format string, args ...interface{}) {
	t.Log("WARN", format, args...)
}

// LogError logs an error message
func (t *TUI) LogError(format string, args ...interface{}) {
	t.Log("ERROR", format, args...)
}
