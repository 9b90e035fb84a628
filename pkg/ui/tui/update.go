package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"igcancel/pkg/batch"
	"igcancel/pkg/canceller"
	"igcancel/pkg/checkpoint"
	errs "igcancel/pkg/errors"
)

// Message types for the TUI

// ItemStartedMsg is sent before an identifier is attempted
type ItemStartedMsg struct {
	Index      int
	Total      int
	Identifier string
}

// ItemFinishedMsg is sent with the outcome of one identifier
type ItemFinishedMsg struct {
	Index      int
	Identifier string
	Outcome    batch.Outcome
}

// BatchBreakMsg is sent when the runner pauses between batches
type BatchBreakMsg struct {
	After int
	Pause time.Duration
}

// CheckpointMsg carries the progress record just written
type CheckpointMsg struct {
	Progress *checkpoint.Progress
}

// LogMsg is sent to add a log message
type LogMsg struct {
	Level   string
	Message string
}

// DoneMsg is sent once the run has returned
type DoneMsg struct {
	Summary *canceller.Summary
	Err     error
}

// TickMsg is sent periodically to update the UI
type TickMsg time.Time

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		if m.state == StateBreak && !m.now().Before(m.breakUntil) {
			m.state = StateRunning
		}
		return m, tickCmd()

	case ItemStartedMsg:
		m.current = msg.Identifier
		if m.state == StateBreak {
			m.state = StateRunning
		}
		return m, nil

	case ItemFinishedMsg:
		m.processed++
		m.current = ""
		item := ResultItem{Identifier: msg.Identifier, Success: msg.Outcome.Success}
		if !msg.Outcome.Success {
			item.Reason = string(errs.TypeOf(msg.Outcome.Reason))
			m.AddLogMessage("WARN", fmt.Sprintf("@%s failed: %v", msg.Identifier, msg.Outcome.Reason))
		}
		m.addResult(item)
		return m, nil

	case BatchBreakMsg:
		if m.state == StateRunning {
			m.state = StateBreak
		}
		m.breakUntil = m.now().Add(msg.Pause)
		m.AddLogMessage("INFO", fmt.Sprintf("Batch break after %d, pausing %s", msg.After, msg.Pause))
		return m, nil

	case CheckpointMsg:
		if p := msg.Progress; p != nil {
			m.position = p.Position
			m.succeeded = p.SuccessCount
			m.failed = p.FailedCount()
			if p.Total > 0 {
				m.total = p.Total
			}
		}
		return m, nil

	case LogMsg:
		m.AddLogMessage(msg.Level, msg.Message)
		return m, nil

	case DoneMsg:
		return m.handleDone(msg)
	}

	return m, nil
}

func (m *Model) handleDone(msg DoneMsg) (tea.Model, tea.Cmd) {
	stopping := m.quitCalled
	m.state = StateDone
	m.current = ""
	m.summary = msg.Summary
	m.runErr = msg.Err

	switch {
	case msg.Err != nil:
		m.AddLogMessage("ERROR", "Run failed: "+msg.Err.Error())
	case msg.Summary != nil && msg.Summary.Interrupted:
		m.AddLogMessage("WARN", "Run interrupted, resume with --continue")
	default:
		m.AddLogMessage("SUCCESS", "All follow requests processed")
	}

	if stopping {
		return m, tea.Quit
	}
	return m, nil
}

// handleKeyPress handles keyboard input
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c", "esc":
		if m.state == StateDone {
			return m, tea.Quit
		}
		if m.quitCalled && msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		m.requestStop()
		return m, nil

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "ctrl+l":
		m.logs = nil
		return m, nil
	}

	return m, nil
}

// tickCmd returns a command that sends a tick message
func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*250, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
