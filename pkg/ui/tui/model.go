package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"igcancel/pkg/canceller"
)

// RunState is where the dashboard thinks the run is
type RunState int

const (
	StateRunning RunState = iota
	StateBreak
	StateStopping
	StateDone
)

func (s RunState) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateBreak:
		return "batch break"
	case StateStopping:
		return "stopping"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// ResultItem is one finished identifier shown in the recent list
type ResultItem struct {
	Identifier string
	Success    bool
	Reason     string
}

// LogMessage represents a log entry
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
	Color   lipgloss.Color
}

// Options seed the dashboard, typically from a resumed progress record
type Options struct {
	Total        int
	Position     int
	SuccessCount int
	FailedCount  int
	DryRun       bool

	// OnQuit is called once when the user asks to stop a running run
	OnQuit func()
}

// Model is the bubbletea model of the dashboard. It is only touched from
// the bubbletea event loop.
type Model struct {
	spinner spinner.Model
	bar     progress.Model

	total     int
	position  int
	succeeded int
	failed    int
	processed int
	current   string
	dryRun    bool

	state      RunState
	breakUntil time.Time
	startTime  time.Time
	now        func() time.Time

	recent     []ResultItem
	maxRecent  int
	logs       []LogMessage
	maxLogs    int
	summary    *canceller.Summary
	runErr     error
	onQuit     func()
	quitCalled bool

	width    int
	height   int
	showHelp bool
}

// NewModel creates a new dashboard model
func NewModel(opts Options) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(neonCyan)

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40

	return &Model{
		spinner:   s,
		bar:       bar,
		total:     opts.Total,
		position:  opts.Position,
		succeeded: opts.SuccessCount,
		failed:    opts.FailedCount,
		dryRun:    opts.DryRun,
		onQuit:    opts.OnQuit,
		state:     StateRunning,
		startTime: time.Now(),
		now:       time.Now,
		maxRecent: 10,
		maxLogs:   50,
	}
}

// Init starts the spinner and the refresh tick
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// State returns the current run state
func (m *Model) State() RunState {
	return m.state
}

// Counts returns the cumulative position, successes and failures
func (m *Model) Counts() (position, succeeded, failed int) {
	return m.position, m.succeeded, m.failed
}

// Percent returns the completed fraction in [0, 1]
func (m *Model) Percent() float64 {
	if m.total <= 0 {
		return 0
	}
	p := float64(m.position) / float64(m.total)
	if p > 1 {
		return 1
	}
	return p
}

// ETA estimates the time left from this run's average pace
func (m *Model) ETA() time.Duration {
	remaining := m.total - m.position
	if m.processed == 0 || remaining <= 0 {
		return 0
	}
	elapsed := m.now().Sub(m.startTime)
	return elapsed / time.Duration(m.processed) * time.Duration(remaining)
}

// addResult appends to the recent list, keeping the newest entries
func (m *Model) addResult(item ResultItem) {
	m.recent = append(m.recent, item)
	if len(m.recent) > m.maxRecent {
		m.recent = m.recent[len(m.recent)-m.maxRecent:]
	}
}

// AddLogMessage adds a log message
func (m *Model) AddLogMessage(level, message string) {
	m.logs = append(m.logs, LogMessage{
		Time:    m.now(),
		Level:   level,
		Message: message,
		Color:   levelColor(level),
	})

	// Keep only the last N messages
	if len(m.logs) > m.maxLogs {
		m.logs = m.logs[len(m.logs)-m.maxLogs:]
	}
}

// requestStop asks the run to stop, at most once
func (m *Model) requestStop() {
	if m.quitCalled {
		return
	}
	m.quitCalled = true
	m.state = StateStopping
	m.AddLogMessage("WARN", "Stopping after the current request, progress is saved")
	if m.onQuit != nil {
		m.onQuit()
	}
}
