package tui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igcancel/pkg/batch"
	"igcancel/pkg/canceller"
	"igcancel/pkg/checkpoint"
	errs "igcancel/pkg/errors"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestModel(opts Options) (*Model, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := NewModel(opts)
	m.now = clock.now
	m.startTime = clock.t
	return m, clock
}

func TestModelFollowsRun(t *testing.T) {
	m, clock := newTestModel(Options{Total: 4})

	m.Update(ItemStartedMsg{Index: 0, Total: 4, Identifier: "alice"})
	assert.Equal(t, "alice", m.current)

	clock.t = clock.t.Add(2 * time.Second)
	m.Update(ItemFinishedMsg{Index: 0, Identifier: "alice", Outcome: batch.Succeeded()})
	m.Update(CheckpointMsg{Progress: &checkpoint.Progress{Position: 1, SuccessCount: 1, Total: 4}})

	m.Update(ItemStartedMsg{Index: 1, Total: 4, Identifier: "ghost"})
	m.Update(ItemFinishedMsg{Index: 1, Identifier: "ghost", Outcome: batch.Failed(errs.ReasonNotFound)})
	m.Update(CheckpointMsg{Progress: &checkpoint.Progress{
		Position: 2, SuccessCount: 1, FailedIdentifiers: []string{"ghost"}, Total: 4,
	}})

	position, succeeded, failed := m.Counts()
	assert.Equal(t, 2, position)
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, failed)
	assert.InDelta(t, 0.5, m.Percent(), 0.001)
	assert.Equal(t, 2*time.Second, m.ETA())

	require.Len(t, m.recent, 2)
	assert.Equal(t, "not_found", m.recent[1].Reason)
	require.Len(t, m.logs, 1)
	assert.Equal(t, "WARN", m.logs[0].Level)
}

func TestModelBatchBreak(t *testing.T) {
	m, clock := newTestModel(Options{Total: 10})

	m.Update(BatchBreakMsg{After: 5, Pause: 10 * time.Second})
	assert.Equal(t, StateBreak, m.State())

	clock.t = clock.t.Add(5 * time.Second)
	m.Update(TickMsg(clock.t))
	assert.Equal(t, StateBreak, m.State())

	clock.t = clock.t.Add(5 * time.Second)
	m.Update(TickMsg(clock.t))
	assert.Equal(t, StateRunning, m.State())

	m.Update(BatchBreakMsg{After: 10, Pause: time.Minute})
	m.Update(ItemStartedMsg{Identifier: "next"})
	assert.Equal(t, StateRunning, m.State())
}

func TestModelResumedCounts(t *testing.T) {
	m, _ := newTestModel(Options{Total: 10, Position: 4, SuccessCount: 3, FailedCount: 1})

	position, succeeded, failed := m.Counts()
	assert.Equal(t, 4, position)
	assert.Equal(t, 3, succeeded)
	assert.Equal(t, 1, failed)
	assert.Zero(t, m.ETA(), "no estimate before this run processed anything")
}

func TestQuitWhileRunningStopsRun(t *testing.T) {
	stops := 0
	m, _ := newTestModel(Options{Total: 3, OnQuit: func() { stops++ }})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.Nil(t, cmd, "the program keeps running until the run returns")
	assert.Equal(t, StateStopping, m.State())
	assert.Equal(t, 1, stops)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.Equal(t, 1, stops, "stop is requested once")

	_, cmd = m.Update(DoneMsg{Summary: &canceller.Summary{Interrupted: true, Position: 1, Total: 3}})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, StateDone, m.State())
}

func TestQuitAfterDone(t *testing.T) {
	stops := 0
	m, _ := newTestModel(Options{Total: 1, OnQuit: func() { stops++ }})

	_, cmd := m.Update(DoneMsg{Summary: &canceller.Summary{Position: 1, Total: 1, SuccessCount: 1}})
	assert.Nil(t, cmd, "a finished run stays on screen")
	assert.Equal(t, "SUCCESS", m.logs[len(m.logs)-1].Level)

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Zero(t, stops)
}

func TestDoneWithError(t *testing.T) {
	m, _ := newTestModel(Options{Total: 2})
	m.Update(DoneMsg{Err: errors.New("checkpoint write failed")})

	assert.Equal(t, StateDone, m.State())
	assert.Equal(t, "ERROR", m.logs[len(m.logs)-1].Level)
}

func TestLogTrimming(t *testing.T) {
	m, _ := newTestModel(Options{})
	for i := 0; i < 60; i++ {
		m.Update(LogMsg{Level: "INFO", Message: "line"})
	}
	assert.Len(t, m.logs, 50)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	assert.Empty(t, m.logs)
}

func TestView(t *testing.T) {
	m, _ := newTestModel(Options{Total: 2, DryRun: true})
	assert.Equal(t, "Initializing...", m.View())

	m.Update(tea.WindowSizeMsg{Width: 140, Height: 50})
	m.Update(ItemStartedMsg{Identifier: "alice"})

	view := m.View()
	assert.Contains(t, view, "DRY RUN")
	assert.Contains(t, view, "@alice")
	assert.Contains(t, view, "0/2")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "00:42", formatDuration(42*time.Second))
	assert.Equal(t, "01:02:03", formatDuration(time.Hour+2*time.Minute+3*time.Second))
	assert.Equal(t, "00:00", formatDuration(-time.Second))
}

func TestRunStateString(t *testing.T) {
	assert.Equal(t, "batch break", StateBreak.String())
	assert.Equal(t, "unknown", RunState(42).String())
}
