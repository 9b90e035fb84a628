package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const logo = `╦╔═╗╔═╗╔═╗╔╗╔╔═╗╔═╗╦
║║ ╦║  ╠═╣║║║║  ║╣ ║
╩╚═╝╚═╝╩ ╩╝╚╝╚═╝╚═╝╩═╝`

// View renders the entire TUI
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var sections []string
	sections = append(sections, logoStyle.Width(m.width).Render(logo))

	width := (m.width - 4) / 2
	leftColumn := lipgloss.JoinVertical(lipgloss.Left,
		m.renderStatsPanel(width),
		m.renderCurrentPanel(width),
	)
	rightColumn := lipgloss.JoinVertical(lipgloss.Left,
		m.renderRecentPanel(width),
		m.renderLogsPanel(width),
	)
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, leftColumn, "  ", rightColumn))

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else {
		sections = append(sections, helpStyle.Render(m.footer()))
	}

	return baseStyle.Width(m.width).Height(m.height).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...),
	)
}

func (m *Model) footer() string {
	switch m.state {
	case StateDone:
		return "Press q to exit • ? for help"
	case StateStopping:
		return "Stopping... ctrl+c again to leave immediately"
	default:
		return "Press q to stop • ? for help"
	}
}

// renderStatsPanel renders the counters and the overall progress bar
func (m *Model) renderStatsPanel(width int) string {
	title := titleStyle.Render(" RUN ")
	if m.dryRun {
		title = titleStyle.Render(" RUN (DRY RUN) ")
	}

	m.bar.Width = width - 8
	if m.bar.Width < 10 {
		m.bar.Width = 10
	}

	elapsed := m.now().Sub(m.startTime)
	stats := []string{
		m.renderState(),
		m.bar.ViewAs(m.Percent()),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Processed:"), statsValueStyle.Render(fmt.Sprintf("%d/%d", m.position, m.total))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Cancelled:"), successStyle.Render(fmt.Sprint(m.succeeded))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Failed:"), errorStyle.Render(fmt.Sprint(m.failed))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Elapsed:"), statsValueStyle.Render(formatDuration(elapsed))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("ETA:"), statsValueStyle.Render(formatDuration(m.ETA()))),
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(stats, "\n")),
	)
}

func (m *Model) renderState() string {
	switch m.state {
	case StateBreak:
		left := m.breakUntil.Sub(m.now())
		if left < 0 {
			left = 0
		}
		return warningStyle.Render("⏸  Batch break, resuming in " + formatDuration(left))
	case StateStopping:
		return warningStyle.Render(m.spinner.View() + " Stopping")
	case StateDone:
		if m.runErr != nil {
			return errorStyle.Render("✗ Failed")
		}
		if m.summary != nil && m.summary.Interrupted {
			return warningStyle.Render("⏸  Interrupted")
		}
		return successStyle.Render("✓ Complete")
	default:
		return successStyle.Render(m.spinner.View() + " Running")
	}
}

// renderCurrentPanel shows the identifier being processed
func (m *Model) renderCurrentPanel(width int) string {
	title := titleStyle.Render(" CURRENT ")

	content := lipgloss.NewStyle().Foreground(dimWhite).Render("Idle")
	if m.current != "" {
		content = currentStyle.Render("@" + m.current)
	}
	if m.state == StateDone && m.summary != nil && m.summary.FailedPath != "" {
		content = lipgloss.NewStyle().Foreground(dimWhite).Render("Failed list: " + m.summary.FailedPath)
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

// renderRecentPanel lists the latest outcomes
func (m *Model) renderRecentPanel(width int) string {
	title := titleStyle.Render(" RECENT ")

	if len(m.recent) == 0 {
		content := lipgloss.NewStyle().Foreground(dimWhite).Render("Nothing processed yet")
		return panelStyle.Width(width).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, content),
		)
	}

	var items []string
	for i := len(m.recent) - 1; i >= 0; i-- {
		item := m.recent[i]
		if item.Success {
			items = append(items, resultStyle.Render(successStyle.Render("✓")+" @"+item.Identifier))
		} else {
			items = append(items, resultStyle.Render(errorStyle.Render("✗")+" @"+item.Identifier+" "+
				lipgloss.NewStyle().Foreground(dimWhite).Render(item.Reason)))
		}
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(items, "\n")),
	)
}

// renderLogsPanel renders the logs panel
func (m *Model) renderLogsPanel(width int) string {
	title := titleStyle.Render(" LOG ")

	start := len(m.logs) - 10
	if start < 0 {
		start = 0
	}

	maxMsgLen := width - 25
	if maxMsgLen < 10 {
		maxMsgLen = 10
	}

	var lines []string
	for _, log := range m.logs[start:] {
		timestamp := logTimestampStyle.Render(log.Time.Format("15:04:05"))
		level := lipgloss.NewStyle().Foreground(log.Color).Bold(true).Render(fmt.Sprintf("[%-7s]", log.Level))

		text := log.Message
		if len(text) > maxMsgLen {
			text = text[:maxMsgLen-3] + "..."
		}
		lines = append(lines, fmt.Sprintf("%s %s %s", timestamp, level, logMessageStyle.Render(text)))
	}

	content := strings.Join(lines, "\n")
	if content == "" {
		content = lipgloss.NewStyle().Foreground(dimWhite).Render("No logs yet...")
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

// renderHelp renders the help panel
func (m *Model) renderHelp() string {
	help := `
  Keys:
    q/esc    - Stop the run (progress is kept), or exit when done
    ctrl+c   - Stop, press again to leave immediately
    ctrl+l   - Clear the log
    ?        - Toggle this help

  Status:
    ` + successStyle.Render("Green") + `    - Cancelled
    ` + warningStyle.Render("Orange") + `   - Batch break or stopping
    ` + errorStyle.Render("Red") + `      - Failed, see failed list
`

	return panelStyle.Width(m.width).Render(help)
}

// formatDuration formats a duration as a clock
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "00:00"
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
