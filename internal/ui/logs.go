package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/iotdash/internal/logtail"
)

func (m *Model) initLogViewport() {
	m.logViewport = viewport.New(maxInt(m.width, 1), maxInt(m.logViewportHeight(), 1))
}

func (m *Model) resizeLogViewport() {
	m.logViewport.Width = maxInt(m.width, 1)
	m.logViewport.Height = maxInt(m.logViewportHeight(), 1)
}

// logViewportHeight is the terminal height minus header, title and footer.
func (m Model) logViewportHeight() int {
	return m.height - 3
}

// updateLogViewport re-renders the log entries, keeping the view pinned to the
// bottom when it was already there.
func (m *Model) updateLogViewport() {
	if !m.ready {
		return
	}
	atBottom := m.logViewport.AtBottom()
	m.logViewport.SetContent(m.renderLogLines())
	if atBottom {
		m.logViewport.GotoBottom()
	}
}

func (m Model) renderLogLines() string {
	styles := m.theme.Styles()
	if m.logPath == "" {
		return styles.MutedText.Render("File logging is disabled")
	}
	if m.logErr != nil {
		return styles.DangerText.Render("Could not read log: " + m.logErr.Error())
	}

	var lines []string
	for _, e := range m.logEntries {
		if m.warningsOnly && !e.AtLeast("warning") {
			continue
		}
		lines = append(lines, m.formatLogEntry(e))
	}
	if len(lines) == 0 {
		return styles.MutedText.Render("No log entries yet")
	}
	return strings.Join(lines, "\n")
}

// formatLogEntry renders one entry as "time LEVEL [component] message k=v".
func (m Model) formatLogEntry(e logtail.Entry) string {
	styles := m.theme.Styles()
	if e.Level == "" {
		return styles.Text.Render(e.Raw)
	}

	var parts []string
	if ts := shortLogTime(e.Time); ts != "" {
		parts = append(parts, styles.FaintText.Render(ts))
	}
	parts = append(parts, m.levelStyle(e.Level).Render(padRight(strings.ToUpper(levelLabel(e.Level)), 5)))
	if e.Component != "" {
		parts = append(parts, styles.AccentText.Render("["+e.Component+"]"))
	}
	parts = append(parts, styles.Text.Render(e.Message))
	for _, f := range e.Fields {
		parts = append(parts, styles.MutedText.Render(f.Key+"="+f.Value))
	}
	if e.Error != "" {
		parts = append(parts, styles.DangerText.Render("error="+e.Error))
	}
	return strings.Join(parts, " ")
}

func (m Model) levelStyle(level string) lipgloss.Style {
	styles := m.theme.Styles()
	switch level {
	case "error", "fatal", "panic":
		return styles.DangerText
	case "warning", "warn":
		return styles.WarningText
	case "info":
		return styles.InfoText
	default:
		return styles.FaintText
	}
}

func levelLabel(level string) string {
	if level == "warning" {
		return "warn"
	}
	return level
}

// shortLogTime keeps the clock part of a "2006-01-02 15:04:05" timestamp.
func shortLogTime(ts string) string {
	if i := strings.LastIndexByte(ts, ' '); i >= 0 {
		return ts[i+1:]
	}
	return ts
}

// renderLogsView renders the log view with its title line.
func (m Model) renderLogsView() string {
	styles := m.theme.Styles()
	title := styles.AccentText.Bold(true).Render("Logs")
	if m.logPath != "" {
		title += " " + styles.FaintText.Render(truncateMiddle(m.logPath, 60))
	}
	if m.warningsOnly {
		title += " " + styles.WarningText.Render("[warnings]")
	}
	return title + "\n" + m.logViewport.View()
}
