package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/iotdash/internal/iotapi"
)

// renderHeader renders the status bar: stat cards, connection state and
// last update time.
func (m Model) renderHeader() string {
	// Header uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	if !m.snapshot.HasData {
		return m.renderConnectingHeader(styles, bg)
	}

	return styles.Header.Width(m.width).Render(m.buildStatusContent(styles, bg))
}

// renderConnectingHeader shows the state before the first successful refresh.
func (m Model) renderConnectingHeader(styles Styles, bg BgStyle) string {
	sep := bg.Spaces(2)
	parts := []string{bg.Render("iotdash", styles.Logo)}

	if m.snapshot.LastError != nil {
		parts = append(parts,
			bg.Render("API "+classifyConnectionError(m.snapshot.LastError), styles.DangerText.Bold(true)),
			bg.Render("Retrying...", styles.WarningText.Bold(true)),
		)
	} else {
		parts = append(parts, bg.Render(m.spinner.View()+" Connecting...", styles.WarningText.Bold(true)))
	}
	if m.apiURL != "" {
		parts = append(parts, bg.Render(truncateMiddle(m.apiURL, 50), styles.MutedText))
	}
	return styles.Header.Width(m.width).Render(bg.Join(parts, sep))
}

// buildStatusContent builds the status bar content string.
func (m Model) buildStatusContent(styles Styles, bg BgStyle) string {
	compact := m.width < LayoutCompactWidth
	sep := bg.Spaces(2)
	snap := m.snapshot

	var parts []string

	// Logo
	parts = append(parts, bg.Render("iotdash", styles.Logo))

	// Connection indicator
	if snap.IsOffline() {
		parts = append(parts, bg.Render("● OFFLINE", styles.DangerText))
	} else {
		parts = append(parts, bg.Render("● ONLINE", styles.SuccessText))
	}

	// Stat cards
	activeStyle := styles.SuccessText
	if snap.DeviceStats.Active == 0 {
		activeStyle = styles.MutedText
	}
	unresolvedStyle := styles.MutedText
	if snap.AlertStats.Unresolved > 0 {
		unresolvedStyle = styles.DangerText
	}
	if compact {
		parts = append(parts,
			bg.Pair("D:", styles.MutedText, fmt.Sprintf("%d", snap.DeviceStats.Active), activeStyle)+
				bg.Render(fmt.Sprintf("/%d", snap.DeviceStats.Total), styles.Text),
			bg.Pair("A:", styles.MutedText, fmt.Sprintf("%d", snap.AlertStats.Unresolved), unresolvedStyle)+
				bg.Render(fmt.Sprintf("/%d", snap.AlertStats.Total), styles.Text),
		)
	} else {
		parts = append(parts,
			bg.Pair("Devices:", styles.MutedText, fmt.Sprintf("%d", snap.DeviceStats.Total), styles.Text),
			bg.Pair("Active:", styles.MutedText, fmt.Sprintf("%d", snap.DeviceStats.Active), activeStyle),
			bg.Pair("Alerts:", styles.MutedText, fmt.Sprintf("%d", snap.AlertStats.Total), styles.Text),
			bg.Pair("Unresolved:", styles.MutedText, fmt.Sprintf("%d", snap.AlertStats.Unresolved), unresolvedStyle),
		)
	}

	if m.busy() {
		parts = append(parts, bg.Render(m.spinner.View(), styles.AccentText))
	}

	if ts := formatTimestamp(snap.LastUpdated, time.Now()); ts != "" {
		parts = append(parts, bg.Render(ts, styles.MutedText))
	}

	return bg.Join(parts, sep)
}

// renderBanner renders the dismissible error line, or "" when there is none.
func (m Model) renderBanner() string {
	msg := m.snapshot.ErrorMessage
	if msg == "" {
		msg = m.notice
	}
	if msg == "" {
		return ""
	}
	styles := m.theme.Styles()
	text := msg
	if m.snapshot.LastError != nil && m.width >= LayoutCompactWidth {
		text += " (" + classifyConnectionError(m.snapshot.LastError) + ")"
	}
	text += "  [x to dismiss]"
	return styles.Banner.Width(m.width).Render(truncate(text, m.width-2))
}

// renderCommandBar renders the bottom key hint line.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	var parts []string
	for _, binding := range m.keys.ShortHelp() {
		h := binding.Help()
		parts = append(parts, bg.Pair(h.Key, styles.WarningText, h.Desc, styles.MutedText))
	}
	if m.currentView == ViewDashboard {
		parts = append(parts, bg.Pair("filter:", styles.FaintText, m.filterLabel(), styles.AccentText))
	}
	parts = append(parts, bg.Render(m.theme.Name, styles.FaintText))
	return styles.Footer.Width(m.width).Render(bg.Join(parts, bg.Spaces(2)))
}

// classifyConnectionError maps an error to a short human label.
func classifyConnectionError(err error) string {
	if err == nil {
		return ""
	}
	if iotapi.IsNotFound(err) {
		return "Not found"
	}
	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "connection refused"):
		return "Not running"
	case strings.Contains(errStr, "timeout"), strings.Contains(errStr, "deadline exceeded"):
		return "Connection timeout"
	case strings.Contains(errStr, "no such host"):
		return "Host not found"
	case iotapi.IsNetwork(err):
		return "Connection failed"
	default:
		return "Server error"
	}
}

// formatTimestamp renders t with a coarse relative age.
func formatTimestamp(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	s := t.Local().Format("15:04:05")
	since := now.Sub(t)
	switch {
	case since < time.Minute:
		return s + " (now)"
	case since < time.Hour:
		return s + fmt.Sprintf(" (%dm ago)", int(since.Minutes()))
	case since < 24*time.Hour:
		return s + fmt.Sprintf(" (%dh ago)", int(since.Hours()))
	}
	return s
}

// panelStyle returns the bordered style for a dashboard pane.
func (m Model) panelStyle(focused bool, width, height int) lipgloss.Style {
	border := m.theme.Border
	if focused {
		border = m.theme.BorderFocus
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		Width(maxInt(width-2, 1)).
		Height(maxInt(height-2, 1))
}
