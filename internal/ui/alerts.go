package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/five82/iotdash/internal/iotapi"
)

// alertRowHeight is the number of lines each alert occupies.
const alertRowHeight = 2

// renderAlerts renders the alert list pane content.
func (m Model) renderAlerts(width, height int) string {
	styles := m.theme.Styles()
	focused := m.currentView == ViewDashboard && m.focusedPane == PaneAlerts
	alerts := m.visibleAlerts()

	var b strings.Builder
	title := fmt.Sprintf("Alerts (%d)", len(alerts))
	if m.alertFilter != FilterAll {
		title += " · " + m.filterLabel()
	}
	b.WriteString(styles.AccentText.Bold(true).Render(title))

	if len(alerts) == 0 {
		b.WriteString("\n")
		b.WriteString(styles.MutedText.Render("No alerts"))
		return b.String()
	}

	names := make(map[string]string, len(m.snapshot.Devices))
	for _, d := range m.snapshot.Devices {
		names[d.ID] = displayName(d.Name, d.ID)
	}

	rows := maxInt((height-1)/alertRowHeight, 1)
	start, end := windowRange(m.alertRow, len(alerts), rows)
	for i := start; i < end; i++ {
		b.WriteString("\n")
		b.WriteString(m.renderAlertRow(alerts[i], names, i == m.alertRow, focused, width))
	}
	return b.String()
}

func (m Model) renderAlertRow(a iotapi.Alert, names map[string]string, selected, focused bool, width int) string {
	styles := m.theme.Styles()

	sev := strings.ToUpper(string(a.Severity))
	if sev == "" {
		sev = "UNKNOWN"
	}
	badge := styles.SeverityStyle(a.Severity).Render(sev)

	marker := "  "
	if selected {
		marker = "▸ "
	}
	msgWidth := maxInt(width-len(sev)-2-len(marker)-1, 4)
	message := marker + padRight(truncate(a.Message, msgWidth), msgWidth) + " "

	switch {
	case selected && focused:
		message = styles.Selected.Render(message)
	case a.IsResolved:
		message = styles.MutedText.Render(message)
	default:
		message = styles.Text.Render(message)
	}

	detail := "  " + alertDetail(a, names[a.DeviceID], m.width < LayoutCompactWidth, time.Now())
	if !a.IsResolved {
		return message + badge + "\n" + styles.FaintText.Render(truncate(detail, width))
	}
	const resolvedMark = "✓ resolved"
	line2 := styles.FaintText.Render(truncate(detail, width-len([]rune(resolvedMark))-1)) +
		" " + styles.SuccessText.Render(resolvedMark)
	return message + badge + "\n" + line2
}

// alertDetail builds the secondary line: device, type, measurement and when
// the alert was raised. Compact layouts show a relative age instead of a date.
func alertDetail(a iotapi.Alert, deviceName string, compact bool, now time.Time) string {
	var parts []string
	if deviceName != "" {
		parts = append(parts, deviceName)
	} else if a.DeviceID != "" {
		parts = append(parts, a.DeviceID)
	}
	if a.AlertType != "" {
		parts = append(parts, titleCase(a.AlertType))
	}
	if m := formatMeasurement(a); m != "" {
		parts = append(parts, m)
	}
	if compact {
		if age := alertAge(a, now); age != "" {
			parts = append(parts, age)
		}
	} else if ts := a.ParsedCreatedAt(); !ts.IsZero() {
		parts = append(parts, ts.Local().Format("Jan 02 15:04"))
	}
	return strings.Join(parts, " · ")
}

// formatMeasurement renders "actual 31.2 / threshold 30" when both are known.
func formatMeasurement(a iotapi.Alert) string {
	switch {
	case a.ActualValue != nil && a.ThresholdValue != nil:
		return fmt.Sprintf("actual %s / threshold %s", formatValue(*a.ActualValue), formatValue(*a.ThresholdValue))
	case a.ActualValue != nil:
		return "actual " + formatValue(*a.ActualValue)
	case a.ThresholdValue != nil:
		return "threshold " + formatValue(*a.ThresholdValue)
	}
	return ""
}

func formatValue(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

// alertAge renders a coarse age such as "5m" or "2d".
func alertAge(a iotapi.Alert, now time.Time) string {
	ts := a.ParsedCreatedAt()
	if ts.IsZero() {
		return ""
	}
	d := now.Sub(ts)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dd", int(d.Hours()/24))
}
