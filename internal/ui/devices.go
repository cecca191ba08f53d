package ui

import (
	"fmt"
	"strings"

	"github.com/five82/iotdash/internal/iotapi"
)

// renderDevices renders the device list pane content.
func (m Model) renderDevices(width, height int) string {
	styles := m.theme.Styles()
	focused := m.currentView == ViewDashboard && m.focusedPane == PaneDevices

	var b strings.Builder
	title := fmt.Sprintf("Devices (%d)", len(m.snapshot.Devices))
	b.WriteString(styles.AccentText.Bold(true).Render(title))

	if len(m.snapshot.Devices) == 0 {
		b.WriteString("\n")
		if m.snapshot.HasData {
			b.WriteString(styles.MutedText.Render("No devices registered"))
		} else {
			b.WriteString(styles.MutedText.Render("Waiting for data..."))
		}
		return b.String()
	}

	rows := maxInt(height-1, 1)
	start, end := windowRange(m.deviceRow, len(m.snapshot.Devices), rows)
	for i := start; i < end; i++ {
		b.WriteString("\n")
		b.WriteString(m.renderDeviceRow(m.snapshot.Devices[i], i == m.deviceRow, focused, width))
	}
	return b.String()
}

func (m Model) renderDeviceRow(d iotapi.Device, selected, focused bool, width int) string {
	styles := m.theme.Styles()

	status := "inactive"
	if d.IsActive {
		status = "active"
	}
	badge := styles.StatusStyle(status).Render(strings.ToUpper(status))
	badgeWidth := len(status) + 2

	marker := "  "
	if selected {
		marker = "▸ "
	}

	nameWidth := maxInt(width-badgeWidth-len(marker)-1, 4)
	label := displayName(d.Name, d.ID)
	if m.width >= LayoutCompactWidth {
		if meta := deviceMeta(d); meta != "" {
			label += " · " + meta
		}
	}
	text := marker + padRight(truncate(label, nameWidth), nameWidth) + " "

	switch {
	case selected && focused:
		return styles.Selected.Render(text) + badge
	case selected:
		return styles.AccentText.Render(text) + badge
	default:
		return styles.Text.Render(text) + badge
	}
}

// deviceMeta returns "location · type" with empty parts dropped.
func deviceMeta(d iotapi.Device) string {
	var parts []string
	if loc := strings.TrimSpace(d.Location); loc != "" {
		parts = append(parts, loc)
	}
	if typ := strings.TrimSpace(d.DeviceType); typ != "" {
		parts = append(parts, titleCase(typ))
	}
	return strings.Join(parts, " · ")
}

// windowRange returns the [start, end) slice of total rows to show so the
// cursor stays visible in a viewport of the given height.
func windowRange(cursor, total, visible int) (int, int) {
	if total <= visible || visible <= 0 {
		return 0, total
	}
	start := cursor - visible/2
	start = clamp(start, 0, total-visible)
	return start, start + visible
}
