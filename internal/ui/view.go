package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// renderMain renders the header, the active view and the command bar.
func (m Model) renderMain() string {
	sections := []string{m.renderHeader()}
	if banner := m.renderBanner(); banner != "" {
		sections = append(sections, banner)
	}

	footer := m.renderCommandBar()
	used := 0
	for _, s := range sections {
		used += lipgloss.Height(s)
	}
	bodyHeight := maxInt(m.height-used-lipgloss.Height(footer), 3)

	var body string
	switch m.currentView {
	case ViewLogs:
		body = clipLines(m.renderLogsView(), bodyHeight)
	default:
		body = m.renderDashboard(bodyHeight)
	}
	sections = append(sections, lipgloss.NewStyle().Height(bodyHeight).Render(body), footer)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderDashboard lays out the device, chart and alert panes. Wide terminals
// put devices on the left; narrow ones stack all three.
func (m Model) renderDashboard(height int) string {
	if m.width < LayoutStackedWidth {
		third := maxInt(height/3, 4)
		return lipgloss.JoinVertical(lipgloss.Left,
			m.panel(PaneDevices, m.renderDevices, m.width, third),
			m.panel(-1, m.renderChart, m.width, third),
			m.panel(PaneAlerts, m.renderAlerts, m.width, maxInt(height-2*third, 4)),
		)
	}

	leftWidth := m.width * 2 / 5
	rightWidth := m.width - leftWidth
	chartHeight := clamp(height/2, 8, maxInt(height-6, 8))

	left := m.panel(PaneDevices, m.renderDevices, leftWidth, height)
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.panel(-1, m.renderChart, rightWidth, chartHeight),
		m.panel(PaneAlerts, m.renderAlerts, rightWidth, maxInt(height-chartHeight, 4)),
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

// panel renders content inside a bordered box of the given outer size. A
// pane of -1 is never shown as focused.
func (m Model) panel(pane Pane, render func(width, height int) string, width, height int) string {
	innerW, innerH := maxInt(width-2, 1), maxInt(height-2, 1)
	focused := pane >= 0 && pane == m.focusedPane
	return m.panelStyle(focused, width, height).Render(clipLines(render(innerW, innerH), innerH))
}
