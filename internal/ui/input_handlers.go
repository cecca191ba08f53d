package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/iotdash/internal/prefs"
)

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle help overlay
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	// Modal dialogs own the keyboard until closed
	if m.modal != nil {
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		next, cmd, closed := m.modal.Update(msg, m.keys)
		if closed {
			m.modal = nil
			if cmd != nil {
				m.pending++
			}
			return m, cmd
		}
		m.modal = next
		return m, cmd
	}

	// Global keys
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		m.updateLogViewport()
		return m, nil

	case key.Matches(msg, m.keys.ChartStyle):
		m.chartStyle = prefs.NextChartStyle(m.chartStyle)
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		if m.ctrl != nil {
			m.ctrl.Refresh()
		}
		return m, fetchSnapshotCmd(m.store)

	case key.Matches(msg, m.keys.DismissError):
		m.notice = ""
		if m.ctrl != nil {
			m.ctrl.DismissError()
		}
		return m, fetchSnapshotCmd(m.store)

	case key.Matches(msg, m.keys.ViewLogs):
		if m.currentView == ViewLogs {
			m.currentView = ViewDashboard
			return m, nil
		}
		m.currentView = ViewLogs
		return m, readLogsCmd(m.logPath) // Fetch immediately

	case key.Matches(msg, m.keys.Escape):
		m.currentView = ViewDashboard
		return m, nil
	}

	// View-specific keys
	switch m.currentView {
	case ViewDashboard:
		return m.handleDashboardKey(msg)
	case ViewLogs:
		return m.handleLogsKey(msg)
	}

	return m, nil
}

func (m Model) handleDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Tab):
		if m.focusedPane == PaneDevices {
			m.focusedPane = PaneAlerts
		} else {
			m.focusedPane = PaneDevices
		}
		return m, nil

	case key.Matches(msg, m.keys.CycleFilter):
		m.cycleFilter()
		return m, nil

	case key.Matches(msg, m.keys.Up):
		return m.moveSelection(-1)
	case key.Matches(msg, m.keys.Down):
		return m.moveSelection(1)
	case key.Matches(msg, m.keys.Top):
		return m.moveSelection(-1 << 30)
	case key.Matches(msg, m.keys.Bottom):
		return m.moveSelection(1 << 30)
	}

	if m.ctrl == nil {
		return m, nil
	}

	switch m.focusedPane {
	case PaneDevices:
		return m.handleDeviceAction(msg)
	case PaneAlerts:
		return m.handleAlertAction(msg)
	}
	return m, nil
}

// moveSelection moves the cursor of the focused pane by delta rows. Moving
// in the device list selects that device.
func (m Model) moveSelection(delta int) (tea.Model, tea.Cmd) {
	if m.focusedPane == PaneAlerts {
		m.alertRow = clamp(m.alertRow+delta, 0, len(m.visibleAlerts())-1)
		return m, nil
	}

	if len(m.snapshot.Devices) == 0 {
		return m, nil
	}
	row := clamp(m.deviceRow+delta, 0, len(m.snapshot.Devices)-1)
	if row == m.deviceRow {
		return m, nil
	}
	m.deviceRow = row
	if m.ctrl == nil {
		return m, nil
	}
	return m, selectDeviceCmd(m.ctrl, m.store, m.snapshot.Devices[row].ID)
}

func (m Model) handleDeviceAction(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	device, ok := m.selectedDevice()
	if !ok {
		return m, nil
	}
	ctrl := m.ctrl

	switch {
	case key.Matches(msg, m.keys.Delete):
		id := device.ID
		m.modal = newConfirmModal(
			"Delete device",
			fmt.Sprintf("Delete %q and all of its readings?", displayName(device.Name, device.ID)),
			mutationCmd(m.ctx, "delete_device", func(ctx context.Context) error {
				return ctrl.DeleteDevice(ctx, id)
			}),
		)
		return m, nil

	case key.Matches(msg, m.keys.ToggleActive):
		id, active := device.ID, !device.IsActive
		m.pending++
		return m, mutationCmd(m.ctx, "set_device_active", func(ctx context.Context) error {
			return ctrl.SetDeviceActive(ctx, id, active)
		})
	}
	return m, nil
}

func (m Model) handleAlertAction(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	alert, ok := m.selectedAlert()
	if !ok {
		return m, nil
	}
	ctrl := m.ctrl
	id := alert.ID

	switch {
	case key.Matches(msg, m.keys.Resolve):
		if alert.IsResolved {
			return m, nil
		}
		m.pending++
		return m, mutationCmd(m.ctx, "resolve_alert", func(ctx context.Context) error {
			return ctrl.ResolveAlert(ctx, id)
		})

	case key.Matches(msg, m.keys.Delete):
		m.pending++
		return m, mutationCmd(m.ctx, "delete_alert", func(ctx context.Context) error {
			return ctrl.DeleteAlert(ctx, id)
		})
	}
	return m, nil
}

func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.WarningsOnly):
		m.warningsOnly = !m.warningsOnly
		m.updateLogViewport()
		return m, nil
	case key.Matches(msg, m.keys.Top):
		m.logViewport.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.logViewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.logViewport, cmd = m.logViewport.Update(msg)
	return m, cmd
}

func displayName(name, id string) string {
	if name != "" {
		return name
	}
	return id
}
