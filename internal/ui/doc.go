// Package ui provides the Bubble Tea terminal dashboard for iotdash.
//
// # Architecture Overview
//
// The UI never talks to the API directly. It reads immutable snapshots from a
// Snapshotter (the state.Store) on a short tick and sends user intents to a
// Controller (the app.Syncer). Mutations run as tea.Cmds with their own
// timeout; when one finishes the model pulls a fresh snapshot, so whatever
// the sync layer committed is what gets drawn.
//
// # Package Structure
//
//   - app.go: Model, Update/View, messages, commands and Run
//   - input_handlers.go: key dispatch for the dashboard, logs view and modals
//   - header.go: status bar, error banner and command bar
//   - devices.go, alerts.go: list panes
//   - chart.go: line (sparkline) and bar renderings of the reading window
//   - logs.go: viewport over the dashboard's own log file
//   - theme.go, style_helpers.go: palettes and background-safe rendering
//
// # Views
//
//   - Dashboard: devices on the left, chart and alerts on the right. Narrow
//     terminals stack the three panes.
//   - Logs: parsed logrus lines from the log file, optionally warnings only.
//
// # Key Features
//
//   - Moving through the device list selects the device and loads its chart
//   - Device deletion asks for confirmation; alert actions apply immediately
//   - Local alert filter: all, unresolved, or high and critical
//   - Theme and chart style are saved to the preferences file
//   - Offline indicator after repeated failed refreshes, dismissible error banner
package ui
