// Package app is the composition root and sync layer of the dashboard.
//
// # Overview
//
// Run loads configuration and preferences, opens the log file, builds the
// API client, the shared state.Store and a Syncer, then hands control to the
// TUI. The Syncer is the only writer of the store; the UI only reads
// snapshots and sends intents.
//
// # Components
//
//   - app.go: Run, runtime wiring and the /health pre-flight check
//   - poller.go: Syncer lifecycle, periodic full refreshes and chart fetches
//   - mutations.go: delete, toggle-active and resolve, applied after the
//     server confirms
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()        Read dashboard config
//	       ├─────> logging.NewLogrus()  File logger, one entry per component
//	       ├─────> iotapi.NewClient()   HTTP client with GET retries
//	       ├─────> preflight()          /health, warning only
//	       ├─────> Syncer.Start()       Background refresh loop
//	       └─────> ui.Run()             Start TUI (blocks)
//
//	Refresh cycle:
//	┌───────────────────────────────────────────────┐
//	│ store.BeginRefresh() -> ticket                │
//	│  ├─> devices, alerts, device stats,           │
//	│  │   alert stats (concurrently)               │
//	│  └─> store.CommitRefresh(ticket, ...)         │
//	│      └─> chart for the selected device:       │
//	│          one series per sensor, merged,       │
//	│          store.CommitChart(ticket, ...)       │
//	└───────────────────────────────────────────────┘
//
// # Staleness
//
// Every fetch carries a ticket from the store. A refresh result commits only
// if no newer refresh or mutation happened since it began; a chart result
// commits only if it is the latest chart request and its device is still
// selected. Stop detaches the store, so nothing lands after shutdown.
//
// # Error Handling
//
// Fatal errors (returned from Run):
//   - Unreadable or invalid configuration
//   - Log file that cannot be opened
//   - Invalid API URL
//
// Recoverable errors (logged and shown in the UI banner):
//   - Failed full refreshes; previous data stays on screen
//   - Failed mutations; local state is left untouched
//   - Failed sensor series; the chart shows what did load
package app
