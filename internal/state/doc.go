// Package state provides thread-safe state management for iotdash.
//
// # Overview
//
// The Store is the coordination point between the background Syncer, the
// mutation handlers, and the UI. Producers commit results; the UI reads
// Snapshot values on its own tick and never blocks on network I/O.
//
//	Producers (Syncer, mutations):       Consumer (UI):
//	┌──────────────────────────┐        ┌──────────────────┐
//	│ t := BeginRefresh()      │        │                  │
//	│ ...fetch...              │        │                  │
//	│ CommitRefresh(t, data)   │───────→│ store.Snapshot() │
//	│ ApplyAlertResolved(id)   │ (mutex)│      ↓           │
//	│ CommitChart(t, points)   │        │  render          │
//	└──────────────────────────┘        └──────────────────┘
//
// # Tickets
//
// Every refresh and chart fetch starts by taking a Ticket. Commits carrying a
// ticket that is no longer the newest of its kind are discarded, so responses
// that arrive out of order never overwrite fresher data:
//
//   - CommitRefresh only accepts the most recently issued refresh ticket.
//   - CommitChart additionally requires the ticket's device to still be the
//     selected one; a chart for a device the user navigated away from is
//     dropped even if it is the latest fetch.
//   - Apply* methods (server-confirmed mutations) invalidate any in-flight
//     refresh, which would otherwise resurrect a deleted device or alert.
//   - Detach invalidates everything; nothing commits after it.
//
// # Failure Semantics
//
// A failed refresh keeps the previously loaded lists and counters, records
// LastError, sets the user-visible ErrorMessage, and increments
// ConsecutiveFailures. A successful refresh clears all three.
//
// Counters are never negative: deletes and resolves decrement with a floor
// of zero, and refreshed counters are clamped.
//
// # Loading
//
// Loading is true while at least one refresh is in flight, stale or not.
//
// # Defensive Copying
//
// Snapshot clones every slice and the error value, so the UI may hold a
// snapshot indefinitely without racing later commits.
//
// The zero Store is ready to use.
package state
