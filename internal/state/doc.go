// Package state provides thread-safe state management for the kiosk
// application.
//
// # Overview
//
// This package implements a simple but thread-safe store for sharing the
// signed-in user's return requests, admin statistics, and profile between
// the background poller and the UI. It acts as the coordination point
// where polling updates meet UI rendering.
//
// # Concurrency Model
//
// The Store uses a readers-writer lock:
//
//   - Update(): Acquires write lock (exclusive access)
//   - Snapshot(): Acquires read lock (concurrent reads allowed)
//
// The poller is the single writer; the UI reads snapshots on its own
// refresh schedule. The lock is held only during copy operations, never
// during network I/O or rendering.
//
// # Update Semantics
//
// On success the request list and statistics are replaced wholesale and
// the failure counter resets. On error the previous data is kept so the
// UI always has the most recent successful fetch to display, while the
// error and a consecutive-failure count are recorded; IsOffline reports
// true once two polls in a row have failed.
//
// # Defensive Copying
//
// Both Update and Snapshot copy the request slice and statistics so the
// poller and the UI never share mutable state. The cost is negligible at
// this scale (tens of requests per account).
package state
