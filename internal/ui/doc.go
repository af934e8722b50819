// Package ui is the Bubble Tea interface of the kiosk.
//
// # Screens
//
// The root Model routes between login, registration, the user dashboard,
// the admin dashboard, the two-step submission wizard, the scanner
// overlay, and the log viewer. Role routing happens once at sign-in: the
// staff claim in the access token picks the admin dashboard, everyone
// else gets the user dashboard.
//
// # Data flow
//
// The background poller writes snapshots to the shared state store; the
// UI reads a snapshot every tick and renders from it. UI-initiated
// actions (sign-in, submission, search, status updates) run as Bubble Tea
// commands against the API client and report back as messages. A session
// expiry surfacing from any of these paths routes back to the login
// screen.
//
// # Scanner
//
// The scanner overlay owns one capture session per scan. Capture
// callbacks run on the session's goroutines, so they communicate with the
// UI through a buffered event channel drained by a command; the overlay
// never blocks the capture teardown.
package ui
