// Package app wires the kiosk together: configuration, the JSON file
// logger, the SQLite session store, the API client, the background
// poller, the camera capture factory, and finally the TUI.
//
// The poller is the single writer of the shared state store. It skips
// polls while no one is signed in, fetches statistics only when the
// access token carries the staff flag, and doubles its interval per
// consecutive failure up to a cap so an unreachable server is not
// hammered.
package app
