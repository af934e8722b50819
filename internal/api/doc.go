// Package api provides the authenticated HTTP client for the returns API.
//
// # Overview
//
// The client wraps every outbound call to the backend: it attaches the
// stored bearer token, performs a single refresh-and-replay cycle when an
// access token has expired, decodes typed JSON payloads, and surfaces
// server-supplied error messages for display.
//
// # Architecture
//
// The package is split into three files:
//
//   - client.go: HTTP client, token refresh protocol, multipart upload
//   - types.go: Data structures mirroring the returns API schema
//   - filter.go: Local filtering applied by the user dashboard
//
// # Token Refresh Protocol
//
// Authenticated requests follow a strict retry-once contract:
//
//  1. The request is sent with the current access token (when present).
//  2. On HTTP 401 for the first attempt, the client exchanges the stored
//     refresh token at POST /auth/refresh/ (unauthenticated), persists the
//     new access token, and replays the original request exactly once.
//  3. A 401 on the replay is returned to the caller unchanged. The attempt
//     counter is an explicit function argument, so a request can never loop.
//  4. If the refresh exchange itself fails, all stored credentials are
//     cleared and ErrSessionExpired is returned; callers route to login.
//
// Concurrent 401s each run their own refresh independently. At worst this
// duplicates refresh calls; it never corrupts stored state, because the
// token store serializes writes.
//
// # Endpoints
//
//   - POST /auth/login/: credential exchange (unauthenticated)
//   - POST /auth/refresh/: access-token refresh (unauthenticated)
//   - POST /register/: account creation (unauthenticated)
//   - GET /profile/: signed-in user profile
//   - GET /return-requests/?search=: list visible return requests
//   - POST /return-requests/: multipart submission (barcode + media_files)
//   - PATCH /return-requests/{id}/update_status/: staff status transition
//   - GET /return-requests/statistics/: aggregate counts
//
// # Error Handling
//
// Non-2xx responses are decoded for a message/error/detail key and returned
// as *APIError so views can show the server's own wording, with a generic
// fallback when the body carries none. Network and decoding failures are
// wrapped with context using fmt.Errorf.
//
// # Request Headers
//
// Every request carries Accept: application/json, the client User-Agent,
// and a fresh X-Request-ID (UUID) for server-side correlation.
//
// # Thread Safety
//
// The Client is safe for concurrent use; the background dashboard poller
// and UI actions share one instance.
package api
