// Package session persists the signed-in user's credentials so the kiosk
// stays logged in across restarts.
package session

import "context"

// Credentials is the token pair issued by the returns API.
type Credentials struct {
	Access  string
	Refresh string
}

// Store persists and retrieves the credential pair. Implementations must be
// safe for concurrent use: the dashboard poller and the UI both read tokens
// while a refresh may be writing one.
type Store interface {
	// AccessToken returns the stored access token, or "" when signed out.
	AccessToken(ctx context.Context) (string, error)
	// RefreshToken returns the stored refresh token, or "" when signed out.
	RefreshToken(ctx context.Context) (string, error)
	// SetTokens stores a full credential pair, replacing any previous one.
	SetTokens(ctx context.Context, creds Credentials) error
	// SetAccessToken replaces only the access token, keeping the refresh token.
	SetAccessToken(ctx context.Context, access string) error
	// Clear removes all stored credentials.
	Clear(ctx context.Context) error
	Close() error
}
