package session

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the access-token claims the client consumes. is_staff drives
// post-login routing to the admin or user dashboard.
type Claims struct {
	Username string
	IsStaff  bool
}

// ParseClaims extracts the client-side claims from an access token without
// verifying its signature. The backend is the only party that trusts the
// token; the client only uses the claims for routing, and every API call is
// still authorized server-side.
func ParseClaims(accessToken string) (Claims, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(accessToken, claims); err != nil {
		return Claims{}, fmt.Errorf("session: parse access token: %w", err)
	}

	out := Claims{}
	if v, ok := claims["is_staff"].(bool); ok {
		out.IsStaff = v
	}
	if v, ok := claims["username"].(string); ok {
		out.Username = v
	}
	return out, nil
}
