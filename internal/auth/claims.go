package auth

import "github.com/golang-jwt/jwt/v5"

// Claims are the access token claims the client reads. The signature is
// never checked here; the time authority is the only verifier.
type Claims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid,omitempty"`
}
