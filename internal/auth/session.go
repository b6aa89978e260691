// Package auth holds the client's bearer credential and decides whether the
// session counts as authenticated for background synchronization.
package auth

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aelexs/timesync/internal/domain"
)

// Session stores the current bearer token. JWTs are inspected without
// verification to learn their expiry; opaque tokens are used as-is until
// cleared.
type Session struct {
	mu     sync.RWMutex
	token  string
	claims *Claims // nil for opaque tokens
	clock  domain.Clock
	parser *jwt.Parser
}

// NewSession creates an anonymous session.
func NewSession(clock domain.Clock) *Session {
	if clock == nil {
		clock = domain.RealClock{}
	}
	return &Session{clock: clock, parser: jwt.NewParser()}
}

// SetToken installs a bearer token and reports whether the session is now
// authenticated. A structurally invalid JWT is rejected with ErrInvalidInput;
// an already expired JWT is stored but does not authenticate.
func (s *Session) SetToken(token string) (bool, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return false, fmt.Errorf("%w: empty token", domain.ErrInvalidInput)
	}

	var claims *Claims
	if looksLikeJWT(token) {
		var c Claims
		if _, _, err := s.parser.ParseUnverified(token, &c); err != nil {
			return false, fmt.Errorf("%w: malformed access token: %w", domain.ErrInvalidInput, err)
		}
		claims = &c
	}

	s.mu.Lock()
	s.token = token
	s.claims = claims
	s.mu.Unlock()

	return s.Authenticated(), nil
}

// Clear forgets the token.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.claims = nil
}

// Authenticated reports whether a usable, unexpired token is held.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usableLocked()
}

// BearerToken returns the token for outgoing requests, or "" when the
// session is anonymous or the token has expired.
func (s *Session) BearerToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.usableLocked() {
		return ""
	}
	return s.token
}

// ExpiresAt returns the JWT expiry, if the token carries one.
func (s *Session) ExpiresAt() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.claims == nil || s.claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return s.claims.ExpiresAt.Time, true
}

// Subject returns the token subject, or "" for opaque tokens.
func (s *Session) Subject() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.claims == nil {
		return ""
	}
	return s.claims.Subject
}

func (s *Session) usableLocked() bool {
	if s.token == "" {
		return false
	}
	if s.claims == nil || s.claims.ExpiresAt == nil {
		return true
	}
	return s.clock.Now().Before(s.claims.ExpiresAt.Time)
}

// looksLikeJWT reports whether token has the three dot-separated segments
// of a compact JWS.
func looksLikeJWT(token string) bool {
	return strings.Count(token, ".") == 2
}

