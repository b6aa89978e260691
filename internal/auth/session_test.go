package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aelexs/timesync/internal/auth"
	"github.com/aelexs/timesync/internal/domain"
	"github.com/aelexs/timesync/internal/domain/domaintest"
)

var start = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

// signedToken builds a JWT; the signing key is irrelevant to the client.
func signedToken(t *testing.T, subject string, exp time.Time) string {
	t.Helper()
	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		SessionID: "sess_1",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("any-key"))
	require.NoError(t, err)
	return token
}

func TestSession_JWT(t *testing.T) {
	clock := domaintest.NewFakeClock(start)
	s := auth.NewSession(clock)
	require.False(t, s.Authenticated())
	require.Empty(t, s.BearerToken())

	token := signedToken(t, "user_123", start.Add(time.Hour))
	ok, err := s.SetToken("Bearer " + token)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, token, s.BearerToken())
	assert.Equal(t, "user_123", s.Subject())
	exp, has := s.ExpiresAt()
	assert.True(t, has)
	assert.True(t, exp.Equal(start.Add(time.Hour)))

	t.Run("expiry makes the session anonymous", func(t *testing.T) {
		clock.Advance(time.Hour)
		assert.False(t, s.Authenticated())
		assert.Empty(t, s.BearerToken())
		clock.Set(start)
	})

	t.Run("clear", func(t *testing.T) {
		s.Clear()
		assert.False(t, s.Authenticated())
		assert.Empty(t, s.Subject())
	})
}

func TestSession_SetToken(t *testing.T) {
	tests := []struct {
		name     string
		token    func(t *testing.T) string
		wantAuth bool
		wantErr  error
	}{
		{
			name:     "opaque token",
			token:    func(*testing.T) string { return "opaque-session-token" },
			wantAuth: true,
		},
		{
			name:     "expired jwt is stored but anonymous",
			token:    func(t *testing.T) string { return signedToken(t, "u", start.Add(-time.Minute)) },
			wantAuth: false,
		},
		{
			name:    "malformed jwt",
			token:   func(*testing.T) string { return "not.a.jwt" },
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "empty",
			token:   func(*testing.T) string { return "  " },
			wantErr: domain.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := auth.NewSession(domaintest.NewFakeClock(start))

			ok, err := s.SetToken(tt.token(t))

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.False(t, s.Authenticated())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAuth, ok)
			assert.Equal(t, tt.wantAuth, s.Authenticated())
		})
	}
}
