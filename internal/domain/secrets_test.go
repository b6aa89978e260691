package domain_test

import (
	"bytes"
	"fmt"
	"log/slog"
	"testing"

	"github.com/aelexs/timesync/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestSecretString(t *testing.T) {
	secret := domain.SecretString("opaque-session-token")

	t.Run("String returns REDACTED", func(t *testing.T) {
		assert.Equal(t, "[REDACTED]", secret.String())
		assert.Equal(t, "token=[REDACTED]", fmt.Sprintf("token=%s", secret))
	})

	t.Run("Expose returns actual value", func(t *testing.T) {
		assert.Equal(t, "opaque-session-token", secret.Expose())
	})

	t.Run("IsEmpty", func(t *testing.T) {
		assert.False(t, secret.IsEmpty())
		assert.True(t, domain.SecretString("").IsEmpty())
	})

	t.Run("slog output contains REDACTED", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))

		logger.Info("loaded", "credential", secret)

		assert.Contains(t, buf.String(), "[REDACTED]")
		assert.NotContains(t, buf.String(), "opaque-session-token")
	})
}
