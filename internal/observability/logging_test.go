package observability_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aelexs/timesync/internal/observability"
)

func TestRedactingHandler(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		value        string
		shouldRedact bool
	}{
		{"token is redacted", "token", "opaque-session", true},
		{"authority_token is redacted", "authority_token", "tok123", true},
		{"password is redacted", "redis_password", "hunter2", true},
		{"authorization is redacted", "Authorization", "Basic abc", true},
		{"bearer value under any key", "header", "Bearer abc.def", true},
		{"jwt value under any key", "raw", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJ1In0.sig", true},
		{"user_date not redacted", "user_date", "2026-01-15", false},
		{"timezone not redacted", "timezone", "America/New_York", false},
		{"error not redacted", "error", "time authority unavailable", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(observability.NewRedactingHandler(&buf, nil))

			logger.Info("test", tt.key, tt.value)
			output := buf.String()

			if tt.shouldRedact {
				assert.Contains(t, output, "[REDACTED]", "expected %s to be redacted", tt.key)
				assert.NotContains(t, output, tt.value)
			} else {
				assert.Contains(t, output, tt.value)
				assert.NotContains(t, output, "[REDACTED]")
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, observability.ParseLevel(in), in)
	}
}

func TestInitLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := observability.InitLogger(observability.LogConfig{
		Level:       "warn",
		Format:      "text",
		ServiceName: "timesyncd",
		Environment: "test",
		Output:      &buf,
	})

	logger.Info("dropped")
	logger.Warn("kept", "token", "abc")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "kept")
	assert.Contains(t, out, "service=timesyncd")
	assert.Contains(t, out, "environment=test")
	assert.NotContains(t, out, "abc")
	assert.Same(t, logger, slog.Default())
}
