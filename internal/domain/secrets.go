package domain

import "log/slog"

// SecretString wraps credentials loaded from configuration, such as the
// authority bearer token and the Redis password. It renders as a placeholder
// through fmt and slog; call Expose at the point of use.
type SecretString string

const redacted = "[REDACTED]"

func (s SecretString) String() string {
	return redacted
}

// LogValue implements slog.LogValuer.
func (s SecretString) LogValue() slog.Value {
	return slog.StringValue(redacted)
}

// Expose returns the actual secret value.
func (s SecretString) Expose() string {
	return string(s)
}

// IsEmpty returns true if the secret is empty.
func (s SecretString) IsEmpty() bool {
	return len(s) == 0
}

var _ slog.LogValuer = SecretString("")
