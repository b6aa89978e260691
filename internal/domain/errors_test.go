package domain_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aelexs/timesync/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"ErrUnavailable", domain.ErrUnavailable, true},
		{"ErrTimeout", domain.ErrTimeout, true},
		{"raw deadline", context.DeadlineExceeded, true},
		{"ErrUnauthorized", domain.ErrUnauthorized, false},
		{"ErrContractViolation", domain.ErrContractViolation, false},
		{"wrapped ErrUnavailable", fmt.Errorf("context: %w", domain.ErrUnavailable), true},
		{"random error", errors.New("something else"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.IsRetryable(tt.err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsAuthFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"ErrUnauthorized", domain.ErrUnauthorized, true},
		{"wrapped ErrUnauthorized", fmt.Errorf("%w: status 403", domain.ErrUnauthorized), true},
		{"ErrUnavailable", domain.ErrUnavailable, false},
		{"ErrCommandFailed", domain.ErrCommandFailed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.IsAuthFailure(tt.err))
		})
	}
}

func TestReason(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "ok"},
		{"unauthorized", domain.ErrUnauthorized, "unauthorized"},
		{"timeout", fmt.Errorf("get: %w", domain.ErrTimeout), "timeout"},
		{"deadline", context.DeadlineExceeded, "timeout"},
		{"unavailable", domain.ErrUnavailable, "unavailable"},
		{"contract", domain.ErrContractViolation, "contract_violation"},
		{"invalid input", domain.ErrInvalidInput, "invalid_input"},
		{"other", errors.New("boom"), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.Reason(tt.err))
		})
	}
}
