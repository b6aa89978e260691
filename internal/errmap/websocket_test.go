package errmap_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aelexs/timesync/internal/domain"
	"github.com/aelexs/timesync/internal/errmap"
)

func TestToWebSocketClose(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantReason string
	}{
		{"nil error", nil, errmap.CloseNormalClosure, "normal_closure"},
		{"ErrUnauthorized", domain.ErrUnauthorized, errmap.CloseUnauthorized, "unauthorized"},
		{"ErrInvalidInput", domain.ErrInvalidInput, errmap.CloseInvalidMessage, "invalid_message"},
		{"ErrNotFound", domain.ErrNotFound, errmap.CloseNotFound, "not_found"},
		{"ErrTimeout", domain.ErrTimeout, errmap.CloseTryAgainLater, "authority_unavailable"},
		{"ErrUnavailable", domain.ErrUnavailable, errmap.CloseTryAgainLater, "authority_unavailable"},
		{"ErrNotInitialized", domain.ErrNotInitialized, errmap.CloseTryAgainLater, "not_initialized"},
		{"ErrContractViolation", domain.ErrContractViolation, errmap.CloseUpstream, "upstream_error"},
		{"ErrCommandFailed", domain.ErrCommandFailed, errmap.CloseUpstream, "upstream_error"},

		{"wrapped ErrUnauthorized", fmt.Errorf("session: %w", domain.ErrUnauthorized), errmap.CloseUnauthorized, "unauthorized"},
		{"unknown error", fmt.Errorf("boom"), errmap.CloseInternalError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errmap.ToWebSocketClose(tt.err)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, tt.wantReason, got.Reason)
		})
	}
}

func TestWebSocketCloseCodes(t *testing.T) {
	// RFC 6455 reserved codes
	assert.Equal(t, 1000, errmap.CloseNormalClosure)
	assert.Equal(t, 1001, errmap.CloseGoingAway)
	assert.Equal(t, 1011, errmap.CloseInternalError)

	// Application codes stay in the private range
	for _, code := range []int{errmap.CloseInvalidMessage, errmap.CloseUnauthorized, errmap.CloseNotFound, errmap.CloseUpstream} {
		assert.GreaterOrEqual(t, code, 4000)
		assert.LessOrEqual(t, code, 4999)
	}
}

func TestCommonCloseReasons(t *testing.T) {
	assert.Equal(t, errmap.CloseGoingAway, errmap.CloseServerShutdown.Code)
	assert.Equal(t, "server_shutdown", errmap.CloseServerShutdown.Reason)
	assert.Equal(t, errmap.ClosePolicyViolation, errmap.CloseSlowConsumer.Code)
}

func TestWebSocketMappingCompleteness(t *testing.T) {
	for _, err := range allDomainErrors {
		if err == domain.ErrConfigRequired {
			continue // server-side misconfiguration is an internal error
		}
		t.Run(err.Error(), func(t *testing.T) {
			assert.NotEqual(t, errmap.CloseInternalError, errmap.ToWebSocketClose(err).Code)
		})
	}
}
