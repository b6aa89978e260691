package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aelexs/timesync/internal/domain"
	"github.com/aelexs/timesync/internal/timesync/app"
	"github.com/aelexs/timesync/pkg/protocol"
)

func TestSetMockDateTime_RoundTrip(t *testing.T) {
	env := newTestEnv(t, newStubAuthority("2025-03-01"))
	ctx := context.Background()
	env.svc.Initialize(ctx, true)

	snap, err := env.svc.SetMockDateTime(ctx, "2025-06-15T10:00:00")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-15", snap.UserDate)
	assert.Equal(t, "2025-06-15", env.svc.CurrentDate())
	assert.True(t, env.svc.IsMockDate())

	snap, err = env.svc.SetMockDateTime(ctx, "")
	require.NoError(t, err)
	assert.False(t, snap.IsMockDate)
	assert.False(t, env.svc.IsMockDate())
	assert.Equal(t, "2025-03-01", env.svc.CurrentDate())
}

func TestSetMockDateTime_EmitsDayChange(t *testing.T) {
	env := newTestEnv(t, newStubAuthority("2025-03-01"))
	ctx := context.Background()
	env.svc.Initialize(ctx, true)
	rec := &recorder{}
	env.svc.AddEventListener(rec.listen)

	_, err := env.svc.SetMockDateTime(ctx, "2025-06-15T10:00:00Z")
	require.NoError(t, err)

	require.Equal(t, []app.EventKind{app.EventDayChanged, app.EventSynced}, rec.kinds())
	assert.Equal(t, "2025-06-15", rec.all()[0].DayChange.NewDate)
}

func TestSetMockDateTime_Failures(t *testing.T) {
	tests := []struct {
		name          string
		authenticated bool
		iso           string
		setMockErr    error
		wantErr       error
		wantMockCalls int
	}{
		{
			name:          "anonymous session",
			authenticated: false,
			iso:           "2025-06-15T10:00:00",
			wantErr:       domain.ErrUnauthorized,
		},
		{
			name:          "malformed instant",
			authenticated: true,
			iso:           "next tuesday",
			wantErr:       domain.ErrInvalidInput,
		},
		{
			name:          "authority unavailable",
			authenticated: true,
			iso:           "2025-06-15",
			setMockErr:    domain.ErrUnavailable,
			wantErr:       domain.ErrUnavailable,
			wantMockCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := newStubAuthority("2025-03-01")
			mockCalls := 0
			auth.setMockFn = func(context.Context, string) error {
				mockCalls++
				return tt.setMockErr
			}
			env := newTestEnv(t, auth)
			ctx := context.Background()
			env.svc.Initialize(ctx, tt.authenticated)
			callsBefore := auth.calls.Load()

			_, err := env.svc.SetMockDateTime(ctx, tt.iso)

			require.ErrorIs(t, err, domain.ErrCommandFailed)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantMockCalls, mockCalls)
			assert.Equal(t, callsBefore, auth.calls.Load(), "no resync after a failed command")
		})
	}
}

func TestSetMockDateTime_Offline(t *testing.T) {
	env := newTestEnv(t, newStubAuthority("2025-03-01"))
	ctx := context.Background()
	env.svc.Initialize(ctx, true)
	env.svc.SetOnline(ctx, false)

	snap, err := env.svc.SetMockDateTime(ctx, "2025-06-15T10:00:00")
	require.NoError(t, err)
	assert.True(t, snap.IsMockDate)
	assert.Equal(t, "2025-06-15", snap.UserDate)
	assert.Equal(t, "2025-06-15", env.svc.CurrentDate())

	env.auth.currentTimeFn = func(context.Context) (*protocol.CurrentTime, error) {
		return nil, domain.ErrUnavailable
	}
	_, err = env.svc.SetMockDateTime(ctx, "")
	require.ErrorIs(t, err, domain.ErrCommandFailed)
	require.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestSetMockDateTime_QueuesBehindRefresh(t *testing.T) {
	auth := newStubAuthority("2025-03-01")
	auth.gate = make(chan struct{})
	env := newTestEnv(t, auth)
	ctx := context.Background()
	env.svc.SetAuthenticationStatus(ctx, true)

	refreshed := make(chan app.State, 1)
	go func() { refreshed <- env.svc.Refresh(ctx) }()
	require.Eventually(t, func() bool { return auth.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	type result struct {
		snap domain.Snapshot
		err  error
	}
	mocked := make(chan result, 1)
	go func() {
		snap, err := env.svc.SetMockDateTime(ctx, "2025-06-15T10:00:00")
		mocked <- result{snap, err}
	}()

	close(auth.gate)
	<-refreshed
	res := <-mocked

	require.NoError(t, res.err)
	assert.True(t, res.snap.IsMockDate)
	assert.Equal(t, "2025-06-15", res.snap.UserDate)
	assert.Equal(t, int32(2), auth.calls.Load())
	assert.Equal(t, int32(1), auth.maxActive.Load())
}

func TestParseMockInstant(t *testing.T) {
	for _, iso := range []string{"2025-06-15T10:00:00Z", "2025-06-15T10:00:00+02:00", "2025-06-15T10:00:00", "2025-06-15"} {
		got, err := app.ParseMockInstant(iso)
		require.NoError(t, err, iso)
		assert.Equal(t, 2025, got.Year())
	}

	_, err := app.ParseMockInstant("15/06/2025")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
