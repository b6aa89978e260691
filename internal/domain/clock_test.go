package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aelexs/timesync/internal/domain"
	"github.com/aelexs/timesync/internal/domain/domaintest"
)

func TestRealClock(t *testing.T) {
	t.Run("returns current time", func(t *testing.T) {
		clock := domain.RealClock{}
		before := time.Now()
		got := clock.Now()
		after := time.Now()

		assert.False(t, got.Before(before), "clock.Now() should not be before reference time")
		assert.False(t, got.After(after), "clock.Now() should not be after reference time")
	})
}

func TestFakeClock(t *testing.T) {
	fixedTime := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("returns fixed time", func(t *testing.T) {
		clock := domaintest.NewFakeClock(fixedTime)
		assert.True(t, clock.Now().Equal(fixedTime))
	})

	t.Run("advance moves time forward", func(t *testing.T) {
		clock := domaintest.NewFakeClock(fixedTime)
		clock.Advance(1 * time.Hour)

		assert.True(t, clock.Now().Equal(fixedTime.Add(1*time.Hour)))
	})

	t.Run("set changes time", func(t *testing.T) {
		clock := domaintest.NewFakeClock(fixedTime)
		newTime := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
		clock.Set(newTime)

		assert.True(t, clock.Now().Equal(newTime))
	})

	t.Run("on date starts at noon UTC", func(t *testing.T) {
		clock := domaintest.NewFakeClockOnDate("2025-03-02")

		assert.Equal(t, time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC), clock.Now())
	})
}

func TestFormatAndParseDate(t *testing.T) {
	t.Run("format uses the value's location", func(t *testing.T) {
		tokyo, err := time.LoadLocation("Asia/Tokyo")
		require.NoError(t, err)
		instant := time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)

		assert.Equal(t, "2025-03-01", domain.FormatDate(instant))
		assert.Equal(t, "2025-03-02", domain.FormatDate(instant.In(tokyo)))
	})

	t.Run("parse yields midnight in location", func(t *testing.T) {
		got, err := domain.ParseDate("2025-03-01", nil)

		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), got)
	})

	t.Run("parse rejects non-canonical form", func(t *testing.T) {
		_, err := domain.ParseDate("03/01/2025", nil)

		assert.Error(t, err)
	})
}
