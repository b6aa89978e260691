package calendar_test

import (
	"testing"
	"time"

	"github.com/aelexs/timesync/internal/calendar"
	"github.com/aelexs/timesync/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(s, time.UTC)
	require.NoError(t, err)
	return d
}

func TestStartOfWeek(t *testing.T) {
	tests := []struct {
		name      string
		day       string
		weekStart time.Weekday
		want      string
	}{
		{"saturday monday-start", "2025-03-01", time.Monday, "2025-02-24"},
		{"monday is its own start", "2025-02-24", time.Monday, "2025-02-24"},
		{"sunday monday-start", "2025-03-02", time.Monday, "2025-02-24"},
		{"sunday sunday-start", "2025-03-02", time.Sunday, "2025-03-02"},
		{"saturday sunday-start", "2025-03-01", time.Sunday, "2025-02-23"},
		{"crosses year", "2025-01-01", time.Monday, "2024-12-30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calendar.StartOfWeek(date(t, tt.day).Add(15*time.Hour), tt.weekStart)
			assert.Equal(t, tt.want, domain.FormatDate(got))
			assert.Zero(t, got.Hour())
		})
	}
}

func TestEndOfWeekAndMonth(t *testing.T) {
	day := date(t, "2025-02-12")

	assert.Equal(t, time.Date(2025, 2, 16, 23, 59, 59, 0, time.UTC), calendar.EndOfWeek(day, time.Monday))
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), calendar.StartOfMonth(day))
	assert.Equal(t, time.Date(2025, 2, 28, 23, 59, 59, 0, time.UTC), calendar.EndOfMonth(day))

	leap := date(t, "2024-02-10")
	assert.Equal(t, time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC), calendar.EndOfMonth(leap))
}

func TestDateRange(t *testing.T) {
	today := date(t, "2025-03-05")

	tests := []struct {
		filter    domain.DateFilter
		wantStart string
		wantEnd   string
		wantDays  int
	}{
		{domain.FilterDay, "2025-03-05", "2025-03-05", 1},
		{domain.FilterWeek, "2025-03-03", "2025-03-09", 7},
		{domain.FilterMonth, "2025-03-01", "2025-03-31", 31},
		{domain.FilterYear, "2025-01-01", "2025-12-31", 365},
	}

	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			r := calendar.DateRange(today, tt.filter, time.Monday)

			assert.Equal(t, tt.wantStart, domain.FormatDate(r.Start))
			assert.Equal(t, tt.wantEnd, domain.FormatDate(r.End))
			assert.Equal(t, tt.wantDays, r.Days())
		})
	}
}

func TestDateRange_DSTWeek(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// Week containing the 2025-03-09 spring-forward transition.
	today, err := domain.ParseDate("2025-03-06", ny)
	require.NoError(t, err)

	r := calendar.DateRange(today, domain.FilterWeek, time.Monday)

	assert.Equal(t, "2025-03-03", domain.FormatDate(r.Start))
	assert.Equal(t, "2025-03-09", domain.FormatDate(r.End))
	assert.Equal(t, 23, r.End.Hour())
	assert.Equal(t, 7, r.Days())
}

func TestWeekDays(t *testing.T) {
	days := calendar.WeekDays(date(t, "2025-03-01"), time.Monday)

	assert.Equal(t, []string{
		"2025-02-24", "2025-02-25", "2025-02-26", "2025-02-27",
		"2025-02-28", "2025-03-01", "2025-03-02",
	}, days)
}
