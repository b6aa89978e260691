package domain_test

import (
	"testing"

	"github.com/aelexs/timesync/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestParseDateFilter(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   domain.DateFilter
		wantOK bool
	}{
		{name: "day", in: "day", want: domain.FilterDay, wantOK: true},
		{name: "today is an alias", in: "today", want: domain.FilterDay, wantOK: true},
		{name: "week", in: "week", want: domain.FilterWeek, wantOK: true},
		{name: "month", in: "month", want: domain.FilterMonth, wantOK: true},
		{name: "year", in: "year", want: domain.FilterYear, wantOK: true},
		{name: "empty is invalid", in: "", wantOK: false},
		{name: "Week is invalid (case-sensitive)", in: "Week", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := domain.ParseDateFilter(tt.in)

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSyncLimits(t *testing.T) {
	assert.Less(t, domain.SyncFreshnessWindow, domain.ResyncInterval,
		"freshness window must be shorter than the resync cadence")
	assert.Less(t, domain.SyncRequestTimeout, domain.SyncFreshnessWindow)
	assert.Equal(t, 3, domain.MaxConsecutiveSyncErrors)
}
