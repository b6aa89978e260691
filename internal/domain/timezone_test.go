package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalTimezone(t *testing.T) {
	t.Run("TZ environment wins", func(t *testing.T) {
		t.Setenv("TZ", "Asia/Seoul")

		name, loc := LocalTimezone()

		assert.Equal(t, "Asia/Seoul", name)
		assert.Equal(t, "Asia/Seoul", loc.String())
	})

	t.Run("leading colon is ignored", func(t *testing.T) {
		t.Setenv("TZ", ":Europe/Paris")

		name, _ := LocalTimezone()

		assert.Equal(t, "Europe/Paris", name)
	})

	t.Run("falls back to UTC when nothing resolves", func(t *testing.T) {
		t.Setenv("TZ", "Not/AZone")
		orig := localtimePath
		localtimePath = "/nonexistent/localtime"
		t.Cleanup(func() { localtimePath = orig })

		name, loc := LocalTimezone()

		assert.Equal(t, "UTC", name)
		assert.Equal(t, "UTC", loc.String())
	})
}

func TestZoneFromPath(t *testing.T) {
	name, ok := zoneFromPath("/usr/share/zoneinfo/America/New_York")
	require.True(t, ok)
	assert.Equal(t, "America/New_York", name)

	_, ok = zoneFromPath("/etc/localtime")
	assert.False(t, ok)
}

func TestLoadTimezone(t *testing.T) {
	loc, err := LoadTimezone("Europe/Paris")
	require.NoError(t, err)
	assert.Equal(t, "Europe/Paris", loc.String())

	_, err = LoadTimezone("")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = LoadTimezone("Mars/Olympus")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
