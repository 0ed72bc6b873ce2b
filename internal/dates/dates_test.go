package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDayKeepsWrittenCalendarDate(t *testing.T) {
	for _, raw := range []string{
		"2026-10-17",
		"2026-10-17T00:00:00Z",
		"2026-10-17T23:30:00-08:00",
		"2026-10-17 08:15:00",
	} {
		d, ok := ParseDay(raw)
		require.True(t, ok, raw)
		assert.Equal(t, time.Date(2026, 10, 17, 0, 0, 0, 0, time.Local), d, raw)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	_, ok := Parse("next tuesday")
	assert.False(t, ok)
	_, ok = Parse("  ")
	assert.False(t, ok)
}

func TestFormatFallsBackToRaw(t *testing.T) {
	assert.Equal(t, "Oct 17", Format("2026-10-17", "Jan 2"))
	assert.Equal(t, "not-a-date", Format("not-a-date", "Jan 2"))
	assert.Equal(t, "", Format("", "Jan 2"))
}

func TestCompareDayIgnoresClock(t *testing.T) {
	morning := time.Date(2026, 10, 17, 1, 0, 0, 0, time.Local)
	night := time.Date(2026, 10, 17, 23, 59, 0, 0, time.Local)
	next := time.Date(2026, 10, 18, 0, 0, 0, 0, time.Local)

	assert.Equal(t, 0, CompareDay(morning, night))
	assert.Equal(t, -1, CompareDay(night, next))
	assert.Equal(t, 1, CompareDay(next, morning))
	assert.Equal(t, -1, CompareDay(time.Date(2025, 12, 31, 0, 0, 0, 0, time.Local), morning))
}

func TestNoonAndStartOfDay(t *testing.T) {
	ts := time.Date(2026, 3, 8, 17, 45, 12, 99, time.Local)
	assert.Equal(t, time.Date(2026, 3, 8, 12, 0, 0, 0, time.Local), Noon(ts))
	assert.Equal(t, time.Date(2026, 3, 8, 0, 0, 0, 0, time.Local), StartOfDay(ts))
}

func TestDaysIn(t *testing.T) {
	assert.Equal(t, 29, DaysIn(2028, time.February))
	assert.Equal(t, 28, DaysIn(2026, time.February))
	assert.Equal(t, 31, DaysIn(2026, time.December))
	assert.Equal(t, 30, DaysIn(2026, time.June))
}

func TestWithClock(t *testing.T) {
	day := time.Date(2026, 10, 17, 0, 0, 0, 0, time.Local)

	got, ok := WithClock(day, "18:30")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 10, 17, 18, 30, 0, 0, time.Local), got)

	got, ok = WithClock(day, "07:05:09")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 10, 17, 7, 5, 9, 0, time.Local), got)

	got, ok = WithClock(day, "after dinner")
	assert.False(t, ok)
	assert.Equal(t, day, got)
}
