package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestToCanonicalTruncatesAndUsesUTC(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	local := time.Date(2025, 10, 15, 15, 30, 0, 987654321, loc)
	require.Equal(t, "2025-10-15T19:30:00Z", ToCanonical(local))
}

func TestFromCanonicalRoundTrip(t *testing.T) {
	for _, value := range []string{
		"2025-10-15T14:30:00Z",
		"2025-01-01T00:00:00Z",
		"2025-12-31T23:59:59Z",
	} {
		parsed, err := FromCanonical(value)
		require.NoError(t, err)
		require.Equal(t, value, ToCanonical(parsed))
	}
}

func TestFromCanonicalAcceptsExplicitOffset(t *testing.T) {
	parsed, err := FromCanonical("2025-10-15T14:30:00+00:00")
	require.NoError(t, err)
	require.Equal(t, "2025-10-15T14:30:00Z", ToCanonical(parsed))
}

func TestFromCanonicalRejectsMalformedInput(t *testing.T) {
	for _, value := range []string{"", "   ", "not-a-timestamp", "2025-13-40T99:00:00Z"} {
		_, err := FromCanonical(value)
		require.Error(t, err, "expected error for %q", value)
	}
}

func TestWeekWindowSpansMondayToSunday(t *testing.T) {
	t.Setenv("INGAT_TIMEZONE", "America/New_York")

	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	references := []time.Time{
		time.Date(2025, 10, 13, 0, 0, 0, 0, loc),   // Monday
		time.Date(2025, 10, 15, 12, 30, 0, 0, loc), // Wednesday
		time.Date(2025, 10, 19, 23, 59, 0, 0, loc), // Sunday night
	}

	for _, ref := range references {
		start, end := WeekWindow(ref)
		require.Equal(t, time.Monday, start.Weekday())
		require.Equal(t, time.Sunday, end.Weekday())
		require.Equal(t, 0, start.Hour())
		require.Equal(t, 0, start.Minute())
		require.Equal(t, 23, end.Hour())
		require.Equal(t, 59, end.Minute())
		require.Equal(t, 59, end.Second())
		require.Equal(t, 6*24*time.Hour+23*time.Hour+59*time.Minute+59*time.Second, end.Sub(start))
	}
}

func TestWeekWindowAdvancesAtMondayBoundary(t *testing.T) {
	t.Setenv("INGAT_TIMEZONE", "UTC")

	sundayNight := time.Date(2025, 10, 19, 23, 59, 0, 0, time.UTC)
	mondayMorning := time.Date(2025, 10, 20, 0, 1, 0, 0, time.UTC)

	lateStart, _ := WeekWindow(sundayNight)
	nextStart, _ := WeekWindow(mondayMorning)

	require.Equal(t, time.Date(2025, 10, 13, 0, 0, 0, 0, time.UTC), lateStart)
	require.Equal(t, lateStart.AddDate(0, 0, 7), nextStart)
}

func TestWeekKeyStablePerWeek(t *testing.T) {
	t.Setenv("INGAT_TIMEZONE", "UTC")

	monday := time.Date(2025, 10, 13, 0, 0, 0, 0, time.UTC)
	require.Equal(t, "2025-W42", WeekKey(monday))

	nextMonday := monday.AddDate(0, 0, 7)
	require.NotEqual(t, WeekKey(monday), WeekKey(nextMonday))
}

func TestDisplayTimezoneFallsBackToUTCOnBadName(t *testing.T) {
	t.Setenv("INGAT_TIMEZONE", "Not/AZone")
	t.Setenv("TIMEZONE", "")

	loc := DisplayTimezone()
	require.NotNil(t, loc)
}
