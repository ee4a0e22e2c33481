// Package timeutil converts between the display timezone used for all
// user-facing times and the canonical UTC representation used for storage.
package timeutil

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Canonical is the wire and storage format for instants: UTC, whole seconds,
// trailing Z. Example: 2025-10-15T14:30:00Z.
const Canonical = "2006-01-02T15:04:05Z"

// DisplayTimezone resolves the timezone used for presentation and week
// boundaries. Order: INGAT_TIMEZONE env, TIMEZONE env, host local, UTC.
func DisplayTimezone() *time.Location {
	for _, key := range []string{"INGAT_TIMEZONE", "TIMEZONE"} {
		if name := strings.TrimSpace(os.Getenv(key)); name != "" {
			if loc, err := time.LoadLocation(name); err == nil {
				return loc
			}
		}
	}

	if loc := time.Local; loc != nil {
		return loc
	}

	return time.UTC
}

// ToCanonical renders an instant as a canonical UTC string, truncated to
// whole seconds. Zero-offset-unaware callers should pass display-local times.
func ToCanonical(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(Canonical)
}

// FromCanonical parses a canonical timestamp. Both the Z suffix and an
// explicit +00:00 offset are accepted.
func FromCanonical(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	// RFC3339 parsing accepts both the Z suffix and an explicit +00:00 offset.
	t, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid canonical timestamp %q: %w", value, err)
	}

	return t.UTC(), nil
}

// WeekWindow returns the Monday 00:00:00 and Sunday 23:59:59 of the week
// containing ref, both in the display timezone.
func WeekWindow(ref time.Time) (time.Time, time.Time) {
	loc := DisplayTimezone()
	local := ref.In(loc)

	// time.Weekday has Sunday=0; the week starts on Monday.
	offset := (int(local.Weekday()) + 6) % 7
	monday := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc).
		AddDate(0, 0, -offset)
	sunday := monday.AddDate(0, 0, 6).Add(23*time.Hour + 59*time.Minute + 59*time.Second)

	return monday, sunday
}

// WeekKey derives a stable identifier for the week containing weekStart,
// e.g. "2025-W42". ISO week numbering keeps the key stable across year
// boundaries that split a week.
func WeekKey(weekStart time.Time) string {
	year, week := weekStart.In(DisplayTimezone()).ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// FormatLocal renders an instant in the display timezone using layout.
func FormatLocal(t time.Time, layout string) string {
	return t.In(DisplayTimezone()).Format(layout)
}
