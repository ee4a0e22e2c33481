package models

import "time"

// ReminderState tracks whether a reminder threshold has fired. Stored as an
// integer column so mark-sent can be a conditional update (pending -> sent).
type ReminderState int8

const (
	ReminderPending ReminderState = 0
	ReminderSent    ReminderState = 1
)

// Fired reports whether the reminder has already been delivered.
func (s ReminderState) Fired() bool {
	return s == ReminderSent
}

// WorkReminderKind identifies a work-session reminder threshold relative to
// the planned session time.
type WorkReminderKind string

const (
	WorkReminder24h WorkReminderKind = "24h"
	WorkReminder1h  WorkReminderKind = "1h"
	WorkReminderNow WorkReminderKind = "now"
)

// WorkReminderKinds lists the thresholds in firing order (furthest first).
func WorkReminderKinds() []WorkReminderKind {
	return []WorkReminderKind{WorkReminder24h, WorkReminder1h, WorkReminderNow}
}

// Offset is the lead time before planned_at at which the reminder fires.
func (k WorkReminderKind) Offset() time.Duration {
	switch k {
	case WorkReminder24h:
		return 24 * time.Hour
	case WorkReminder1h:
		return time.Hour
	default:
		return 0
	}
}

// Valid reports whether k is a known threshold.
func (k WorkReminderKind) Valid() bool {
	switch k {
	case WorkReminder24h, WorkReminder1h, WorkReminderNow:
		return true
	default:
		return false
	}
}

// DueReminderKind identifies a due-date reminder threshold relative to an
// assignment deadline.
type DueReminderKind string

const (
	DueReminder2d  DueReminderKind = "2d"
	DueReminder1d  DueReminderKind = "1d"
	DueReminder12h DueReminderKind = "12h"
)

// DueReminderKinds lists the thresholds in firing order (furthest first).
func DueReminderKinds() []DueReminderKind {
	return []DueReminderKind{DueReminder2d, DueReminder1d, DueReminder12h}
}

// Offset is the lead time before due_at at which the reminder fires.
func (k DueReminderKind) Offset() time.Duration {
	switch k {
	case DueReminder2d:
		return 48 * time.Hour
	case DueReminder1d:
		return 24 * time.Hour
	default:
		return 12 * time.Hour
	}
}

// Valid reports whether k is a known threshold.
func (k DueReminderKind) Valid() bool {
	switch k {
	case DueReminder2d, DueReminder1d, DueReminder12h:
		return true
	default:
		return false
	}
}
