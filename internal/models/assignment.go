package models

import "time"

// AssignmentKey is the composite natural key of an assignment. Canvas
// assignment ids are only unique within a course, so the bare id must never
// be used as an identity on its own.
type AssignmentKey struct {
	CourseID     int64
	AssignmentID int64
}

// Assignment mirrors a Canvas assignment plus the per-threshold due-reminder
// state. A sync overwrites every attribute except the reminder columns.
type Assignment struct {
	ID         int64      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	CourseID   int64      `gorm:"primaryKey;autoIncrement:false" json:"course_id"`
	Name       string     `gorm:"size:255;not null" json:"name"`
	DueAt      *time.Time `gorm:"column:due_at" json:"due_at,omitempty"`
	WeekNumber *int       `gorm:"column:week_number" json:"week_number,omitempty"`
	HTMLURL    string     `gorm:"column:html_url;size:512" json:"html_url"`
	Submitted  bool       `gorm:"not null;default:false" json:"submitted"`

	DueReminder2dSent  ReminderState `gorm:"column:due_reminder_2d_sent;not null;default:0" json:"-"`
	DueReminder1dSent  ReminderState `gorm:"column:due_reminder_1d_sent;not null;default:0" json:"-"`
	DueReminder12hSent ReminderState `gorm:"column:due_reminder_12h_sent;not null;default:0" json:"-"`
}

// Key returns the assignment's composite identity.
func (a Assignment) Key() AssignmentKey {
	return AssignmentKey{CourseID: a.CourseID, AssignmentID: a.ID}
}

// DueReminderColumn maps a threshold to its state column name.
func DueReminderColumn(kind DueReminderKind) string {
	switch kind {
	case DueReminder2d:
		return "due_reminder_2d_sent"
	case DueReminder1d:
		return "due_reminder_1d_sent"
	case DueReminder12h:
		return "due_reminder_12h_sent"
	default:
		return ""
	}
}
