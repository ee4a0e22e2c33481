package models

import "time"

// PlanKey is the composite identity of a study plan: one planned work session
// per user per assignment.
type PlanKey struct {
	UserID       string
	CourseID     int64
	AssignmentID int64
}

// StudyPlan is a user's planned work session for an assignment. Rescheduling
// overwrites planned_at and resets every reminder column to pending; that
// reset is the only transition out of the sent state.
type StudyPlan struct {
	UserID       string    `gorm:"primaryKey;size:64" json:"user_id"`
	CourseID     int64     `gorm:"primaryKey;autoIncrement:false" json:"course_id"`
	AssignmentID int64     `gorm:"primaryKey;autoIncrement:false" json:"assignment_id"`
	PlannedAt    time.Time `gorm:"column:planned_at_utc;not null" json:"planned_at"`
	Notes        string    `gorm:"type:text" json:"notes,omitempty"`

	Reminder24hSent ReminderState `gorm:"column:reminder_24h_sent;not null;default:0" json:"-"`
	Reminder1hSent  ReminderState `gorm:"column:reminder_1h_sent;not null;default:0" json:"-"`
	ReminderNowSent ReminderState `gorm:"column:reminder_now_sent;not null;default:0" json:"-"`
}

// Key returns the plan's composite identity.
func (p StudyPlan) Key() PlanKey {
	return PlanKey{UserID: p.UserID, CourseID: p.CourseID, AssignmentID: p.AssignmentID}
}

// WorkReminderColumn maps a threshold to its state column name.
func WorkReminderColumn(kind WorkReminderKind) string {
	switch kind {
	case WorkReminder24h:
		return "reminder_24h_sent"
	case WorkReminder1h:
		return "reminder_1h_sent"
	case WorkReminderNow:
		return "reminder_now_sent"
	default:
		return ""
	}
}
