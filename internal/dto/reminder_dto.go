package dto

import (
	"fmt"
	"time"

	"github.com/noah-isme/ingat-go-api/internal/models"
	"github.com/noah-isme/ingat-go-api/internal/repository"
	"github.com/noah-isme/ingat-go-api/internal/timeutil"
)

// DisplayLayout renders instants the way users see them in reminders,
// e.g. "Wed Oct 15, 07:30 PM".
const DisplayLayout = "Mon Jan 02, 03:04 PM"

// Event categories carried by ReminderEvent.Category.
const (
	EventWorkSession  = "work_session"
	EventDueDate      = "due_date"
	EventWeekComplete = "week_complete"
	EventWeeklyDigest = "weekly_digest"
)

// ReminderEvent is the structured notification handed to the delivery shell.
// It carries everything needed to render a human-readable message; the shell
// owns presentation and acknowledges delivery via the mark-sent endpoints.
type ReminderEvent struct {
	Category     string `json:"category"`
	Threshold    string `json:"threshold,omitempty"`
	UserID       string `json:"user_id,omitempty"`
	CourseID     int64  `json:"course_id,omitempty"`
	AssignmentID int64  `json:"assignment_id,omitempty"`
	Assignment   string `json:"assignment,omitempty"`
	CourseLabel  string `json:"course_label,omitempty"`
	PlannedAt    string `json:"planned_at,omitempty"`
	PlannedLocal string `json:"planned_local,omitempty"`
	DueAt        string `json:"due_at,omitempty"`
	DueLocal     string `json:"due_local,omitempty"`
	WeekKey      string `json:"week_key,omitempty"`
	Message      string `json:"message,omitempty"`
}

func courseLabel(code, name string) string {
	if code != "" {
		return code + ": " + name
	}
	return name
}

// NewWorkReminderEvent converts a pending work-session row into an event.
func NewWorkReminderEvent(row repository.WorkReminderRow) ReminderEvent {
	event := ReminderEvent{
		Category:     EventWorkSession,
		Threshold:    string(row.Kind),
		UserID:       row.UserID,
		CourseID:     row.CourseID,
		AssignmentID: row.AssignmentID,
		Assignment:   row.AssignmentName,
		CourseLabel:  courseLabel(row.CourseCode, row.CourseName),
		PlannedAt:    timeutil.ToCanonical(row.PlannedAt),
		PlannedLocal: timeutil.FormatLocal(row.PlannedAt, DisplayLayout),
	}

	if row.AssignmentDue != nil {
		event.DueAt = timeutil.ToCanonical(*row.AssignmentDue)
		event.DueLocal = timeutil.FormatLocal(*row.AssignmentDue, DisplayLayout)
	}

	return event
}

// NewDueReminderEvent converts a pending due-date row into an event for the
// given user.
func NewDueReminderEvent(userID string, row repository.DueReminderRow) ReminderEvent {
	return ReminderEvent{
		Category:     EventDueDate,
		Threshold:    string(row.Kind),
		UserID:       userID,
		CourseID:     row.CourseID,
		AssignmentID: row.AssignmentID,
		Assignment:   row.Name,
		CourseLabel:  courseLabel(row.CourseCode, row.CourseName),
		DueAt:        timeutil.ToCanonical(row.DueAt),
		DueLocal:     timeutil.FormatLocal(row.DueAt, DisplayLayout),
	}
}

// NewWeekCompleteEvent builds the once-per-week congratulation event.
func NewWeekCompleteEvent(userID, weekKey string, total int64, weekStart time.Time) ReminderEvent {
	return ReminderEvent{
		Category: EventWeekComplete,
		UserID:   userID,
		WeekKey:  weekKey,
		Message:  weekCompleteMessage(total, weekStart),
	}
}

func weekCompleteMessage(total int64, weekStart time.Time) string {
	weekEnd := weekStart.AddDate(0, 0, 6)
	return fmt.Sprintf("All %d assignment(s) completed for the week of %s - %s.",
		total,
		timeutil.FormatLocal(weekStart, "Jan 02"),
		timeutil.FormatLocal(weekEnd, "Jan 02"))
}

// NewWeeklyDigestEvent wraps the Monday digest broadcast for one user.
func NewWeeklyDigestEvent(userID, weekKey string, digest WeekDigestResponse) ReminderEvent {
	message := fmt.Sprintf("No assignments due for %s. You're all caught up!", digest.WeekLabel)
	if len(digest.Items) > 0 {
		message = fmt.Sprintf("%d assignment(s) due for %s.", len(digest.Items), digest.WeekLabel)
	}

	return ReminderEvent{
		Category: EventWeeklyDigest,
		UserID:   userID,
		WeekKey:  weekKey,
		Message:  message,
	}
}

// WorkReminderAck identifies a delivered work-session reminder.
type WorkReminderAck struct {
	UserID       string                  `json:"user_id" validate:"required"`
	CourseID     int64                   `json:"course_id" validate:"required"`
	AssignmentID int64                   `json:"assignment_id" validate:"required"`
	Threshold    models.WorkReminderKind `json:"threshold" validate:"required"`
}

// DueReminderAck identifies a delivered due-date reminder.
type DueReminderAck struct {
	CourseID     int64                  `json:"course_id" validate:"required"`
	AssignmentID int64                  `json:"assignment_id" validate:"required"`
	Threshold    models.DueReminderKind `json:"threshold" validate:"required"`
}
