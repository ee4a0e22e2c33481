package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/ingat-go-api/internal/models"
)

// WeekAssignmentRow is an assignment joined with its course display data and
// the requesting user's completion status.
type WeekAssignmentRow struct {
	AssignmentID int64      `gorm:"column:assignment_id"`
	CourseID     int64      `gorm:"column:course_id"`
	Name         string     `gorm:"column:name"`
	DueAt        *time.Time `gorm:"column:due_at"`
	CourseCode   string     `gorm:"column:course_code"`
	CourseName   string     `gorm:"column:course_name"`
	Completed    bool       `gorm:"column:completed"`
	Submitted    bool       `gorm:"column:submitted"`
}

// DueReminderRow is an assignment that has crossed a due-date threshold for a
// given user and still has that threshold pending.
type DueReminderRow struct {
	AssignmentID int64     `gorm:"column:assignment_id"`
	CourseID     int64     `gorm:"column:course_id"`
	Name         string    `gorm:"column:name"`
	DueAt        time.Time `gorm:"column:due_at"`
	CourseCode   string    `gorm:"column:course_code"`
	CourseName   string    `gorm:"column:course_name"`

	Kind models.DueReminderKind `gorm:"-"`
}

// AssignmentRepository defines persistence operations for assignments,
// including the due-date reminder queries.
type AssignmentRepository interface {
	UpsertForCourse(ctx context.Context, courseID int64, assignments []models.Assignment) error
	ListDueBetween(ctx context.Context, userID string, startUTC, endUTC time.Time) ([]WeekAssignmentRow, error)
	GetByKey(ctx context.Context, key models.AssignmentKey) (models.Assignment, error)
	PendingDueReminders(ctx context.Context, userID string, kind models.DueReminderKind, windowStart, windowEnd, weekStartUTC, weekEndUTC time.Time) ([]DueReminderRow, error)
	MarkDueReminderSent(ctx context.Context, key models.AssignmentKey, kind models.DueReminderKind) error
	CountDueBetween(ctx context.Context, startUTC, endUTC time.Time) (int64, error)
	CountCompletedBetween(ctx context.Context, userID string, startUTC, endUTC time.Time) (int64, error)
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository instantiates a GORM-backed repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

// UpsertForCourse inserts or updates each assignment by its composite key.
// Reminder state columns are deliberately absent from the update list: a
// re-sync never re-arms an already-sent due-date reminder.
func (r *assignmentRepository) UpsertForCourse(ctx context.Context, courseID int64, assignments []models.Assignment) error {
	if len(assignments) == 0 {
		return nil
	}

	for i := range assignments {
		assignments[i].CourseID = courseID
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "course_id"}, {Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "due_at", "week_number", "html_url", "submitted"}),
	}).Create(&assignments).Error
}

func (r *assignmentRepository) ListDueBetween(ctx context.Context, userID string, startUTC, endUTC time.Time) ([]WeekAssignmentRow, error) {
	var rows []WeekAssignmentRow
	err := r.db.WithContext(ctx).
		Table("assignments AS a").
		Select(`a.id AS assignment_id, a.course_id, a.name, a.due_at,
			c.course_code, c.name AS course_name,
			COALESCE(uas.completed, false) AS completed, a.submitted`).
		Joins("JOIN courses c ON c.id = a.course_id").
		Joins("LEFT JOIN user_assignment_status uas ON uas.user_id = ? AND uas.course_id = a.course_id AND uas.assignment_id = a.id", userID).
		Where("a.due_at BETWEEN ? AND ?", startUTC, endUTC).
		Order("a.due_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}

func (r *assignmentRepository) GetByKey(ctx context.Context, key models.AssignmentKey) (models.Assignment, error) {
	var assignment models.Assignment
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND id = ?", key.CourseID, key.AssignmentID).
		First(&assignment).Error
	if err != nil {
		return models.Assignment{}, err
	}

	return assignment, nil
}

// PendingDueReminders selects assignments whose due date sits inside the
// threshold tolerance window, limited to the current display week, with the
// threshold still pending and the given user not marked complete. The sent
// flag is shared across users: once any delivery marks it, no user is
// selected for that threshold again.
func (r *assignmentRepository) PendingDueReminders(ctx context.Context, userID string, kind models.DueReminderKind, windowStart, windowEnd, weekStartUTC, weekEndUTC time.Time) ([]DueReminderRow, error) {
	column := models.DueReminderColumn(kind)
	if column == "" {
		return nil, fmt.Errorf("unknown due reminder kind %q", kind)
	}

	var rows []DueReminderRow
	err := r.db.WithContext(ctx).
		Table("assignments AS a").
		Select("a.id AS assignment_id, a.course_id, a.name, a.due_at, c.course_code, c.name AS course_name").
		Joins("JOIN courses c ON c.id = a.course_id").
		Joins("LEFT JOIN user_assignment_status uas ON uas.user_id = ? AND uas.course_id = a.course_id AND uas.assignment_id = a.id", userID).
		Where("a.due_at BETWEEN ? AND ?", windowStart, windowEnd).
		Where("a.due_at BETWEEN ? AND ?", weekStartUTC, weekEndUTC).
		Where(fmt.Sprintf("a.%s = ?", column), models.ReminderPending).
		Where("COALESCE(uas.completed, false) = false").
		Order("a.due_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for i := range rows {
		rows[i].Kind = kind
	}

	return rows, nil
}

// MarkDueReminderSent flips exactly one threshold column from pending to
// sent. Marking an already-sent threshold is a no-op, not an error.
func (r *assignmentRepository) MarkDueReminderSent(ctx context.Context, key models.AssignmentKey, kind models.DueReminderKind) error {
	column := models.DueReminderColumn(kind)
	if column == "" {
		return fmt.Errorf("unknown due reminder kind %q", kind)
	}

	return r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("course_id = ? AND id = ?", key.CourseID, key.AssignmentID).
		Where(fmt.Sprintf("%s = ?", column), models.ReminderPending).
		Update(column, models.ReminderSent).Error
}

func (r *assignmentRepository) CountDueBetween(ctx context.Context, startUTC, endUTC time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("due_at BETWEEN ? AND ?", startUTC, endUTC).
		Count(&total).Error
	if err != nil {
		return 0, err
	}

	return total, nil
}

func (r *assignmentRepository) CountCompletedBetween(ctx context.Context, userID string, startUTC, endUTC time.Time) (int64, error) {
	var completed int64
	err := r.db.WithContext(ctx).
		Table("assignments AS a").
		Joins("JOIN user_assignment_status uas ON uas.user_id = ? AND uas.course_id = a.course_id AND uas.assignment_id = a.id", userID).
		Where("a.due_at BETWEEN ? AND ?", startUTC, endUTC).
		Where("uas.completed = ?", true).
		Count(&completed).Error
	if err != nil {
		return 0, err
	}

	return completed, nil
}
