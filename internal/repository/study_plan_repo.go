package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/ingat-go-api/internal/models"
)

// PlanDetailRow is a study plan joined with assignment and course display
// attributes.
type PlanDetailRow struct {
	UserID         string     `gorm:"column:user_id"`
	AssignmentID   int64      `gorm:"column:assignment_id"`
	CourseID       int64      `gorm:"column:course_id"`
	PlannedAt      time.Time  `gorm:"column:planned_at_utc"`
	Notes          string     `gorm:"column:notes"`
	AssignmentName string     `gorm:"column:assignment_name"`
	AssignmentDue  *time.Time `gorm:"column:assignment_due"`
	CourseCode     string     `gorm:"column:course_code"`
	CourseName     string     `gorm:"column:course_name"`
}

// WorkReminderRow is a study plan that has crossed a work-session threshold
// with that threshold still pending.
type WorkReminderRow struct {
	PlanDetailRow

	Kind models.WorkReminderKind `gorm:"-"`
}

// StudyPlanRepository defines persistence operations for study plans,
// including the work-session reminder queries.
type StudyPlanRepository interface {
	Upsert(ctx context.Context, plan *models.StudyPlan) error
	GetByKey(ctx context.Context, key models.PlanKey) (models.StudyPlan, error)
	ListForWeek(ctx context.Context, userID string, startUTC, endUTC time.Time) ([]PlanDetailRow, error)
	PendingWorkReminders(ctx context.Context, kind models.WorkReminderKind, windowStart, windowEnd time.Time) ([]WorkReminderRow, error)
	MarkReminderSent(ctx context.Context, key models.PlanKey, kind models.WorkReminderKind) error
	Reschedule(ctx context.Context, key models.PlanKey, plannedAtUTC time.Time) error
}

type studyPlanRepository struct {
	db *gorm.DB
}

// NewStudyPlanRepository instantiates a GORM-backed repository.
func NewStudyPlanRepository(db *gorm.DB) StudyPlanRepository {
	return &studyPlanRepository{db: db}
}

// Upsert inserts or replaces the user's planned session for an assignment.
// On conflict the reminder columns are overwritten along with planned_at and
// notes, so re-planning always re-arms every threshold.
func (r *studyPlanRepository) Upsert(ctx context.Context, plan *models.StudyPlan) error {
	plan.Reminder24hSent = models.ReminderPending
	plan.Reminder1hSent = models.ReminderPending
	plan.ReminderNowSent = models.ReminderPending

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "course_id"}, {Name: "assignment_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"planned_at_utc", "notes",
			"reminder_24h_sent", "reminder_1h_sent", "reminder_now_sent",
		}),
	}).Create(plan).Error
}

func (r *studyPlanRepository) GetByKey(ctx context.Context, key models.PlanKey) (models.StudyPlan, error) {
	var plan models.StudyPlan
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ? AND assignment_id = ?", key.UserID, key.CourseID, key.AssignmentID).
		First(&plan).Error
	if err != nil {
		return models.StudyPlan{}, err
	}

	return plan, nil
}

func (r *studyPlanRepository) ListForWeek(ctx context.Context, userID string, startUTC, endUTC time.Time) ([]PlanDetailRow, error) {
	var rows []PlanDetailRow
	err := r.db.WithContext(ctx).
		Table("study_plans AS sp").
		Select(`sp.user_id, sp.assignment_id, sp.course_id, sp.planned_at_utc, sp.notes,
			a.name AS assignment_name, a.due_at AS assignment_due,
			c.course_code, c.name AS course_name`).
		Joins("JOIN assignments a ON a.id = sp.assignment_id AND a.course_id = sp.course_id").
		Joins("JOIN courses c ON c.id = sp.course_id").
		Where("sp.user_id = ?", userID).
		Where("sp.planned_at_utc BETWEEN ? AND ?", startUTC, endUTC).
		Order("sp.planned_at_utc ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// PendingWorkReminders selects plans whose planned time sits inside the
// threshold tolerance window and whose threshold column is still pending.
func (r *studyPlanRepository) PendingWorkReminders(ctx context.Context, kind models.WorkReminderKind, windowStart, windowEnd time.Time) ([]WorkReminderRow, error) {
	column := models.WorkReminderColumn(kind)
	if column == "" {
		return nil, fmt.Errorf("unknown work reminder kind %q", kind)
	}

	var rows []WorkReminderRow
	err := r.db.WithContext(ctx).
		Table("study_plans AS sp").
		Select(`sp.user_id, sp.assignment_id, sp.course_id, sp.planned_at_utc, sp.notes,
			a.name AS assignment_name, a.due_at AS assignment_due,
			c.course_code, c.name AS course_name`).
		Joins("JOIN assignments a ON a.id = sp.assignment_id AND a.course_id = sp.course_id").
		Joins("JOIN courses c ON c.id = sp.course_id").
		Where("sp.planned_at_utc BETWEEN ? AND ?", windowStart, windowEnd).
		Where(fmt.Sprintf("sp.%s = ?", column), models.ReminderPending).
		Order("sp.planned_at_utc ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for i := range rows {
		rows[i].Kind = kind
	}

	return rows, nil
}

// MarkReminderSent flips exactly one threshold column from pending to sent.
// Marking an already-sent threshold is a no-op, not an error.
func (r *studyPlanRepository) MarkReminderSent(ctx context.Context, key models.PlanKey, kind models.WorkReminderKind) error {
	column := models.WorkReminderColumn(kind)
	if column == "" {
		return fmt.Errorf("unknown work reminder kind %q", kind)
	}

	return r.db.WithContext(ctx).
		Model(&models.StudyPlan{}).
		Where("user_id = ? AND course_id = ? AND assignment_id = ?", key.UserID, key.CourseID, key.AssignmentID).
		Where(fmt.Sprintf("%s = ?", column), models.ReminderPending).
		Update(column, models.ReminderSent).Error
}

// Reschedule moves the planned time and resets every reminder threshold to
// pending, re-arming reminders relative to the new time.
func (r *studyPlanRepository) Reschedule(ctx context.Context, key models.PlanKey, plannedAtUTC time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.StudyPlan{}).
		Where("user_id = ? AND course_id = ? AND assignment_id = ?", key.UserID, key.CourseID, key.AssignmentID).
		Updates(map[string]interface{}{
			"planned_at_utc":    plannedAtUTC,
			"reminder_24h_sent": models.ReminderPending,
			"reminder_1h_sent":  models.ReminderPending,
			"reminder_now_sent": models.ReminderPending,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
