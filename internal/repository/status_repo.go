package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/ingat-go-api/internal/models"
)

// StatusRepository handles per-user assignment completion state.
type StatusRepository interface {
	SetCompletion(ctx context.Context, status *models.UserAssignmentStatus) error
	Get(ctx context.Context, userID string, key models.AssignmentKey) (models.UserAssignmentStatus, error)
	KnownUsers(ctx context.Context) ([]string, error)
}

type statusRepository struct {
	db *gorm.DB
}

// NewStatusRepository instantiates a GORM-backed repository.
func NewStatusRepository(db *gorm.DB) StatusRepository {
	return &statusRepository{db: db}
}

func (r *statusRepository) SetCompletion(ctx context.Context, status *models.UserAssignmentStatus) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}, {Name: "assignment_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"completed", "completed_at_utc"}),
	}).Create(status).Error
}

func (r *statusRepository) Get(ctx context.Context, userID string, key models.AssignmentKey) (models.UserAssignmentStatus, error) {
	var status models.UserAssignmentStatus
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ? AND assignment_id = ?", userID, key.CourseID, key.AssignmentID).
		First(&status).Error
	if err != nil {
		return models.UserAssignmentStatus{}, err
	}

	return status, nil
}

// KnownUsers returns every user id that has interacted with the system,
// i.e. planned a session or toggled a completion. This is the audience for
// due-date and week-completion notifications.
func (r *statusRepository) KnownUsers(ctx context.Context) ([]string, error) {
	var users []string
	err := r.db.WithContext(ctx).
		Raw(`SELECT user_id FROM user_assignment_status
			UNION
			SELECT user_id FROM study_plans
			ORDER BY user_id`).
		Scan(&users).Error
	if err != nil {
		return nil, err
	}

	return users, nil
}

// WeekNotificationRepository debounces week-completion congratulations.
type WeekNotificationRepository interface {
	Notified(ctx context.Context, userID, weekKey string) (bool, error)
	MarkNotified(ctx context.Context, userID, weekKey string) error
}

type weekNotificationRepository struct {
	db *gorm.DB
}

// NewWeekNotificationRepository instantiates a GORM-backed repository.
func NewWeekNotificationRepository(db *gorm.DB) WeekNotificationRepository {
	return &weekNotificationRepository{db: db}
}

func (r *weekNotificationRepository) Notified(ctx context.Context, userID, weekKey string) (bool, error) {
	var notification models.WeekCompletionNotification
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND week_key = ?", userID, weekKey).
		First(&notification).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	return notification.Notified, nil
}

func (r *weekNotificationRepository) MarkNotified(ctx context.Context, userID, weekKey string) error {
	notification := models.WeekCompletionNotification{
		UserID:   userID,
		WeekKey:  weekKey,
		Notified: true,
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "week_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"notified"}),
	}).Create(&notification).Error
}
