package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/ingat-go-api/internal/models"
)

// CourseRepository defines persistence operations for Canvas courses.
type CourseRepository interface {
	UpsertAll(ctx context.Context, courses []models.Course) error
	List(ctx context.Context) ([]models.Course, error)
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository instantiates a GORM-backed repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) UpsertAll(ctx context.Context, courses []models.Course) error {
	if len(courses) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "course_code", "start_at", "end_at"}),
	}).Create(&courses).Error
}

func (r *courseRepository) List(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&courses).Error; err != nil {
		return nil, err
	}

	return courses, nil
}
