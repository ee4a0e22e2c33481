package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/ingat-go-api/internal/models"
)

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	t.Setenv("INGAT_TIMEZONE", "UTC")

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Course{},
		&models.Assignment{},
		&models.StudyPlan{},
		&models.UserAssignmentStatus{},
		&models.WeekCompletionNotification{},
	))

	return db
}

func seedServiceCourse(t *testing.T, db *gorm.DB, id int64, code, name string) {
	t.Helper()
	require.NoError(t, db.Create(&models.Course{ID: id, Name: name, CourseCode: code}).Error)
}

func seedServiceAssignment(t *testing.T, db *gorm.DB, courseID, id int64, name string, due *time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&models.Assignment{
		ID:       id,
		CourseID: courseID,
		Name:     name,
		DueAt:    due,
	}).Error)
}

func seedServicePlan(t *testing.T, db *gorm.DB, userID string, courseID, assignmentID int64, plannedAt time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&models.StudyPlan{
		UserID:       userID,
		CourseID:     courseID,
		AssignmentID: assignmentID,
		PlannedAt:    plannedAt,
	}).Error)
}

func seedServiceStatus(t *testing.T, db *gorm.DB, userID string, courseID, assignmentID int64, completed bool) {
	t.Helper()
	require.NoError(t, db.Create(&models.UserAssignmentStatus{
		UserID:       userID,
		CourseID:     courseID,
		AssignmentID: assignmentID,
		Completed:    completed,
	}).Error)
}

func testValidator() *validator.Validate {
	return validator.New()
}

func testContext() context.Context {
	return context.Background()
}

func utcTimePtr(t time.Time) *time.Time {
	u := t.UTC()
	return &u
}
