package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ingat-go-api/internal/canvas"
	"github.com/noah-isme/ingat-go-api/internal/models"
	"github.com/noah-isme/ingat-go-api/internal/repository"
)

type stubGateway struct {
	courses     []canvas.Course
	assignments map[int64][]canvas.Assignment
	err         error
}

func (g *stubGateway) FetchCourses(ctx context.Context) ([]canvas.Course, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.courses, nil
}

func (g *stubGateway) FetchAssignments(ctx context.Context, courseID int64) ([]canvas.Assignment, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.assignments[courseID], nil
}

func strPtr(s string) *string { return &s }

func TestSyncPersistsCoursesAndAssignments(t *testing.T) {
	db := setupServiceDB(t)

	gateway := &stubGateway{
		courses: []canvas.Course{
			{ID: 1, Name: "Intro", CourseCode: "CS101", StartAt: strPtr("2026-01-05T00:00:00Z")},
		},
		assignments: map[int64][]canvas.Assignment{
			1: {
				{ID: 10, Name: "Essay", DueAt: strPtr("2026-01-07T17:00:00Z"), HTMLURL: "https://canvas/a/10", HasSubmittedSubmissions: true},
				{ID: 11, Name: "Quiz"},
			},
		},
	}

	svc := NewSyncService(gateway, repository.NewCourseRepository(db), repository.NewAssignmentRepository(db), zerolog.Nop())
	result, err := svc.Sync(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.Courses)
	require.Equal(t, 2, result.Assignments)

	var essay models.Assignment
	require.NoError(t, db.Where("course_id = ? AND id = ?", 1, 10).First(&essay).Error)
	require.NotNil(t, essay.DueAt)
	require.Equal(t, "2026-01-07T17:00:00Z", essay.DueAt.UTC().Format("2006-01-02T15:04:05Z"))
	require.NotNil(t, essay.WeekNumber)
	require.Equal(t, 2, *essay.WeekNumber)
	require.True(t, essay.Submitted)

	var quiz models.Assignment
	require.NoError(t, db.Where("course_id = ? AND id = ?", 1, 11).First(&quiz).Error)
	require.Nil(t, quiz.DueAt)
	require.Nil(t, quiz.WeekNumber)
}

func TestSyncPreservesReminderFlags(t *testing.T) {
	db := setupServiceDB(t)

	gateway := &stubGateway{
		courses: []canvas.Course{{ID: 1, Name: "Intro", CourseCode: "CS101"}},
		assignments: map[int64][]canvas.Assignment{
			1: {{ID: 10, Name: "Essay", DueAt: strPtr("2026-01-07T17:00:00Z")}},
		},
	}

	svc := NewSyncService(gateway, repository.NewCourseRepository(db), repository.NewAssignmentRepository(db), zerolog.Nop())
	_, err := svc.Sync(context.Background())
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.Assignment{}).
		Where("course_id = ? AND id = ?", 1, 10).
		Update("due_reminder_2d_sent", models.ReminderSent).Error)

	gateway.assignments[1][0].Name = "Essay v2"
	_, err = svc.Sync(context.Background())
	require.NoError(t, err)

	var stored models.Assignment
	require.NoError(t, db.Where("course_id = ? AND id = ?", 1, 10).First(&stored).Error)
	require.Equal(t, "Essay v2", stored.Name)
	require.Equal(t, models.ReminderSent, stored.DueReminder2dSent)
}

func TestSyncAbortsOnFetchError(t *testing.T) {
	db := setupServiceDB(t)

	gateway := &stubGateway{err: errors.New("canvas unreachable")}
	svc := NewSyncService(gateway, repository.NewCourseRepository(db), repository.NewAssignmentRepository(db), zerolog.Nop())

	_, err := svc.Sync(context.Background())
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Course{}).Count(&count).Error)
	require.Zero(t, count)
}
