package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/ingat-go-api/internal/canvas"
	"github.com/noah-isme/ingat-go-api/internal/dto"
	"github.com/noah-isme/ingat-go-api/internal/models"
	"github.com/noah-isme/ingat-go-api/internal/observability"
	"github.com/noah-isme/ingat-go-api/internal/repository"
	"github.com/noah-isme/ingat-go-api/internal/timeutil"
)

// CanvasGateway is the slice of the Canvas client the sync needs.
type CanvasGateway interface {
	FetchCourses(ctx context.Context) ([]canvas.Course, error)
	FetchAssignments(ctx context.Context, courseID int64) ([]canvas.Assignment, error)
}

// SyncService imports courses and assignments from Canvas into the
// local store. A fetch failure aborts the cycle; whatever was upserted
// before the failure stays.
type SyncService interface {
	Sync(ctx context.Context) (dto.SyncResponse, error)
}

type syncService struct {
	gateway CanvasGateway
	courses repository.CourseRepository
	asgs    repository.AssignmentRepository
	logger  zerolog.Logger
	tracer  trace.Tracer
}

func NewSyncService(gateway CanvasGateway, courses repository.CourseRepository, asgs repository.AssignmentRepository, logger zerolog.Logger) SyncService {
	return &syncService{
		gateway: gateway,
		courses: courses,
		asgs:    asgs,
		logger:  logger.With().Str("component", "sync_service").Logger(),
		tracer:  otel.Tracer("github.com/noah-isme/ingat-go-api/internal/service/sync"),
	}
}

func (s *syncService) Sync(ctx context.Context) (dto.SyncResponse, error) {
	spanCtx, span := s.tracer.Start(ctx, "canvas.sync")
	defer span.End()

	result, err := s.run(spanCtx)
	if err != nil {
		span.RecordError(err)
		observability.SyncCycles().WithLabelValues("error").Inc()
		return result, err
	}

	span.SetAttributes(
		attribute.Int("sync.courses", result.Courses),
		attribute.Int("sync.assignments", result.Assignments),
	)
	observability.SyncCycles().WithLabelValues("success").Inc()

	s.logger.Info().
		Int("courses", result.Courses).
		Int("assignments", result.Assignments).
		Msg("canvas sync completed")

	return result, nil
}

func (s *syncService) run(ctx context.Context) (dto.SyncResponse, error) {
	var result dto.SyncResponse

	remote, err := s.gateway.FetchCourses(ctx)
	if err != nil {
		return result, fmt.Errorf("sync courses: %w", err)
	}

	courses := make([]models.Course, 0, len(remote))
	for _, rc := range remote {
		courses = append(courses, models.Course{
			ID:         rc.ID,
			Name:       rc.Name,
			CourseCode: rc.CourseCode,
			StartAt:    parseOptionalInstant(rc.StartAt),
			EndAt:      parseOptionalInstant(rc.EndAt),
		})
	}
	if err := s.courses.UpsertAll(ctx, courses); err != nil {
		return result, fmt.Errorf("store courses: %w", err)
	}
	result.Courses = len(courses)

	for _, course := range courses {
		assignments, err := s.gateway.FetchAssignments(ctx, course.ID)
		if err != nil {
			return result, fmt.Errorf("sync assignments for course %d: %w", course.ID, err)
		}

		rows := make([]models.Assignment, 0, len(assignments))
		for _, ra := range assignments {
			due := parseOptionalInstant(ra.DueAt)
			rows = append(rows, models.Assignment{
				ID:         ra.ID,
				CourseID:   course.ID,
				Name:       ra.Name,
				DueAt:      due,
				WeekNumber: weekNumber(due),
				HTMLURL:    ra.HTMLURL,
				Submitted:  ra.HasSubmittedSubmissions,
			})
		}
		if err := s.asgs.UpsertForCourse(ctx, course.ID, rows); err != nil {
			return result, fmt.Errorf("store assignments for course %d: %w", course.ID, err)
		}
		result.Assignments += len(rows)
	}

	return result, nil
}

// parseOptionalInstant converts an optional Canvas timestamp into a UTC
// instant truncated to whole seconds. Absent or malformed values map to
// nil rather than failing the sync.
func parseOptionalInstant(value *string) *time.Time {
	if value == nil || *value == "" {
		return nil
	}
	t, err := timeutil.FromCanonical(*value)
	if err != nil {
		return nil
	}
	t = t.Truncate(time.Second)
	return &t
}

func weekNumber(due *time.Time) *int {
	if due == nil {
		return nil
	}
	_, week := due.UTC().ISOWeek()
	return &week
}
