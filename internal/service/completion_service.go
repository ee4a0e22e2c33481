package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/ingat-go-api/internal/dto"
	"github.com/noah-isme/ingat-go-api/internal/models"
	"github.com/noah-isme/ingat-go-api/internal/repository"
	"github.com/noah-isme/ingat-go-api/internal/timeutil"
)

// ErrNothingSelected is returned when a completion request resolves to
// no assignments: every index was invalid or no name matched.
var ErrNothingSelected = errors.New("no assignments selected")

// CompletionService tracks per-user assignment completion within the
// current week. Selection indices are 1-based positions in the
// incomplete listing, which is deterministically ordered by due date.
type CompletionService interface {
	ListIncomplete(ctx context.Context, userID string, ref time.Time, query string) ([]dto.WeekDigestItem, error)
	Complete(ctx context.Context, userID string, ref time.Time, req dto.CompleteRequest) (dto.CompleteResponse, error)
	SetCompletion(ctx context.Context, userID string, key models.AssignmentKey, completed bool, now time.Time) error
}

type completionService struct {
	asgs      repository.AssignmentRepository
	statuses  repository.StatusRepository
	digest    DigestService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewCompletionService builds the completion tracker. digest may be nil
// when no cached digest needs invalidating on toggles.
func NewCompletionService(asgs repository.AssignmentRepository, statuses repository.StatusRepository, digest DigestService, validate *validator.Validate, logger zerolog.Logger) CompletionService {
	return &completionService{
		asgs:      asgs,
		statuses:  statuses,
		digest:    digest,
		validator: validate,
		logger:    logger.With().Str("component", "completion_service").Logger(),
	}
}

// ListIncomplete returns the user's incomplete assignments for the week
// containing ref, optionally narrowed by a case-insensitive name
// fragment.
func (s *completionService) ListIncomplete(ctx context.Context, userID string, ref time.Time, query string) ([]dto.WeekDigestItem, error) {
	rows, err := s.incomplete(ctx, userID, ref, query)
	if err != nil {
		return nil, err
	}

	items := make([]dto.WeekDigestItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, dto.NewWeekDigestItem(row))
	}
	return items, nil
}

func (s *completionService) Complete(ctx context.Context, userID string, ref time.Time, req dto.CompleteRequest) (dto.CompleteResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.CompleteResponse{}, err
	}

	candidates, err := s.incomplete(ctx, userID, ref, req.Query)
	if err != nil {
		return dto.CompleteResponse{}, err
	}

	var picked []repository.WeekAssignmentRow
	if strings.TrimSpace(req.Selection) == "" {
		// A query with no explicit selection marks every match.
		picked = candidates
	} else {
		for _, part := range strings.Split(req.Selection, ",") {
			part = strings.TrimSpace(part)
			index, err := strconv.Atoi(part)
			if err != nil || index < 1 || index > len(candidates) {
				continue
			}
			picked = append(picked, candidates[index-1])
		}
	}

	if len(picked) == 0 {
		return dto.CompleteResponse{}, ErrNothingSelected
	}

	now := time.Now().UTC().Truncate(time.Second)
	marked := 0
	for _, row := range picked {
		key := models.AssignmentKey{CourseID: row.CourseID, AssignmentID: row.AssignmentID}
		if err := s.SetCompletion(ctx, userID, key, true, now); err != nil {
			return dto.CompleteResponse{Marked: marked}, err
		}
		marked++
	}

	if s.digest != nil {
		if err := s.digest.Invalidate(ctx, userID, ref); err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to invalidate week digest cache")
		}
	}

	s.logger.Info().Str("user_id", userID).Int("marked", marked).Msg("assignments marked complete")
	return dto.CompleteResponse{Marked: marked}, nil
}

func (s *completionService) SetCompletion(ctx context.Context, userID string, key models.AssignmentKey, completed bool, now time.Time) error {
	status := models.UserAssignmentStatus{
		UserID:       userID,
		CourseID:     key.CourseID,
		AssignmentID: key.AssignmentID,
		Completed:    completed,
	}
	if completed {
		at := now.UTC().Truncate(time.Second)
		status.CompletedAt = &at
	}

	if err := s.statuses.SetCompletion(ctx, &status); err != nil {
		return fmt.Errorf("set completion: %w", err)
	}
	return nil
}

func (s *completionService) incomplete(ctx context.Context, userID string, ref time.Time, query string) ([]repository.WeekAssignmentRow, error) {
	weekStart, weekEnd := timeutil.WeekWindow(ref)
	rows, err := s.asgs.ListDueBetween(ctx, userID, weekStart.UTC(), weekEnd.UTC())
	if err != nil {
		return nil, fmt.Errorf("list week assignments: %w", err)
	}

	needle := strings.ToLower(strings.TrimSpace(query))
	filtered := make([]repository.WeekAssignmentRow, 0, len(rows))
	for _, row := range rows {
		if row.Completed {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(row.Name), needle) {
			continue
		}
		filtered = append(filtered, row)
	}

	return filtered, nil
}
