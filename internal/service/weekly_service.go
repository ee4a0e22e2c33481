package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/ingat-go-api/internal/dto"
	"github.com/noah-isme/ingat-go-api/internal/repository"
	"github.com/noah-isme/ingat-go-api/internal/timeutil"
)

// WeeklyService runs the Monday broadcast: refresh from Canvas, then
// announce each known user's digest for the new week. On any other day
// it does nothing.
type WeeklyService interface {
	Run(ctx context.Context, now time.Time) error
}

type weeklyService struct {
	sync       SyncService
	digest     DigestService
	statuses   repository.StatusRepository
	dispatcher DispatchService
	logger     zerolog.Logger
}

func NewWeeklyService(sync SyncService, digest DigestService, statuses repository.StatusRepository, dispatcher DispatchService, logger zerolog.Logger) WeeklyService {
	return &weeklyService{
		sync:       sync,
		digest:     digest,
		statuses:   statuses,
		dispatcher: dispatcher,
		logger:     logger.With().Str("component", "weekly_service").Logger(),
	}
}

func (s *weeklyService) Run(ctx context.Context, now time.Time) error {
	local := now.In(timeutil.DisplayTimezone())
	if local.Weekday() != time.Monday {
		return nil
	}

	// A stale store would make the digest lie, but a failed refresh
	// should not silence the broadcast.
	if _, err := s.sync.Sync(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("weekly sync failed, broadcasting from stored data")
	}

	weekStart, _ := timeutil.WeekWindow(now)
	weekKey := timeutil.WeekKey(weekStart)

	users, err := s.statuses.KnownUsers(ctx)
	if err != nil {
		return fmt.Errorf("known users: %w", err)
	}

	for _, userID := range users {
		digest, err := s.digest.WeekDigest(ctx, userID, now)
		if err != nil {
			s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to build weekly digest")
			continue
		}
		if err := s.dispatcher.Announce(ctx, dto.NewWeeklyDigestEvent(userID, weekKey, digest)); err != nil {
			s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to announce weekly digest")
		}
	}

	s.logger.Info().Int("users", len(users)).Str("week_key", weekKey).Msg("weekly digest broadcast complete")
	return nil
}
