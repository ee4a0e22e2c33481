package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/ingat-go-api/internal/dto"
	"github.com/noah-isme/ingat-go-api/internal/repository"
	"github.com/noah-isme/ingat-go-api/internal/timeutil"
)

// DigestService assembles the weekly assignment overview, due-date
// ascending, with the caller's completion state joined in. Completion
// toggles invalidate the cached digest; changes landing through a Canvas
// sync may stay cached for up to the configured TTL.
type DigestService interface {
	WeekDigest(ctx context.Context, userID string, ref time.Time) (dto.WeekDigestResponse, error)
	Invalidate(ctx context.Context, userID string, ref time.Time) error
}

type digestService struct {
	asgs     repository.AssignmentRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
}

func NewDigestService(asgs repository.AssignmentRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) DigestService {
	return &digestService{
		asgs:     asgs,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "digest_service").Logger(),
	}
}

func (s *digestService) WeekDigest(ctx context.Context, userID string, ref time.Time) (dto.WeekDigestResponse, error) {
	weekStart, weekEnd := timeutil.WeekWindow(ref)
	cacheKey := fmt.Sprintf("digest:%s:%s", userID, timeutil.WeekKey(weekStart))

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.WeekDigestResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Str("user_id", userID).Msg("week digest cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read week digest cache")
		}
	}

	rows, err := s.asgs.ListDueBetween(ctx, userID, weekStart.UTC(), weekEnd.UTC())
	if err != nil {
		return dto.WeekDigestResponse{}, fmt.Errorf("list week assignments: %w", err)
	}

	response := dto.WeekDigestResponse{
		WeekStart: timeutil.ToCanonical(weekStart),
		WeekEnd:   timeutil.ToCanonical(weekEnd),
		WeekLabel: timeutil.FormatLocal(weekStart, "Mon Jan 02") + " - " + timeutil.FormatLocal(weekEnd, "Mon Jan 02"),
		Items:     make([]dto.WeekDigestItem, 0, len(rows)),
	}
	for _, row := range rows {
		response.Items = append(response.Items, dto.NewWeekDigestItem(row))
	}

	if s.cache != nil {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store week digest cache")
			}
		}
	}

	return response, nil
}

// Invalidate drops the cached digest for the week containing ref so the
// next read reflects a completion toggle immediately.
func (s *digestService) Invalidate(ctx context.Context, userID string, ref time.Time) error {
	if s.cache == nil {
		return nil
	}

	weekStart, _ := timeutil.WeekWindow(ref)
	cacheKey := fmt.Sprintf("digest:%s:%s", userID, timeutil.WeekKey(weekStart))
	if err := s.cache.Del(ctx, cacheKey).Err(); err != nil {
		return fmt.Errorf("invalidate week digest cache: %w", err)
	}
	return nil
}
