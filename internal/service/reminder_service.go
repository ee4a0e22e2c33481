package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/ingat-go-api/internal/dto"
	"github.com/noah-isme/ingat-go-api/internal/models"
	"github.com/noah-isme/ingat-go-api/internal/observability"
	"github.com/noah-isme/ingat-go-api/internal/repository"
	"github.com/noah-isme/ingat-go-api/internal/timeutil"
)

// weekCompletionHour is the UTC hour during which week-completion
// checks run. Outside of it the check is a no-op.
const weekCompletionHour = 12

// ReminderService selects the reminders that are due on a given tick.
// It never delivers anything itself; callers publish the events and
// report back through the Mark* methods.
type ReminderService interface {
	CollectWorkReminders(ctx context.Context, now time.Time) ([]dto.ReminderEvent, error)
	CollectDueReminders(ctx context.Context, now time.Time) ([]dto.ReminderEvent, error)
	CollectWeekCompletions(ctx context.Context, now time.Time) ([]dto.ReminderEvent, error)
	MarkWorkReminderSent(ctx context.Context, key models.PlanKey, kind models.WorkReminderKind) error
	MarkDueReminderSent(ctx context.Context, key models.AssignmentKey, kind models.DueReminderKind) error
	MarkWeekNotified(ctx context.Context, userID, weekKey string) error
	WeekCompletion(ctx context.Context, userID string, ref time.Time) (dto.WeekCompletionResponse, error)
}

type reminderService struct {
	plans     repository.StudyPlanRepository
	asgs      repository.AssignmentRepository
	statuses  repository.StatusRepository
	weekNotif repository.WeekNotificationRepository
	tolerance time.Duration
	logger    zerolog.Logger
}

func NewReminderService(
	plans repository.StudyPlanRepository,
	asgs repository.AssignmentRepository,
	statuses repository.StatusRepository,
	weekNotif repository.WeekNotificationRepository,
	tolerance time.Duration,
	logger zerolog.Logger,
) ReminderService {
	return &reminderService{
		plans:     plans,
		asgs:      asgs,
		statuses:  statuses,
		weekNotif: weekNotif,
		tolerance: tolerance,
		logger:    logger.With().Str("component", "reminder_service").Logger(),
	}
}

// window computes the acceptance interval for a reminder whose target
// instant is now+offset. Targets are matched with a symmetric tolerance
// so a reminder cannot be lost to tick jitter.
func (s *reminderService) window(now time.Time, offset time.Duration) (time.Time, time.Time) {
	target := now.UTC().Add(offset)
	return target.Add(-s.tolerance), target.Add(s.tolerance)
}

func (s *reminderService) CollectWorkReminders(ctx context.Context, now time.Time) ([]dto.ReminderEvent, error) {
	var events []dto.ReminderEvent
	for _, kind := range models.WorkReminderKinds() {
		start, end := s.window(now, kind.Offset())
		rows, err := s.plans.PendingWorkReminders(ctx, kind, start, end)
		if err != nil {
			return nil, fmt.Errorf("pending work reminders (%s): %w", kind, err)
		}
		for _, row := range rows {
			observability.RemindersSelected().WithLabelValues(dto.EventWorkSession, string(kind)).Inc()
			events = append(events, dto.NewWorkReminderEvent(row))
		}
	}
	if len(events) > 0 {
		s.logger.Debug().Int("count", len(events)).Msg("work reminders selected")
	}
	return events, nil
}

func (s *reminderService) CollectDueReminders(ctx context.Context, now time.Time) ([]dto.ReminderEvent, error) {
	weekStart, weekEnd := timeutil.WeekWindow(now)
	users, err := s.statuses.KnownUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("known users: %w", err)
	}

	var events []dto.ReminderEvent
	for _, kind := range models.DueReminderKinds() {
		start, end := s.window(now, kind.Offset())
		for _, userID := range users {
			rows, err := s.asgs.PendingDueReminders(ctx, userID, kind, start, end, weekStart.UTC(), weekEnd.UTC())
			if err != nil {
				return nil, fmt.Errorf("pending due reminders (%s): %w", kind, err)
			}
			for _, row := range rows {
				observability.RemindersSelected().WithLabelValues(dto.EventDueDate, string(kind)).Inc()
				events = append(events, dto.NewDueReminderEvent(userID, row))
			}
		}
	}
	if len(events) > 0 {
		s.logger.Debug().Int("count", len(events)).Msg("due reminders selected")
	}
	return events, nil
}

// CollectWeekCompletions emits at most one congratulation per user per
// week. The check only fires during the midday hour UTC and is debounced
// by week key.
func (s *reminderService) CollectWeekCompletions(ctx context.Context, now time.Time) ([]dto.ReminderEvent, error) {
	if now.UTC().Hour() != weekCompletionHour {
		return nil, nil
	}

	weekStart, _ := timeutil.WeekWindow(now)
	weekKey := timeutil.WeekKey(weekStart)

	users, err := s.statuses.KnownUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("known users: %w", err)
	}

	var events []dto.ReminderEvent
	for _, userID := range users {
		notified, err := s.weekNotif.Notified(ctx, userID, weekKey)
		if err != nil {
			return nil, fmt.Errorf("week notification lookup: %w", err)
		}
		if notified {
			continue
		}
		completion, err := s.WeekCompletion(ctx, userID, now)
		if err != nil {
			return nil, err
		}
		if completion.Total == 0 || !completion.AllComplete {
			continue
		}
		observability.RemindersSelected().WithLabelValues(dto.EventWeekComplete, "week").Inc()
		events = append(events, dto.NewWeekCompleteEvent(userID, weekKey, completion.Total, weekStart))
	}
	return events, nil
}

func (s *reminderService) MarkWorkReminderSent(ctx context.Context, key models.PlanKey, kind models.WorkReminderKind) error {
	return s.plans.MarkReminderSent(ctx, key, kind)
}

func (s *reminderService) MarkDueReminderSent(ctx context.Context, key models.AssignmentKey, kind models.DueReminderKind) error {
	return s.asgs.MarkDueReminderSent(ctx, key, kind)
}

func (s *reminderService) MarkWeekNotified(ctx context.Context, userID, weekKey string) error {
	return s.weekNotif.MarkNotified(ctx, userID, weekKey)
}

// WeekCompletion reports how much of the current display week's due
// work the user has finished. A week with nothing due counts as
// complete.
func (s *reminderService) WeekCompletion(ctx context.Context, userID string, ref time.Time) (dto.WeekCompletionResponse, error) {
	weekStart, weekEnd := timeutil.WeekWindow(ref)
	resp := dto.WeekCompletionResponse{WeekKey: timeutil.WeekKey(weekStart)}

	total, err := s.asgs.CountDueBetween(ctx, weekStart.UTC(), weekEnd.UTC())
	if err != nil {
		return resp, fmt.Errorf("count due: %w", err)
	}
	completed, err := s.asgs.CountCompletedBetween(ctx, userID, weekStart.UTC(), weekEnd.UTC())
	if err != nil {
		return resp, fmt.Errorf("count completed: %w", err)
	}

	resp.Total = total
	resp.Completed = completed
	resp.AllComplete = completed >= total
	return resp, nil
}
