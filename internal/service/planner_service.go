package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/ingat-go-api/internal/dto"
	"github.com/noah-isme/ingat-go-api/internal/models"
	"github.com/noah-isme/ingat-go-api/internal/repository"
	"github.com/noah-isme/ingat-go-api/internal/timeutil"
)

// Dialogue states exposed through PlannerStateResponse.State.
const (
	StateAwaitingSelection = "awaiting_selection"
	StateAwaitingTime      = "awaiting_time"
	StateDone              = "done"
	StateCancelled         = "cancelled"
	StateTimedOut          = "timed_out"
)

var (
	// ErrBadTimeFormat rejects input that does not match the
	// "<day> <h>:<mm> <AM|PM>" grammar.
	ErrBadTimeFormat = errors.New("use a day and time like 'Wed 7:30 PM'")
	// ErrUnknownDay rejects day names outside the recognized set.
	ErrUnknownDay = errors.New("unknown day, try Mon/Tue/Wed/Thu/Fri/Sat/Sun")
	// ErrPlanNotFound is returned when rescheduling a session that was
	// never planned.
	ErrPlanNotFound = errors.New("study plan not found")
	// ErrAssignmentNotFound is returned when planning against an
	// assignment the store does not know.
	ErrAssignmentNotFound = errors.New("assignment not found")
	// ErrSessionNotFound is returned for replies against an unknown or
	// foreign dialogue session.
	ErrSessionNotFound = errors.New("planning session not found")
)

var dayTimePattern = regexp.MustCompile(`^\s*([A-Za-z]+)\s+(\d{1,2}):(\d{2})\s*([AaPp][Mm])\s*$`)

// dayOffsets maps accepted day names and abbreviations to offsets from
// Monday.
var dayOffsets = map[string]int{
	"mon": 0, "monday": 0,
	"tue": 1, "tues": 1, "tuesday": 1,
	"wed": 2, "wednesday": 2,
	"thu": 3, "thurs": 3, "thursday": 3,
	"fri": 4, "friday": 4,
	"sat": 5, "saturday": 5,
	"sun": 6, "sunday": 6,
}

// ParseDayTime resolves input like "Wed 7:30 PM" against the week
// starting at weekMonday (display-local midnight Monday) and returns
// the planned instant in UTC, truncated to whole minutes.
func ParseDayTime(input string, weekMonday time.Time) (time.Time, error) {
	match := dayTimePattern.FindStringSubmatch(input)
	if match == nil {
		return time.Time{}, ErrBadTimeFormat
	}

	offset, ok := dayOffsets[strings.ToLower(match[1])]
	if !ok {
		return time.Time{}, ErrUnknownDay
	}

	hour, _ := strconv.Atoi(match[2])
	minute, _ := strconv.Atoi(match[3])
	if minute > 59 {
		return time.Time{}, ErrBadTimeFormat
	}
	hour %= 12
	if strings.EqualFold(match[4], "pm") {
		hour += 12
	}

	day := weekMonday.AddDate(0, 0, offset)
	planned := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, weekMonday.Location())

	return planned.UTC(), nil
}

// PlannerService owns study-plan writes and the interactive planning
// dialogues. Sessions live in memory only; a restart abandons them,
// while the plans they saved stay.
type PlannerService interface {
	CreatePlan(ctx context.Context, userID string, req dto.PlanCreateRequest, ref time.Time) (dto.PlanResponse, error)
	ListPlans(ctx context.Context, userID string, ref time.Time) ([]dto.PlanResponse, error)
	Reschedule(ctx context.Context, userID string, req dto.PlanRescheduleRequest, ref time.Time) error
	StartPlanning(ctx context.Context, userID string, ref time.Time) (dto.PlannerStateResponse, error)
	StartReschedule(ctx context.Context, userID string, ref time.Time) (dto.PlannerStateResponse, error)
	Reply(ctx context.Context, userID string, req dto.PlannerReplyRequest) (dto.PlannerStateResponse, error)
}

type plannerSession struct {
	id        string
	userID    string
	state     string
	weekStart time.Time
	// queue of assignments still awaiting a time in a planning dialogue
	queue []repository.WeekAssignmentRow
	// candidate sessions of a reschedule dialogue
	plans    []repository.PlanDetailRow
	selected *repository.PlanDetailRow
	saved    int
	deadline time.Time
}

type plannerService struct {
	plans     repository.StudyPlanRepository
	asgs      repository.AssignmentRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	timeout   time.Duration
	logger    zerolog.Logger
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*plannerSession
}

func NewPlannerService(plans repository.StudyPlanRepository, asgs repository.AssignmentRepository, validate *validator.Validate, timeout time.Duration, logger zerolog.Logger) PlannerService {
	return &plannerService{
		plans:     plans,
		asgs:      asgs,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		timeout:   timeout,
		logger:    logger.With().Str("component", "planner_service").Logger(),
		now:       time.Now,
		sessions:  make(map[string]*plannerSession),
	}
}

func (s *plannerService) CreatePlan(ctx context.Context, userID string, req dto.PlanCreateRequest, ref time.Time) (dto.PlanResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.PlanResponse{}, err
	}

	weekStart, weekEnd := timeutil.WeekWindow(ref)
	planned, err := ParseDayTime(req.When, weekStart)
	if err != nil {
		return dto.PlanResponse{}, err
	}

	key := models.AssignmentKey{CourseID: req.CourseID, AssignmentID: req.AssignmentID}
	if _, err := s.asgs.GetByKey(ctx, key); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PlanResponse{}, ErrAssignmentNotFound
		}
		return dto.PlanResponse{}, fmt.Errorf("lookup assignment: %w", err)
	}

	plan := models.StudyPlan{
		UserID:       userID,
		CourseID:     req.CourseID,
		AssignmentID: req.AssignmentID,
		PlannedAt:    planned,
		Notes:        strings.TrimSpace(s.sanitizer.Sanitize(req.Notes)),
	}
	if err := s.plans.Upsert(ctx, &plan); err != nil {
		return dto.PlanResponse{}, fmt.Errorf("save study plan: %w", err)
	}

	s.logger.Info().
		Str("user_id", userID).
		Int64("course_id", req.CourseID).
		Int64("assignment_id", req.AssignmentID).
		Time("planned_at", planned).
		Msg("study plan saved")

	return s.planDetail(ctx, userID, plan.Key(), weekStart, weekEnd)
}

func (s *plannerService) ListPlans(ctx context.Context, userID string, ref time.Time) ([]dto.PlanResponse, error) {
	weekStart, weekEnd := timeutil.WeekWindow(ref)
	rows, err := s.plans.ListForWeek(ctx, userID, weekStart.UTC(), weekEnd.UTC())
	if err != nil {
		return nil, fmt.Errorf("list week plans: %w", err)
	}

	responses := make([]dto.PlanResponse, 0, len(rows))
	for _, row := range rows {
		responses = append(responses, dto.NewPlanResponse(row))
	}
	return responses, nil
}

// Reschedule moves an existing session and re-arms all of its
// reminders.
func (s *plannerService) Reschedule(ctx context.Context, userID string, req dto.PlanRescheduleRequest, ref time.Time) error {
	if err := s.validator.Struct(req); err != nil {
		return err
	}

	weekStart, _ := timeutil.WeekWindow(ref)
	planned, err := ParseDayTime(req.When, weekStart)
	if err != nil {
		return err
	}

	key := models.PlanKey{UserID: userID, CourseID: req.CourseID, AssignmentID: req.AssignmentID}
	if err := s.plans.Reschedule(ctx, key, planned); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPlanNotFound
		}
		return fmt.Errorf("reschedule study plan: %w", err)
	}

	return nil
}

// StartPlanning opens a dialogue that walks through every assignment
// due this week, asking for a work time for each.
func (s *plannerService) StartPlanning(ctx context.Context, userID string, ref time.Time) (dto.PlannerStateResponse, error) {
	weekStart, weekEnd := timeutil.WeekWindow(ref)
	rows, err := s.asgs.ListDueBetween(ctx, userID, weekStart.UTC(), weekEnd.UTC())
	if err != nil {
		return dto.PlannerStateResponse{}, fmt.Errorf("list week assignments: %w", err)
	}

	session := &plannerSession{
		id:        uuid.NewString(),
		userID:    userID,
		weekStart: weekStart,
		queue:     rows,
		deadline:  s.now().Add(s.timeout),
	}

	if len(rows) == 0 {
		session.state = StateDone
		return dto.PlannerStateResponse{
			SessionID: session.id,
			State:     session.state,
			Prompt:    "No assignments due this week. You're all caught up!",
		}, nil
	}

	session.state = StateAwaitingTime
	s.storeSession(session)

	return dto.PlannerStateResponse{
		SessionID: session.id,
		State:     session.state,
		Prompt:    planPrompt(session.queue[0]),
	}, nil
}

// StartReschedule opens a dialogue that lists this week's planned
// sessions and asks which one to move.
func (s *plannerService) StartReschedule(ctx context.Context, userID string, ref time.Time) (dto.PlannerStateResponse, error) {
	weekStart, weekEnd := timeutil.WeekWindow(ref)
	rows, err := s.plans.ListForWeek(ctx, userID, weekStart.UTC(), weekEnd.UTC())
	if err != nil {
		return dto.PlannerStateResponse{}, fmt.Errorf("list week plans: %w", err)
	}

	session := &plannerSession{
		id:        uuid.NewString(),
		userID:    userID,
		weekStart: weekStart,
		plans:     rows,
		deadline:  s.now().Add(s.timeout),
	}

	if len(rows) == 0 {
		session.state = StateDone
		return dto.PlannerStateResponse{
			SessionID: session.id,
			State:     session.state,
			Prompt:    "You have no planned sessions to reschedule.",
		}, nil
	}

	session.state = StateAwaitingSelection
	s.storeSession(session)

	return dto.PlannerStateResponse{
		SessionID: session.id,
		State:     session.state,
		Prompt:    reschedulePrompt(rows),
	}, nil
}

func (s *plannerService) Reply(ctx context.Context, userID string, req dto.PlannerReplyRequest) (dto.PlannerStateResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.PlannerStateResponse{}, err
	}

	session, err := s.takeSession(req.SessionID, userID)
	if err != nil {
		return dto.PlannerStateResponse{}, err
	}
	if session.state == StateTimedOut {
		return s.finish(session, "The planning session timed out. Plans saved so far are kept."), nil
	}

	input := strings.TrimSpace(req.Input)
	if lowered := strings.ToLower(input); lowered == "stop" || lowered == "quit" {
		session.state = StateCancelled
		return s.finish(session, "Planning cancelled. Plans saved so far are kept."), nil
	}

	switch session.state {
	case StateAwaitingSelection:
		return s.replySelection(session, input)
	case StateAwaitingTime:
		return s.replyTime(ctx, session, input)
	default:
		return s.finish(session, ""), nil
	}
}

func (s *plannerService) replySelection(session *plannerSession, input string) (dto.PlannerStateResponse, error) {
	index, err := strconv.Atoi(input)
	if err != nil || index < 1 || index > len(session.plans) {
		session.state = StateCancelled
		return s.finish(session, "Invalid selection. Cancelled."), nil
	}

	selected := session.plans[index-1]
	session.selected = &selected
	session.state = StateAwaitingTime
	s.storeSession(session)

	return dto.PlannerStateResponse{
		SessionID: session.id,
		State:     session.state,
		Prompt:    fmt.Sprintf("Enter the new time for %s (e.g. 'Wed 7:30 PM').", selected.AssignmentName),
		Saved:     session.saved,
	}, nil
}

func (s *plannerService) replyTime(ctx context.Context, session *plannerSession, input string) (dto.PlannerStateResponse, error) {
	planned, err := ParseDayTime(input, session.weekStart)
	if err != nil {
		// Bad input keeps the dialogue open with a corrective prompt.
		s.storeSession(session)
		return dto.PlannerStateResponse{
			SessionID: session.id,
			State:     session.state,
			Prompt:    err.Error(),
			Saved:     session.saved,
		}, nil
	}

	if session.selected != nil {
		key := models.PlanKey{
			UserID:       session.userID,
			CourseID:     session.selected.CourseID,
			AssignmentID: session.selected.AssignmentID,
		}
		if err := s.plans.Reschedule(ctx, key, planned); err != nil {
			return dto.PlannerStateResponse{}, fmt.Errorf("reschedule study plan: %w", err)
		}
		session.saved++
		session.state = StateDone
		return s.finish(session, fmt.Sprintf("Rescheduled %s to %s. Reminders have been reset.",
			session.selected.AssignmentName, timeutil.FormatLocal(planned, dto.DisplayLayout))), nil
	}

	current := session.queue[0]
	plan := models.StudyPlan{
		UserID:       session.userID,
		CourseID:     current.CourseID,
		AssignmentID: current.AssignmentID,
		PlannedAt:    planned,
	}
	if err := s.plans.Upsert(ctx, &plan); err != nil {
		return dto.PlannerStateResponse{}, fmt.Errorf("save study plan: %w", err)
	}
	session.saved++
	session.queue = session.queue[1:]

	if len(session.queue) == 0 {
		session.state = StateDone
		return s.finish(session, "All assignments scheduled."), nil
	}

	s.storeSession(session)
	return dto.PlannerStateResponse{
		SessionID: session.id,
		State:     session.state,
		Prompt:    planPrompt(session.queue[0]),
		Saved:     session.saved,
	}, nil
}

// takeSession looks a session up, enforces ownership, and applies the
// idle deadline.
func (s *plannerService) takeSession(id, userID string) (*plannerSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok || session.userID != userID {
		return nil, ErrSessionNotFound
	}
	if s.now().After(session.deadline) {
		session.state = StateTimedOut
	}
	delete(s.sessions, id)
	return session, nil
}

func (s *plannerService) storeSession(session *plannerSession) {
	session.deadline = s.now().Add(s.timeout)
	s.mu.Lock()
	s.sessions[session.id] = session
	s.mu.Unlock()
}

// finish emits a terminal response; the session is already removed from
// the registry.
func (s *plannerService) finish(session *plannerSession, prompt string) dto.PlannerStateResponse {
	return dto.PlannerStateResponse{
		SessionID: session.id,
		State:     session.state,
		Prompt:    prompt,
		Saved:     session.saved,
	}
}

func (s *plannerService) planDetail(ctx context.Context, userID string, key models.PlanKey, weekStart, weekEnd time.Time) (dto.PlanResponse, error) {
	rows, err := s.plans.ListForWeek(ctx, userID, weekStart.UTC(), weekEnd.UTC())
	if err != nil {
		return dto.PlanResponse{}, fmt.Errorf("load saved plan: %w", err)
	}
	for _, row := range rows {
		if row.CourseID == key.CourseID && row.AssignmentID == key.AssignmentID {
			return dto.NewPlanResponse(row), nil
		}
	}
	return dto.PlanResponse{}, ErrPlanNotFound
}

func planPrompt(row repository.WeekAssignmentRow) string {
	due := "No due date"
	if row.DueAt != nil {
		due = timeutil.FormatLocal(*row.DueAt, dto.DisplayLayout)
	}
	label := row.CourseName
	if row.CourseCode != "" {
		label = row.CourseCode + ": " + row.CourseName
	}
	return fmt.Sprintf("Plan time for: %s (%s, due %s). Reply with a day/time like 'Wed 7:30 PM', or 'stop' to cancel.", row.Name, label, due)
}

func reschedulePrompt(rows []repository.PlanDetailRow) string {
	var b strings.Builder
	b.WriteString("Which session do you want to reschedule? Reply with the number:")
	for i, row := range rows {
		fmt.Fprintf(&b, "\n%d. %s (scheduled %s)", i+1, row.AssignmentName, timeutil.FormatLocal(row.PlannedAt, dto.DisplayLayout))
	}
	return b.String()
}
