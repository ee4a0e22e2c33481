package service

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/ingat-go-api/internal/dto"
	"github.com/noah-isme/ingat-go-api/internal/models"
	"github.com/noah-isme/ingat-go-api/internal/repository"
)

func newPlannerService(db *gorm.DB) *plannerService {
	svc := NewPlannerService(
		repository.NewStudyPlanRepository(db),
		repository.NewAssignmentRepository(db),
		testValidator(),
		2*time.Minute,
		zerolog.Nop(),
	)
	return svc.(*plannerService)
}

func TestParseDayTime(t *testing.T) {
	monday := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		input string
		want  time.Time
		err   error
	}{
		{input: "Wed 7:30 PM", want: time.Date(2026, time.January, 7, 19, 30, 0, 0, time.UTC)},
		{input: "  monday 9:05 am ", want: time.Date(2026, time.January, 5, 9, 5, 0, 0, time.UTC)},
		{input: "Sun 12:00 AM", want: time.Date(2026, time.January, 11, 0, 0, 0, 0, time.UTC)},
		{input: "tues 12:15 pm", want: time.Date(2026, time.January, 6, 12, 15, 0, 0, time.UTC)},
		{input: "Wed 19:30 PM", want: time.Date(2026, time.January, 7, 19, 30, 0, 0, time.UTC)},
		{input: "Blursday 7:30 PM", err: ErrUnknownDay},
		{input: "Wed 7.30 PM", err: ErrBadTimeFormat},
		{input: "Wed 7:30", err: ErrBadTimeFormat},
		{input: "Wed 7:75 PM", err: ErrBadTimeFormat},
	}

	for _, tc := range cases {
		got, err := ParseDayTime(tc.input, monday)
		if tc.err != nil {
			require.ErrorIs(t, err, tc.err, tc.input)
			continue
		}
		require.NoError(t, err, tc.input)
		require.True(t, tc.want.Equal(got), "%s: want %s got %s", tc.input, tc.want, got)
	}
}

func TestCreatePlanAndListPlans(t *testing.T) {
	db := setupServiceDB(t)
	svc := newPlannerService(db)

	now := mondayAt(9, 0)
	seedServiceCourse(t, db, 1, "CS101", "Intro")
	seedServiceAssignment(t, db, 1, 10, "Essay", utcTimePtr(now.Add(72*time.Hour)))

	req := dto.PlanCreateRequest{
		CourseID:     1,
		AssignmentID: 10,
		When:         "Wed 7:30 PM",
		Notes:        "<script>alert(1)</script>outline first",
	}
	plan, err := svc.CreatePlan(testContext(), "user-1", req, now)
	require.NoError(t, err)
	require.Equal(t, "Essay", plan.Assignment)
	require.Equal(t, "2026-01-07T19:30:00Z", plan.PlannedAt)
	require.Equal(t, "outline first", plan.Notes)

	plans, err := svc.ListPlans(testContext(), "user-1", now)
	require.NoError(t, err)
	require.Len(t, plans, 1)

	other, err := svc.ListPlans(testContext(), "user-2", now)
	require.NoError(t, err)
	require.Empty(t, other)
}

func TestCreatePlanUnknownAssignment(t *testing.T) {
	db := setupServiceDB(t)
	svc := newPlannerService(db)

	req := dto.PlanCreateRequest{CourseID: 1, AssignmentID: 99, When: "Wed 7:30 PM"}
	_, err := svc.CreatePlan(testContext(), "user-1", req, mondayAt(9, 0))
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestRescheduleResetsRemindersAndRequiresPlan(t *testing.T) {
	db := setupServiceDB(t)
	svc := newPlannerService(db)

	now := mondayAt(9, 0)
	seedServiceCourse(t, db, 1, "CS101", "Intro")
	seedServiceAssignment(t, db, 1, 10, "Essay", utcTimePtr(now.Add(72*time.Hour)))
	seedServicePlan(t, db, "user-1", 1, 10, now.Add(24*time.Hour))

	require.NoError(t, db.Model(&models.StudyPlan{}).
		Where("user_id = ? AND course_id = ? AND assignment_id = ?", "user-1", 1, 10).
		Update("reminder_24h_sent", models.ReminderSent).Error)

	req := dto.PlanRescheduleRequest{CourseID: 1, AssignmentID: 10, When: "Fri 3:00 PM"}
	require.NoError(t, svc.Reschedule(testContext(), "user-1", req, now))

	var stored models.StudyPlan
	require.NoError(t, db.Where("user_id = ? AND course_id = ? AND assignment_id = ?", "user-1", 1, 10).First(&stored).Error)
	require.Equal(t, models.ReminderPending, stored.Reminder24hSent)
	require.Equal(t, "2026-01-09T15:00:00Z", stored.PlannedAt.UTC().Format("2006-01-02T15:04:05Z"))

	err := svc.Reschedule(testContext(), "user-2", req, now)
	require.ErrorIs(t, err, ErrPlanNotFound)
}

func TestPlanningDialogueWalksWeekAssignments(t *testing.T) {
	db := setupServiceDB(t)
	svc := newPlannerService(db)

	now := mondayAt(9, 0)
	seedServiceCourse(t, db, 1, "CS101", "Intro")
	seedServiceAssignment(t, db, 1, 10, "Essay", utcTimePtr(now.Add(24*time.Hour)))
	seedServiceAssignment(t, db, 1, 11, "Quiz", utcTimePtr(now.Add(48*time.Hour)))

	state, err := svc.StartPlanning(testContext(), "user-1", now)
	require.NoError(t, err)
	require.Equal(t, StateAwaitingTime, state.State)
	require.Contains(t, state.Prompt, "Essay")

	// Garbled input keeps the dialogue open on the same assignment.
	state, err = svc.Reply(testContext(), "user-1", dto.PlannerReplyRequest{SessionID: state.SessionID, Input: "tomorrow-ish"})
	require.NoError(t, err)
	require.Equal(t, StateAwaitingTime, state.State)
	require.Zero(t, state.Saved)

	state, err = svc.Reply(testContext(), "user-1", dto.PlannerReplyRequest{SessionID: state.SessionID, Input: "Tue 10:00 AM"})
	require.NoError(t, err)
	require.Equal(t, StateAwaitingTime, state.State)
	require.Equal(t, 1, state.Saved)
	require.Contains(t, state.Prompt, "Quiz")

	state, err = svc.Reply(testContext(), "user-1", dto.PlannerReplyRequest{SessionID: state.SessionID, Input: "Wed 2:00 PM"})
	require.NoError(t, err)
	require.Equal(t, StateDone, state.State)
	require.Equal(t, 2, state.Saved)

	plans, err := svc.ListPlans(testContext(), "user-1", now)
	require.NoError(t, err)
	require.Len(t, plans, 2)
}

func TestPlanningDialogueStopKeepsSavedPlans(t *testing.T) {
	db := setupServiceDB(t)
	svc := newPlannerService(db)

	now := mondayAt(9, 0)
	seedServiceCourse(t, db, 1, "CS101", "Intro")
	seedServiceAssignment(t, db, 1, 10, "Essay", utcTimePtr(now.Add(24*time.Hour)))
	seedServiceAssignment(t, db, 1, 11, "Quiz", utcTimePtr(now.Add(48*time.Hour)))

	state, err := svc.StartPlanning(testContext(), "user-1", now)
	require.NoError(t, err)

	state, err = svc.Reply(testContext(), "user-1", dto.PlannerReplyRequest{SessionID: state.SessionID, Input: "Tue 10:00 AM"})
	require.NoError(t, err)
	require.Equal(t, 1, state.Saved)

	state, err = svc.Reply(testContext(), "user-1", dto.PlannerReplyRequest{SessionID: state.SessionID, Input: "stop"})
	require.NoError(t, err)
	require.Equal(t, StateCancelled, state.State)
	require.Equal(t, 1, state.Saved)

	plans, err := svc.ListPlans(testContext(), "user-1", now)
	require.NoError(t, err)
	require.Len(t, plans, 1)

	// The session is gone once it reaches a terminal state.
	_, err = svc.Reply(testContext(), "user-1", dto.PlannerReplyRequest{SessionID: state.SessionID, Input: "Tue 10:00 AM"})
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRescheduleDialogue(t *testing.T) {
	db := setupServiceDB(t)
	svc := newPlannerService(db)

	now := mondayAt(9, 0)
	seedServiceCourse(t, db, 1, "CS101", "Intro")
	seedServiceAssignment(t, db, 1, 10, "Essay", utcTimePtr(now.Add(72*time.Hour)))
	seedServicePlan(t, db, "user-1", 1, 10, now.Add(24*time.Hour))

	state, err := svc.StartReschedule(testContext(), "user-1", now)
	require.NoError(t, err)
	require.Equal(t, StateAwaitingSelection, state.State)
	require.Contains(t, state.Prompt, "1. Essay")

	state, err = svc.Reply(testContext(), "user-1", dto.PlannerReplyRequest{SessionID: state.SessionID, Input: "1"})
	require.NoError(t, err)
	require.Equal(t, StateAwaitingTime, state.State)

	state, err = svc.Reply(testContext(), "user-1", dto.PlannerReplyRequest{SessionID: state.SessionID, Input: "Thu 8:00 PM"})
	require.NoError(t, err)
	require.Equal(t, StateDone, state.State)
	require.Equal(t, 1, state.Saved)

	var stored models.StudyPlan
	require.NoError(t, db.Where("user_id = ?", "user-1").First(&stored).Error)
	require.Equal(t, "2026-01-08T20:00:00Z", stored.PlannedAt.UTC().Format("2006-01-02T15:04:05Z"))
}

func TestRescheduleDialogueInvalidSelectionCancels(t *testing.T) {
	db := setupServiceDB(t)
	svc := newPlannerService(db)

	now := mondayAt(9, 0)
	seedServiceCourse(t, db, 1, "CS101", "Intro")
	seedServiceAssignment(t, db, 1, 10, "Essay", utcTimePtr(now.Add(72*time.Hour)))
	seedServicePlan(t, db, "user-1", 1, 10, now.Add(24*time.Hour))

	state, err := svc.StartReschedule(testContext(), "user-1", now)
	require.NoError(t, err)

	state, err = svc.Reply(testContext(), "user-1", dto.PlannerReplyRequest{SessionID: state.SessionID, Input: "7"})
	require.NoError(t, err)
	require.Equal(t, StateCancelled, state.State)
}

func TestDialogueTimesOut(t *testing.T) {
	db := setupServiceDB(t)
	svc := newPlannerService(db)

	now := mondayAt(9, 0)
	seedServiceCourse(t, db, 1, "CS101", "Intro")
	seedServiceAssignment(t, db, 1, 10, "Essay", utcTimePtr(now.Add(24*time.Hour)))

	state, err := svc.StartPlanning(testContext(), "user-1", now)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(5 * time.Minute) }

	state, err = svc.Reply(testContext(), "user-1", dto.PlannerReplyRequest{SessionID: state.SessionID, Input: "Tue 10:00 AM"})
	require.NoError(t, err)
	require.Equal(t, StateTimedOut, state.State)
}

func TestDialogueScopedToOwner(t *testing.T) {
	db := setupServiceDB(t)
	svc := newPlannerService(db)

	now := mondayAt(9, 0)
	seedServiceCourse(t, db, 1, "CS101", "Intro")
	seedServiceAssignment(t, db, 1, 10, "Essay", utcTimePtr(now.Add(24*time.Hour)))

	state, err := svc.StartPlanning(testContext(), "user-1", now)
	require.NoError(t, err)

	_, err = svc.Reply(testContext(), "user-2", dto.PlannerReplyRequest{SessionID: state.SessionID, Input: "Tue 10:00 AM"})
	require.ErrorIs(t, err, ErrSessionNotFound)
}
