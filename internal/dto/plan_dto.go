package dto

// PlanCreateRequest schedules a work session for an assignment. When uses
// the day/time grammar ("Wed 7:30 PM") interpreted against the current
// week's Monday in the display timezone.
type PlanCreateRequest struct {
	CourseID     int64  `json:"course_id" validate:"required"`
	AssignmentID int64  `json:"assignment_id" validate:"required"`
	When         string `json:"when" validate:"required"`
	Notes        string `json:"notes" validate:"omitempty,max=2000"`
}

// PlanRescheduleRequest moves an existing session to a new time, re-arming
// its reminders.
type PlanRescheduleRequest struct {
	CourseID     int64  `json:"course_id" validate:"required"`
	AssignmentID int64  `json:"assignment_id" validate:"required"`
	When         string `json:"when" validate:"required"`
}

// CompleteRequest marks assignments complete either by a case-insensitive
// name fragment or by 1-based indices into the listed incomplete
// assignments ("1,3,5"). Exactly one selector should be supplied.
type CompleteRequest struct {
	Query     string `json:"query" validate:"omitempty,max=255"`
	Selection string `json:"selection" validate:"omitempty,max=255"`
}

// CompleteResponse reports how many assignments were toggled.
type CompleteResponse struct {
	Marked int `json:"marked"`
}

// PlannerReplyRequest advances an interactive planning dialogue.
type PlannerReplyRequest struct {
	SessionID string `json:"session_id" validate:"required,uuid4"`
	Input     string `json:"input" validate:"required,max=255"`
}

// PlannerStateResponse describes the dialogue state after a start or reply.
type PlannerStateResponse struct {
	SessionID string `json:"session_id"`
	State     string `json:"state"`
	Prompt    string `json:"prompt,omitempty"`
	Saved     int    `json:"saved"`
}

// SyncResponse summarizes a completed Canvas sync cycle.
type SyncResponse struct {
	Courses     int `json:"courses"`
	Assignments int `json:"assignments"`
}
