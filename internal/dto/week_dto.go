package dto

import (
	"github.com/noah-isme/ingat-go-api/internal/repository"
	"github.com/noah-isme/ingat-go-api/internal/timeutil"
)

// WeekDigestItem is one assignment in the weekly digest, due-date ascending.
type WeekDigestItem struct {
	AssignmentID int64  `json:"assignment_id"`
	CourseID     int64  `json:"course_id"`
	Name         string `json:"name"`
	CourseLabel  string `json:"course_label"`
	DueAt        string `json:"due_at,omitempty"`
	DueLocal     string `json:"due_local,omitempty"`
	Completed    bool   `json:"completed"`
	Submitted    bool   `json:"submitted"`
}

// WeekDigestResponse is the weekly assignment overview for one user.
type WeekDigestResponse struct {
	WeekStart string           `json:"week_start"`
	WeekEnd   string           `json:"week_end"`
	WeekLabel string           `json:"week_label"`
	Items     []WeekDigestItem `json:"items"`
}

// NewWeekDigestItem converts a store row into a digest entry.
func NewWeekDigestItem(row repository.WeekAssignmentRow) WeekDigestItem {
	item := WeekDigestItem{
		AssignmentID: row.AssignmentID,
		CourseID:     row.CourseID,
		Name:         row.Name,
		CourseLabel:  courseLabel(row.CourseCode, row.CourseName),
		Completed:    row.Completed,
		Submitted:    row.Submitted,
	}

	if row.DueAt != nil {
		item.DueAt = timeutil.ToCanonical(*row.DueAt)
		item.DueLocal = timeutil.FormatLocal(*row.DueAt, DisplayLayout)
	}

	return item
}

// PlanResponse is a planned work session joined with display attributes.
type PlanResponse struct {
	AssignmentID int64  `json:"assignment_id"`
	CourseID     int64  `json:"course_id"`
	Assignment   string `json:"assignment"`
	CourseLabel  string `json:"course_label"`
	PlannedAt    string `json:"planned_at"`
	PlannedLocal string `json:"planned_local"`
	DueAt        string `json:"due_at,omitempty"`
	DueLocal     string `json:"due_local,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// NewPlanResponse converts a store row into a plan entry.
func NewPlanResponse(row repository.PlanDetailRow) PlanResponse {
	response := PlanResponse{
		AssignmentID: row.AssignmentID,
		CourseID:     row.CourseID,
		Assignment:   row.AssignmentName,
		CourseLabel:  courseLabel(row.CourseCode, row.CourseName),
		PlannedAt:    timeutil.ToCanonical(row.PlannedAt),
		PlannedLocal: timeutil.FormatLocal(row.PlannedAt, DisplayLayout),
		Notes:        row.Notes,
	}

	if row.AssignmentDue != nil {
		response.DueAt = timeutil.ToCanonical(*row.AssignmentDue)
		response.DueLocal = timeutil.FormatLocal(*row.AssignmentDue, DisplayLayout)
	}

	return response
}

// WeekCompletionResponse summarizes a user's progress through the week.
type WeekCompletionResponse struct {
	WeekKey     string `json:"week_key"`
	AllComplete bool   `json:"all_complete"`
	Total       int64  `json:"total"`
	Completed   int64  `json:"completed"`
}
