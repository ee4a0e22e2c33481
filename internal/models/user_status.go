package models

import "time"

// UserAssignmentStatus is per-user completion tracking for an assignment.
// It is never touched by the Canvas sync; submitted-on-Canvas and
// completed-by-this-user are independent facts.
type UserAssignmentStatus struct {
	UserID       string     `gorm:"primaryKey;size:64" json:"user_id"`
	CourseID     int64      `gorm:"primaryKey;autoIncrement:false" json:"course_id"`
	AssignmentID int64      `gorm:"primaryKey;autoIncrement:false" json:"assignment_id"`
	Completed    bool       `gorm:"not null;default:false" json:"completed"`
	CompletedAt  *time.Time `gorm:"column:completed_at_utc" json:"completed_at,omitempty"`
}

// TableName keeps the singular table name the join queries are written
// against instead of gorm's pluralized default.
func (UserAssignmentStatus) TableName() string {
	return "user_assignment_status"
}
