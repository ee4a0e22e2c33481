package models

import "time"

// Course mirrors a Canvas course. Identity comes from Canvas; attributes are
// overwritten wholesale on every sync.
type Course struct {
	ID         int64      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name       string     `gorm:"size:255;not null" json:"name"`
	CourseCode string     `gorm:"size:64" json:"course_code"`
	StartAt    *time.Time `gorm:"column:start_at" json:"start_at,omitempty"`
	EndAt      *time.Time `gorm:"column:end_at" json:"end_at,omitempty"`
}

// Label renders the course for display, preferring "CODE: Name".
func (c Course) Label() string {
	if c.CourseCode != "" {
		return c.CourseCode + ": " + c.Name
	}
	return c.Name
}
