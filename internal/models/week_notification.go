package models

// WeekCompletionNotification debounces the all-assignments-complete
// congratulation to at most once per user per week. The week key rolls over
// naturally on Monday, re-arming the notification.
type WeekCompletionNotification struct {
	UserID   string `gorm:"primaryKey;size:64" json:"user_id"`
	WeekKey  string `gorm:"primaryKey;size:16" json:"week_key"`
	Notified bool   `gorm:"not null;default:false" json:"notified"`
}
