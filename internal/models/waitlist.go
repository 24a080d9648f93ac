package models

import "time"

// WaitlistEntry is one sign-up identity. Rows are written once and never
// updated by the service.
type WaitlistEntry struct {
	ID        uint      `gorm:"primaryKey"`
	Email     string    `gorm:"not null;uniqueIndex:idx_waitlist_email"`
	Country   string    `gorm:"not null"`
	State     *string   `gorm:"column:state"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (WaitlistEntry) TableName() string {
	return "waitlist"
}
