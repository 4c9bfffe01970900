package models

import "time"

// WaitlistEntry is a single signup. Rows are append/remove only; there is no update path.
type WaitlistEntry struct {
	ID           string    `gorm:"type:text;primaryKey"`
	Email        string    `gorm:"type:text;not null"`
	WaitListCode string    `gorm:"type:text;not null;default:''"`
	Preferences  []string  `gorm:"type:text;serializer:json"`
	CreatedAt    time.Time `gorm:"not null;index"`
}

func (WaitlistEntry) TableName() string {
	return "waitlist_entries"
}
