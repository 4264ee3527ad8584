package model

import "time"

// Notification is an in-app message for a user, written after a successful
// lifecycle transition. Dispatch is fire-and-forget.
type Notification struct {
	ID        string    `gorm:"primaryKey"`
	UserID    string    `gorm:"index;not null" json:"user_id"`
	Message   string    `gorm:"not null" json:"message"`
	Metadata  string    `json:"metadata,omitempty"` // JSON blob
	Read      bool      `gorm:"default:false" json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
