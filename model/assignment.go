package model

import "time"

// ConfirmationStatus is the per-participant confirmation state. It is only
// meaningful when the assignment requires confirmation.
type ConfirmationStatus string

const (
	ConfirmationPending   ConfirmationStatus = "pending"
	ConfirmationConfirmed ConfirmationStatus = "confirmed"
	ConfirmationRejected  ConfirmationStatus = "rejected"
)

// Resolved reports whether the confirmation was already answered.
func (s ConfirmationStatus) Resolved() bool {
	return s == ConfirmationConfirmed || s == ConfirmationRejected
}

// Assignment links a user to an intervention with a role. Assignments marked
// RequiresConfirmation gate the advance to the scheduled status.
type Assignment struct {
	ID                   string             `gorm:"primaryKey"`
	InterventionID       string             `gorm:"index;not null" json:"intervention_id"`
	UserID               string             `gorm:"index;not null" json:"user_id"`
	Role                 Role               `gorm:"type:varchar(32);not null" json:"role"`
	Primary              bool               `gorm:"column:is_primary" json:"is_primary"`
	RequiresConfirmation bool               `json:"requires_confirmation"`
	Confirmation         ConfirmationStatus `gorm:"type:varchar(16);default:'pending'" json:"confirmation"`
	ConfirmedAt          *time.Time         `json:"confirmed_at,omitempty"`
	Reason               string             `json:"reason,omitempty"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
