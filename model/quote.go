package model

import "time"

// QuoteStatus is the state of a provider cost proposal.
type QuoteStatus string

const (
	QuoteDraft     QuoteStatus = "draft"
	QuotePending   QuoteStatus = "pending"
	QuoteSent      QuoteStatus = "sent"
	QuoteAccepted  QuoteStatus = "accepted"
	QuoteRejected  QuoteStatus = "rejected"
	QuoteExpired   QuoteStatus = "expired"
	QuoteCancelled QuoteStatus = "cancelled"
)

// Active reports whether the quote still competes for acceptance.
func (s QuoteStatus) Active() bool {
	return s == QuotePending || s == QuoteSent
}

// Quote is a cost proposal submitted by a provider for an intervention.
// Accepting one quote rejects every other active quote of the same
// intervention.
type Quote struct {
	ID             string      `gorm:"primaryKey"`
	InterventionID string      `gorm:"index;not null" json:"intervention_id"`
	ProviderID     string      `gorm:"index;not null" json:"provider_id"`
	LaborAmount    float64     `json:"labor_amount"`
	MaterialAmount float64     `json:"material_amount"`
	TotalAmount    float64     `json:"total_amount"`
	Description    string      `json:"description"`
	Status         QuoteStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}
