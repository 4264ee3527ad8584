package model

import "time"

// SlotStatus is the state of a proposed scheduling window.
type SlotStatus string

const (
	SlotPending  SlotStatus = "pending"
	SlotSelected SlotStatus = "selected"
)

// TimeSlot is a candidate date/time window for an intervention. At most one
// slot per intervention ends up selected once scheduling completes.
type TimeSlot struct {
	ID                string     `gorm:"primaryKey"`
	InterventionID    string     `gorm:"index;not null" json:"intervention_id"`
	Date              time.Time  `gorm:"not null" json:"date"`
	StartTime         time.Time  `gorm:"not null" json:"start_time"`
	EndTime           time.Time  `gorm:"not null" json:"end_time"`
	Status            SlotStatus `gorm:"type:varchar(16);default:'pending'" json:"status"`
	ProposedBy        string     `gorm:"not null" json:"proposed_by"`
	SelectedByManager bool       `json:"selected_by_manager"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
