package model

import "time"

// InterventionStatus is the lifecycle state of a maintenance intervention.
type InterventionStatus string

const (
	StatusRequested            InterventionStatus = "requested"
	StatusApproved             InterventionStatus = "approved"
	StatusRejected             InterventionStatus = "rejected"
	StatusQuoteRequested       InterventionStatus = "quote_requested"
	StatusSchedulingInProgress InterventionStatus = "scheduling_in_progress"
	StatusScheduled            InterventionStatus = "scheduled"
	StatusInProgress           InterventionStatus = "in_progress"
	StatusClosedByProvider     InterventionStatus = "closed_by_provider"
	StatusClosedByTenant       InterventionStatus = "closed_by_tenant"
	StatusClosedByManager      InterventionStatus = "closed_by_manager"
	StatusCancelled            InterventionStatus = "cancelled"
)

// Terminal reports whether no further transition can leave the status.
func (s InterventionStatus) Terminal() bool {
	switch s {
	case StatusRejected, StatusClosedByManager, StatusCancelled:
		return true
	}
	return false
}

// Urgency is the declared priority of an intervention.
type Urgency string

const (
	UrgencyLow    Urgency = "basse"
	UrgencyNormal Urgency = "normale"
	UrgencyHigh   Urgency = "haute"
	UrgencyUrgent Urgency = "urgente"
)

// Intervention is a maintenance work order tracked from request to closure.
// Rows are never deleted; cancellation is a terminal status.
type Intervention struct {
	ID             string             `gorm:"primaryKey"`
	Title          string             `gorm:"not null" json:"title"`
	Description    string             `json:"description"`
	Type           string             `json:"type"`
	Urgency        Urgency            `gorm:"type:varchar(16)" json:"urgency"`
	Status         InterventionStatus `gorm:"type:varchar(32);not null;index" json:"status"`
	RequiresQuote  bool               `json:"requires_quote"`
	ScheduledStart *time.Time         `json:"scheduled_start,omitempty"`
	ScheduledEnd   *time.Time         `json:"scheduled_end,omitempty"`
	UnitID         string             `gorm:"index" json:"unit_id"`
	BuildingID     string             `gorm:"index;not null" json:"building_id"`
	TeamID         string             `gorm:"index;not null" json:"team_id"`
	CreatedBy      string             `gorm:"not null" json:"created_by"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`

	Assignments []Assignment `gorm:"foreignKey:InterventionID" json:"assignments,omitempty"`
	TimeSlots   []TimeSlot   `gorm:"foreignKey:InterventionID" json:"time_slots,omitempty"`
	Quotes      []Quote      `gorm:"foreignKey:InterventionID" json:"quotes,omitempty"`
}
