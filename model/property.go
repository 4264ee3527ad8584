package model

import "time"

// Building is a managed property owned by a manager team.
type Building struct {
	ID        string `gorm:"primaryKey"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	TeamID    string `gorm:"index;not null" json:"team_id"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Unit is a rentable lot inside a building, optionally occupied by a tenant.
type Unit struct {
	ID         string `gorm:"primaryKey"`
	BuildingID string `gorm:"index;not null" json:"building_id"`
	Reference  string `json:"reference"`
	Floor      int    `json:"floor"`
	TenantID   string `gorm:"index" json:"tenant_id,omitempty"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
