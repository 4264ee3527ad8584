package model

import "time"

// Role identifies what a user is allowed to do across the application.
type Role string

const (
	RoleTenant   Role = "tenant"
	RoleManager  Role = "manager"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleTenant, RoleManager, RoleProvider, RoleAdmin:
		return true
	}
	return false
}

// User is an account able to log in. Managers belong to a team that owns
// buildings; tenants occupy units; providers execute interventions.
type User struct {
	ID           string `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `json:"-"`
	Name         string `json:"name"`
	Role         Role   `gorm:"type:varchar(32);not null;index" json:"role"`
	TeamID       string `gorm:"index" json:"team_id,omitempty"`
	Active       bool   `gorm:"default:true" json:"active"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
