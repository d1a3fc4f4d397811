package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type ProjectRole string

const (
	RoleManager   ProjectRole = "manager"
	RoleDeveloper ProjectRole = "developer"
	RoleTester    ProjectRole = "tester"
)

// Valid reports whether r is one of the known project roles.
func (r ProjectRole) Valid() bool {
	switch r {
	case RoleManager, RoleDeveloper, RoleTester:
		return true
	}
	return false
}

// Membership is the project_user pivot between users and projects.
type Membership struct {
	ID                uint64      `gorm:"primarykey" json:"id"`
	ProjectID         uint64      `gorm:"not null;uniqueIndex:idx_project_user" json:"project_id"`
	UserID            uint64      `gorm:"not null;uniqueIndex:idx_project_user;index" json:"user_id"`
	Role              ProjectRole `gorm:"type:varchar(20);not null" json:"role"`
	ContributionHours int         `gorm:"not null;default:0" json:"contribution_hours"`
	LastActivity      *time.Time  `json:"last_activity"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`

	// Relations
	Project Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	User    User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Membership) TableName() string { return "project_user" }

// BeforeSave rejects rows that would persist an unknown role or negative hours.
func (m *Membership) BeforeSave(tx *gorm.DB) error {
	if !m.Role.Valid() {
		return fmt.Errorf("%w: role %q", ErrInvalidEnum, m.Role)
	}
	if m.ContributionHours < 0 {
		return fmt.Errorf("contribution hours cannot be negative")
	}
	return nil
}
