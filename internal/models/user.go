package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID              uint64         `gorm:"primarykey" json:"id"`
	Name            string         `gorm:"type:varchar(255);not null" json:"name"`
	Email           string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash    string         `gorm:"type:varchar(255);not null" json:"-"`
	IsAdmin         bool           `gorm:"not null;default:false" json:"is_admin"`
	EmailVerifiedAt *time.Time     `json:"email_verified_at"`
	RememberToken   *string        `gorm:"type:varchar(100)" json:"-"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	CreatedTasks  []Task       `gorm:"foreignKey:CreatedBy;constraint:OnDelete:CASCADE" json:"-"`
	AssignedTasks []Task       `gorm:"foreignKey:AssignedTo;constraint:OnDelete:CASCADE" json:"-"`
	Memberships   []Membership `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// UserFillable lists the columns that ordinary update paths may write.
// is_admin is deliberately absent.
var UserFillable = []string{"name", "email", "password_hash"}
