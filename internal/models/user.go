package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents an employee account in the intranet directory.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Username     string         `gorm:"unique;not null" json:"username"`
	FullName     string         `gorm:"size:120" json:"full_name"`
	Email        string         `gorm:"unique;not null" json:"email"`
	Password     string         `gorm:"not null" json:"-"`
	Position     string         `gorm:"size:120" json:"position"`
	IsActive     bool           `gorm:"not null;default:true" json:"is_active"`
	IsSuperAdmin bool           `gorm:"not null;default:false" json:"is_super_admin"`
	RoleID       *uint          `json:"role_id"`
	Role         *PlatformRole  `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	Departments  []Department   `gorm:"many2many:user_departments" json:"departments,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// Identity is the resolved caller identity handed to the lifecycle engine:
// the user plus its flattened capability set.
type Identity struct {
	ID           uint     `json:"id"`
	Username     string   `json:"username"`
	FullName     string   `json:"full_name"`
	IsActive     bool     `json:"is_active"`
	IsSuperAdmin bool     `json:"is_super_admin"`
	Departments  []uint   `json:"departments"`
	Capabilities []string `json:"capabilities"`
}

// HasCapability reports whether the identity carries the named capability.
// Super admins implicitly hold every capability.
func (i Identity) HasCapability(name string) bool {
	if i.IsSuperAdmin {
		return true
	}
	for _, c := range i.Capabilities {
		if c == name {
			return true
		}
	}
	return false
}
