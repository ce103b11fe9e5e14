package models

import "time"

// SystemApplication is an entry in the application registry: an internal
// system users can be granted access to. The Admins list is mutable and is
// re-read on every authorization decision.
type SystemApplication struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"unique;not null;size:120" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	Admins      []User    `gorm:"many2many:application_admins" json:"admins,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
