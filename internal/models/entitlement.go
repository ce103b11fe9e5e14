package models

import "time"

// ActiveEntitlement records a user's current, live access to one application.
// At most one row may exist per (user, application) pair. Rows are created
// only by approving an Activate ticket and deleted only by a confirmed
// revocation; the sole mutation in between is the pendingRevocation flag.
type ActiveEntitlement struct {
	ID            uint               `gorm:"primaryKey" json:"id"`
	UserID        uint               `gorm:"not null;index:idx_entitlement_pair" json:"user_id"`
	User          *User              `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ApplicationID uint               `gorm:"not null;index:idx_entitlement_pair" json:"application_id"`
	Application   *SystemApplication `gorm:"foreignKey:ApplicationID" json:"application,omitempty"`
	GrantedAt     time.Time          `gorm:"not null" json:"granted_at"`
	CompletedByID uint               `gorm:"not null" json:"completed_by_id"`
	CompletedBy   *User              `gorm:"foreignKey:CompletedByID" json:"completed_by,omitempty"`
	// SourceTicketID is nil for legacy or manually seeded grants.
	SourceTicketID    *uint     `json:"source_ticket_id"`
	PendingRevocation bool      `gorm:"not null;default:false" json:"pending_revocation"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
