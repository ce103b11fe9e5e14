package models

import "time"

// AccessRequestType distinguishes grant-intent from removal-intent tickets.
type AccessRequestType string

const (
	// RequestTypeActivate asks that the subject be granted access.
	RequestTypeActivate AccessRequestType = "Activate"
	// RequestTypeRevoke asks that the subject's access be removed.
	RequestTypeRevoke AccessRequestType = "Revoke"
)

// AccessTicketStatus defines lifecycle states for access tickets.
// New is the only actionable state; the rest are terminal.
type AccessTicketStatus string

const (
	TicketStatusNew      AccessTicketStatus = "New"
	TicketStatusApproved AccessTicketStatus = "Approved"
	TicketStatusRejected AccessTicketStatus = "Rejected"
	TicketStatusRevoked  AccessTicketStatus = "Revoked"
)

// Terminal reports whether the status can no longer change.
func (s AccessTicketStatus) Terminal() bool {
	return s != TicketStatusNew
}

// AccessTicket is an auditable request to grant or remove one user's access to
// one application. Tickets are never deleted; they mutate exactly once, from
// New to a terminal state.
type AccessTicket struct {
	ID            uint               `gorm:"primaryKey" json:"id"`
	UserID        uint               `gorm:"not null;index:idx_ticket_pair" json:"user_id"`
	User          *User              `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ApplicationID uint               `gorm:"not null;index:idx_ticket_pair" json:"application_id"`
	Application   *SystemApplication `gorm:"foreignKey:ApplicationID" json:"application,omitempty"`
	RequestType   AccessRequestType  `gorm:"type:varchar(20);not null" json:"request_type"`
	RequestedByID uint               `gorm:"not null;index" json:"requested_by_id"`
	RequestedBy   *User              `gorm:"foreignKey:RequestedByID" json:"requested_by,omitempty"`
	RequestedAt   time.Time          `gorm:"not null" json:"requested_at"`
	Note          string             `gorm:"type:text" json:"note"`
	Status        AccessTicketStatus `gorm:"type:varchar(20);not null;default:'New';index" json:"status"`
	CompletedByID *uint              `json:"completed_by_id"`
	CompletedBy   *User              `gorm:"foreignKey:CompletedByID" json:"completed_by,omitempty"`
	CompletedAt   *time.Time         `json:"completed_at"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}
