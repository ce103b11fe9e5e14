package models

import "time"

// AuditEntry is a best-effort audit trail row for entitlement operations.
// Writing an entry must never block or fail the primary operation.
type AuditEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ActorID   uint      `gorm:"not null;index" json:"actor_id"`
	Action    string    `gorm:"size:60;not null" json:"action"`
	TicketID  *uint     `gorm:"index" json:"ticket_id"`
	Subject   string    `gorm:"size:200" json:"subject"`
	Outcome   string    `gorm:"size:60" json:"outcome"`
	CreatedAt time.Time `json:"created_at"`
}
