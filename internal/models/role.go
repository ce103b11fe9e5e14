package models

import (
	"strings"
	"time"
)

// Capability strings checked at the route level. The per-application admin
// gate is separate and always resolved against the application registry.
const (
	CapAccessRequestsViewCreate = "accessRequests.CanViewCreate"
	CapUsersView                = "users.CanView"
)

// PlatformRole is a named role whose permission list forms the capability set
// attached to a resolved identity.
type PlatformRole struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"unique;not null;size:60" json:"name"`
	// Permissions is a comma-separated capability list. Kept flat rather than
	// as a join table; roles are few and read as a unit on every request.
	Permissions string    `gorm:"type:text" json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PermissionList splits the stored permission string into capabilities.
func (r PlatformRole) PermissionList() []string {
	if r.Permissions == "" {
		return nil
	}
	parts := strings.Split(r.Permissions, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
