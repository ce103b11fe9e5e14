package repository

import (
	"context"
	"log/slog"

	"intranet/internal/middleware"
	"intranet/internal/models"

	"gorm.io/gorm"
)

// AuditRepository records audit trail entries for entitlement operations.
type AuditRepository interface {
	Record(ctx context.Context, entry *models.AuditEntry)
}

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new audit trail repository
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

// Record writes the entry best-effort. Audit failures are logged and
// swallowed; they must never fail the primary operation.
func (r *auditRepository) Record(ctx context.Context, entry *models.AuditEntry) {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		middleware.Logger.WarnContext(ctx, "audit write failed",
			slog.String("action", entry.Action),
			slog.String("error", err.Error()),
		)
	}
}
