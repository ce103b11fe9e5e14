package repository

import (
	"context"
	"errors"

	"intranet/internal/models"

	"gorm.io/gorm"
)

// EntitlementFilter narrows entitlement listings. Zero values mean "no filter".
type EntitlementFilter struct {
	UserID        uint
	ApplicationID uint
}

// EntitlementRepository defines the interface for active entitlement data operations
type EntitlementRepository interface {
	Create(ctx context.Context, entitlement *models.ActiveEntitlement) error
	GetByID(ctx context.Context, id uint) (*models.ActiveEntitlement, error)
	ExistsByPair(ctx context.Context, userID, applicationID uint) (bool, error)
	SetPendingRevocation(ctx context.Context, id uint, pending bool) error
	DeleteByPair(ctx context.Context, userID, applicationID uint) error
	List(ctx context.Context, filter EntitlementFilter) ([]models.ActiveEntitlement, error)
	Count(ctx context.Context) (int64, error)
}

type entitlementRepository struct {
	db *gorm.DB
}

// NewEntitlementRepository creates a new active entitlement repository
func NewEntitlementRepository(db *gorm.DB) EntitlementRepository {
	return &entitlementRepository{db: db}
}

func (r *entitlementRepository) Create(ctx context.Context, entitlement *models.ActiveEntitlement) error {
	if err := r.db.WithContext(ctx).Create(entitlement).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *entitlementRepository) GetByID(ctx context.Context, id uint) (*models.ActiveEntitlement, error) {
	var entitlement models.ActiveEntitlement
	if err := r.db.WithContext(ctx).First(&entitlement, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &entitlement, nil
}

func (r *entitlementRepository) ExistsByPair(ctx context.Context, userID, applicationID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ActiveEntitlement{}).
		Where("user_id = ? AND application_id = ?", userID, applicationID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *entitlementRepository) SetPendingRevocation(ctx context.Context, id uint, pending bool) error {
	if err := r.db.WithContext(ctx).
		Model(&models.ActiveEntitlement{}).
		Where("id = ?", id).
		Update("pending_revocation", pending).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// DeleteByPair removes every entitlement row for the pair. Deleting all
// matches tolerates duplicate stale rows left by the historical race on
// concurrent approvals.
func (r *entitlementRepository) DeleteByPair(ctx context.Context, userID, applicationID uint) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND application_id = ?", userID, applicationID).
		Delete(&models.ActiveEntitlement{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *entitlementRepository) List(ctx context.Context, filter EntitlementFilter) ([]models.ActiveEntitlement, error) {
	q := r.db.WithContext(ctx).Model(&models.ActiveEntitlement{}).
		Preload("User").
		Preload("CompletedBy").
		Preload("Application")

	if filter.UserID != 0 {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.ApplicationID != 0 {
		q = q.Where("application_id = ?", filter.ApplicationID)
	}

	var entitlements []models.ActiveEntitlement
	if err := q.Order("granted_at DESC").Find(&entitlements).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return entitlements, nil
}

func (r *entitlementRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ActiveEntitlement{}).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
