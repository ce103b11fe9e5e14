package repository

import (
	"context"
	"errors"

	"intranet/internal/models"

	"gorm.io/gorm"
)

// ApplicationRepository exposes the application registry. Admin membership is
// mutable external state: callers must re-read it for every authorization
// decision, so none of these results may be cached.
type ApplicationRepository interface {
	GetByID(ctx context.Context, id uint) (*models.SystemApplication, error)
	Exists(ctx context.Context, id uint) (bool, error)
	List(ctx context.Context, limit, offset int) ([]models.SystemApplication, error)
	IsAdmin(ctx context.Context, applicationID, userID uint) (bool, error)
	AdminsOf(ctx context.Context, applicationID uint) ([]uint, error)
	AddAdmin(ctx context.Context, applicationID, userID uint) error
	RemoveAdmin(ctx context.Context, applicationID, userID uint) error
	AdminApplicationIDs(ctx context.Context, userID uint) ([]uint, error)
	AllApplicationIDs(ctx context.Context) ([]uint, error)
}

type applicationRepository struct {
	db *gorm.DB
}

// NewApplicationRepository creates a new application registry repository
func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) GetByID(ctx context.Context, id uint) (*models.SystemApplication, error) {
	var app models.SystemApplication
	if err := r.db.WithContext(ctx).First(&app, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("System application", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &app, nil
}

func (r *applicationRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.SystemApplication{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *applicationRepository) List(ctx context.Context, limit, offset int) ([]models.SystemApplication, error) {
	var apps []models.SystemApplication
	if err := r.db.WithContext(ctx).
		Order("name ASC").
		Limit(limit).
		Offset(offset).
		Find(&apps).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return apps, nil
}

func (r *applicationRepository) IsAdmin(ctx context.Context, applicationID, userID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Table("application_admins").
		Where("system_application_id = ? AND user_id = ?", applicationID, userID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *applicationRepository) AdminsOf(ctx context.Context, applicationID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).
		Table("application_admins").
		Where("system_application_id = ?", applicationID).
		Pluck("user_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

// AddAdmin grants userID admin standing for the application. Appending an
// existing member is a no-op.
func (r *applicationRepository) AddAdmin(ctx context.Context, applicationID, userID uint) error {
	app := models.SystemApplication{ID: applicationID}
	if err := r.db.WithContext(ctx).
		Model(&app).
		Association("Admins").
		Append(&models.User{ID: userID}); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *applicationRepository) RemoveAdmin(ctx context.Context, applicationID, userID uint) error {
	app := models.SystemApplication{ID: applicationID}
	if err := r.db.WithContext(ctx).
		Model(&app).
		Association("Admins").
		Delete(&models.User{ID: userID}); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *applicationRepository) AdminApplicationIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).
		Table("application_admins").
		Where("user_id = ?", userID).
		Pluck("system_application_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *applicationRepository) AllApplicationIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&models.SystemApplication{}).
		Pluck("id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}
