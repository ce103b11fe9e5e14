// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"

	"intranet/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines the interface for user directory data operations
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
	ResolveIdentity(ctx context.Context, id uint) (*models.Identity, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Preload("Departments").
		Order("full_name ASC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ResolveIdentity loads the user with role and departments and flattens it
// into the identity the lifecycle engine consumes.
func (r *userRepository) ResolveIdentity(ctx context.Context, id uint) (*models.Identity, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Preload("Role").
		Preload("Departments").
		First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, models.NewInternalError(err)
	}

	identity := &models.Identity{
		ID:           user.ID,
		Username:     user.Username,
		FullName:     user.FullName,
		IsActive:     user.IsActive,
		IsSuperAdmin: user.IsSuperAdmin,
	}
	for _, d := range user.Departments {
		identity.Departments = append(identity.Departments, d.ID)
	}
	if user.Role != nil {
		identity.Capabilities = user.Role.PermissionList()
	}
	return identity, nil
}
