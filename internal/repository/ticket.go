package repository

import (
	"context"
	"errors"
	"time"

	"intranet/internal/models"

	"gorm.io/gorm"
)

// TicketFilter narrows ticket listings. Zero values mean "no filter"; the
// date bounds are inclusive.
type TicketFilter struct {
	UserID          uint
	ApplicationID   uint
	RequestedByID   uint
	CompletedByID   uint
	RequestType     models.AccessRequestType
	Status          models.AccessTicketStatus
	RequestedAfter  *time.Time
	RequestedBefore *time.Time
}

// TicketRepository defines the interface for access ticket data operations.
// Tickets are append-only except for the single transition out of New.
type TicketRepository interface {
	Create(ctx context.Context, ticket *models.AccessTicket) error
	GetByID(ctx context.Context, id uint) (*models.AccessTicket, error)
	FindNewByPair(ctx context.Context, userID, applicationID uint) (*models.AccessTicket, error)
	Complete(ctx context.Context, id uint, status models.AccessTicketStatus, completedByID uint, completedAt time.Time) error
	List(ctx context.Context, filter TicketFilter) ([]models.AccessTicket, error)
	ListNewByApplications(ctx context.Context, applicationIDs []uint) ([]models.AccessTicket, error)
}

type ticketRepository struct {
	db *gorm.DB
}

// NewTicketRepository creates a new access ticket repository
func NewTicketRepository(db *gorm.DB) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *models.AccessTicket) error {
	if err := r.db.WithContext(ctx).Create(ticket).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id uint) (*models.AccessTicket, error) {
	var ticket models.AccessTicket
	if err := r.db.WithContext(ctx).First(&ticket, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Access ticket", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &ticket, nil
}

// FindNewByPair returns the outstanding New ticket for the pair, or nil.
// Any request type matches: an open Revoke ticket blocks a new Activate
// request just as an open Activate ticket does.
func (r *ticketRepository) FindNewByPair(ctx context.Context, userID, applicationID uint) (*models.AccessTicket, error) {
	var ticket models.AccessTicket
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND application_id = ? AND status = ?", userID, applicationID, models.TicketStatusNew).
		First(&ticket).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &ticket, nil
}

// Complete moves a ticket out of New. The status guard in the WHERE clause
// makes the transition single-shot even under concurrent actions: the second
// caller matches zero rows and gets a conflict.
func (r *ticketRepository) Complete(ctx context.Context, id uint, status models.AccessTicketStatus, completedByID uint, completedAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.AccessTicket{}).
		Where("id = ? AND status = ?", id, models.TicketStatusNew).
		Updates(map[string]any{
			"status":          status,
			"completed_by_id": completedByID,
			"completed_at":    completedAt,
		})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewConflictError("Request is already processed.")
	}
	return nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]models.AccessTicket, error) {
	q := r.db.WithContext(ctx).Model(&models.AccessTicket{}).
		Preload("User").
		Preload("RequestedBy").
		Preload("CompletedBy").
		Preload("Application")

	if filter.UserID != 0 {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.ApplicationID != 0 {
		q = q.Where("application_id = ?", filter.ApplicationID)
	}
	if filter.RequestedByID != 0 {
		q = q.Where("requested_by_id = ?", filter.RequestedByID)
	}
	if filter.CompletedByID != 0 {
		q = q.Where("completed_by_id = ?", filter.CompletedByID)
	}
	if filter.RequestType != "" {
		q = q.Where("request_type = ?", filter.RequestType)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.RequestedAfter != nil {
		q = q.Where("requested_at >= ?", *filter.RequestedAfter)
	}
	if filter.RequestedBefore != nil {
		q = q.Where("requested_at <= ?", *filter.RequestedBefore)
	}

	var tickets []models.AccessTicket
	if err := q.Order("requested_at DESC").Find(&tickets).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return tickets, nil
}

func (r *ticketRepository) ListNewByApplications(ctx context.Context, applicationIDs []uint) ([]models.AccessTicket, error) {
	if len(applicationIDs) == 0 {
		return nil, nil
	}
	var tickets []models.AccessTicket
	if err := r.db.WithContext(ctx).
		Preload("User").
		Preload("RequestedBy").
		Preload("Application").
		Where("application_id IN ? AND status = ?", applicationIDs, models.TicketStatusNew).
		Order("requested_at DESC").
		Find(&tickets).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return tickets, nil
}
