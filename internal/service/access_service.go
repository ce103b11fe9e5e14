package service

import (
	"context"
	"fmt"
	"time"

	"intranet/internal/models"
	"intranet/internal/observability"
	"intranet/internal/repository"
	"intranet/internal/validation"

	"gorm.io/gorm"
)

// AdminResolver answers whether an identity may action tickets for an
// application. Implementations must consult current registry state on every
// call: admin membership is mutable, and a cached answer goes stale the
// moment an admin list changes.
type AdminResolver interface {
	IsAdmin(ctx context.Context, applicationID, userID uint) (bool, error)
}

// TransactFunc runs fn against ticket and entitlement repositories bound to a
// single database transaction.
type TransactFunc func(ctx context.Context, fn func(tickets repository.TicketRepository, entitlements repository.EntitlementRepository) error) error

// ActionableTickets is the approver's worklist: every New ticket for the
// applications the actor administers, with per-type counts for badges.
type ActionableTickets struct {
	Tickets       []models.AccessTicket `json:"tickets"`
	ActivateCount int                   `json:"activate_count"`
	RevokeCount   int                   `json:"revoke_count"`
}

// AccessService implements the entitlement lifecycle: activation and
// revocation tickets, the approve/reject transitions, and the consistency
// between the ticket history and the active entitlements table.
type AccessService struct {
	users        repository.UserRepository
	apps         repository.ApplicationRepository
	tickets      repository.TicketRepository
	entitlements repository.EntitlementRepository
	audit        repository.AuditRepository
	admins       AdminResolver
	transact     TransactFunc
	now          func() time.Time
}

// NewAccessService returns an AccessService backed by GORM repositories over db.
func NewAccessService(db *gorm.DB) *AccessService {
	appRepo := repository.NewApplicationRepository(db)
	return &AccessService{
		users:        repository.NewUserRepository(db),
		apps:         appRepo,
		tickets:      repository.NewTicketRepository(db),
		entitlements: repository.NewEntitlementRepository(db),
		audit:        repository.NewAuditRepository(db),
		admins:       appRepo,
		transact:     gormTransact(db),
		now:          time.Now,
	}
}

// NewAccessServiceWithDeps wires explicit dependencies. Used by tests.
func NewAccessServiceWithDeps(
	users repository.UserRepository,
	apps repository.ApplicationRepository,
	tickets repository.TicketRepository,
	entitlements repository.EntitlementRepository,
	audit repository.AuditRepository,
	admins AdminResolver,
	transact TransactFunc,
) *AccessService {
	return &AccessService{
		users:        users,
		apps:         apps,
		tickets:      tickets,
		entitlements: entitlements,
		audit:        audit,
		admins:       admins,
		transact:     transact,
		now:          time.Now,
	}
}

func gormTransact(db *gorm.DB) TransactFunc {
	return func(ctx context.Context, fn func(tickets repository.TicketRepository, entitlements repository.EntitlementRepository) error) error {
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(repository.NewTicketRepository(tx), repository.NewEntitlementRepository(tx))
		})
	}
}

// CreateActivationTickets requests access to each application for the subject
// user. Items are processed independently: a failure or duplicate in one item
// never drops or rolls back its siblings.
func (s *AccessService) CreateActivationTickets(ctx context.Context, actor *models.Identity, subjectID uint, applicationIDs []uint, note string) (*BatchResult, error) {
	if err := validation.ValidateBatchSize(len(applicationIDs)); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	note, err := validation.NormalizeNote(note)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	subject, err := s.users.GetByID(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if !subject.IsActive {
		return nil, models.NewValidationError("Cannot request access for an inactive user")
	}

	result := &BatchResult{}
	for _, appID := range applicationIDs {
		outcome := s.activateOne(ctx, actor, subject.ID, appID, note)
		observability.BatchItemOutcomes.WithLabelValues("activate", string(outcome.Class)).Inc()
		result.add(outcome)
	}
	return result, nil
}

func (s *AccessService) activateOne(ctx context.Context, actor *models.Identity, subjectID, appID uint, note string) ItemOutcome {
	if err := validation.ValidateID(int(appID)); err != nil {
		return ItemOutcome{Ref: appID, Class: OutcomeFailed, Reason: err.Error()}
	}

	exists, err := s.apps.Exists(ctx, appID)
	if err != nil {
		return ItemOutcome{Ref: appID, Class: OutcomeFailed, Reason: "failed to look up application"}
	}
	if !exists {
		return ItemOutcome{Ref: appID, Class: OutcomeFailed, Reason: "application not found"}
	}

	open, err := s.tickets.FindNewByPair(ctx, subjectID, appID)
	if err != nil {
		return ItemOutcome{Ref: appID, Class: OutcomeFailed, Reason: "failed to check open requests"}
	}
	if open != nil {
		return ItemOutcome{Ref: appID, Class: OutcomeAlreadyRequested, Ticket: open}
	}

	active, err := s.entitlements.ExistsByPair(ctx, subjectID, appID)
	if err != nil {
		return ItemOutcome{Ref: appID, Class: OutcomeFailed, Reason: "failed to check active access"}
	}
	if active {
		return ItemOutcome{Ref: appID, Class: OutcomeAlreadyActive}
	}

	ticket := &models.AccessTicket{
		UserID:        subjectID,
		ApplicationID: appID,
		RequestType:   models.RequestTypeActivate,
		RequestedByID: actor.ID,
		RequestedAt:   s.now(),
		Note:          note,
		Status:        models.TicketStatusNew,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return ItemOutcome{Ref: appID, Class: OutcomeFailed, Reason: "failed to create request"}
	}

	observability.TicketsCreated.WithLabelValues(string(models.RequestTypeActivate)).Inc()
	s.audit.Record(ctx, &models.AuditEntry{
		ActorID:  actor.ID,
		Action:   "ticket.create",
		TicketID: &ticket.ID,
		Subject:  fmt.Sprintf("user=%d application=%d", subjectID, appID),
		Outcome:  string(OutcomeCreated),
	})
	return ItemOutcome{Ref: appID, Class: OutcomeCreated, Ticket: ticket}
}

// ActionTicket moves a New ticket to a terminal state. Approving an Activate
// ticket grants the entitlement; approving a Revoke ticket removes it and the
// ticket ends Revoked, since the terminal state names the outcome rather than
// the verb. The entitlement write and the status transition commit together.
func (s *AccessService) ActionTicket(ctx context.Context, actor *models.Identity, ticketID uint, action models.AccessTicketStatus) (*models.AccessTicket, error) {
	if action != models.TicketStatusApproved && action != models.TicketStatusRejected {
		return nil, models.NewValidationError("Action must be Approved or Rejected")
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, ticket.ApplicationID); err != nil {
		return nil, err
	}
	if ticket.Status.Terminal() {
		return nil, models.NewConflictError("Request is already processed.")
	}

	now := s.now()
	var final models.AccessTicketStatus

	switch {
	case action == models.TicketStatusRejected && ticket.RequestType == models.RequestTypeRevoke:
		// Withdrawal of a pending revocation is not supported; the only way
		// out of a New Revoke ticket is confirmation.
		return nil, models.NewValidationError("Revocation requests cannot be rejected; confirm the revocation instead")

	case action == models.TicketStatusRejected:
		final = models.TicketStatusRejected
		if err := s.tickets.Complete(ctx, ticket.ID, final, actor.ID, now); err != nil {
			return nil, err
		}

	case ticket.RequestType == models.RequestTypeActivate:
		final = models.TicketStatusApproved
		err := s.transact(ctx, func(tickets repository.TicketRepository, entitlements repository.EntitlementRepository) error {
			active, err := entitlements.ExistsByPair(ctx, ticket.UserID, ticket.ApplicationID)
			if err != nil {
				return err
			}
			if active {
				return models.NewConflictError("User already has access to this application")
			}
			grant := &models.ActiveEntitlement{
				UserID:         ticket.UserID,
				ApplicationID:  ticket.ApplicationID,
				GrantedAt:      now,
				CompletedByID:  actor.ID,
				SourceTicketID: &ticket.ID,
			}
			if err := entitlements.Create(ctx, grant); err != nil {
				return err
			}
			return tickets.Complete(ctx, ticket.ID, final, actor.ID, now)
		})
		if err != nil {
			return nil, err
		}

	default: // Approved + Revoke
		final = models.TicketStatusRevoked
		err := s.transact(ctx, func(tickets repository.TicketRepository, entitlements repository.EntitlementRepository) error {
			if err := entitlements.DeleteByPair(ctx, ticket.UserID, ticket.ApplicationID); err != nil {
				return err
			}
			return tickets.Complete(ctx, ticket.ID, final, actor.ID, now)
		})
		if err != nil {
			return nil, err
		}
	}

	observability.TicketsActioned.WithLabelValues(string(final)).Inc()
	s.audit.Record(ctx, &models.AuditEntry{
		ActorID:  actor.ID,
		Action:   "ticket.action",
		TicketID: &ticket.ID,
		Subject:  fmt.Sprintf("user=%d application=%d", ticket.UserID, ticket.ApplicationID),
		Outcome:  string(final),
	})
	s.refreshEntitlementGauge(ctx)

	return s.tickets.GetByID(ctx, ticket.ID)
}

// CreateRevocationTickets opens the first phase of revocation for each
// referenced entitlement: a Revoke ticket is created and the entitlement is
// flagged pendingRevocation, but access stays live until an application admin
// confirms. Items are processed independently.
func (s *AccessService) CreateRevocationTickets(ctx context.Context, actor *models.Identity, entitlementIDs []int, note string) (*BatchResult, error) {
	if err := validation.ValidateBatchSize(len(entitlementIDs)); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	note, err := validation.NormalizeNote(note)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	result := &BatchResult{}
	for _, id := range entitlementIDs {
		outcome := s.revokeOne(ctx, actor, id, note)
		observability.BatchItemOutcomes.WithLabelValues("revoke", string(outcome.Class)).Inc()
		result.add(outcome)
	}
	return result, nil
}

func (s *AccessService) revokeOne(ctx context.Context, actor *models.Identity, id int, note string) ItemOutcome {
	if err := validation.ValidateID(id); err != nil {
		return ItemOutcome{Ref: uint(max(id, 0)), Class: OutcomeFailed, Reason: err.Error()}
	}

	entitlement, err := s.entitlements.GetByID(ctx, uint(id))
	if err != nil {
		return ItemOutcome{Ref: uint(id), Class: OutcomeFailed, Reason: "failed to look up entitlement"}
	}
	if entitlement == nil {
		return ItemOutcome{Ref: uint(id), Class: OutcomeNoAccess}
	}

	open, err := s.tickets.FindNewByPair(ctx, entitlement.UserID, entitlement.ApplicationID)
	if err != nil {
		return ItemOutcome{Ref: uint(id), Class: OutcomeFailed, Reason: "failed to check open requests"}
	}
	if open != nil {
		return ItemOutcome{Ref: uint(id), Class: OutcomeAlreadyRequested, Ticket: open}
	}

	ticket := &models.AccessTicket{
		UserID:        entitlement.UserID,
		ApplicationID: entitlement.ApplicationID,
		RequestType:   models.RequestTypeRevoke,
		RequestedByID: actor.ID,
		RequestedAt:   s.now(),
		Note:          note,
		Status:        models.TicketStatusNew,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return ItemOutcome{Ref: uint(id), Class: OutcomeFailed, Reason: "failed to create request"}
	}
	if err := s.entitlements.SetPendingRevocation(ctx, entitlement.ID, true); err != nil {
		return ItemOutcome{Ref: uint(id), Class: OutcomeFailed, Reason: "failed to flag entitlement"}
	}

	observability.TicketsCreated.WithLabelValues(string(models.RequestTypeRevoke)).Inc()
	s.audit.Record(ctx, &models.AuditEntry{
		ActorID:  actor.ID,
		Action:   "ticket.create",
		TicketID: &ticket.ID,
		Subject:  fmt.Sprintf("user=%d application=%d", entitlement.UserID, entitlement.ApplicationID),
		Outcome:  string(OutcomeCreated),
	})
	return ItemOutcome{Ref: uint(id), Class: OutcomeCreated, Ticket: ticket}
}

// ConfirmRevocation finalizes a pending revocation: every entitlement row for
// the ticket's pair is deleted and the ticket ends Revoked. Deleting all
// matches keeps the operation idempotent against duplicate stale rows.
func (s *AccessService) ConfirmRevocation(ctx context.Context, actor *models.Identity, ticketID uint) (*models.AccessTicket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.RequestType != models.RequestTypeRevoke {
		return nil, models.NewValidationError("Only revocation requests can be confirmed")
	}
	if err := s.authorize(ctx, actor, ticket.ApplicationID); err != nil {
		return nil, err
	}
	if ticket.Status.Terminal() {
		return nil, models.NewConflictError("Request is already processed.")
	}

	now := s.now()
	err = s.transact(ctx, func(tickets repository.TicketRepository, entitlements repository.EntitlementRepository) error {
		if err := entitlements.DeleteByPair(ctx, ticket.UserID, ticket.ApplicationID); err != nil {
			return err
		}
		return tickets.Complete(ctx, ticket.ID, models.TicketStatusRevoked, actor.ID, now)
	})
	if err != nil {
		return nil, err
	}

	observability.TicketsActioned.WithLabelValues(string(models.TicketStatusRevoked)).Inc()
	s.audit.Record(ctx, &models.AuditEntry{
		ActorID:  actor.ID,
		Action:   "ticket.confirm_revocation",
		TicketID: &ticket.ID,
		Subject:  fmt.Sprintf("user=%d application=%d", ticket.UserID, ticket.ApplicationID),
		Outcome:  string(models.TicketStatusRevoked),
	})
	s.refreshEntitlementGauge(ctx)

	return s.tickets.GetByID(ctx, ticket.ID)
}

// ListTickets returns tickets matching the filter, newest first.
func (s *AccessService) ListTickets(ctx context.Context, filter repository.TicketFilter) ([]models.AccessTicket, error) {
	return s.tickets.List(ctx, filter)
}

// ListEntitlements returns active entitlements matching the filter.
func (s *AccessService) ListEntitlements(ctx context.Context, filter repository.EntitlementFilter) ([]models.ActiveEntitlement, error) {
	return s.entitlements.List(ctx, filter)
}

// ListActionableTickets returns the actor's worklist: all New tickets for the
// applications the actor currently administers (all applications for a super
// admin). The admin set is recomputed from the registry on every call since
// membership can change between calls.
func (s *AccessService) ListActionableTickets(ctx context.Context, actor *models.Identity) (*ActionableTickets, error) {
	var appIDs []uint
	var err error
	if actor.IsSuperAdmin {
		appIDs, err = s.apps.AllApplicationIDs(ctx)
	} else {
		appIDs, err = s.apps.AdminApplicationIDs(ctx, actor.ID)
	}
	if err != nil {
		return nil, err
	}

	tickets, err := s.tickets.ListNewByApplications(ctx, appIDs)
	if err != nil {
		return nil, err
	}

	view := &ActionableTickets{Tickets: tickets}
	for _, t := range tickets {
		switch t.RequestType {
		case models.RequestTypeActivate:
			view.ActivateCount++
		case models.RequestTypeRevoke:
			view.RevokeCount++
		}
	}
	return view, nil
}

func (s *AccessService) authorize(ctx context.Context, actor *models.Identity, applicationID uint) error {
	if actor.IsSuperAdmin {
		return nil
	}
	ok, err := s.admins.IsAdmin(ctx, applicationID, actor.ID)
	if err != nil {
		return err
	}
	if !ok {
		observability.AuthorizationDenials.Inc()
		return models.NewForbiddenError("You are not an administrator of this application")
	}
	return nil
}

// refreshEntitlementGauge resyncs the gauge after a mutation. Best effort.
func (s *AccessService) refreshEntitlementGauge(ctx context.Context) {
	if count, err := s.entitlements.Count(ctx); err == nil {
		observability.ActiveEntitlements.Set(float64(count))
	}
}
