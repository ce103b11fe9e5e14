package server

import (
	"time"

	"intranet/internal/models"
	"intranet/internal/repository"
	"intranet/internal/service"

	"github.com/gofiber/fiber/v2"
)

// activationResponse shapes a batch result into the four-way partition the
// client renders. Empty partitions serialize as empty arrays, not null.
func activationResponse(result *service.BatchResult) fiber.Map {
	created := result.Created()
	if created == nil {
		created = []*models.AccessTicket{}
	}
	alreadyRequested := result.Refs(service.OutcomeAlreadyRequested)
	if alreadyRequested == nil {
		alreadyRequested = []uint{}
	}
	alreadyActive := result.Refs(service.OutcomeAlreadyActive)
	if alreadyActive == nil {
		alreadyActive = []uint{}
	}
	failures := result.Failures()
	if failures == nil {
		failures = []service.BatchFailure{}
	}
	return fiber.Map{
		"created":          created,
		"alreadyRequested": alreadyRequested,
		"alreadyActive":    alreadyActive,
		"errors":           failures,
	}
}

func revocationResponse(result *service.BatchResult) fiber.Map {
	created := result.Created()
	if created == nil {
		created = []*models.AccessTicket{}
	}
	alreadyRequested := result.Refs(service.OutcomeAlreadyRequested)
	if alreadyRequested == nil {
		alreadyRequested = []uint{}
	}
	noAccess := result.Refs(service.OutcomeNoAccess)
	if noAccess == nil {
		noAccess = []uint{}
	}
	failures := result.Failures()
	if failures == nil {
		failures = []service.BatchFailure{}
	}
	return fiber.Map{
		"created":          created,
		"alreadyRequested": alreadyRequested,
		"noAccess":         noAccess,
		"errors":           failures,
	}
}

// CreateAccessRequests handles POST /api/uac/requests. The whole batch is
// processed and answered 201 however the items partitioned; only
// request-level validation fails the call.
func (s *Server) CreateAccessRequests(c *fiber.Ctx) error {
	identity, err := s.currentIdentity(c)
	if err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}

	var req struct {
		UserID         uint   `json:"user_id"`
		ApplicationIDs []uint `json:"application_ids"`
		Note           string `json:"note"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.UserID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("user_id is required"))
	}

	result, err := s.accessService.CreateActivationTickets(
		c.UserContext(), identity, req.UserID, req.ApplicationIDs, req.Note)
	if err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(activationResponse(result))
}

// GetAccessRequests handles GET /api/uac/requests
func (s *Server) GetAccessRequests(c *fiber.Ctx) error {
	filter := repository.TicketFilter{
		UserID:        uint(c.QueryInt("user_id", 0)),
		ApplicationID: uint(c.QueryInt("application_id", 0)),
		RequestedByID: uint(c.QueryInt("requested_by", 0)),
		CompletedByID: uint(c.QueryInt("completed_by", 0)),
	}
	if t := c.Query("type"); t != "" {
		filter.RequestType = models.AccessRequestType(t)
	}
	if st := c.Query("status"); st != "" {
		filter.Status = models.AccessTicketStatus(st)
	}

	var parseErr error
	if filter.RequestedAfter, parseErr = parseDateQuery(c, "from", false); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid 'from' date"))
	}
	if filter.RequestedBefore, parseErr = parseDateQuery(c, "to", true); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid 'to' date"))
	}

	tickets, err := s.accessService.ListTickets(c.UserContext(), filter)
	if err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}

	return c.JSON(fiber.Map{"requests": tickets})
}

// parseDateQuery reads an optional date query parameter, accepting either a
// plain date or RFC 3339. A plain upper-bound date is pushed to end of day so
// both bounds stay inclusive.
func parseDateQuery(c *fiber.Ctx, name string, endOfDay bool) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// GetActionableRequests handles GET /api/uac/requests/to-action
func (s *Server) GetActionableRequests(c *fiber.Ctx) error {
	identity, err := s.currentIdentity(c)
	if err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}

	view, err := s.accessService.ListActionableTickets(c.UserContext(), identity)
	if err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}
	if view.Tickets == nil {
		view.Tickets = []models.AccessTicket{}
	}

	return c.JSON(fiber.Map{
		"requests": view.Tickets,
		"counts": fiber.Map{
			"activate": view.ActivateCount,
			"revoke":   view.RevokeCount,
		},
	})
}

// ApproveAccessRequest handles POST /api/uac/requests/:id/approve
func (s *Server) ApproveAccessRequest(c *fiber.Ctx) error {
	return s.actionAccessRequest(c, models.TicketStatusApproved)
}

// RejectAccessRequest handles POST /api/uac/requests/:id/reject
func (s *Server) RejectAccessRequest(c *fiber.Ctx) error {
	return s.actionAccessRequest(c, models.TicketStatusRejected)
}

func (s *Server) actionAccessRequest(c *fiber.Ctx, action models.AccessTicketStatus) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	identity, err := s.currentIdentity(c)
	if err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}

	ticket, err := s.accessService.ActionTicket(c.UserContext(), identity, id, action)
	if err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}

	return c.JSON(ticket)
}

// CreateRevocationRequests handles POST /api/uac/revocations. This is the
// request phase: access stays live and flagged until an application admin
// confirms.
func (s *Server) CreateRevocationRequests(c *fiber.Ctx) error {
	identity, err := s.currentIdentity(c)
	if err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}

	var req struct {
		EntitlementIDs []int  `json:"entitlement_ids"`
		Note           string `json:"note"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	result, err := s.accessService.CreateRevocationTickets(
		c.UserContext(), identity, req.EntitlementIDs, req.Note)
	if err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(revocationResponse(result))
}

// ConfirmRevocation handles POST /api/uac/revocations/:id/confirm
func (s *Server) ConfirmRevocation(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	identity, err := s.currentIdentity(c)
	if err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}

	ticket, err := s.accessService.ConfirmRevocation(c.UserContext(), identity, id)
	if err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}

	return c.JSON(ticket)
}

// GetActiveEntitlements handles GET /api/uac/entitlements
func (s *Server) GetActiveEntitlements(c *fiber.Ctx) error {
	filter := repository.EntitlementFilter{
		UserID:        uint(c.QueryInt("user_id", 0)),
		ApplicationID: uint(c.QueryInt("application_id", 0)),
	}

	entitlements, err := s.accessService.ListEntitlements(c.UserContext(), filter)
	if err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}
	if entitlements == nil {
		entitlements = []models.ActiveEntitlement{}
	}

	return c.JSON(fiber.Map{"entitlements": entitlements})
}
