package server

import (
	"intranet/internal/cache"
	"intranet/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetApplications handles GET /api/applications
func (s *Server) GetApplications(c *fiber.Ctx) error {
	p := parsePagination(c, 50)

	apps, err := s.appRepo.List(c.UserContext(), p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}

	return c.JSON(fiber.Map{
		"applications": apps,
		"limit":        p.Limit,
		"offset":       p.Offset,
	})
}

// GetApplication handles GET /api/applications/:id
func (s *Server) GetApplication(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	app, err := s.appRepo.GetByID(c.UserContext(), id)
	if err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}

	return c.JSON(app)
}

// GetApplicationAdmins handles GET /api/applications/:id/admins
func (s *Server) GetApplicationAdmins(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	ctx := c.UserContext()

	if _, err := s.appRepo.GetByID(ctx, id); err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}

	adminIDs, err := s.appRepo.AdminsOf(ctx, id)
	if err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}

	return c.JSON(fiber.Map{
		"application_id": id,
		"admin_ids":      adminIDs,
	})
}

// AddApplicationAdmin handles POST /api/applications/:id/admins/:userId.
// Admin standing takes effect on the next authorization check; it is never
// baked into existing tickets or tokens.
func (s *Server) AddApplicationAdmin(c *fiber.Ctx) error {
	appID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	ctx := c.UserContext()

	if _, err := s.appRepo.GetByID(ctx, appID); err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}

	if err := s.appRepo.AddAdmin(ctx, appID, userID); err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}
	cache.InvalidateIdentity(ctx, userID)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Admin added",
	})
}

// RemoveApplicationAdmin handles DELETE /api/applications/:id/admins/:userId
func (s *Server) RemoveApplicationAdmin(c *fiber.Ctx) error {
	appID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	ctx := c.UserContext()

	if _, err := s.appRepo.GetByID(ctx, appID); err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}

	if err := s.appRepo.RemoveAdmin(ctx, appID, userID); err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}
	cache.InvalidateIdentity(ctx, userID)

	return c.JSON(fiber.Map{
		"message": "Admin removed",
	})
}
