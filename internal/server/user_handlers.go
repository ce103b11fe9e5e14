package server

import (
	"intranet/internal/cache"
	"intranet/internal/models"
	"intranet/internal/validation"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

// GetMyProfile handles GET /api/users/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	identity, err := s.currentIdentity(c)
	if err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}

	user, err := s.userRepo.GetByID(c.UserContext(), identity.ID)
	if err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}
	user.Password = ""

	return c.JSON(fiber.Map{
		"user":     user,
		"identity": identity,
	})
}

// ChangeMyPassword handles PUT /api/users/me/password
func (s *Server) ChangeMyPassword(c *fiber.Ctx) error {
	identity, err := s.currentIdentity(c)
	if err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := validation.ValidatePassword(req.NewPassword); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	user, err := s.userRepo.GetByID(c.UserContext(), identity.ID)
	if err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Current password is incorrect"))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	user.Password = string(hash)
	if err := s.userRepo.Update(c.UserContext(), user); err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}

	cache.InvalidateIdentity(c.UserContext(), user.ID)

	return c.JSON(fiber.Map{"message": "Password updated"})
}

// GetUsers handles GET /api/users
func (s *Server) GetUsers(c *fiber.Ctx) error {
	p := parsePagination(c, 25)

	users, err := s.userRepo.List(c.UserContext(), p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}
	for i := range users {
		users[i].Password = ""
	}

	return c.JSON(fiber.Map{
		"users":  users,
		"limit":  p.Limit,
		"offset": p.Offset,
	})
}

// GetUser handles GET /api/users/:id
func (s *Server) GetUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userRepo.GetByID(c.UserContext(), id)
	if err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}
	user.Password = ""

	return c.JSON(user)
}
