package server

import (
	"testing"

	"intranet/internal/models"

	"github.com/gofiber/fiber/v2"
)

func TestHumanizeParam(t *testing.T) {
	cases := map[string]string{
		"id":     "ID",
		"userId": "user ID",
	}
	for in, want := range cases {
		if got := humanizeParam(in); got != want {
			t.Errorf("humanizeParam(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStatusForError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{models.NewValidationError("bad"), fiber.StatusBadRequest},
		{models.NewNotFoundError("Ticket", 1), fiber.StatusNotFound},
		{models.NewConflictError("done"), fiber.StatusConflict},
		{models.NewUnauthorizedError("no"), fiber.StatusUnauthorized},
		{models.NewForbiddenError("no"), fiber.StatusForbidden},
		{fiber.ErrTeapot, fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusForError(tc.err); got != tc.want {
			t.Errorf("statusForError(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
