package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/agentic-curie/internal/repositories"
	"alfredoptarigan/agentic-curie/internal/services"
)

// errorStatus maps service and repository errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, repositories.ErrFileNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrMissingCredential):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, services.ErrNoReadableInputs),
		errors.Is(err, services.ErrUnreadableInput),
		errors.Is(err, services.ErrInvalidTemplate):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

func errorJSON(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}
