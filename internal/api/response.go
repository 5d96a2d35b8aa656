package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/itec-nfc/inventario/internal/model"
)

// jsonError writes a JSON error response.
func jsonError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// scanError writes the error envelope companion clients expect.
func scanError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "message": message})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidArgument):
		return fiber.StatusBadRequest
	case errors.Is(err, model.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, model.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, model.ErrConflict), errors.Is(err, model.ErrAlreadyProcessed):
		return fiber.StatusConflict
	case errors.Is(err, model.ErrInsufficientStock):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, model.ErrNotImplemented):
		return fiber.StatusNotImplemented
	default:
		return fiber.StatusInternalServerError
	}
}

// failure logs err and returns its status and client message. Internal
// errors are not described to the client.
func failure(c *fiber.Ctx, action string, err error) (int, string) {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg(action)
		return status, "internal error"
	}
	log.Warn().Err(err).Str("path", c.Path()).Msg(action)
	return status, err.Error()
}

func fail(c *fiber.Ctx, action string, err error) error {
	status, msg := failure(c, action, err)
	return jsonError(c, status, msg)
}
