package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/lumencast/lumencast/internal/pkg/faults"
)

// renderError translates a service error into the JSON error envelope. Fault
// kinds map onto stable status codes; everything else is a 500 with the
// details kept out of the response body.
func renderError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch faults.KindOf(err) {
	case faults.KindValidation:
		status = fiber.StatusBadRequest
	case faults.KindNotFound:
		status = fiber.StatusNotFound
	case faults.KindInvariant, faults.KindCapacity:
		status = fiber.StatusConflict
	case faults.KindTransport:
		status = fiber.StatusServiceUnavailable
	default:
		if errors.Is(err, gorm.ErrRecordNotFound) {
			status = fiber.StatusNotFound
			return c.Status(status).JSON(fiber.Map{"error": "not_found", "message": "Resource not found"})
		}
	}

	message := "Internal server error"
	var f *faults.Fault
	if errors.As(err, &f) {
		message = f.Message
	}
	return c.Status(status).JSON(fiber.Map{"error": faults.CodeOf(err), "message": message})
}
