package controllers

import (
	"errors"
	"time"

	"github.com/clinova/clinic-booking/services"
	"github.com/clinova/clinic-booking/utils"
	"github.com/gofiber/fiber/v2"
)

// respondServiceError maps the service error taxonomy onto HTTP responses.
func respondServiceError(c *fiber.Ctx, message string, err error) error {
	var locked *services.TemporarilyLockedError
	if errors.As(err, &locked) {
		return c.Status(fiber.StatusLocked).JSON(fiber.Map{
			"error":             "Account temporarily locked",
			"remaining_seconds": int(locked.Remaining(time.Now()).Seconds()),
			"locked_until":      locked.Until,
		})
	}

	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrValidation):
		status = fiber.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		status = fiber.StatusUnauthorized
	case errors.Is(err, services.ErrPermanentlyLocked):
		status = fiber.StatusLocked
	case errors.Is(err, services.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrConflict),
		errors.Is(err, services.ErrAlreadyReviewed),
		errors.Is(err, services.ErrRecordExists):
		status = fiber.StatusConflict
	case errors.Is(err, services.ErrInsufficientFunds):
		status = fiber.StatusPaymentRequired
	case errors.Is(err, services.ErrInvalidTransition):
		status = fiber.StatusUnprocessableEntity
	case errors.Is(err, services.ErrWalletInactive):
		status = fiber.StatusBadRequest
	}

	return c.Status(status).JSON(utils.ErrorResponse{
		Message: message,
		Error:   err.Error(),
	})
}
