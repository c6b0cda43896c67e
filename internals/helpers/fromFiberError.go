package helper

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"tahfidzku_backend/internals/constants"
)

// StatusForError memetakan sentinel error domain ke HTTP status untuk API admin.
func StatusForError(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, constants.ErrNotFound),
		errors.Is(err, constants.ErrVoucherNotFound),
		errors.Is(err, constants.ErrUnknownReference):
		return fiber.StatusNotFound
	case errors.Is(err, constants.ErrInvalidSignature):
		return fiber.StatusUnauthorized
	case errors.Is(err, constants.ErrMalformedCallback),
		errors.Is(err, constants.ErrInvalidAmount),
		errors.Is(err, constants.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, constants.ErrVoucherInactive),
		errors.Is(err, constants.ErrNothingToDisburse):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, constants.ErrAlreadyFinalized),
		errors.Is(err, constants.ErrAlreadyLocked),
		errors.Is(err, constants.ErrInvalidTransition),
		errors.Is(err, constants.ErrPeriodExists),
		errors.Is(err, constants.ErrAmountMismatch):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// FromError menulis response JSON konsisten dari error service.
func FromError(c *fiber.Ctx, err error) error {
	status := StatusForError(err)
	msg := err.Error()
	if status >= 500 {
		msg = "Terjadi kesalahan pada server"
	}
	return JsonError(c, status, msg)
}
