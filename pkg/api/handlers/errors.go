package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/openstats/tablebuilder/pkg/datablock"
	"github.com/openstats/tablebuilder/pkg/observation"
	"github.com/openstats/tablebuilder/pkg/timeperiod"
)

// ErrInvalidDataBlockID is returned when the data block id is not a UUID
var ErrInvalidDataBlockID = fiber.NewError(fiber.StatusBadRequest, "invalid data block ID format, expected a UUID")

// ErrInvalidRequestBody is returned when the request body cannot be decoded
var ErrInvalidRequestBody = fiber.NewError(fiber.StatusBadRequest, "invalid request body")

// mapError converts service errors into fiber errors with the right status.
// Unrecognised errors pass through and surface as 500s.
func mapError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return fiber.NewError(fiber.StatusBadRequest, validationErrs.Error())
	}

	switch {
	case errors.Is(err, timeperiod.ErrInvalidYear),
		errors.Is(err, timeperiod.ErrStartAfterEnd),
		errors.Is(err, timeperiod.ErrMismatchedIdentifiers),
		errors.Is(err, timeperiod.ErrInvalidPeriodFormat),
		errors.Is(err, timeperiod.ErrUnknownIdentifier):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, observation.ErrSubjectNotFound),
		errors.Is(err, datablock.ErrDataBlockNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	default:
		return err
	}
}
