package handlers

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/obrasdb/internal/services"
	"github.com/localnerve/obrasdb/internal/types"
	"github.com/localnerve/obrasdb/internal/utils"
)

var domainErrors = []struct {
	err    error
	status int
	kind   string
}{
	{services.ErrNotFound, fiber.StatusNotFound, "notFound"},
	{services.ErrInvalidLocationKind, fiber.StatusBadRequest, "invalidLocationKind"},
	{services.ErrInvalidStatus, fiber.StatusBadRequest, "invalidStatus"},
	{services.ErrInvalidInput, fiber.StatusBadRequest, "invalidInput"},
	{services.ErrOwnershipMismatch, fiber.StatusForbidden, "ownershipMismatch"},
	{services.ErrAlreadyAssigned, fiber.StatusConflict, "alreadyAssigned"},
	{services.ErrNoOpenAssignment, fiber.StatusConflict, "noOpenAssignment"},
	{services.ErrConcurrencyConflict, fiber.StatusConflict, "concurrencyConflict"},
}

// StatusOf maps an error to its HTTP status and error type.
func StatusOf(err error) (int, string) {
	var custom *types.CustomError
	if errors.As(err, &custom) {
		return custom.Code, custom.Type
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, "http"
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return fiber.StatusBadRequest, "validation"
	}

	for _, d := range domainErrors {
		if errors.Is(err, d.err) {
			return d.status, d.kind
		}
	}
	return fiber.StatusInternalServerError, "unknown"
}

// ErrorHandler writes the error envelope for anything a handler returns.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status, kind := StatusOf(err)

	message := err.Error()
	var custom *types.CustomError
	if errors.As(err, &custom) {
		message = custom.Message
	}
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		message = validationMessage(validationErrs)
	}
	if status >= fiber.StatusInternalServerError {
		// persistence details stay in the log
		message = "Internal server error"
	}

	return utils.ErrorResponse(c, message, status, kind)
}

func validationMessage(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		if fe.Param() != "" {
			parts = append(parts, fe.Field()+" failed "+fe.Tag()+"="+fe.Param())
		} else {
			parts = append(parts, fe.Field()+" failed "+fe.Tag())
		}
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NotFound is the fallback route handler.
func NotFound(c *fiber.Ctx) error {
	return utils.ErrorResponse(c, "[404] Resource Not Found", fiber.StatusNotFound, "route")
}
