package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// NotFoundError marks lookups that should surface as 404 instead of 500.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// ErrorHandlerMiddleware converts errors bubbled out of controllers into the
// JSON envelope. Nothing escapes as a bare 500 with a stack trace.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var verr *ValidationError
		if errors.As(err, &verr) {
			return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse(verr.Error()))
		}

		var nferr *NotFoundError
		if errors.As(err, &nferr) {
			return ctx.Status(fiber.StatusNotFound).JSON(ErrorResponse(nferr.Error()))
		}

		var ferr *fiber.Error
		if errors.As(err, &ferr) {
			return ctx.Status(ferr.Code).JSON(ErrorResponse(ferr.Message))
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(err.Error()))
	}
}
