package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"invoiceapi/internal/extraction"
	"invoiceapi/internal/http/middleware"
	"invoiceapi/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response.
func writeError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(errorPayload{
		Status:    "error",
		Message:   message,
		RequestID: requestIDFromCtx(c),
	})
}

// writeServiceError maps a service-layer error onto the HTTP taxonomy:
// validation failures are 400, an unreachable or failing analyzer is
// 502, an analysis deadline is 504, anything else is 500. The service
// diagnostic travels in the message so callers can act on it.
func writeServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrUnsupportedType),
		errors.Is(err, service.ErrEmptyDocument),
		errors.Is(err, service.ErrInvalidJSON):
		return writeError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, extraction.ErrTimeout):
		return writeError(c, fiber.StatusGatewayTimeout, err.Error())
	case errors.Is(err, extraction.ErrUnavailable),
		errors.Is(err, extraction.ErrAnalysis):
		return writeError(c, fiber.StatusBadGateway, err.Error())
	default:
		return writeError(c, fiber.StatusInternalServerError, err.Error())
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes
// responses for errors escaping the handlers (404s, body limit, panics).
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		message := "internal server error"
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
			message = e.Message
		}
		return writeError(c, status, message)
	}
}
