// Package httpx holds the response envelope and request binding shared by
// every fiber handler.
package httpx

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/storefront-backend/internal/apperr"
)

const diagnosticsKey = "httpx.diagnostics"

// Envelope is the body of every API response.
type Envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    any               `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// Diagnostics controls whether failure responses carry the underlying error
// text. It is switched off in production.
func Diagnostics(enabled bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(diagnosticsKey, enabled)
		return c.Next()
	}
}

func OK(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Envelope{Success: true, Message: message, Data: data})
}

// Fail maps err to a status code and writes the failure envelope.
func Fail(c *fiber.Ctx, err error) error {
	body := Envelope{Success: false, Message: apperr.Message(err)}
	if enabled, _ := c.Locals(diagnosticsKey).(bool); enabled {
		var ae *apperr.Error
		if errors.As(err, &ae) && ae.Err != nil {
			body.Error = ae.Err.Error()
		} else if ae == nil {
			body.Error = err.Error()
		}
	}
	return c.Status(apperr.HTTPStatus(err)).JSON(body)
}

// FailStatus writes a failure envelope with an explicit status, for the
// few responses that do not come from a classified error.
func FailStatus(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(Envelope{Success: false, Message: message})
}

// Invalid reports per-field validation failures.
func Invalid(c *fiber.Ctx, fields map[string]string) error {
	return c.Status(fiber.StatusBadRequest).JSON(Envelope{
		Success: false,
		Message: "Validation failed",
		Errors:  fields,
	})
}

// ErrorHandler renders errors that escape a handler, such as unmatched
// routes, in the same envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return FailStatus(c, fe.Code, fe.Message)
	}
	return Fail(c, err)
}
