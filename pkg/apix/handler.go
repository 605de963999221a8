package apix

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Abraxas-365/flavormind/pkg/errx"
	"github.com/Abraxas-365/flavormind/pkg/kernel"
	"github.com/Abraxas-365/flavormind/pkg/logx"
	"github.com/gofiber/fiber/v2"
)

const genericMessage = "Something went wrong"

// ErrorHandler renders any error returned by a handler. With diagnostic set
// (non-production) the underlying cause is echoed under errors.
func ErrorHandler(diagnostic bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, message, details := classify(err, diagnostic)

		entry := logx.WithFields(logx.Fields{
			"path":       c.Path(),
			"method":     c.Method(),
			"status":     status,
			"request_id": requestID(c),
		}).WithError(err)
		if status >= http.StatusInternalServerError {
			entry.Error("request failed")
		} else {
			entry.Debug("request rejected")
		}

		return Fail(c, status, message, details)
	}
}

func classify(err error, diagnostic bool) (int, string, interface{}) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, fe.Message, nil
	}

	var e *errx.Error
	if errors.As(err, &e) {
		if fields, ok := FieldErrors(e); ok {
			return e.HTTPStatus, e.Message, fields
		}
		status := errx.StatusOf(e)
		if !diagnostic {
			return status, e.Message, nil
		}
		diag := fiber.Map{"code": e.Code, "type": e.Type}
		if len(e.Details) > 0 {
			diag["details"] = e.Details
		}
		if e.Err != nil {
			diag["cause"] = e.Err.Error()
		}
		return status, e.Message, diag
	}

	if diagnostic {
		return http.StatusInternalServerError, err.Error(), nil
	}
	return http.StatusInternalServerError, genericMessage, nil
}

// NotFound answers unmatched routes.
func NotFound(c *fiber.Ctx) error {
	return Fail(c, http.StatusNotFound, fmt.Sprintf("Route %s not found", c.OriginalURL()), nil)
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(string(kernel.RequestIDKey)).(string); ok && id != "" {
		return id
	}
	return c.Get(fiber.HeaderXRequestID)
}
