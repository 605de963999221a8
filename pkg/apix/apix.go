// Package apix renders every HTTP response in the FlavorMind envelope:
// {success, message, data, timestamp} on success and
// {success, message, errors, timestamp} on failure.
package apix

import (
	"net/http"
	"time"

	"github.com/Abraxas-365/flavormind/pkg/errx"
	"github.com/gofiber/fiber/v2"
)

// SuccessResponse is the body of every 2xx response.
type SuccessResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Errors    interface{} `json:"errors"`
	Timestamp string      `json:"timestamp"`
}

// Now is the timestamp source of the envelope.
var Now = func() time.Time { return time.Now().UTC() }

func timestamp() string {
	return Now().Format("2006-01-02T15:04:05.000Z07:00")
}

// Respond writes a success envelope with the given status.
func Respond(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(SuccessResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: timestamp(),
	})
}

// OK writes a 200 envelope. An empty message becomes "Success".
func OK(c *fiber.Ctx, data interface{}, message string) error {
	if message == "" {
		message = "Success"
	}
	return Respond(c, http.StatusOK, message, data)
}

func Created(c *fiber.Ctx, data interface{}, message string) error {
	if message == "" {
		message = "Resource created successfully"
	}
	return Respond(c, http.StatusCreated, message, data)
}

// Fail writes an error envelope.
func Fail(c *fiber.Ctx, status int, message string, errors interface{}) error {
	return c.Status(status).JSON(ErrorResponse{
		Success:   false,
		Message:   message,
		Errors:    errors,
		Timestamp: timestamp(),
	})
}

// validationKey is the Details key holding field errors.
const validationKey = "errors"

// ValidationFailed builds the 422 error carrying per-field problems.
func ValidationFailed(fields []errx.FieldError) *errx.Error {
	e := errx.Validation("Validation failed")
	e.HTTPStatus = http.StatusUnprocessableEntity
	return e.WithDetail(validationKey, fields)
}

// FieldErrors returns the field errors attached by ValidationFailed.
func FieldErrors(err error) ([]errx.FieldError, bool) {
	var e *errx.Error
	if !errx.As(err, &e) {
		return nil, false
	}
	fields, ok := e.Details[validationKey].([]errx.FieldError)
	return fields, ok
}
