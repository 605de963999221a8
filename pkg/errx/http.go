package errx

import "net/http"

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// StatusOf returns the HTTP status for any error. Unknown errors are 500.
func StatusOf(err error) int {
	var e *Error
	if As(err, &e) && e.HTTPStatus != 0 {
		return e.HTTPStatus
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the caller-safe message for err. Errors that are not
// an *Error never leak their text.
func PublicMessage(err error, fallback string) string {
	var e *Error
	if As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}
