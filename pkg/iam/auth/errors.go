package auth

import (
	"net/http"

	"github.com/Abraxas-365/flavormind/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("AUTH")

var (
	CodeInvalidBody   = ErrRegistry.Register("INVALID_BODY", errx.TypeValidation, http.StatusBadRequest, "Invalid request body")
	CodeEmailMismatch = ErrRegistry.Register("EMAIL_MISMATCH", errx.TypeForbidden, http.StatusForbidden, "Email does not match the signed-in account")

	// Link generation fails for accounts the provider holds no identity
	// for, such as federated sign-ins, so every cause reads the same.
	CodeVerificationFailed = ErrRegistry.Register("VERIFICATION_FAILED", errx.TypeExternal, http.StatusInternalServerError, "Failed to send verification email")
)

func ErrInvalidBody(cause error) *errx.Error { return ErrRegistry.NewWithCause(CodeInvalidBody, cause) }
func ErrEmailMismatch() *errx.Error          { return ErrRegistry.New(CodeEmailMismatch) }
func ErrVerificationFailed(cause error) *errx.Error {
	return ErrRegistry.NewWithCause(CodeVerificationFailed, cause)
}

// publicFailure keeps client errors untouched and replaces the message of
// server errors with the handler's own. The code and cause survive for logs.
func publicFailure(err error, message string) error {
	if errx.StatusOf(err) < http.StatusInternalServerError {
		return err
	}
	errType := errx.TypeInternal
	var e *errx.Error
	if errx.As(err, &e) {
		errType = e.Type
	}
	return errx.Wrap(err, message, errType)
}
