package idp

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Abraxas-365/flavormind/pkg/errx"
)

// Code is a provider error code in the auth/<reason> form.
type Code string

const (
	CodeEmailExists     Code = "auth/email-already-exists"
	CodePhoneExists     Code = "auth/phone-number-already-exists"
	CodeInvalidPassword Code = "auth/invalid-password"
	CodeUserNotFound    Code = "auth/user-not-found"
	CodeWrongPassword   Code = "auth/wrong-password"
	CodeInvalidIDToken  Code = "auth/invalid-id-token"
	CodeTokenExpired    Code = "auth/id-token-expired"
	CodeTokenMalformed  Code = "auth/argument-error"
	CodeTokenRevoked    Code = "auth/id-token-revoked"
	CodeInvalidArgument Code = "auth/invalid-argument"
	CodeInternal        Code = "auth/internal-error"
)

// ProviderError is what adapters return. It never leaves this package
// boundary untranslated.
type ProviderError struct {
	Code Code
	Op   string
	Err  error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("idp %s: %s: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("idp %s: %s", e.Op, e.Code)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Fail builds a ProviderError.
func Fail(code Code, op string, err error) *ProviderError {
	return &ProviderError{Code: code, Op: op, Err: err}
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("IDP")

var (
	ErrCodeEmailExists     = ErrRegistry.Register("EMAIL_EXISTS", errx.TypeBusiness, http.StatusBadRequest, "Email already registered")
	ErrCodePhoneExists     = ErrRegistry.Register("PHONE_EXISTS", errx.TypeConflict, http.StatusConflict, "Phone number already registered")
	ErrCodeInvalidPassword = ErrRegistry.Register("INVALID_PASSWORD", errx.TypeValidation, http.StatusBadRequest, "Password must be at least 6 characters")
	ErrCodeUserNotFound    = ErrRegistry.Register("USER_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "User not found")
	ErrCodeWrongPassword   = ErrRegistry.Register("WRONG_PASSWORD", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid credentials")
	ErrCodeIDTokenInvalid  = ErrRegistry.Register("ID_TOKEN_INVALID", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid ID token")
	ErrCodeTokenExpired    = ErrRegistry.Register("TOKEN_EXPIRED", errx.TypeAuthorization, http.StatusUnauthorized, "token expired")
	ErrCodeTokenInvalid    = ErrRegistry.Register("TOKEN_INVALID", errx.TypeAuthorization, http.StatusUnauthorized, "invalid token format")
	ErrCodeTokenRevoked    = ErrRegistry.Register("TOKEN_REVOKED", errx.TypeAuthorization, http.StatusUnauthorized, "token revoked")
	ErrCodeInvalidArgument = ErrRegistry.Register("INVALID_ARGUMENT", errx.TypeValidation, http.StatusBadRequest, "Invalid argument")
	ErrCodeUnavailable     = ErrRegistry.Register("UNAVAILABLE", errx.TypeExternal, http.StatusInternalServerError, "Identity provider unavailable")
)

// ErrEmailExists is returned when an email already belongs to an account,
// whichever provider created it.
func ErrEmailExists() *errx.Error { return ErrRegistry.New(ErrCodeEmailExists) }

var translations = map[Code]*errx.ErrorCode{
	CodeEmailExists:     ErrCodeEmailExists,
	CodePhoneExists:     ErrCodePhoneExists,
	CodeInvalidPassword: ErrCodeInvalidPassword,
	CodeUserNotFound:    ErrCodeUserNotFound,
	CodeWrongPassword:   ErrCodeWrongPassword,
	CodeInvalidIDToken:  ErrCodeIDTokenInvalid,
	CodeTokenExpired:    ErrCodeTokenExpired,
	CodeTokenMalformed:  ErrCodeTokenInvalid,
	CodeTokenRevoked:    ErrCodeTokenRevoked,
	CodeInvalidArgument: ErrCodeInvalidArgument,
	CodeInternal:        ErrCodeUnavailable,
}

// Translate maps any provider failure onto the IDP registry. Errors that are
// already *errx.Error pass through; anything unrecognized becomes
// IDP_UNAVAILABLE with the original kept as cause.
func Translate(err error) error {
	if err == nil {
		return nil
	}

	var xerr *errx.Error
	if errors.As(err, &xerr) {
		return err
	}

	var perr *ProviderError
	if errors.As(err, &perr) {
		code, ok := translations[perr.Code]
		if !ok {
			code = ErrCodeUnavailable
		}
		return ErrRegistry.NewWithCause(code, err).WithDetail("provider_code", string(perr.Code))
	}

	return ErrRegistry.NewWithCause(ErrCodeUnavailable, err)
}

// IsUnavailable reports whether a translated error is an infrastructure
// failure rather than a domain outcome.
func IsUnavailable(err error) bool {
	return errx.HasCode(err, ErrCodeUnavailable)
}
