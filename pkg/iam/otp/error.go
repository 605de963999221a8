package otp

import (
	"net/http"

	"github.com/Abraxas-365/flavormind/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("OTP")

var (
	CodeChallengeNotFound = ErrRegistry.Register("NOT_FOUND", errx.TypeBusiness, http.StatusBadRequest, "OTP not found or expired")
	CodeChallengeExpired  = ErrRegistry.Register("EXPIRED", errx.TypeBusiness, http.StatusBadRequest, "OTP expired")
	CodeAttemptsExhausted = ErrRegistry.Register("TOO_MANY_ATTEMPTS", errx.TypeBusiness, http.StatusBadRequest, "Too many attempts. Please request a new OTP")
	CodeInvalidCode       = ErrRegistry.Register("INVALID_CODE", errx.TypeValidation, http.StatusBadRequest, "Invalid OTP")
	CodeStoreUnavailable  = ErrRegistry.Register("STORE_UNAVAILABLE", errx.TypeExternal, http.StatusInternalServerError, "OTP storage unavailable")
	CodeGenerationFailed  = ErrRegistry.Register("GENERATION_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to generate OTP")
)

func ErrChallengeNotFound() *errx.Error { return ErrRegistry.New(CodeChallengeNotFound) }
func ErrChallengeExpired() *errx.Error  { return ErrRegistry.New(CodeChallengeExpired) }
func ErrAttemptsExhausted() *errx.Error { return ErrRegistry.New(CodeAttemptsExhausted) }
func ErrInvalidCode() *errx.Error       { return ErrRegistry.New(CodeInvalidCode) }

func ErrStoreUnavailable(cause error) *errx.Error {
	return ErrRegistry.NewWithCause(CodeStoreUnavailable, cause)
}
