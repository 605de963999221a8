package account

import (
	"net/http"

	"github.com/Abraxas-365/flavormind/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("ACCOUNT")

var (
	CodeNotFound         = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "User not found")
	CodeConflict         = ErrRegistry.Register("CONFLICT", errx.TypeConflict, http.StatusConflict, "Account already exists")
	CodeInvalid          = ErrRegistry.Register("INVALID", errx.TypeValidation, http.StatusBadRequest, "Invalid account")
	CodeStoreUnavailable = ErrRegistry.Register("STORE_UNAVAILABLE", errx.TypeExternal, http.StatusInternalServerError, "Account storage unavailable")
)

func ErrAccountNotFound() *errx.Error { return ErrRegistry.New(CodeNotFound) }
func ErrAccountConflict() *errx.Error { return ErrRegistry.New(CodeConflict) }
func ErrInvalidAccount() *errx.Error  { return ErrRegistry.New(CodeInvalid) }

func ErrStoreUnavailable(cause error) *errx.Error {
	return ErrRegistry.NewWithCause(CodeStoreUnavailable, cause)
}
