package credential

import (
	"net/http"

	"github.com/Abraxas-365/flavormind/pkg/errx"
	"github.com/Abraxas-365/flavormind/pkg/iam"
)

var ErrRegistry = errx.NewRegistry("CREDENTIAL")

var (
	CodeInvalidCredentials = ErrRegistry.Register("INVALID_CREDENTIALS", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid credentials")
	CodeFederatedFailed    = ErrRegistry.Register("FEDERATED_FAILED", errx.TypeExternal, http.StatusInternalServerError, "Federated authentication failed")
)

// ErrInvalidCredentials is returned for every password failure, whichever
// factor was wrong.
func ErrInvalidCredentials() *errx.Error {
	return ErrRegistry.New(CodeInvalidCredentials)
}

func ErrFederatedVerification(provider iam.Provider, cause error) *errx.Error {
	return ErrRegistry.NewWithMessage(CodeFederatedFailed, provider.DisplayName()+" authentication failed").
		WithCause(cause).
		WithDetail("provider", string(provider))
}
