package iam

import (
	"net/http"
	"strings"

	"github.com/Abraxas-365/flavormind/pkg/errx"
)

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("IAM")

var (
	CodeUnauthorized      = ErrRegistry.Register("UNAUTHORIZED", errx.TypeAuthorization, http.StatusUnauthorized, "No token provided")
	CodeInvalidToken      = ErrRegistry.Register("INVALID_TOKEN", errx.TypeAuthorization, http.StatusUnauthorized, "invalid token format")
	CodeTokenExpired      = ErrRegistry.Register("TOKEN_EXPIRED", errx.TypeAuthorization, http.StatusUnauthorized, "token expired")
	CodeTokenRevoked      = ErrRegistry.Register("TOKEN_REVOKED", errx.TypeAuthorization, http.StatusUnauthorized, "token revoked")
	CodeAccountMissing    = ErrRegistry.Register("ACCOUNT_MISSING", errx.TypeAuthorization, http.StatusUnauthorized, "user not found")
	CodeAdminRequired     = ErrRegistry.Register("ADMIN_REQUIRED", errx.TypeForbidden, http.StatusForbidden, "Admin access required")
	CodeProfileIncomplete = ErrRegistry.Register("PROFILE_INCOMPLETE", errx.TypeForbidden, http.StatusForbidden, "Please complete your profile")
)

func ErrUnauthorized() *errx.Error      { return ErrRegistry.New(CodeUnauthorized) }
func ErrInvalidToken() *errx.Error      { return ErrRegistry.New(CodeInvalidToken) }
func ErrTokenExpired() *errx.Error      { return ErrRegistry.New(CodeTokenExpired) }
func ErrTokenRevoked() *errx.Error      { return ErrRegistry.New(CodeTokenRevoked) }
func ErrAccountMissing() *errx.Error    { return ErrRegistry.New(CodeAccountMissing) }
func ErrAdminRequired() *errx.Error     { return ErrRegistry.New(CodeAdminRequired) }
func ErrProfileIncomplete() *errx.Error { return ErrRegistry.New(CodeProfileIncomplete) }

// Provider tags how an account first proved its identity.
type Provider string

const (
	ProviderPassword Provider = "password"
	ProviderGoogle   Provider = "google"
	ProviderApple    Provider = "apple"
	ProviderPhone    Provider = "phone"
)

func (p Provider) IsValid() bool {
	switch p {
	case ProviderPassword, ProviderGoogle, ProviderApple, ProviderPhone:
		return true
	}
	return false
}

// IsFederated reports whether the provider signs in with a third-party ID token.
func (p Provider) IsFederated() bool {
	return p == ProviderGoogle || p == ProviderApple
}

// DisplayName returns the human-readable provider name
func (p Provider) DisplayName() string {
	switch p {
	case ProviderPassword:
		return "Password"
	case ProviderGoogle:
		return "Google"
	case ProviderApple:
		return "Apple"
	case ProviderPhone:
		return "Phone"
	default:
		return "Unknown"
	}
}

// Role gates admin-only routes.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Claims are the normalized attributes a verified credential vouches for.
type Claims struct {
	Email         string
	EmailVerified bool
	Name          string
	PhotoURL      string
	PhoneNumber   string
}

// VerifiedIdentity is what every credential strategy produces on success.
// Key is the provider uid for password and federated sign-ins and the phone
// number for OTP sign-ins.
type VerifiedIdentity struct {
	Key    string
	Kind   Provider
	Claims Claims
}

// FallbackName derives a display name from the local part of an email.
func FallbackName(email string) string {
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return ""
}
