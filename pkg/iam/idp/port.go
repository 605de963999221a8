package idp

import (
	"context"
	"time"

	"github.com/Abraxas-365/flavormind/pkg/iam"
	"github.com/Abraxas-365/flavormind/pkg/kernel"
)

// User is a provider-side identity. Its UID becomes the Account ID.
type User struct {
	UID           kernel.AccountID
	Email         string
	PhoneNumber   string
	DisplayName   string
	PhotoURL      string
	EmailVerified bool
	CreatedAt     time.Time
}

// CreateUserParams creates either an email/password or a phone identity.
type CreateUserParams struct {
	Email       string
	Password    string
	PhoneNumber string
	DisplayName string
}

// IDTokenClaims are the attributes of a verified federated ID token. UID is
// the stable account id the provider assigns to the federated subject.
type IDTokenClaims struct {
	UID           kernel.AccountID
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// TokenClaims are the attributes of a verified session token.
type TokenClaims struct {
	UID       kernel.AccountID
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Directory creates and looks up identities.
type Directory interface {
	CreateUser(ctx context.Context, params CreateUserParams) (*User, error)
	GetUser(ctx context.Context, uid kernel.AccountID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByPhone(ctx context.Context, phone kernel.PhoneNumber) (*User, error)

	// DeleteUser removes an identity. Deleting a missing uid is not an error.
	DeleteUser(ctx context.Context, uid kernel.AccountID) error

	// VerifyPassword returns the user when the secret matches.
	VerifyPassword(ctx context.Context, email, password string) (*User, error)
}

// FederatedVerifier checks ID tokens issued by Google or Apple.
type FederatedVerifier interface {
	VerifyIDToken(ctx context.Context, provider iam.Provider, idToken string) (*IDTokenClaims, error)
}

// TokenAuthority mints, verifies and revokes session tokens.
type TokenAuthority interface {
	MintToken(ctx context.Context, uid kernel.AccountID, email string) (string, error)
	VerifyToken(ctx context.Context, token string) (*TokenClaims, error)

	// RevokeTokens invalidates every token minted for uid so far.
	RevokeTokens(ctx context.Context, uid kernel.AccountID) error
}

// LinkGenerator produces out-of-band action links.
type LinkGenerator interface {
	GenerateEmailVerificationLink(ctx context.Context, email string) (string, error)
	GeneratePasswordResetLink(ctx context.Context, email string) (string, error)
}

// Provider is the full Identity Provider capability.
type Provider interface {
	Directory
	FederatedVerifier
	TokenAuthority
	LinkGenerator
}
