package idpinfra

import (
	"context"
	"time"

	"github.com/Abraxas-365/flavormind/pkg/iam/idp"
	"github.com/Abraxas-365/flavormind/pkg/kernel"
)

// Identity is an idp.User plus the secret only the provider sees.
type Identity struct {
	idp.User
	PasswordHash string
}

// IdentityStore persists identities. Lookups fail with idp.CodeUserNotFound;
// Insert fails with idp.CodeEmailExists or idp.CodePhoneExists.
type IdentityStore interface {
	Insert(ctx context.Context, identity *Identity) error
	FindByID(ctx context.Context, uid kernel.AccountID) (*Identity, error)
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	FindByPhone(ctx context.Context, phone kernel.PhoneNumber) (*Identity, error)
	Delete(ctx context.Context, uid kernel.AccountID) error
}

// RevocationStore keeps the per-account "tokens valid after" watermark.
type RevocationStore interface {
	// Revoke sets the watermark to at. The entry may be dropped after ttl,
	// once every token issued before at has expired anyway.
	Revoke(ctx context.Context, uid kernel.AccountID, at time.Time, ttl time.Duration) error

	// RevokedAt returns the watermark, or the zero time if none is set.
	RevokedAt(ctx context.Context, uid kernel.AccountID) (time.Time, error)
}
