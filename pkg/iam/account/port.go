package account

import (
	"context"
	"time"

	"github.com/Abraxas-365/flavormind/pkg/kernel"
)

// Repository is owned by the Identity Resolver. Lookups return
// ErrAccountNotFound when nothing matches.
type Repository interface {
	FindByID(ctx context.Context, id kernel.AccountID) (*Account, error)
	FindByPhone(ctx context.Context, phone kernel.PhoneNumber) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)

	// CreateIfAbsent inserts a in one conditional write. created is false
	// when an account with the same id, email or phone already exists; the
	// existing row is left untouched.
	CreateIfAbsent(ctx context.Context, a *Account) (created bool, err error)

	// TouchLastLogin updates lastLogin and updatedAt only.
	TouchLastLogin(ctx context.Context, id kernel.AccountID, at time.Time) error
}
