package auth

import (
	"context"

	"github.com/Abraxas-365/flavormind/pkg/iam"
	"github.com/Abraxas-365/flavormind/pkg/iam/account"
	"github.com/Abraxas-365/flavormind/pkg/kernel"
)

// AccountReader is the slice of account.Repository the guard needs.
type AccountReader interface {
	FindByID(ctx context.Context, id kernel.AccountID) (*account.Account, error)
}

// AuditService records security-relevant auth events
type AuditService interface {
	LogLoginAttempt(ctx context.Context, accountID kernel.AccountID, method iam.Provider, success bool, ip string, userAgent string)
	LogLogout(ctx context.Context, accountID kernel.AccountID, ip string)
	LogOTPIssued(ctx context.Context, phone kernel.PhoneNumber, ip string)
	LogOTPVerification(ctx context.Context, phone kernel.PhoneNumber, success bool, ip string)
	LogAccountCreated(ctx context.Context, accountID kernel.AccountID, method iam.Provider, ip string)
}

// Mailer delivers action links. Implementations may send inline or hand the
// message to a background queue.
type Mailer interface {
	SendVerificationLink(ctx context.Context, to, name, link string) error
	SendPasswordResetLink(ctx context.Context, to, link string) error
}
