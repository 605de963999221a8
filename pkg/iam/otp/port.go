package otp

import (
	"context"
	"time"

	"github.com/Abraxas-365/flavormind/pkg/kernel"
)

// ChallengeStore persists at most one challenge per phone number.
type ChallengeStore interface {
	// Save writes c, replacing any challenge already stored for the phone.
	Save(ctx context.Context, c *Challenge) error

	// Get returns ErrChallengeNotFound when nothing is stored.
	Get(ctx context.Context, phone kernel.PhoneNumber) (*Challenge, error)

	// Delete is idempotent.
	Delete(ctx context.Context, phone kernel.PhoneNumber) error

	// Attempt runs Challenge.Evaluate as one atomic step and deletes the
	// challenge when the outcome removes it. The returned challenge reflects
	// the state after the attempt and is nil for OutcomeNotFound.
	Attempt(ctx context.Context, phone kernel.PhoneNumber, code string, now time.Time, maxAttempts int) (Outcome, *Challenge, error)
}
