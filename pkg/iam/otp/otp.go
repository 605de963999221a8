package otp

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"github.com/Abraxas-365/flavormind/pkg/kernel"
)

const (
	// DefaultTTL is how long an issued code stays valid.
	DefaultTTL = 5 * time.Minute

	// DefaultMaxAttempts is the number of wrong guesses a challenge absorbs.
	DefaultMaxAttempts = 3

	codeMin   = 100000
	codeRange = 900000
)

// Challenge is the one live OTP for a phone number.
type Challenge struct {
	PhoneNumber kernel.PhoneNumber `json:"phoneNumber"`
	Code        string             `json:"otp"`
	CreatedAt   time.Time          `json:"createdAt"`
	ExpiresAt   time.Time          `json:"expiresAt"`
	Attempts    int                `json:"attempts"`
}

// NewChallenge builds a fresh challenge expiring ttl after now.
func NewChallenge(phone kernel.PhoneNumber, code string, now time.Time, ttl time.Duration) *Challenge {
	return &Challenge{
		PhoneNumber: phone,
		Code:        code,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
		Attempts:    0,
	}
}

func (c *Challenge) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

func (c *Challenge) IsExhausted(maxAttempts int) bool {
	return c.Attempts >= maxAttempts
}

// Matches compares in constant time.
func (c *Challenge) Matches(code string) bool {
	return subtle.ConstantTimeCompare([]byte(c.Code), []byte(code)) == 1
}

func (c *Challenge) AttemptsRemaining(maxAttempts int) int {
	if left := maxAttempts - c.Attempts; left > 0 {
		return left
	}
	return 0
}

// Outcome is the result of one verification attempt against a store.
type Outcome int

const (
	OutcomeNotFound Outcome = iota
	OutcomeExpired
	OutcomeExhausted
	OutcomeMismatch
	OutcomeMatched
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNotFound:
		return "not_found"
	case OutcomeExpired:
		return "expired"
	case OutcomeExhausted:
		return "exhausted"
	case OutcomeMismatch:
		return "mismatch"
	case OutcomeMatched:
		return "matched"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Removes reports whether the store deletes the challenge for this outcome.
func (o Outcome) Removes() bool {
	return o == OutcomeExpired || o == OutcomeExhausted || o == OutcomeMatched
}

// Evaluate applies one attempt to c, in the order every store must follow:
// expiry, then the attempt limit, then the code. A mismatch increments
// Attempts in place.
func (c *Challenge) Evaluate(code string, now time.Time, maxAttempts int) Outcome {
	switch {
	case c.IsExpired(now):
		return OutcomeExpired
	case c.IsExhausted(maxAttempts):
		return OutcomeExhausted
	case !c.Matches(code):
		c.Attempts++
		return OutcomeMismatch
	default:
		return OutcomeMatched
	}
}

// GenerateCode returns a uniformly random code in 100000..999999.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeRange))
	if err != nil {
		return "", ErrRegistry.NewWithCause(CodeGenerationFailed, err)
	}
	return fmt.Sprintf("%06d", n.Int64()+codeMin), nil
}
