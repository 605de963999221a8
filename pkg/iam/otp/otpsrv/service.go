package otpsrv

import (
	"context"
	"time"

	"github.com/Abraxas-365/flavormind/pkg/iam/otp"
	"github.com/Abraxas-365/flavormind/pkg/kernel"
	"github.com/Abraxas-365/flavormind/pkg/logx"
	"github.com/Abraxas-365/flavormind/pkg/notifx"
)

// Config controls challenge lifetime and the attempt limit.
type Config struct {
	TTL         time.Duration
	MaxAttempts int
}

func DefaultConfig() Config {
	return Config{TTL: otp.DefaultTTL, MaxAttempts: otp.DefaultMaxAttempts}
}

// Manager issues and verifies phone challenges.
type Manager struct {
	store    otp.ChallengeStore
	sender   notifx.CodeSender
	clock    kernel.Clock
	cfg      Config
	generate func() (string, error)
}

func NewManager(store otp.ChallengeStore, sender notifx.CodeSender, clock kernel.Clock, cfg Config) *Manager {
	if cfg.TTL <= 0 {
		cfg.TTL = otp.DefaultTTL
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = otp.DefaultMaxAttempts
	}
	return &Manager{
		store:    store,
		sender:   sender,
		clock:    clock,
		cfg:      cfg,
		generate: otp.GenerateCode,
	}
}

// WithGenerator replaces the code source. Tests use it to pin codes.
func (m *Manager) WithGenerator(gen func() (string, error)) *Manager {
	m.generate = gen
	return m
}

// Issue stores a fresh challenge for phone, replacing any live one, and hands
// the code to the sender. Delivery failures are logged and swallowed so the
// response never reveals anything about the number.
func (m *Manager) Issue(ctx context.Context, phone kernel.PhoneNumber) error {
	code, err := m.generate()
	if err != nil {
		return err
	}

	challenge := otp.NewChallenge(phone, code, m.clock.Now(), m.cfg.TTL)
	if err := m.store.Save(ctx, challenge); err != nil {
		logx.WithContext(ctx).
			WithFields(logx.Fields{"phone": phone, "op": "otp.issue"}).
			WithError(err).
			Error("otp: failed to store challenge")
		return err
	}

	if err := m.sender.SendCode(ctx, notifx.CodeMessage{
		PhoneNumber: phone.String(),
		Code:        code,
		ExpiresIn:   m.cfg.TTL,
	}); err != nil {
		logx.WithContext(ctx).
			WithFields(logx.Fields{"phone": phone, "op": "otp.deliver"}).
			WithError(err).
			Warn("otp: code delivery failed")
	}

	return nil
}

// Verify consumes one attempt against the phone's challenge.
func (m *Manager) Verify(ctx context.Context, phone kernel.PhoneNumber, code string) error {
	outcome, challenge, err := m.store.Attempt(ctx, phone, code, m.clock.Now(), m.cfg.MaxAttempts)
	if err != nil {
		logx.WithContext(ctx).
			WithFields(logx.Fields{"phone": phone, "op": "otp.verify"}).
			WithError(err).
			Error("otp: challenge attempt failed")
		return err
	}

	switch outcome {
	case otp.OutcomeMatched:
		return nil
	case otp.OutcomeExpired:
		return otp.ErrChallengeExpired()
	case otp.OutcomeExhausted:
		return otp.ErrAttemptsExhausted()
	case otp.OutcomeMismatch:
		return otp.ErrInvalidCode().WithDetail("attempts_remaining", challenge.AttemptsRemaining(m.cfg.MaxAttempts))
	default:
		return otp.ErrChallengeNotFound()
	}
}
