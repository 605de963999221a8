package otpinfra

import (
	"context"
	"sync"
	"time"

	"github.com/Abraxas-365/flavormind/pkg/iam/otp"
	"github.com/Abraxas-365/flavormind/pkg/kernel"
)

// MemoryChallengeStore is a process-local ChallengeStore. A single mutex
// makes Attempt atomic.
type MemoryChallengeStore struct {
	mu         sync.Mutex
	challenges map[kernel.PhoneNumber]otp.Challenge
}

func NewMemoryChallengeStore() *MemoryChallengeStore {
	return &MemoryChallengeStore{challenges: make(map[kernel.PhoneNumber]otp.Challenge)}
}

func (s *MemoryChallengeStore) Save(_ context.Context, c *otp.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[c.PhoneNumber] = *c
	return nil
}

func (s *MemoryChallengeStore) Get(_ context.Context, phone kernel.PhoneNumber) (*otp.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challenges[phone]
	if !ok {
		return nil, otp.ErrChallengeNotFound()
	}
	return &c, nil
}

func (s *MemoryChallengeStore) Delete(_ context.Context, phone kernel.PhoneNumber) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.challenges, phone)
	return nil
}

func (s *MemoryChallengeStore) Attempt(_ context.Context, phone kernel.PhoneNumber, code string, now time.Time, maxAttempts int) (otp.Outcome, *otp.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.challenges[phone]
	if !ok {
		return otp.OutcomeNotFound, nil, nil
	}

	outcome := c.Evaluate(code, now, maxAttempts)
	if outcome.Removes() {
		delete(s.challenges, phone)
	} else {
		s.challenges[phone] = c
	}
	return outcome, &c, nil
}
