package idpinfra

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Abraxas-365/flavormind/pkg/iam/idp"
	"github.com/Abraxas-365/flavormind/pkg/kernel"
)

// MemoryIdentityStore is the in-process IdentityStore.
type MemoryIdentityStore struct {
	mu         sync.RWMutex
	identities map[kernel.AccountID]Identity
}

func NewMemoryIdentityStore() *MemoryIdentityStore {
	return &MemoryIdentityStore{identities: make(map[kernel.AccountID]Identity)}
}

func (s *MemoryIdentityStore) Insert(_ context.Context, identity *Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.identities {
		if identity.Email != "" && strings.EqualFold(existing.Email, identity.Email) {
			return idp.Fail(idp.CodeEmailExists, "insert", nil)
		}
		if identity.PhoneNumber != "" && existing.PhoneNumber == identity.PhoneNumber {
			return idp.Fail(idp.CodePhoneExists, "insert", nil)
		}
	}
	s.identities[identity.UID] = *identity
	return nil
}

func (s *MemoryIdentityStore) FindByID(_ context.Context, uid kernel.AccountID) (*Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if identity, ok := s.identities[uid]; ok {
		return &identity, nil
	}
	return nil, idp.Fail(idp.CodeUserNotFound, "find_by_id", nil)
}

func (s *MemoryIdentityStore) FindByEmail(_ context.Context, email string) (*Identity, error) {
	return s.find("find_by_email", func(i Identity) bool {
		return i.Email != "" && strings.EqualFold(i.Email, email)
	})
}

func (s *MemoryIdentityStore) FindByPhone(_ context.Context, phone kernel.PhoneNumber) (*Identity, error) {
	return s.find("find_by_phone", func(i Identity) bool {
		return i.PhoneNumber != "" && i.PhoneNumber == phone.String()
	})
}

func (s *MemoryIdentityStore) Delete(_ context.Context, uid kernel.AccountID) error {
	s.mu.Lock()
	delete(s.identities, uid)
	s.mu.Unlock()
	return nil
}

func (s *MemoryIdentityStore) find(op string, match func(Identity) bool) (*Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, identity := range s.identities {
		if match(identity) {
			return &identity, nil
		}
	}
	return nil, idp.Fail(idp.CodeUserNotFound, op, nil)
}

// MemoryRevocationStore is the in-process RevocationStore. Entries never
// expire.
type MemoryRevocationStore struct {
	mu         sync.RWMutex
	watermarks map[kernel.AccountID]time.Time
}

func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{watermarks: make(map[kernel.AccountID]time.Time)}
}

func (s *MemoryRevocationStore) Revoke(_ context.Context, uid kernel.AccountID, at time.Time, _ time.Duration) error {
	s.mu.Lock()
	s.watermarks[uid] = at
	s.mu.Unlock()
	return nil
}

func (s *MemoryRevocationStore) RevokedAt(_ context.Context, uid kernel.AccountID) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.watermarks[uid], nil
}
