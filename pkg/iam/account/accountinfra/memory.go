package accountinfra

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Abraxas-365/flavormind/pkg/iam/account"
	"github.com/Abraxas-365/flavormind/pkg/kernel"
	"github.com/Abraxas-365/flavormind/pkg/ptrx"
)

// MemoryAccountRepository keeps accounts in process with the same
// uniqueness rules as the Postgres table.
type MemoryAccountRepository struct {
	mu       sync.RWMutex
	accounts map[kernel.AccountID]*account.Account
}

func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{accounts: make(map[kernel.AccountID]*account.Account)}
}

func (r *MemoryAccountRepository) FindByID(_ context.Context, id kernel.AccountID) (*account.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if a, ok := r.accounts[id]; ok {
		return clone(a), nil
	}
	return nil, account.ErrAccountNotFound()
}

func (r *MemoryAccountRepository) FindByPhone(_ context.Context, phone kernel.PhoneNumber) (*account.Account, error) {
	return r.findFirst(func(a *account.Account) bool {
		return a.PhoneNumber != "" && a.PhoneNumber == phone.String()
	})
}

func (r *MemoryAccountRepository) FindByEmail(_ context.Context, email string) (*account.Account, error) {
	email = strings.ToLower(email)
	return r.findFirst(func(a *account.Account) bool {
		return a.Email != "" && a.Email == email
	})
}

func (r *MemoryAccountRepository) findFirst(match func(*account.Account) bool) (*account.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.accounts {
		if match(a) {
			return clone(a), nil
		}
	}
	return nil, account.ErrAccountNotFound()
}

func (r *MemoryAccountRepository) CreateIfAbsent(_ context.Context, a *account.Account) (bool, error) {
	if err := a.Validate(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[a.ID]; ok {
		return false, nil
	}
	for _, existing := range r.accounts {
		if a.Email != "" && existing.Email == a.Email {
			return false, nil
		}
		if a.PhoneNumber != "" && existing.PhoneNumber == a.PhoneNumber {
			return false, nil
		}
	}

	r.accounts[a.ID] = clone(a)
	return true, nil
}

func (r *MemoryAccountRepository) TouchLastLogin(_ context.Context, id kernel.AccountID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return account.ErrAccountNotFound()
	}
	a.RecordLogin(at)
	return nil
}

// Count returns the number of stored accounts.
func (r *MemoryAccountRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.accounts)
}

func clone(a *account.Account) *account.Account {
	c := *a
	c.LastLogin = ptrx.Clone(a.LastLogin)
	return &c
}
