// Package idptest provides an in-memory idp.Provider with scripted federated
// tokens and injectable failures.
package idptest

import (
	"context"
	"sync"
	"time"

	"github.com/Abraxas-365/flavormind/pkg/iam"
	"github.com/Abraxas-365/flavormind/pkg/iam/idp"
	"github.com/Abraxas-365/flavormind/pkg/iam/idp/idpinfra"
	"github.com/Abraxas-365/flavormind/pkg/kernel"
	"golang.org/x/crypto/bcrypt"
)

// Operation names accepted by FailOn.
const (
	OpCreateUser     = "CreateUser"
	OpGetUser        = "GetUser"
	OpGetUserByEmail = "GetUserByEmail"
	OpGetUserByPhone = "GetUserByPhone"
	OpDeleteUser     = "DeleteUser"
	OpVerifyPassword = "VerifyPassword"
	OpVerifyIDToken  = "VerifyIDToken"
	OpMintToken      = "MintToken"
	OpVerifyToken    = "VerifyToken"
	OpRevokeTokens   = "RevokeTokens"
	OpLinks          = "Links"
)

// Fake is backed by a real idpinfra.Provider over memory stores.
type Fake struct {
	inner *idpinfra.Provider

	mu       sync.Mutex
	idTokens map[string]idp.IDTokenClaims
	failures map[string]error
	calls    map[string]int
}

var _ idp.Provider = (*Fake)(nil)

func New(clock kernel.Clock) *Fake {
	inner := idpinfra.NewProvider(idpinfra.Config{
		Secret:      "idptest-secret-idptest-secret-idptest",
		Issuer:      "flavormind-test",
		Audience:    "flavormind-test",
		TokenTTL:    time.Hour,
		LinkBaseURL: "https://flavormind.test/auth/action",
		BcryptCost:  bcrypt.MinCost,
	}, idpinfra.NewMemoryIdentityStore(), idpinfra.NewMemoryRevocationStore(), nil, clock)

	return &Fake{
		inner:    inner,
		idTokens: make(map[string]idp.IDTokenClaims),
		failures: make(map[string]error),
		calls:    make(map[string]int),
	}
}

// AddIDToken makes token verify for provider with the given claims. An empty
// UID is derived from the provider and subject.
func (f *Fake) AddIDToken(provider iam.Provider, token string, claims idp.IDTokenClaims) {
	if claims.UID.IsEmpty() {
		claims.UID = kernel.NewAccountID(string(provider) + ":" + claims.Subject)
	}
	f.mu.Lock()
	f.idTokens[string(provider)+"|"+token] = claims
	f.mu.Unlock()
}

// FailOn makes every call to op return err until cleared with a nil err.
func (f *Fake) FailOn(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failures, op)
		return
	}
	f.failures[op] = err
}

// Calls returns how many times op was invoked.
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *Fake) enter(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.failures[op]
}

func (f *Fake) CreateUser(ctx context.Context, params idp.CreateUserParams) (*idp.User, error) {
	if err := f.enter(OpCreateUser); err != nil {
		return nil, err
	}
	return f.inner.CreateUser(ctx, params)
}

func (f *Fake) GetUser(ctx context.Context, uid kernel.AccountID) (*idp.User, error) {
	if err := f.enter(OpGetUser); err != nil {
		return nil, err
	}
	return f.inner.GetUser(ctx, uid)
}

func (f *Fake) GetUserByEmail(ctx context.Context, email string) (*idp.User, error) {
	if err := f.enter(OpGetUserByEmail); err != nil {
		return nil, err
	}
	return f.inner.GetUserByEmail(ctx, email)
}

func (f *Fake) GetUserByPhone(ctx context.Context, phone kernel.PhoneNumber) (*idp.User, error) {
	if err := f.enter(OpGetUserByPhone); err != nil {
		return nil, err
	}
	return f.inner.GetUserByPhone(ctx, phone)
}

func (f *Fake) DeleteUser(ctx context.Context, uid kernel.AccountID) error {
	if err := f.enter(OpDeleteUser); err != nil {
		return err
	}
	return f.inner.DeleteUser(ctx, uid)
}

func (f *Fake) VerifyPassword(ctx context.Context, email, password string) (*idp.User, error) {
	if err := f.enter(OpVerifyPassword); err != nil {
		return nil, err
	}
	return f.inner.VerifyPassword(ctx, email, password)
}

func (f *Fake) VerifyIDToken(_ context.Context, provider iam.Provider, idToken string) (*idp.IDTokenClaims, error) {
	if err := f.enter(OpVerifyIDToken); err != nil {
		return nil, err
	}
	f.mu.Lock()
	claims, ok := f.idTokens[string(provider)+"|"+idToken]
	f.mu.Unlock()
	if !ok {
		return nil, idp.Fail(idp.CodeInvalidIDToken, "verify_id_token", nil)
	}
	return &claims, nil
}

func (f *Fake) MintToken(ctx context.Context, uid kernel.AccountID, email string) (string, error) {
	if err := f.enter(OpMintToken); err != nil {
		return "", err
	}
	return f.inner.MintToken(ctx, uid, email)
}

func (f *Fake) VerifyToken(ctx context.Context, token string) (*idp.TokenClaims, error) {
	if err := f.enter(OpVerifyToken); err != nil {
		return nil, err
	}
	return f.inner.VerifyToken(ctx, token)
}

func (f *Fake) RevokeTokens(ctx context.Context, uid kernel.AccountID) error {
	if err := f.enter(OpRevokeTokens); err != nil {
		return err
	}
	return f.inner.RevokeTokens(ctx, uid)
}

func (f *Fake) GenerateEmailVerificationLink(ctx context.Context, email string) (string, error) {
	if err := f.enter(OpLinks); err != nil {
		return "", err
	}
	return f.inner.GenerateEmailVerificationLink(ctx, email)
}

func (f *Fake) GeneratePasswordResetLink(ctx context.Context, email string) (string, error) {
	if err := f.enter(OpLinks); err != nil {
		return "", err
	}
	return f.inner.GeneratePasswordResetLink(ctx, email)
}
