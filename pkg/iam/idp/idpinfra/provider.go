// Package idpinfra is the self-hosted Identity Provider: identities in
// Postgres (or memory), bcrypt password hashes, HS256 session tokens with a
// Redis revocation watermark, and JWKS-backed Google/Apple ID token checks.
package idpinfra

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Abraxas-365/flavormind/pkg/iam"
	"github.com/Abraxas-365/flavormind/pkg/iam/idp"
	"github.com/Abraxas-365/flavormind/pkg/kernel"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	Secret            string
	Issuer            string
	Audience          string
	TokenTTL          time.Duration
	LinkTTL           time.Duration
	LinkBaseURL       string
	BcryptCost        int
	MinPasswordLength int
}

// Provider implements idp.Provider.
type Provider struct {
	cfg         Config
	identities  IdentityStore
	revocations RevocationStore
	federated   *JWKSVerifier
	signer      *tokenSigner
	clock       kernel.Clock

	// dummyHash is compared when there is no real hash, so a login for an
	// unknown email costs the same bcrypt round as a wrong password.
	dummyHash   []byte
	compareHash func(hash, password []byte) error
}

var _ idp.Provider = (*Provider)(nil)

func NewProvider(cfg Config, identities IdentityStore, revocations RevocationStore, federated *JWKSVerifier, clock kernel.Clock) *Provider {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Hour
	}
	if cfg.LinkTTL <= 0 {
		cfg.LinkTTL = time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.MinPasswordLength <= 0 {
		cfg.MinPasswordLength = 6
	}

	// An out-of-range cost leaves dummyHash nil; CreateUser reports the
	// same cost error on the first registration.
	dummyHash, _ := bcrypt.GenerateFromPassword([]byte("flavormind-no-such-user"), cfg.BcryptCost)

	return &Provider{
		dummyHash:   dummyHash,
		compareHash: bcrypt.CompareHashAndPassword,
		cfg:         cfg,
		identities:  identities,
		revocations: revocations,
		federated:   federated,
		clock:       clock,
		signer: &tokenSigner{
			secret:   []byte(cfg.Secret),
			issuer:   cfg.Issuer,
			audience: cfg.Audience,
			ttl:      cfg.TokenTTL,
			linkTTL:  cfg.LinkTTL,
			clock:    clock,
		},
	}
}

// ============================================================================
// Directory
// ============================================================================

func (p *Provider) CreateUser(ctx context.Context, params idp.CreateUserParams) (*idp.User, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))

	switch {
	case email == "" && params.PhoneNumber == "":
		return nil, idp.Fail(idp.CodeInvalidArgument, "create_user", errors.New("email or phone number required"))
	case email != "" && params.Password == "":
		return nil, idp.Fail(idp.CodeInvalidPassword, "create_user", nil)
	case params.Password != "" && len(params.Password) < p.cfg.MinPasswordLength:
		return nil, idp.Fail(idp.CodeInvalidPassword, "create_user", nil)
	}

	identity := &Identity{
		User: idp.User{
			UID:         kernel.NewAccountID(uuid.NewString()),
			Email:       email,
			PhoneNumber: params.PhoneNumber,
			DisplayName: strings.TrimSpace(params.DisplayName),
			CreatedAt:   p.clock.Now(),
		},
	}

	if params.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), p.cfg.BcryptCost)
		if err != nil {
			if errors.Is(err, bcrypt.ErrPasswordTooLong) {
				return nil, idp.Fail(idp.CodeInvalidPassword, "create_user", err)
			}
			return nil, idp.Fail(idp.CodeInternal, "create_user", err)
		}
		identity.PasswordHash = string(hash)
	}

	if err := p.identities.Insert(ctx, identity); err != nil {
		return nil, err
	}
	return &identity.User, nil
}

func (p *Provider) GetUser(ctx context.Context, uid kernel.AccountID) (*idp.User, error) {
	identity, err := p.identities.FindByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	return &identity.User, nil
}

func (p *Provider) GetUserByEmail(ctx context.Context, email string) (*idp.User, error) {
	identity, err := p.identities.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	return &identity.User, nil
}

func (p *Provider) GetUserByPhone(ctx context.Context, phone kernel.PhoneNumber) (*idp.User, error) {
	identity, err := p.identities.FindByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	return &identity.User, nil
}

func (p *Provider) DeleteUser(ctx context.Context, uid kernel.AccountID) error {
	return p.identities.Delete(ctx, uid)
}

func (p *Provider) VerifyPassword(ctx context.Context, email, password string) (*idp.User, error) {
	identity, err := p.identities.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		_ = p.compareHash(p.dummyHash, []byte(password))
		return nil, err
	}
	if identity.PasswordHash == "" {
		_ = p.compareHash(p.dummyHash, []byte(password))
		return nil, idp.Fail(idp.CodeWrongPassword, "verify_password", nil)
	}
	if err := p.compareHash([]byte(identity.PasswordHash), []byte(password)); err != nil {
		return nil, idp.Fail(idp.CodeWrongPassword, "verify_password", nil)
	}
	return &identity.User, nil
}

// ============================================================================
// Federated
// ============================================================================

func (p *Provider) VerifyIDToken(ctx context.Context, provider iam.Provider, idToken string) (*idp.IDTokenClaims, error) {
	if !provider.IsFederated() {
		return nil, idp.Fail(idp.CodeInvalidArgument, "verify_id_token", errors.New("provider is not federated"))
	}
	if p.federated == nil {
		return nil, idp.Fail(idp.CodeInternal, "verify_id_token", errors.New("federated sign-in is not configured"))
	}
	return p.federated.Verify(ctx, provider, idToken)
}

// ============================================================================
// Tokens
// ============================================================================

func (p *Provider) MintToken(_ context.Context, uid kernel.AccountID, email string) (string, error) {
	return p.signer.mint(uid, email)
}

// VerifyToken rejects tokens issued at or before the account's revocation
// watermark.
func (p *Provider) VerifyToken(ctx context.Context, token string) (*idp.TokenClaims, error) {
	claims, err := p.signer.parse(token)
	if err != nil {
		return nil, err
	}

	uid := kernel.NewAccountID(claims.UID)
	revokedAt, err := p.revocations.RevokedAt(ctx, uid)
	if err != nil {
		return nil, err
	}
	if !revokedAt.IsZero() && claims.IssuedAtMs <= revokedAt.UnixMilli() {
		return nil, idp.Fail(idp.CodeTokenRevoked, "verify_token", nil)
	}

	return &idp.TokenClaims{
		UID:       uid,
		Email:     claims.Email,
		IssuedAt:  time.UnixMilli(claims.IssuedAtMs).UTC(),
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (p *Provider) RevokeTokens(ctx context.Context, uid kernel.AccountID) error {
	return p.revocations.Revoke(ctx, uid, p.clock.Now(), p.cfg.TokenTTL)
}

// ============================================================================
// Action links
// ============================================================================

func (p *Provider) GenerateEmailVerificationLink(ctx context.Context, email string) (string, error) {
	return p.link(ctx, ModeVerifyEmail, email)
}

func (p *Provider) GeneratePasswordResetLink(ctx context.Context, email string) (string, error) {
	return p.link(ctx, ModeResetPassword, email)
}

func (p *Provider) link(ctx context.Context, mode, email string) (string, error) {
	user, err := p.GetUserByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	return p.signer.actionLink(p.cfg.LinkBaseURL, mode, user.UID, user.Email)
}
