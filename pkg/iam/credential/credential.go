// Package credential verifies inbound credentials and normalizes them to an
// iam.VerifiedIdentity. Strategies never write account state.
package credential

import (
	"context"
	"strings"

	"github.com/Abraxas-365/flavormind/pkg/errx"
	"github.com/Abraxas-365/flavormind/pkg/iam"
	"github.com/Abraxas-365/flavormind/pkg/iam/idp"
	"github.com/Abraxas-365/flavormind/pkg/kernel"
)

// Verifier is one credential, ready to be checked.
type Verifier interface {
	Kind() iam.Provider
	Verify(ctx context.Context) (*iam.VerifiedIdentity, error)
}

// CodeVerifier consumes one OTP attempt. otpsrv.Manager implements it.
type CodeVerifier interface {
	Verify(ctx context.Context, phone kernel.PhoneNumber, code string) error
}

// Service builds Verifiers over the Identity Provider and the OTP manager.
type Service struct {
	directory idp.Directory
	federated idp.FederatedVerifier
	codes     CodeVerifier
}

func NewService(directory idp.Directory, federated idp.FederatedVerifier, codes CodeVerifier) *Service {
	return &Service{
		directory: directory,
		federated: federated,
		codes:     codes,
	}
}

func (s *Service) Password(email, password string) Verifier {
	return &passwordCredential{directory: s.directory, email: email, password: password}
}

func (s *Service) Google(idToken string) Verifier {
	return &federatedCredential{verifier: s.federated, provider: iam.ProviderGoogle, idToken: idToken}
}

// Apple takes the name Apple hands the client on first authorization only.
func (s *Service) Apple(idToken, nameHint string) Verifier {
	return &federatedCredential{verifier: s.federated, provider: iam.ProviderApple, idToken: idToken, nameHint: nameHint}
}

func (s *Service) PhoneOTP(phone kernel.PhoneNumber, code string) Verifier {
	return &phoneCredential{codes: s.codes, phone: phone, code: code}
}

// ============================================================================
// Password
// ============================================================================

type passwordCredential struct {
	directory idp.Directory
	email     string
	password  string
}

func (c *passwordCredential) Kind() iam.Provider { return iam.ProviderPassword }

func (c *passwordCredential) Verify(ctx context.Context) (*iam.VerifiedIdentity, error) {
	user, err := c.directory.VerifyPassword(ctx, c.email, c.password)
	if err != nil {
		if errx.HasCode(err, idp.ErrCodeUserNotFound) || errx.HasCode(err, idp.ErrCodeWrongPassword) {
			return nil, ErrInvalidCredentials()
		}
		return nil, err
	}

	return &iam.VerifiedIdentity{
		Key:  user.UID.String(),
		Kind: iam.ProviderPassword,
		Claims: iam.Claims{
			Email:         user.Email,
			EmailVerified: user.EmailVerified,
			Name:          user.DisplayName,
			PhotoURL:      user.PhotoURL,
		},
	}, nil
}

// ============================================================================
// Federated
// ============================================================================

type federatedCredential struct {
	verifier idp.FederatedVerifier
	provider iam.Provider
	idToken  string
	nameHint string
}

func (c *federatedCredential) Kind() iam.Provider { return c.provider }

func (c *federatedCredential) Verify(ctx context.Context) (*iam.VerifiedIdentity, error) {
	claims, err := c.verifier.VerifyIDToken(ctx, c.provider, c.idToken)
	if err != nil {
		return nil, ErrFederatedVerification(c.provider, err)
	}

	name := claims.Name
	if hint := strings.TrimSpace(c.nameHint); hint != "" && name == "" {
		name = hint
	}

	return &iam.VerifiedIdentity{
		Key:  claims.UID.String(),
		Kind: c.provider,
		Claims: iam.Claims{
			Email:         claims.Email,
			EmailVerified: claims.EmailVerified,
			Name:          name,
			PhotoURL:      claims.Picture,
		},
	}, nil
}

// ============================================================================
// Phone OTP
// ============================================================================

type phoneCredential struct {
	codes CodeVerifier
	phone kernel.PhoneNumber
	code  string
}

func (c *phoneCredential) Kind() iam.Provider { return iam.ProviderPhone }

func (c *phoneCredential) Verify(ctx context.Context) (*iam.VerifiedIdentity, error) {
	if err := c.codes.Verify(ctx, c.phone, c.code); err != nil {
		return nil, err
	}
	return &iam.VerifiedIdentity{
		Key:    c.phone.String(),
		Kind:   iam.ProviderPhone,
		Claims: iam.Claims{PhoneNumber: c.phone.String()},
	}, nil
}
