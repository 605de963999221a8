// Package session mints and revokes bearer tokens. It keeps no state of its
// own; the Identity Provider owns token validity.
package session

import (
	"context"
	"net/http"

	"github.com/Abraxas-365/flavormind/pkg/errx"
	"github.com/Abraxas-365/flavormind/pkg/iam/idp"
	"github.com/Abraxas-365/flavormind/pkg/kernel"
	"github.com/Abraxas-365/flavormind/pkg/logx"
)

var ErrRegistry = errx.NewRegistry("SESSION")

var CodeProviderUnavailable = ErrRegistry.Register("PROVIDER_UNAVAILABLE", errx.TypeExternal, http.StatusInternalServerError, "Session provider unavailable")

func ErrProviderUnavailable(cause error) *errx.Error {
	return ErrRegistry.NewWithCause(CodeProviderUnavailable, cause)
}

// Token is an opaque bearer credential.
type Token string

func (t Token) String() string { return string(t) }

type Issuer struct {
	tokens idp.TokenAuthority
}

func NewIssuer(tokens idp.TokenAuthority) *Issuer {
	return &Issuer{tokens: tokens}
}

// Mint issues a token bound to accountID. Failures are not retried.
func (i *Issuer) Mint(ctx context.Context, accountID kernel.AccountID, email string) (Token, error) {
	raw, err := i.tokens.MintToken(ctx, accountID, email)
	if err != nil {
		logx.WithContext(ctx).
			WithFields(logx.Fields{"account_id": accountID, "op": "session.mint"}).
			WithError(err).
			Error("session: mint failed")
		return "", ErrProviderUnavailable(err)
	}
	return Token(raw), nil
}

// RevokeAll invalidates every token minted for accountID so far.
func (i *Issuer) RevokeAll(ctx context.Context, accountID kernel.AccountID) error {
	if err := i.tokens.RevokeTokens(ctx, accountID); err != nil {
		logx.WithContext(ctx).
			WithFields(logx.Fields{"account_id": accountID, "op": "session.revoke_all"}).
			WithError(err).
			Error("session: revoke failed")
		return ErrProviderUnavailable(err)
	}
	return nil
}
