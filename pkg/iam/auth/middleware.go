package auth

import (
	"context"
	"strings"

	"github.com/Abraxas-365/flavormind/pkg/errx"
	"github.com/Abraxas-365/flavormind/pkg/iam"
	"github.com/Abraxas-365/flavormind/pkg/iam/account"
	"github.com/Abraxas-365/flavormind/pkg/iam/idp"
	"github.com/Abraxas-365/flavormind/pkg/logx"
	"github.com/gofiber/fiber/v2"
)

// Guard verifies bearer tokens and attaches a SessionContext. It only reads
// accounts.
type Guard struct {
	tokens   idp.TokenAuthority
	accounts AccountReader
}

func NewGuard(tokens idp.TokenAuthority, accounts AccountReader) *Guard {
	return &Guard{
		tokens:   tokens,
		accounts: accounts,
	}
}

// Authenticate rejects the request unless it carries a valid bearer token
// for an existing account.
func (g *Guard) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := g.resolve(c)
		if err != nil {
			return err
		}
		attach(c, sess)
		return c.Next()
	}
}

// Optional attaches a session when the token checks out and an empty one
// otherwise. It never fails the request.
func (g *Guard) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := g.resolve(c)
		if err != nil {
			sess = &SessionContext{}
		}
		attach(c, sess)
		return c.Next()
	}
}

// RequireAdmin must run after Authenticate.
func (g *Guard) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, ok := SessionFrom(c)
		if !ok || !sess.IsAuthenticated() {
			return iam.ErrUnauthorized()
		}
		if !sess.IsAdmin() {
			return iam.ErrAdminRequired()
		}
		return c.Next()
	}
}

// RequireCompleteProfile must run after Authenticate.
func (g *Guard) RequireCompleteProfile() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, ok := SessionFrom(c)
		if !ok || !sess.IsAuthenticated() {
			return iam.ErrUnauthorized()
		}
		if !sess.Account.ProfileComplete {
			return iam.ErrProfileIncomplete()
		}
		return c.Next()
	}
}

func (g *Guard) resolve(c *fiber.Ctx) (*SessionContext, error) {
	token, err := bearerToken(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return nil, err
	}

	ctx := c.UserContext()
	claims, err := g.tokens.VerifyToken(ctx, token)
	if err != nil {
		return nil, tokenError(ctx, err)
	}

	acc, err := g.accounts.FindByID(ctx, claims.UID)
	if err != nil {
		if errx.HasCode(err, account.CodeNotFound) {
			return nil, iam.ErrAccountMissing()
		}
		logx.WithContext(ctx).
			WithFields(logx.Fields{"account_id": claims.UID, "op": "guard.load_account"}).
			WithError(err).
			Error("guard: account lookup failed")
		return nil, err
	}

	email := claims.Email
	if email == "" {
		email = acc.Email
	}
	return &SessionContext{AccountID: claims.UID, Email: email, Account: acc}, nil
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", iam.ErrUnauthorized()
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || scheme != "Bearer" || token == "" {
		return "", iam.ErrInvalidToken()
	}
	return token, nil
}

// tokenError maps a provider verification failure onto the guard's 401s.
// Provider outages stay 500.
func tokenError(ctx context.Context, err error) error {
	switch {
	case errx.HasCode(err, idp.ErrCodeTokenExpired):
		return iam.ErrTokenExpired()
	case errx.HasCode(err, idp.ErrCodeTokenRevoked):
		return iam.ErrTokenRevoked()
	case idp.IsUnavailable(err):
		logx.WithContext(ctx).WithField("op", "guard.verify_token").WithError(err).Error("guard: token verification unavailable")
		return err
	default:
		return iam.ErrInvalidToken()
	}
}

func attach(c *fiber.Ctx, sess *SessionContext) {
	setSession(c, sess)
	c.SetUserContext(WithSession(c.UserContext(), sess))
}
