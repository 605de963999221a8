package auth

import (
	"context"

	"github.com/Abraxas-365/flavormind/pkg/iam/account"
	"github.com/Abraxas-365/flavormind/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

// ============================================================================
// Session Context
// ============================================================================

// SessionContext is what the guard attaches to an authenticated request.
// An empty context means the request is anonymous.
type SessionContext struct {
	AccountID kernel.AccountID
	Email     string
	Account   *account.Account
}

// IsAuthenticated reports whether the guard resolved an account.
func (s *SessionContext) IsAuthenticated() bool {
	return s != nil && !s.AccountID.IsEmpty() && s.Account != nil
}

func (s *SessionContext) IsAdmin() bool {
	return s.IsAuthenticated() && s.Account.IsAdmin()
}

// SessionFrom returns the session the guard stored for this request.
func SessionFrom(c *fiber.Ctx) (*SessionContext, bool) {
	sess, ok := c.Locals(string(kernel.SessionContextKey)).(*SessionContext)
	if !ok || sess == nil {
		return nil, false
	}
	return sess, true
}

func setSession(c *fiber.Ctx, sess *SessionContext) {
	c.Locals(string(kernel.SessionContextKey), sess)
}

type sessionCtxKey struct{}

// WithSession returns ctx carrying sess, for code below the HTTP layer.
func WithSession(ctx context.Context, sess *SessionContext) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, sess)
}

func SessionFromContext(ctx context.Context) (*SessionContext, bool) {
	sess, ok := ctx.Value(sessionCtxKey{}).(*SessionContext)
	return sess, ok && sess != nil
}
