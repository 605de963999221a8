package auth

import (
	"context"
	"strings"
	"time"

	"github.com/Abraxas-365/flavormind/pkg/apix"
	"github.com/Abraxas-365/flavormind/pkg/errx"
	"github.com/Abraxas-365/flavormind/pkg/iam"
	"github.com/Abraxas-365/flavormind/pkg/iam/account"
	"github.com/Abraxas-365/flavormind/pkg/iam/credential"
	"github.com/Abraxas-365/flavormind/pkg/iam/idp"
	"github.com/Abraxas-365/flavormind/pkg/iam/session"
	"github.com/Abraxas-365/flavormind/pkg/kernel"
	"github.com/Abraxas-365/flavormind/pkg/logx"
	"github.com/Abraxas-365/flavormind/pkg/ptrx"
	"github.com/gofiber/fiber/v2"
)

// AccountResolver is implemented by accountsrv.Resolver.
type AccountResolver interface {
	Resolve(ctx context.Context, id iam.VerifiedIdentity) (*account.Account, bool, error)
}

// CodeIssuer is implemented by otpsrv.Manager.
type CodeIssuer interface {
	Issue(ctx context.Context, phone kernel.PhoneNumber) error
}

// SessionMinter is implemented by session.Issuer.
type SessionMinter interface {
	Mint(ctx context.Context, accountID kernel.AccountID, email string) (session.Token, error)
	RevokeAll(ctx context.Context, accountID kernel.AccountID) error
}

// Identity is the part of the Identity Provider the handlers call directly.
type Identity interface {
	CreateUser(ctx context.Context, params idp.CreateUserParams) (*idp.User, error)
	DeleteUser(ctx context.Context, uid kernel.AccountID) error
	idp.LinkGenerator
}

// AccountLookup is the read side of account.Repository the handlers use.
type AccountLookup interface {
	AccountReader
	FindByEmail(ctx context.Context, email string) (*account.Account, error)
}

// AuthHandlers serves the auth routes under BasePath.
type AuthHandlers struct {
	credentials *credential.Service
	resolver    AccountResolver
	sessions    SessionMinter
	codes       CodeIssuer
	identity    Identity
	accounts    AccountLookup
	mailer      Mailer
	audit       AuditService
	guard       *Guard
}

func NewAuthHandlers(
	credentials *credential.Service,
	resolver AccountResolver,
	sessions SessionMinter,
	codes CodeIssuer,
	identity Identity,
	accounts AccountLookup,
	mailer Mailer,
	audit AuditService,
	guard *Guard,
) *AuthHandlers {
	return &AuthHandlers{
		credentials: credentials,
		resolver:    resolver,
		sessions:    sessions,
		codes:       codes,
		identity:    identity,
		accounts:    accounts,
		mailer:      mailer,
		audit:       audit,
		guard:       guard,
	}
}

// BasePath is the prefix the auth routes are mounted under for an API version.
func BasePath(version string) string {
	return "/api/" + version + "/auth"
}

// RegisterRoutes mounts the auth routes under BasePath(version).
func (h *AuthHandlers) RegisterRoutes(router fiber.Router, version string) {
	r := router.Group(BasePath(version))

	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/google", h.Google)
	r.Post("/apple", h.Apple)
	r.Post("/send-otp", h.SendOTP)
	r.Post("/verify-otp", h.VerifyOTP)
	r.Post("/forgot-password", h.ForgotPassword)

	r.Post("/verify-email", h.guard.Authenticate(), h.VerifyEmail)
	r.Post("/logout", h.guard.Authenticate(), h.Logout)
	r.Get("/me", h.guard.Authenticate(), h.Me)

	r.Get("/ping", h.Ping)
}

// ============================================================================
// Password
// ============================================================================

func (h *AuthHandlers) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := parse(c, &req); err != nil {
		return err
	}
	ctx := c.UserContext()

	// Federated sign-ins own accounts without a password identity, so the
	// provider alone cannot tell whether the email is taken.
	if _, err := h.accounts.FindByEmail(ctx, req.Email); err == nil {
		return idp.ErrEmailExists()
	} else if !errx.HasCode(err, account.CodeNotFound) {
		return publicFailure(err, "Registration failed")
	}

	user, err := h.identity.CreateUser(ctx, idp.CreateUserParams{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.Name,
	})
	if err != nil {
		return publicFailure(err, "Registration failed")
	}

	acc, _, err := h.resolver.Resolve(ctx, iam.VerifiedIdentity{
		Key:  user.UID.String(),
		Kind: iam.ProviderPassword,
		Claims: iam.Claims{
			Email:         user.Email,
			EmailVerified: user.EmailVerified,
			Name:          req.Name,
		},
	})
	if err != nil {
		h.discardIdentity(ctx, user.UID)
		if errx.HasCode(err, account.CodeConflict) {
			return idp.ErrEmailExists()
		}
		return publicFailure(err, "Registration failed")
	}

	token, err := h.sessions.Mint(ctx, acc.ID, acc.Email)
	if err != nil {
		return publicFailure(err, "Registration failed")
	}

	h.sendVerification(ctx, acc.Email, acc.DisplayName())
	h.audit.LogAccountCreated(ctx, acc.ID, iam.ProviderPassword, c.IP())
	logx.WithContext(ctx).WithField("account_id", acc.ID).Info("auth: user registered")

	return apix.Created(c, TokenResponse{
		Token: token.String(),
		User: SignInUser{
			UID:           acc.ID.String(),
			Email:         user.Email,
			DisplayName:   user.DisplayName,
			EmailVerified: ptrx.Bool(user.EmailVerified),
		},
	}, "Registration successful. Please verify your email.")
}

func (h *AuthHandlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := parse(c, &req); err != nil {
		return err
	}
	ctx := c.UserContext()

	id, err := h.credentials.Password(req.Email, req.Password).Verify(ctx)
	if err != nil {
		h.audit.LogLoginAttempt(ctx, "", iam.ProviderPassword, false, c.IP(), c.Get(fiber.HeaderUserAgent))
		return publicFailure(err, "Login failed")
	}

	acc, token, err := h.signIn(c, *id)
	if err != nil {
		return publicFailure(err, "Login failed")
	}
	h.audit.LogLoginAttempt(ctx, acc.ID, iam.ProviderPassword, true, c.IP(), c.Get(fiber.HeaderUserAgent))

	return apix.OK(c, TokenResponse{
		Token: token.String(),
		User: SignInUser{
			UID:           acc.ID.String(),
			Email:         id.Claims.Email,
			DisplayName:   firstNonEmpty(id.Claims.Name, acc.Name),
			PhotoURL:      id.Claims.PhotoURL,
			EmailVerified: ptrx.Bool(id.Claims.EmailVerified),
		},
	}, "Login successful")
}

// ============================================================================
// Federated
// ============================================================================

func (h *AuthHandlers) Google(c *fiber.Ctx) error {
	var req IDTokenRequest
	if err := parse(c, &req); err != nil {
		return err
	}

	acc, token, id, err := h.federated(c, h.credentials.Google(req.IDToken))
	if err != nil {
		return publicFailure(err, "Google authentication failed")
	}

	return apix.OK(c, TokenResponse{
		Token: token.String(),
		User: SignInUser{
			UID:           acc.ID.String(),
			Email:         id.Claims.Email,
			DisplayName:   firstNonEmpty(id.Claims.Name, acc.Name),
			PhotoURL:      id.Claims.PhotoURL,
			EmailVerified: ptrx.Bool(true),
		},
	}, "Google sign-in successful")
}

func (h *AuthHandlers) Apple(c *fiber.Ctx) error {
	var req AppleRequest
	if err := parse(c, &req); err != nil {
		return err
	}

	acc, token, id, err := h.federated(c, h.credentials.Apple(req.IDToken, req.NameHint()))
	if err != nil {
		return publicFailure(err, "Apple authentication failed")
	}

	return apix.OK(c, TokenResponse{
		Token: token.String(),
		User: SignInUser{
			UID:           acc.ID.String(),
			Email:         id.Claims.Email,
			DisplayName:   firstNonEmpty(req.NameHint(), iam.FallbackName(id.Claims.Email), acc.Name),
			EmailVerified: ptrx.Bool(true),
		},
	}, "Apple sign-in successful")
}

func (h *AuthHandlers) federated(c *fiber.Ctx, v credential.Verifier) (*account.Account, session.Token, *iam.VerifiedIdentity, error) {
	ctx := c.UserContext()

	id, err := v.Verify(ctx)
	if err != nil {
		h.audit.LogLoginAttempt(ctx, "", v.Kind(), false, c.IP(), c.Get(fiber.HeaderUserAgent))
		return nil, "", nil, err
	}

	acc, token, err := h.signIn(c, *id)
	if err != nil {
		return nil, "", nil, err
	}
	h.audit.LogLoginAttempt(ctx, acc.ID, v.Kind(), true, c.IP(), c.Get(fiber.HeaderUserAgent))
	return acc, token, id, nil
}

// ============================================================================
// Phone OTP
// ============================================================================

func (h *AuthHandlers) SendOTP(c *fiber.Ctx) error {
	var req OTPRequest
	if err := parse(c, &req); err != nil {
		return err
	}
	ctx := c.UserContext()
	phone := kernel.PhoneNumber(req.PhoneNumber)

	if err := h.codes.Issue(ctx, phone); err != nil {
		return publicFailure(err, "Failed to send OTP")
	}
	h.audit.LogOTPIssued(ctx, phone, c.IP())

	return apix.OK(c, nil, "OTP sent successfully")
}

func (h *AuthHandlers) VerifyOTP(c *fiber.Ctx) error {
	var req VerifyOTPRequest
	if err := parse(c, &req); err != nil {
		return err
	}
	ctx := c.UserContext()
	phone := kernel.PhoneNumber(req.PhoneNumber)

	id, err := h.credentials.PhoneOTP(phone, req.OTP).Verify(ctx)
	h.audit.LogOTPVerification(ctx, phone, err == nil, c.IP())
	if err != nil {
		return publicFailure(err, "OTP verification failed")
	}

	acc, token, err := h.signIn(c, *id)
	if err != nil {
		return publicFailure(err, "OTP verification failed")
	}

	return apix.OK(c, TokenResponse{
		Token: token.String(),
		User: SignInUser{
			UID:         acc.ID.String(),
			PhoneNumber: phone.String(),
			DisplayName: acc.DisplayName(),
		},
	}, "OTP verified successfully")
}

// ============================================================================
// Links
// ============================================================================

// ForgotPassword answers the same way whether or not the email is known.
func (h *AuthHandlers) ForgotPassword(c *fiber.Ctx) error {
	var req EmailRequest
	if err := parse(c, &req); err != nil {
		return err
	}
	ctx := c.UserContext()
	const message = "If email exists, reset link will be sent"

	link, err := h.identity.GeneratePasswordResetLink(ctx, req.Email)
	if err != nil {
		if errx.HasCode(err, idp.ErrCodeUserNotFound) {
			return apix.OK(c, nil, message)
		}
		return publicFailure(err, "Failed to send reset email")
	}

	if err := h.mailer.SendPasswordResetLink(ctx, req.Email, link); err != nil {
		return publicFailure(err, "Failed to send reset email")
	}
	return apix.OK(c, nil, message)
}

func (h *AuthHandlers) VerifyEmail(c *fiber.Ctx) error {
	var req EmailRequest
	if err := parse(c, &req); err != nil {
		return err
	}
	sess, _ := SessionFrom(c)
	if !strings.EqualFold(req.Email, sess.Email) {
		return ErrEmailMismatch()
	}
	ctx := c.UserContext()

	link, err := h.identity.GenerateEmailVerificationLink(ctx, req.Email)
	if err != nil {
		return ErrVerificationFailed(err)
	}
	if err := h.mailer.SendVerificationLink(ctx, req.Email, sess.Account.DisplayName(), link); err != nil {
		return publicFailure(err, "Failed to send verification email")
	}

	return apix.OK(c, nil, "Verification email sent")
}

// ============================================================================
// Session
// ============================================================================

func (h *AuthHandlers) Logout(c *fiber.Ctx) error {
	sess, _ := SessionFrom(c)
	ctx := c.UserContext()

	if err := h.sessions.RevokeAll(ctx, sess.AccountID); err != nil {
		return publicFailure(err, "Logout failed")
	}
	h.audit.LogLogout(ctx, sess.AccountID, c.IP())

	return apix.OK(c, nil, "Logout successful")
}

func (h *AuthHandlers) Me(c *fiber.Ctx) error {
	sess, _ := SessionFrom(c)

	acc, err := h.accounts.FindByID(c.UserContext(), sess.AccountID)
	if err != nil {
		return publicFailure(err, "Failed to get user")
	}
	return apix.OK(c, ProfileResponse{User: acc.ToDTO()}, "")
}

func (h *AuthHandlers) Ping(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message":   "Auth routes working",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// ============================================================================
// Helpers
// ============================================================================

// signIn resolves the account for a verified identity and mints its token.
func (h *AuthHandlers) signIn(c *fiber.Ctx, id iam.VerifiedIdentity) (*account.Account, session.Token, error) {
	ctx := c.UserContext()

	acc, created, err := h.resolver.Resolve(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if created {
		h.audit.LogAccountCreated(ctx, acc.ID, id.Kind, c.IP())
	}

	token, err := h.sessions.Mint(ctx, acc.ID, acc.Email)
	if err != nil {
		return nil, "", err
	}

	logx.WithContext(ctx).
		WithFields(logx.Fields{"account_id": acc.ID, "provider": id.Kind, "created": created}).
		Info("auth: signed in")
	return acc, token, nil
}

// discardIdentity removes a password identity whose account could not be
// created, so the email stays free for the next attempt.
func (h *AuthHandlers) discardIdentity(ctx context.Context, uid kernel.AccountID) {
	if err := h.identity.DeleteUser(ctx, uid); err != nil {
		logx.WithContext(ctx).
			WithFields(logx.Fields{"account_id": uid, "op": "auth.discard_identity"}).
			WithError(err).
			Error("auth: identity left without account")
	}
}

// sendVerification is best effort: the account and token already exist.
func (h *AuthHandlers) sendVerification(ctx context.Context, email, name string) {
	link, err := h.identity.GenerateEmailVerificationLink(ctx, email)
	if err == nil {
		err = h.mailer.SendVerificationLink(ctx, email, name, link)
	}
	if err != nil {
		logx.WithContext(ctx).
			WithFields(logx.Fields{"email": email, "op": "auth.send_verification"}).
			WithError(err).
			Warn("auth: verification email not sent")
	}
}

// parse decodes the body when there is one and validates it. An empty body
// goes straight to validation so missing fields are reported per field.
func parse(c *fiber.Ctx, req interface{ Validate() error }) error {
	if len(c.Body()) > 0 {
		if err := c.BodyParser(req); err != nil {
			return ErrInvalidBody(err)
		}
	}
	return req.Validate()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
