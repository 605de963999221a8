package idp

import (
	"context"

	"github.com/Abraxas-365/flavormind/pkg/iam"
	"github.com/Abraxas-365/flavormind/pkg/kernel"
	"github.com/Abraxas-365/flavormind/pkg/logx"
)

// Translated wraps p so every error it returns has gone through Translate.
// Infrastructure failures are logged here, once.
func Translated(p Provider) Provider {
	return &translated{next: p}
}

type translated struct {
	next Provider
}

func (t *translated) fail(ctx context.Context, op string, fields logx.Fields, err error) error {
	out := Translate(err)
	if IsUnavailable(out) {
		if fields == nil {
			fields = logx.Fields{}
		}
		fields["op"] = op
		logx.WithContext(ctx).WithFields(fields).WithError(err).Error("idp: provider call failed")
	}
	return out
}

func (t *translated) CreateUser(ctx context.Context, params CreateUserParams) (*User, error) {
	u, err := t.next.CreateUser(ctx, params)
	if err != nil {
		return nil, t.fail(ctx, "idp.create_user", logx.Fields{"email": params.Email, "phone": params.PhoneNumber}, err)
	}
	return u, nil
}

func (t *translated) GetUser(ctx context.Context, uid kernel.AccountID) (*User, error) {
	u, err := t.next.GetUser(ctx, uid)
	if err != nil {
		return nil, t.fail(ctx, "idp.get_user", logx.Fields{"account_id": uid}, err)
	}
	return u, nil
}

func (t *translated) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	u, err := t.next.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, t.fail(ctx, "idp.get_user_by_email", logx.Fields{"email": email}, err)
	}
	return u, nil
}

func (t *translated) GetUserByPhone(ctx context.Context, phone kernel.PhoneNumber) (*User, error) {
	u, err := t.next.GetUserByPhone(ctx, phone)
	if err != nil {
		return nil, t.fail(ctx, "idp.get_user_by_phone", logx.Fields{"phone": phone}, err)
	}
	return u, nil
}

func (t *translated) DeleteUser(ctx context.Context, uid kernel.AccountID) error {
	if err := t.next.DeleteUser(ctx, uid); err != nil {
		return t.fail(ctx, "idp.delete_user", logx.Fields{"account_id": uid}, err)
	}
	return nil
}

func (t *translated) VerifyPassword(ctx context.Context, email, password string) (*User, error) {
	u, err := t.next.VerifyPassword(ctx, email, password)
	if err != nil {
		return nil, t.fail(ctx, "idp.verify_password", logx.Fields{"email": email}, err)
	}
	return u, nil
}

func (t *translated) VerifyIDToken(ctx context.Context, provider iam.Provider, idToken string) (*IDTokenClaims, error) {
	c, err := t.next.VerifyIDToken(ctx, provider, idToken)
	if err != nil {
		return nil, t.fail(ctx, "idp.verify_id_token", logx.Fields{"provider": provider}, err)
	}
	return c, nil
}

func (t *translated) MintToken(ctx context.Context, uid kernel.AccountID, email string) (string, error) {
	tok, err := t.next.MintToken(ctx, uid, email)
	if err != nil {
		return "", t.fail(ctx, "idp.mint_token", logx.Fields{"account_id": uid}, err)
	}
	return tok, nil
}

func (t *translated) VerifyToken(ctx context.Context, token string) (*TokenClaims, error) {
	c, err := t.next.VerifyToken(ctx, token)
	if err != nil {
		return nil, t.fail(ctx, "idp.verify_token", nil, err)
	}
	return c, nil
}

func (t *translated) RevokeTokens(ctx context.Context, uid kernel.AccountID) error {
	if err := t.next.RevokeTokens(ctx, uid); err != nil {
		return t.fail(ctx, "idp.revoke_tokens", logx.Fields{"account_id": uid}, err)
	}
	return nil
}

func (t *translated) GenerateEmailVerificationLink(ctx context.Context, email string) (string, error) {
	link, err := t.next.GenerateEmailVerificationLink(ctx, email)
	if err != nil {
		return "", t.fail(ctx, "idp.email_verification_link", logx.Fields{"email": email}, err)
	}
	return link, nil
}

func (t *translated) GeneratePasswordResetLink(ctx context.Context, email string) (string, error) {
	link, err := t.next.GeneratePasswordResetLink(ctx, email)
	if err != nil {
		return "", t.fail(ctx, "idp.password_reset_link", logx.Fields{"email": email}, err)
	}
	return link, nil
}
