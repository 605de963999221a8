package accountsrv

import (
	"context"

	"github.com/Abraxas-365/flavormind/pkg/errx"
	"github.com/Abraxas-365/flavormind/pkg/iam"
	"github.com/Abraxas-365/flavormind/pkg/iam/account"
	"github.com/Abraxas-365/flavormind/pkg/iam/idp"
	"github.com/Abraxas-365/flavormind/pkg/kernel"
	"github.com/Abraxas-365/flavormind/pkg/logx"
)

// Resolver turns a verified identity into exactly one Account. It is the only
// writer of account records.
type Resolver struct {
	repo      account.Repository
	directory idp.Directory
	clock     kernel.Clock
}

func NewResolver(repo account.Repository, directory idp.Directory, clock kernel.Clock) *Resolver {
	return &Resolver{
		repo:      repo,
		directory: directory,
		clock:     clock,
	}
}

// Resolve finds or creates the account for id. created reports whether this
// call inserted it; repeat resolutions only move lastLogin.
func (r *Resolver) Resolve(ctx context.Context, id iam.VerifiedIdentity) (*account.Account, bool, error) {
	if id.Key == "" || !id.Kind.IsValid() {
		return nil, false, account.ErrInvalidAccount().WithDetail("identity_kind", string(id.Kind))
	}

	var (
		existing *account.Account
		err      error
	)
	if id.Kind == iam.ProviderPhone {
		existing, err = r.repo.FindByPhone(ctx, kernel.PhoneNumber(id.Key))
	} else {
		existing, err = r.repo.FindByID(ctx, kernel.NewAccountID(id.Key))
	}

	switch {
	case err == nil:
		a, err := r.touch(ctx, existing)
		return a, false, err
	case !errx.HasCode(err, account.CodeNotFound):
		r.logFailure(ctx, "account.lookup", id, err)
		return nil, false, err
	}

	uid := kernel.NewAccountID(id.Key)
	claims := id.Claims
	if id.Kind == iam.ProviderPhone {
		claims.PhoneNumber = id.Key
		if uid, err = r.phoneIdentity(ctx, kernel.PhoneNumber(id.Key)); err != nil {
			return nil, false, err
		}
	}

	return r.create(ctx, account.New(uid, id.Kind, claims, r.clock.Now()), id)
}

// phoneIdentity returns the provider uid for phone, creating the identity if
// needed. An identity that already exists without an account is left over
// from an interrupted first login and is reused.
func (r *Resolver) phoneIdentity(ctx context.Context, phone kernel.PhoneNumber) (kernel.AccountID, error) {
	user, err := r.directory.GetUserByPhone(ctx, phone)
	if err == nil {
		logx.WithContext(ctx).
			WithFields(logx.Fields{"phone": phone, "account_id": user.UID, "op": "account.resolve"}).
			Warn("account: recovering provider identity without account")
		return user.UID, nil
	}
	if !errx.HasCode(err, idp.ErrCodeUserNotFound) {
		return "", err
	}

	user, err = r.directory.CreateUser(ctx, idp.CreateUserParams{PhoneNumber: phone.String()})
	if err == nil {
		return user.UID, nil
	}
	if !errx.HasCode(err, idp.ErrCodePhoneExists) {
		return "", err
	}

	// A concurrent first login created it between our lookup and insert.
	user, err = r.directory.GetUserByPhone(ctx, phone)
	if err != nil {
		return "", err
	}
	return user.UID, nil
}

func (r *Resolver) create(ctx context.Context, a *account.Account, id iam.VerifiedIdentity) (*account.Account, bool, error) {
	created, err := r.repo.CreateIfAbsent(ctx, a)
	if err != nil {
		r.logFailure(ctx, "account.create", id, err)
		return nil, false, err
	}
	if created {
		return a, true, nil
	}

	// Lost a race, or the email/phone already belongs to another account.
	if winner, err := r.repo.FindByID(ctx, a.ID); err == nil {
		touched, err := r.touch(ctx, winner)
		return touched, false, err
	} else if !errx.HasCode(err, account.CodeNotFound) {
		return nil, false, err
	}

	other, err := r.findByContact(ctx, a)
	if err != nil {
		if errx.HasCode(err, account.CodeNotFound) {
			return nil, false, account.ErrAccountConflict()
		}
		return nil, false, err
	}

	if !canLink(id) {
		return nil, false, account.ErrAccountConflict().
			WithDetail("provider", string(other.Provider))
	}

	logx.WithContext(ctx).
		WithFields(logx.Fields{"account_id": other.ID, "provider": id.Kind, "op": "account.link"}).
		Info("account: linked sign-in to existing account")
	touched, err := r.touch(ctx, other)
	return touched, false, err
}

// canLink allows reusing an account owned by another provider only when the
// shared contact was proven: a verified federated email or an OTP-verified
// phone.
func canLink(id iam.VerifiedIdentity) bool {
	switch {
	case id.Kind == iam.ProviderPhone:
		return true
	case id.Kind.IsFederated():
		return id.Claims.EmailVerified
	default:
		return false
	}
}

func (r *Resolver) findByContact(ctx context.Context, a *account.Account) (*account.Account, error) {
	if a.Email != "" {
		found, err := r.repo.FindByEmail(ctx, a.Email)
		if err == nil || !errx.HasCode(err, account.CodeNotFound) {
			return found, err
		}
	}
	if a.PhoneNumber != "" {
		return r.repo.FindByPhone(ctx, kernel.PhoneNumber(a.PhoneNumber))
	}
	return nil, account.ErrAccountNotFound()
}

func (r *Resolver) touch(ctx context.Context, a *account.Account) (*account.Account, error) {
	now := r.clock.Now()
	if err := r.repo.TouchLastLogin(ctx, a.ID, now); err != nil {
		logx.WithContext(ctx).
			WithFields(logx.Fields{"account_id": a.ID, "op": "account.touch"}).
			WithError(err).
			Error("account: failed to record login")
		return nil, err
	}
	a.RecordLogin(now)
	return a, nil
}

func (r *Resolver) logFailure(ctx context.Context, op string, id iam.VerifiedIdentity, err error) {
	logx.WithContext(ctx).
		WithFields(logx.Fields{"provider": id.Kind, "identity": id.Key, "op": op}).
		WithError(err).
		Error("account: storage failure")
}
