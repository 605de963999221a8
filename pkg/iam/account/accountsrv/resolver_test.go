package accountsrv_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Abraxas-365/flavormind/pkg/errx"
	"github.com/Abraxas-365/flavormind/pkg/iam"
	"github.com/Abraxas-365/flavormind/pkg/iam/account"
	"github.com/Abraxas-365/flavormind/pkg/iam/account/accountinfra"
	"github.com/Abraxas-365/flavormind/pkg/iam/account/accountsrv"
	"github.com/Abraxas-365/flavormind/pkg/iam/idp"
	"github.com/Abraxas-365/flavormind/pkg/iam/idp/idptest"
	"github.com/Abraxas-365/flavormind/pkg/kernel"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	resolver *accountsrv.Resolver
	repo     *accountinfra.MemoryAccountRepository
	idp      *idptest.Fake
	clock    *kernel.ManualClock
}

func newFixture() *fixture {
	clock := kernel.NewManualClock(t0)
	repo := accountinfra.NewMemoryAccountRepository()
	fake := idptest.New(clock)
	return &fixture{
		resolver: accountsrv.NewResolver(repo, idp.Translated(fake), clock),
		repo:     repo,
		idp:      fake,
		clock:    clock,
	}
}

func googleIdentity(name string) iam.VerifiedIdentity {
	return iam.VerifiedIdentity{
		Key:  "google:1098765",
		Kind: iam.ProviderGoogle,
		Claims: iam.Claims{
			Email:         "cook@example.com",
			EmailVerified: true,
			Name:          name,
			PhotoURL:      "https://example.com/cook.png",
		},
	}
}

func TestResolve_FederatedIsIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, created, err := f.resolver.Resolve(ctx, googleIdentity("Home Cook"))
	if err != nil {
		t.Fatalf("first Resolve: %v", err)
	}
	if !created {
		t.Fatal("first Resolve did not create")
	}
	if first.Provider != iam.ProviderGoogle || first.Name != "Home Cook" || !first.ProfileComplete {
		t.Errorf("created account = %+v", first)
	}
	if first.LastLogin != nil {
		t.Errorf("new account has lastLogin %v", first.LastLogin)
	}

	f.clock.Advance(time.Hour)
	second, created, err := f.resolver.Resolve(ctx, googleIdentity("Renamed"))
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if created {
		t.Fatal("second Resolve created again")
	}
	if second.ID != first.ID {
		t.Errorf("ID = %s, want %s", second.ID, first.ID)
	}
	if second.Name != "Home Cook" {
		t.Errorf("Name overwritten to %q", second.Name)
	}
	if second.LastLogin == nil || !second.LastLogin.Equal(t0.Add(time.Hour)) {
		t.Errorf("LastLogin = %v", second.LastLogin)
	}
	if f.repo.Count() != 1 {
		t.Errorf("Count = %d, want 1", f.repo.Count())
	}
}

func TestResolve_NameFallsBackToEmailLocalPart(t *testing.T) {
	f := newFixture()

	a, _, err := f.resolver.Resolve(context.Background(), googleIdentity(""))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if a.Name != "cook" {
		t.Errorf("Name = %q, want cook", a.Name)
	}
}

func TestResolve_PhoneCreatesIdentityThenAccount(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	phone := iam.VerifiedIdentity{Key: "+94771234567", Kind: iam.ProviderPhone}

	a, created, err := f.resolver.Resolve(ctx, phone)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !created || a.PhoneNumber != "+94771234567" || a.Provider != iam.ProviderPhone {
		t.Fatalf("account = %+v created=%v", a, created)
	}

	user, err := f.idp.GetUserByPhone(ctx, "+94771234567")
	if err != nil {
		t.Fatalf("provider identity missing: %v", err)
	}
	if user.UID != a.ID {
		t.Errorf("account id %s != provider uid %s", a.ID, user.UID)
	}
	if a.DisplayName() != "User" {
		t.Errorf("DisplayName = %q, want User", a.DisplayName())
	}

	again, created, err := f.resolver.Resolve(ctx, phone)
	if err != nil || created || again.ID != a.ID {
		t.Fatalf("repeat Resolve = %v created=%v err=%v", again.ID, created, err)
	}
	if n := f.idp.Calls(idptest.OpCreateUser); n != 1 {
		t.Errorf("CreateUser calls = %d, want 1", n)
	}
}

func TestResolve_RecoversOrphanedPhoneIdentity(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// An earlier attempt created the identity and died before the account.
	orphan, err := f.idp.CreateUser(ctx, idp.CreateUserParams{PhoneNumber: "+94771234567"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	a, created, err := f.resolver.Resolve(ctx, iam.VerifiedIdentity{Key: "+94771234567", Kind: iam.ProviderPhone})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !created || a.ID != orphan.UID {
		t.Fatalf("account %s created=%v, want reuse of %s", a.ID, created, orphan.UID)
	}
	if n := f.idp.Calls(idptest.OpCreateUser); n != 1 {
		t.Errorf("CreateUser calls = %d, want 1 (no duplicate identity)", n)
	}
}

func TestResolve_ConcurrentFirstPhoneLogins(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	const n = 10
	ids := make([]kernel.AccountID, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, _, err := f.resolver.Resolve(ctx, iam.VerifiedIdentity{Key: "+94771234567", Kind: iam.ProviderPhone})
			if err != nil {
				t.Errorf("Resolve: %v", err)
				return
			}
			ids[i] = a.ID
		}(i)
	}
	wg.Wait()

	if f.repo.Count() != 1 {
		t.Fatalf("Count = %d, want 1", f.repo.Count())
	}
	for i, id := range ids {
		if id != ids[0] {
			t.Errorf("goroutine %d resolved %s, want %s", i, id, ids[0])
		}
	}
}

func TestResolve_LinksVerifiedFederatedEmail(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	owner, _, err := f.resolver.Resolve(ctx, iam.VerifiedIdentity{
		Key:    "uid-password",
		Kind:   iam.ProviderPassword,
		Claims: iam.Claims{Email: "cook@example.com", Name: "Cook"},
	})
	if err != nil {
		t.Fatalf("Resolve(password): %v", err)
	}

	linked, created, err := f.resolver.Resolve(ctx, googleIdentity("Home Cook"))
	if err != nil {
		t.Fatalf("Resolve(google): %v", err)
	}
	if created || linked.ID != owner.ID {
		t.Fatalf("linked to %s created=%v, want %s", linked.ID, created, owner.ID)
	}

	unverified := googleIdentity("Home Cook")
	unverified.Key = "google:other"
	unverified.Claims.EmailVerified = false
	_, _, err = f.resolver.Resolve(ctx, unverified)
	if !errx.HasCode(err, account.CodeConflict) {
		t.Fatalf("unverified email err = %v, want ACCOUNT_CONFLICT", err)
	}
}

func TestResolve_ProviderFailureSurfaces(t *testing.T) {
	f := newFixture()
	f.idp.FailOn(idptest.OpGetUserByPhone, errors.New("dial tcp: connection refused"))

	_, _, err := f.resolver.Resolve(context.Background(), iam.VerifiedIdentity{Key: "+94771234567", Kind: iam.ProviderPhone})
	if !idp.IsUnavailable(err) {
		t.Fatalf("err = %v, want IDP_UNAVAILABLE", err)
	}
	if f.repo.Count() != 0 {
		t.Errorf("account written despite provider failure")
	}
}

func TestResolve_RejectsEmptyIdentity(t *testing.T) {
	f := newFixture()

	_, _, err := f.resolver.Resolve(context.Background(), iam.VerifiedIdentity{Kind: iam.ProviderGoogle})
	if !errx.HasCode(err, account.CodeInvalid) {
		t.Fatalf("err = %v, want ACCOUNT_INVALID", err)
	}
}
