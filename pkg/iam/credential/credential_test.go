package credential_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/Abraxas-365/flavormind/pkg/errx"
	"github.com/Abraxas-365/flavormind/pkg/iam"
	"github.com/Abraxas-365/flavormind/pkg/iam/credential"
	"github.com/Abraxas-365/flavormind/pkg/iam/idp"
	"github.com/Abraxas-365/flavormind/pkg/iam/idp/idptest"
	"github.com/Abraxas-365/flavormind/pkg/iam/otp"
	"github.com/Abraxas-365/flavormind/pkg/iam/otp/otpinfra"
	"github.com/Abraxas-365/flavormind/pkg/iam/otp/otpsrv"
	"github.com/Abraxas-365/flavormind/pkg/kernel"
	"github.com/Abraxas-365/flavormind/pkg/notifx/notifxconsole"
)

type fixture struct {
	svc  *credential.Service
	idp  *idptest.Fake
	otps *otpsrv.Manager
}

func newFixture() *fixture {
	clock := kernel.NewManualClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	fake := idptest.New(clock)
	provider := idp.Translated(fake)

	manager := otpsrv.NewManager(otpinfra.NewMemoryChallengeStore(), notifxconsole.NewConsoleProvider(), clock, otpsrv.DefaultConfig()).
		WithGenerator(func() (string, error) { return "483920", nil })

	return &fixture{
		svc:  credential.NewService(provider, provider, manager),
		idp:  fake,
		otps: manager,
	}
}

func TestPassword_Success(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	user, err := f.idp.CreateUser(ctx, idp.CreateUserParams{Email: "cook@example.com", Password: "secret1", DisplayName: "Cook"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	id, err := f.svc.Password("cook@example.com", "secret1").Verify(ctx)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id.Key != user.UID.String() || id.Kind != iam.ProviderPassword {
		t.Errorf("identity = %+v", id)
	}
	if id.Claims.Email != "cook@example.com" || id.Claims.Name != "Cook" {
		t.Errorf("claims = %+v", id.Claims)
	}
}

func TestPassword_FailuresCollapse(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.idp.CreateUser(ctx, idp.CreateUserParams{Email: "cook@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	_, wrongPassword := f.svc.Password("cook@example.com", "nope").Verify(ctx)
	_, unknownUser := f.svc.Password("ghost@example.com", "secret1").Verify(ctx)

	for name, err := range map[string]error{"wrong password": wrongPassword, "unknown user": unknownUser} {
		if !errx.HasCode(err, credential.CodeInvalidCredentials) {
			t.Errorf("%s: err = %v, want CREDENTIAL_INVALID_CREDENTIALS", name, err)
		}
		if errx.StatusOf(err) != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", name, errx.StatusOf(err))
		}
	}
	if wrongPassword.Error() != unknownUser.Error() {
		t.Errorf("messages differ: %q vs %q", wrongPassword.Error(), unknownUser.Error())
	}
}

func TestPassword_ProviderOutageIsNotInvalidCredentials(t *testing.T) {
	f := newFixture()
	f.idp.FailOn(idptest.OpVerifyPassword, errors.New("connection reset"))

	_, err := f.svc.Password("cook@example.com", "secret1").Verify(context.Background())
	if !idp.IsUnavailable(err) {
		t.Fatalf("err = %v, want IDP_UNAVAILABLE", err)
	}
}

func TestGoogle(t *testing.T) {
	f := newFixture()
	f.idp.AddIDToken(iam.ProviderGoogle, "good-token", idp.IDTokenClaims{
		Subject:       "1098765",
		Email:         "cook@example.com",
		EmailVerified: true,
		Name:          "Home Cook",
		Picture:       "https://example.com/cook.png",
	})

	id, err := f.svc.Google("good-token").Verify(context.Background())
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id.Key != "google:1098765" || id.Kind != iam.ProviderGoogle || id.Claims.PhotoURL == "" {
		t.Errorf("identity = %+v", id)
	}

	_, err = f.svc.Google("forged").Verify(context.Background())
	if !errx.HasCode(err, credential.CodeFederatedFailed) {
		t.Fatalf("err = %v, want CREDENTIAL_FEDERATED_FAILED", err)
	}
	if errx.PublicMessage(err, "") != "Google authentication failed" {
		t.Errorf("message = %q", errx.PublicMessage(err, ""))
	}
	if errx.StatusOf(err) != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", errx.StatusOf(err))
	}
}

func TestApple_NameHintFillsMissingName(t *testing.T) {
	f := newFixture()
	f.idp.AddIDToken(iam.ProviderApple, "apple-token", idp.IDTokenClaims{Subject: "001234.abcd", Email: "cook@privaterelay.appleid.com"})

	id, err := f.svc.Apple("apple-token", "Jane Cook").Verify(context.Background())
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id.Claims.Name != "Jane Cook" || id.Key != "apple:001234.abcd" {
		t.Errorf("identity = %+v", id)
	}

	// A Google token is not an Apple token.
	_, err = f.svc.Google("apple-token").Verify(context.Background())
	if !errx.HasCode(err, credential.CodeFederatedFailed) {
		t.Fatalf("cross-provider token accepted: %v", err)
	}
}

func TestPhoneOTP(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	phone := kernel.PhoneNumber("+94771234567")

	if err := f.otps.Issue(ctx, phone); err != nil {
		t.Fatalf("Issue: %v", err)
	}

	_, err := f.svc.PhoneOTP(phone, "000000").Verify(ctx)
	if !errx.HasCode(err, otp.CodeInvalidCode) {
		t.Fatalf("wrong code err = %v, want OTP_INVALID_CODE", err)
	}

	id, err := f.svc.PhoneOTP(phone, "483920").Verify(ctx)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id.Key != "+94771234567" || id.Kind != iam.ProviderPhone || id.Claims.PhoneNumber != "+94771234567" {
		t.Errorf("identity = %+v", id)
	}
	if id.Claims.Email != "" || id.Claims.Name != "" {
		t.Errorf("phone identity carries extra claims: %+v", id.Claims)
	}

	_, err = f.svc.PhoneOTP(phone, "483920").Verify(ctx)
	if !errx.HasCode(err, otp.CodeChallengeNotFound) {
		t.Fatalf("replay err = %v, want OTP_NOT_FOUND", err)
	}
}
