package session_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/Abraxas-365/flavormind/pkg/errx"
	"github.com/Abraxas-365/flavormind/pkg/iam/idp"
	"github.com/Abraxas-365/flavormind/pkg/iam/idp/idptest"
	"github.com/Abraxas-365/flavormind/pkg/iam/session"
	"github.com/Abraxas-365/flavormind/pkg/kernel"
)

func TestIssuer_MintThenRevokeAll(t *testing.T) {
	clock := kernel.NewManualClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	fake := idptest.New(clock)
	issuer := session.NewIssuer(idp.Translated(fake))
	ctx := context.Background()

	a, err := issuer.Mint(ctx, "uid-1", "cook@example.com")
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	clock.Advance(time.Second)
	b, _ := issuer.Mint(ctx, "uid-1", "cook@example.com")
	if a == b {
		t.Fatal("two mints returned the same token")
	}

	claims, err := fake.VerifyToken(ctx, b.String())
	if err != nil || claims.UID != "uid-1" {
		t.Fatalf("VerifyToken = %+v, %v", claims, err)
	}

	clock.Advance(time.Second)
	if err := issuer.RevokeAll(ctx, "uid-1"); err != nil {
		t.Fatalf("RevokeAll: %v", err)
	}
	for _, tok := range []session.Token{a, b} {
		if _, err := fake.VerifyToken(ctx, tok.String()); err == nil {
			t.Errorf("token survived RevokeAll")
		}
	}
}

func TestIssuer_ProviderFailure(t *testing.T) {
	fake := idptest.New(kernel.SystemClock{})
	issuer := session.NewIssuer(idp.Translated(fake))
	boom := errors.New("provider down")

	fake.FailOn(idptest.OpMintToken, boom)
	if _, err := issuer.Mint(context.Background(), "uid-1", ""); !errx.HasCode(err, session.CodeProviderUnavailable) {
		t.Fatalf("Mint err = %v, want SESSION_PROVIDER_UNAVAILABLE", err)
	}

	fake.FailOn(idptest.OpRevokeTokens, boom)
	err := issuer.RevokeAll(context.Background(), "uid-1")
	if !errx.HasCode(err, session.CodeProviderUnavailable) {
		t.Fatalf("RevokeAll err = %v, want SESSION_PROVIDER_UNAVAILABLE", err)
	}
	if errx.StatusOf(err) != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", errx.StatusOf(err))
	}
	if n := fake.Calls(idptest.OpRevokeTokens); n != 1 {
		t.Errorf("RevokeTokens calls = %d, want 1 (no retry)", n)
	}
}
