package otpsrv_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Abraxas-365/flavormind/pkg/errx"
	"github.com/Abraxas-365/flavormind/pkg/iam/otp"
	"github.com/Abraxas-365/flavormind/pkg/iam/otp/otpinfra"
	"github.com/Abraxas-365/flavormind/pkg/iam/otp/otpsrv"
	"github.com/Abraxas-365/flavormind/pkg/kernel"
	"github.com/Abraxas-365/flavormind/pkg/notifx"
)

const phone kernel.PhoneNumber = "+94771234567"

type fakeSender struct {
	sent []notifx.CodeMessage
	err  error
}

func (f *fakeSender) SendCode(_ context.Context, msg notifx.CodeMessage) error {
	f.sent = append(f.sent, msg)
	return f.err
}

func sequence(codes ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		c := codes[i%len(codes)]
		i++
		return c, nil
	}
}

func newManager(codes ...string) (*otpsrv.Manager, *otpinfra.MemoryChallengeStore, *kernel.ManualClock, *fakeSender) {
	store := otpinfra.NewMemoryChallengeStore()
	clock := kernel.NewManualClock(time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC))
	sender := &fakeSender{}
	m := otpsrv.NewManager(store, sender, clock, otpsrv.DefaultConfig()).WithGenerator(sequence(codes...))
	return m, store, clock, sender
}

func TestIssueThenVerifyScenario(t *testing.T) {
	m, store, clock, sender := newManager("483920")
	ctx := context.Background()
	start := clock.Now()

	if err := m.Issue(ctx, phone); err != nil {
		t.Fatalf("issue: %v", err)
	}
	c, err := store.Get(ctx, phone)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if c.Code != "483920" || c.Attempts != 0 || !c.ExpiresAt.Equal(start.Add(300*time.Second)) {
		t.Fatalf("unexpected challenge: %+v", c)
	}
	if len(sender.sent) != 1 || sender.sent[0].Code != "483920" {
		t.Fatalf("code not delivered: %+v", sender.sent)
	}

	clock.Advance(10 * time.Second)
	err = m.Verify(ctx, phone, "000000")
	if !errx.HasCode(err, otp.CodeInvalidCode) {
		t.Fatalf("want invalid code, got %v", err)
	}
	if errx.StatusOf(err) != 400 {
		t.Fatalf("status = %d", errx.StatusOf(err))
	}
	if c, _ := store.Get(ctx, phone); c == nil || c.Attempts != 1 {
		t.Fatalf("attempt counter not incremented: %+v", c)
	}

	clock.Advance(10 * time.Second)
	if err := m.Verify(ctx, phone, "483920"); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if _, err := store.Get(ctx, phone); !errx.HasCode(err, otp.CodeChallengeNotFound) {
		t.Fatalf("challenge should be removed, got %v", err)
	}

	if err := m.Verify(ctx, phone, "483920"); !errx.HasCode(err, otp.CodeChallengeNotFound) {
		t.Fatalf("replay must be not found, got %v", err)
	}
}

func TestReissueInvalidatesOldCode(t *testing.T) {
	m, _, _, _ := newManager("111111", "222222")
	ctx := context.Background()

	_ = m.Issue(ctx, phone)
	_ = m.Issue(ctx, phone)

	if err := m.Verify(ctx, phone, "111111"); !errx.HasCode(err, otp.CodeInvalidCode) {
		t.Fatalf("old code must be rejected, got %v", err)
	}
	if err := m.Verify(ctx, phone, "222222"); err != nil {
		t.Fatalf("new code: %v", err)
	}
}

func TestThreeWrongCodesExhaust(t *testing.T) {
	m, store, _, _ := newManager("483920", "654321")
	ctx := context.Background()
	_ = m.Issue(ctx, phone)

	for i := 0; i < 3; i++ {
		if err := m.Verify(ctx, phone, "000000"); !errx.HasCode(err, otp.CodeInvalidCode) {
			t.Fatalf("guess %d: %v", i+1, err)
		}
	}

	err := m.Verify(ctx, phone, "483920")
	if !errx.HasCode(err, otp.CodeAttemptsExhausted) {
		t.Fatalf("fourth submission must be exhausted, got %v", err)
	}
	if _, err := store.Get(ctx, phone); !errx.HasCode(err, otp.CodeChallengeNotFound) {
		t.Fatalf("exhausted challenge must be gone")
	}

	if err := m.Issue(ctx, phone); err != nil {
		t.Fatalf("re-issue after exhaustion: %v", err)
	}
	if err := m.Verify(ctx, phone, "654321"); err != nil {
		t.Fatalf("fresh challenge: %v", err)
	}
}

func TestExpiredCode(t *testing.T) {
	m, store, clock, _ := newManager("483920")
	ctx := context.Background()
	_ = m.Issue(ctx, phone)

	clock.Advance(otp.DefaultTTL + time.Second)
	if err := m.Verify(ctx, phone, "483920"); !errx.HasCode(err, otp.CodeChallengeExpired) {
		t.Fatalf("want expired, got %v", err)
	}
	if _, err := store.Get(ctx, phone); !errx.HasCode(err, otp.CodeChallengeNotFound) {
		t.Fatalf("expired challenge must be deleted")
	}
}

func TestDeliveryFailureDoesNotFailIssue(t *testing.T) {
	m, store, _, sender := newManager("483920")
	sender.err = errors.New("sms gateway down")

	if err := m.Issue(context.Background(), phone); err != nil {
		t.Fatalf("issue must succeed when delivery fails: %v", err)
	}
	if _, err := store.Get(context.Background(), phone); err != nil {
		t.Fatalf("challenge must still be stored: %v", err)
	}
}

type brokenStore struct{ otp.ChallengeStore }

func (brokenStore) Save(context.Context, *otp.Challenge) error {
	return otp.ErrStoreUnavailable(errors.New("connection refused"))
}

func TestStorageFailureSurfaces(t *testing.T) {
	clock := kernel.NewManualClock(time.Now())
	m := otpsrv.NewManager(brokenStore{}, &fakeSender{}, clock, otpsrv.DefaultConfig())

	err := m.Issue(context.Background(), phone)
	if !errx.HasCode(err, otp.CodeStoreUnavailable) || errx.StatusOf(err) != 500 {
		t.Fatalf("want provider failure, got %v", err)
	}
}
