package otp_test

import (
	"strconv"
	"testing"
	"time"

	"github.com/Abraxas-365/flavormind/pkg/iam/otp"
)

func TestGenerateCodeRange(t *testing.T) {
	for i := 0; i < 500; i++ {
		code, err := otp.GenerateCode()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("code %q is not 6 digits", code)
		}
		n, err := strconv.Atoi(code)
		if err != nil || n < 100000 || n > 999999 {
			t.Fatalf("code %q out of range", code)
		}
	}
}

func TestEvaluateOrder(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	c := otp.NewChallenge("+94771234567", "483920", start, otp.DefaultTTL)
	if got := c.Evaluate("000000", start.Add(10*time.Second), 3); got != otp.OutcomeMismatch {
		t.Fatalf("want mismatch, got %v", got)
	}
	if c.Attempts != 1 {
		t.Fatalf("attempts = %d, want 1", c.Attempts)
	}
	if got := c.Evaluate("483920", start.Add(20*time.Second), 3); got != otp.OutcomeMatched {
		t.Fatalf("want matched, got %v", got)
	}

	exhausted := otp.NewChallenge("+94771234567", "483920", start, otp.DefaultTTL)
	exhausted.Attempts = 3
	if got := exhausted.Evaluate("483920", start.Add(time.Minute), 3); got != otp.OutcomeExhausted {
		t.Fatalf("correct code after exhaustion must fail, got %v", got)
	}

	expired := otp.NewChallenge("+94771234567", "483920", start, otp.DefaultTTL)
	expired.Attempts = 3
	if got := expired.Evaluate("483920", start.Add(otp.DefaultTTL+time.Second), 3); got != otp.OutcomeExpired {
		t.Fatalf("expiry wins over attempt count, got %v", got)
	}
}

func TestAttemptsRemaining(t *testing.T) {
	c := otp.NewChallenge("0771234567", "123456", time.Now(), otp.DefaultTTL)
	c.Attempts = 2
	if got := c.AttemptsRemaining(3); got != 1 {
		t.Fatalf("remaining = %d", got)
	}
	c.Attempts = 5
	if got := c.AttemptsRemaining(3); got != 0 {
		t.Fatalf("remaining = %d", got)
	}
}
