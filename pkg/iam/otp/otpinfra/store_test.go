package otpinfra_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Abraxas-365/flavormind/pkg/errx"
	"github.com/Abraxas-365/flavormind/pkg/iam/otp"
	"github.com/Abraxas-365/flavormind/pkg/iam/otp/otpinfra"
	"github.com/Abraxas-365/flavormind/pkg/kernel"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const phone kernel.PhoneNumber = "+94771234567"

// miniredis expires keys against the wall clock, so challenges start now.
var t0 = time.Now().UTC().Truncate(time.Second)

func newRedisStore(t *testing.T) (*otpinfra.RedisChallengeStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return otpinfra.NewRedisChallengeStore(rdb), mr
}

// forEachStore runs fn against every ChallengeStore implementation.
func forEachStore(t *testing.T, fn func(t *testing.T, store otp.ChallengeStore)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, otpinfra.NewMemoryChallengeStore())
	})
	t.Run("redis", func(t *testing.T) {
		store, _ := newRedisStore(t)
		fn(t, store)
	})
}

func save(t *testing.T, store otp.ChallengeStore, code string) {
	t.Helper()
	if err := store.Save(context.Background(), otp.NewChallenge(phone, code, t0, otp.DefaultTTL)); err != nil {
		t.Fatalf("save: %v", err)
	}
}

func TestSaveOverwritesPreviousChallenge(t *testing.T) {
	forEachStore(t, func(t *testing.T, store otp.ChallengeStore) {
		ctx := context.Background()
		save(t, store, "111111")

		// one wrong guess on the old challenge must not carry over
		if outcome, _, _ := store.Attempt(ctx, phone, "999999", t0.Add(time.Second), 3); outcome != otp.OutcomeMismatch {
			t.Fatalf("want mismatch, got %v", outcome)
		}
		save(t, store, "222222")

		got, err := store.Get(ctx, phone)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Code != "222222" || got.Attempts != 0 {
			t.Fatalf("challenge not replaced: %+v", got)
		}
		if outcome, _, _ := store.Attempt(ctx, phone, "111111", t0.Add(2*time.Second), 3); outcome != otp.OutcomeMismatch {
			t.Fatalf("old code must be rejected, got %v", outcome)
		}
	})
}

func TestAttemptMatchConsumesChallenge(t *testing.T) {
	forEachStore(t, func(t *testing.T, store otp.ChallengeStore) {
		ctx := context.Background()
		save(t, store, "483920")

		outcome, c, err := store.Attempt(ctx, phone, "000000", t0.Add(10*time.Second), 3)
		if err != nil || outcome != otp.OutcomeMismatch {
			t.Fatalf("want mismatch, got %v %v", outcome, err)
		}
		if c.Attempts != 1 {
			t.Fatalf("attempts = %d, want 1", c.Attempts)
		}

		outcome, _, err = store.Attempt(ctx, phone, "483920", t0.Add(20*time.Second), 3)
		if err != nil || outcome != otp.OutcomeMatched {
			t.Fatalf("want matched, got %v %v", outcome, err)
		}

		outcome, c, err = store.Attempt(ctx, phone, "483920", t0.Add(25*time.Second), 3)
		if err != nil || outcome != otp.OutcomeNotFound || c != nil {
			t.Fatalf("replay must be not found, got %v %v", outcome, err)
		}
		if _, err := store.Get(ctx, phone); !errx.HasCode(err, otp.CodeChallengeNotFound) {
			t.Fatalf("challenge should be gone, got %v", err)
		}
	})
}

func TestAttemptExhaustion(t *testing.T) {
	forEachStore(t, func(t *testing.T, store otp.ChallengeStore) {
		ctx := context.Background()
		save(t, store, "483920")

		for i := 1; i <= 3; i++ {
			outcome, c, err := store.Attempt(ctx, phone, "000000", t0.Add(time.Duration(i)*time.Second), 3)
			if err != nil || outcome != otp.OutcomeMismatch || c.Attempts != i {
				t.Fatalf("guess %d: outcome %v attempts %v err %v", i, outcome, c, err)
			}
		}

		outcome, _, err := store.Attempt(ctx, phone, "483920", t0.Add(5*time.Second), 3)
		if err != nil || outcome != otp.OutcomeExhausted {
			t.Fatalf("fourth attempt must be exhausted, got %v %v", outcome, err)
		}
		if _, err := store.Get(ctx, phone); !errx.HasCode(err, otp.CodeChallengeNotFound) {
			t.Fatalf("exhausted challenge should be deleted, got %v", err)
		}
	})
}

func TestAttemptExpired(t *testing.T) {
	forEachStore(t, func(t *testing.T, store otp.ChallengeStore) {
		ctx := context.Background()
		save(t, store, "483920")

		outcome, _, err := store.Attempt(ctx, phone, "483920", t0.Add(otp.DefaultTTL+time.Millisecond), 3)
		if err != nil || outcome != otp.OutcomeExpired {
			t.Fatalf("want expired, got %v %v", outcome, err)
		}
		if _, err := store.Get(ctx, phone); !errx.HasCode(err, otp.CodeChallengeNotFound) {
			t.Fatalf("expired challenge should be deleted, got %v", err)
		}
	})
}

func TestConcurrentWrongGuessesAreCounted(t *testing.T) {
	forEachStore(t, func(t *testing.T, store otp.ChallengeStore) {
		ctx := context.Background()
		save(t, store, "483920")

		const n = 2
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, _, err := store.Attempt(ctx, phone, "000000", t0.Add(time.Second), 3); err != nil {
					t.Errorf("attempt: %v", err)
				}
			}()
		}
		wg.Wait()

		got, err := store.Get(ctx, phone)
		if err != nil {
			t.Fatalf("challenge must survive %d wrong guesses: %v", n, err)
		}
		if got.Attempts != n {
			t.Fatalf("attempts = %d, want %d", got.Attempts, n)
		}
	})
}

func TestConcurrentGuessesNeverExceedLimit(t *testing.T) {
	forEachStore(t, func(t *testing.T, store otp.ChallengeStore) {
		ctx := context.Background()
		save(t, store, "483920")

		const n = 10
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			matched int
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				code := "000000"
				if i == n-1 {
					code = "483920"
				}
				outcome, _, err := store.Attempt(ctx, phone, code, t0.Add(time.Second), 3)
				if err != nil {
					t.Errorf("attempt: %v", err)
					return
				}
				if outcome == otp.OutcomeMatched {
					mu.Lock()
					matched++
					mu.Unlock()
				}
			}(i)
		}
		wg.Wait()

		if matched > 1 {
			t.Fatalf("code consumed %d times", matched)
		}
	})
}

func TestRedisSaveSetsRetentionTTL(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	c := otp.NewChallenge(phone, "483920", time.Now(), otp.DefaultTTL)
	if err := store.Save(ctx, c); err != nil {
		t.Fatalf("save: %v", err)
	}
	if ttl := mr.TTL("otp:challenge:" + phone.String()); ttl <= otp.DefaultTTL {
		t.Fatalf("ttl %v should outlive the challenge expiry", ttl)
	}
	if got := mr.HGet("otp:challenge:"+phone.String(), "code"); got != "483920" {
		t.Fatalf("stored code = %q", got)
	}
}

func TestRedisUnavailable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	store := otpinfra.NewRedisChallengeStore(rdb)

	err := store.Save(context.Background(), otp.NewChallenge(phone, "483920", t0, otp.DefaultTTL))
	if !errx.HasCode(err, otp.CodeStoreUnavailable) {
		t.Fatalf("want store unavailable, got %v", err)
	}
	if errx.StatusOf(err) != 500 {
		t.Fatalf("status = %d", errx.StatusOf(err))
	}
}
