package otpinfra

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Abraxas-365/flavormind/pkg/iam/otp"
	"github.com/Abraxas-365/flavormind/pkg/kernel"
	"github.com/redis/go-redis/v9"
)

// expiredRetention keeps a challenge readable past its expiry so a late
// attempt reports Expired instead of NotFound. Redis drops it afterwards.
const expiredRetention = 10 * time.Minute

// RedisChallengeStore keeps each challenge in a hash under otp:challenge:{phone}.
type RedisChallengeStore struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewRedisChallengeStore(rdb redis.UniversalClient) *RedisChallengeStore {
	return &RedisChallengeStore{rdb: rdb, prefix: "otp:challenge:"}
}

func (s *RedisChallengeStore) key(phone kernel.PhoneNumber) string {
	return s.prefix + phone.String()
}

// Save replaces any existing challenge for the phone in one transaction.
func (s *RedisChallengeStore) Save(ctx context.Context, c *otp.Challenge) error {
	key := s.key(c.PhoneNumber)
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			"phone", c.PhoneNumber.String(),
			"code", c.Code,
			"created_at", c.CreatedAt.UnixMilli(),
			"expires_at", c.ExpiresAt.UnixMilli(),
			"attempts", c.Attempts,
		)
		pipe.PExpireAt(ctx, key, c.ExpiresAt.Add(expiredRetention))
		return nil
	})
	if err != nil {
		return otp.ErrStoreUnavailable(err).WithDetail("op", "save")
	}
	return nil
}

func (s *RedisChallengeStore) Get(ctx context.Context, phone kernel.PhoneNumber) (*otp.Challenge, error) {
	fields, err := s.rdb.HGetAll(ctx, s.key(phone)).Result()
	if err != nil {
		return nil, otp.ErrStoreUnavailable(err).WithDetail("op", "get")
	}
	if len(fields) == 0 {
		return nil, otp.ErrChallengeNotFound()
	}

	c, err := decodeChallenge(phone, fields["code"], fields["created_at"], fields["expires_at"], fields["attempts"])
	if err != nil {
		return nil, otp.ErrStoreUnavailable(err).WithDetail("op", "get")
	}
	return c, nil
}

func (s *RedisChallengeStore) Delete(ctx context.Context, phone kernel.PhoneNumber) error {
	if err := s.rdb.Del(ctx, s.key(phone)).Err(); err != nil {
		return otp.ErrStoreUnavailable(err).WithDetail("op", "delete")
	}
	return nil
}

// attemptScript mirrors otp.Challenge.Evaluate. The mismatch branch uses
// HINCRBY so concurrent wrong guesses never lose an increment.
//
// KEYS[1] = challenge key
// ARGV[1] = submitted code, ARGV[2] = now (unix ms), ARGV[3] = max attempts
var attemptScript = redis.NewScript(`
local h = redis.call('HMGET', KEYS[1], 'code', 'created_at', 'expires_at', 'attempts')
if not h[1] then
  return {'not_found'}
end

local now = tonumber(ARGV[2])
local maxAttempts = tonumber(ARGV[3])
local expiresAt = tonumber(h[3])
local attempts = tonumber(h[4])

if now > expiresAt then
  redis.call('DEL', KEYS[1])
  return {'expired', h[1], h[2], h[3], h[4]}
end

if attempts >= maxAttempts then
  redis.call('DEL', KEYS[1])
  return {'exhausted', h[1], h[2], h[3], h[4]}
end

if h[1] ~= ARGV[1] then
  local n = redis.call('HINCRBY', KEYS[1], 'attempts', 1)
  return {'mismatch', h[1], h[2], h[3], tostring(n)}
end

redis.call('DEL', KEYS[1])
return {'matched', h[1], h[2], h[3], h[4]}
`)

var outcomes = map[string]otp.Outcome{
	"not_found": otp.OutcomeNotFound,
	"expired":   otp.OutcomeExpired,
	"exhausted": otp.OutcomeExhausted,
	"mismatch":  otp.OutcomeMismatch,
	"matched":   otp.OutcomeMatched,
}

func (s *RedisChallengeStore) Attempt(ctx context.Context, phone kernel.PhoneNumber, code string, now time.Time, maxAttempts int) (otp.Outcome, *otp.Challenge, error) {
	res, err := attemptScript.Run(ctx, s.rdb, []string{s.key(phone)}, code, now.UnixMilli(), maxAttempts).StringSlice()
	if err != nil {
		return otp.OutcomeNotFound, nil, otp.ErrStoreUnavailable(err).WithDetail("op", "attempt")
	}
	if len(res) == 0 {
		return otp.OutcomeNotFound, nil, otp.ErrStoreUnavailable(errors.New("empty script reply")).WithDetail("op", "attempt")
	}

	outcome, ok := outcomes[res[0]]
	if !ok {
		return otp.OutcomeNotFound, nil, otp.ErrStoreUnavailable(fmt.Errorf("unknown outcome %q", res[0])).WithDetail("op", "attempt")
	}
	if outcome == otp.OutcomeNotFound {
		return outcome, nil, nil
	}
	if len(res) != 5 {
		return outcome, nil, otp.ErrStoreUnavailable(fmt.Errorf("short script reply: %d fields", len(res))).WithDetail("op", "attempt")
	}

	c, err := decodeChallenge(phone, res[1], res[2], res[3], res[4])
	if err != nil {
		return outcome, nil, otp.ErrStoreUnavailable(err).WithDetail("op", "attempt")
	}
	return outcome, c, nil
}

func decodeChallenge(phone kernel.PhoneNumber, code, createdAt, expiresAt, attempts string) (*otp.Challenge, error) {
	created, err := strconv.ParseInt(createdAt, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("created_at: %w", err)
	}
	expires, err := strconv.ParseInt(expiresAt, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("expires_at: %w", err)
	}
	n, err := strconv.Atoi(attempts)
	if err != nil {
		return nil, fmt.Errorf("attempts: %w", err)
	}
	return &otp.Challenge{
		PhoneNumber: phone,
		Code:        code,
		CreatedAt:   time.UnixMilli(created).UTC(),
		ExpiresAt:   time.UnixMilli(expires).UTC(),
		Attempts:    n,
	}, nil
}
