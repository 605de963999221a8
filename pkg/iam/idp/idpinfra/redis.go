package idpinfra

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/Abraxas-365/flavormind/pkg/iam/idp"
	"github.com/Abraxas-365/flavormind/pkg/kernel"
	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "idp:revoked:"

// RedisRevocationStore keeps watermarks as unix milliseconds under
// idp:revoked:{uid}.
type RedisRevocationStore struct {
	client redis.UniversalClient
}

func NewRedisRevocationStore(client redis.UniversalClient) *RedisRevocationStore {
	return &RedisRevocationStore{client: client}
}

func (s *RedisRevocationStore) Revoke(ctx context.Context, uid kernel.AccountID, at time.Time, ttl time.Duration) error {
	if err := s.client.Set(ctx, revokedKeyPrefix+uid.String(), at.UnixMilli(), ttl).Err(); err != nil {
		return idp.Fail(idp.CodeInternal, "revoke", err)
	}
	return nil
}

func (s *RedisRevocationStore) RevokedAt(ctx context.Context, uid kernel.AccountID) (time.Time, error) {
	raw, err := s.client.Get(ctx, revokedKeyPrefix+uid.String()).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, idp.Fail(idp.CodeInternal, "revoked_at", err)
	}

	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, idp.Fail(idp.CodeInternal, "revoked_at", err)
	}
	return time.UnixMilli(ms).UTC(), nil
}
