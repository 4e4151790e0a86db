package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Blacklist records revoked token identifiers until their natural expiry.
// The TTL passed to Revoke must equal the remaining lifetime of the token
// being revoked, so entries never outlive the token they block and the
// store self-cleans without a sweep process.
type Blacklist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

const blacklistKeyPrefix = "blacklist:"

type redisBlacklist struct {
	client *redis.Client
}

var _ Blacklist = (*redisBlacklist)(nil)

// NewRedisBlacklist returns a Blacklist backed by Redis, keyed
// blacklist:<jti> with the entry value "1".
func NewRedisBlacklist(client *redis.Client) Blacklist {
	return &redisBlacklist{client: client}
}

func (b *redisBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		// The token is already expired; there is nothing left to block.
		return nil
	}
	return b.client.Set(ctx, blacklistKeyPrefix+jti, "1", ttl).Err()
}

func (b *redisBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, blacklistKeyPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
