package revocation

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache mirrors revoked session credentials in Redis so the validation hot
// path can reject them without a database round trip. Postgres remains the
// source of truth; entries here expire with the credential they shadow.
type Cache struct {
	redis *redis.Client
}

// NewCache creates a revocation cache on top of a Redis client
func NewCache(redisClient *redis.Client) *Cache {
	return &Cache{
		redis: redisClient,
	}
}

// MarkRevoked records a revoked credential hash until its natural expiry
func (c *Cache) MarkRevoked(ctx context.Context, tokenHash string, ttl time.Duration) error {
	if ttl <= 0 {
		// Already past expiry, nothing to shadow.
		return nil
	}

	key := fmt.Sprintf("revoked:token:%s", tokenHash)

	err := c.redis.Set(ctx, key, "1", ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to mark credential revoked: %w", err)
	}

	return nil
}

// IsRevoked checks whether a credential hash has been marked revoked
func (c *Cache) IsRevoked(ctx context.Context, tokenHash string) (bool, error) {
	key := fmt.Sprintf("revoked:token:%s", tokenHash)

	exists, err := c.redis.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check revocation cache: %w", err)
	}

	return exists > 0, nil
}

// MarkUserRevoked records a user-wide revocation marker; credentials issued
// before now are invalid. The marker outlives the longest credential TTL.
func (c *Cache) MarkUserRevoked(ctx context.Context, userID string, ttl time.Duration) error {
	key := fmt.Sprintf("revoked:user:%s", userID)

	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return c.redis.Set(ctx, key, time.Now().Unix(), ttl).Err()
}

// IsUserRevoked checks whether a credential issued at the given time falls
// before the user's revocation marker
func (c *Cache) IsUserRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error) {
	key := fmt.Sprintf("revoked:user:%s", userID)

	timestamp, err := c.redis.Get(ctx, key).Int64()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return issuedAt.Before(time.Unix(timestamp, 0)), nil
}
