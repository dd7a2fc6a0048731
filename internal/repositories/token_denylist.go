package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const denylistKeyPrefix = "todoapp:revoked:"

// tokenDenylist records revoked session token ids in redis until the token would have expired anyway
type tokenDenylist struct {
	client redis.Cmdable
	logger *zap.Logger
}

// NewTokenDenylist creates a new redis backed token denylist
func NewTokenDenylist(client redis.Cmdable, logger *zap.Logger) *tokenDenylist {
	return &tokenDenylist{
		client: client,
		logger: logger,
	}
}

// Revoke marks tokenID as revoked until expiresAt.
// An already expired token needs no entry.
func (d *tokenDenylist) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if tokenID == "" || ttl <= 0 {
		return nil
	}

	if err := d.client.Set(ctx, denylistKeyPrefix+tokenID, 1, ttl).Err(); err != nil {
		d.logger.Error("failed to revoke token", zap.Error(err), zap.String("token_id", tokenID))
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	return nil
}

// IsRevoked reports whether tokenID was revoked
func (d *tokenDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.client.Exists(ctx, denylistKeyPrefix+tokenID).Result()
	if err != nil {
		d.logger.Error("failed to check token revocation", zap.Error(err), zap.String("token_id", tokenID))
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}

	return n > 0, nil
}
