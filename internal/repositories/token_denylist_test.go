package repositories

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeRedis overrides the two commands the denylist uses
type fakeRedis struct {
	redis.Cmdable
	keys map[string]time.Duration
	err  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{keys: make(map[string]time.Duration)}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx, "set", key, value)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	f.keys[key] = expiration
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeRedis) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx, "exists")
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	var n int64
	for _, key := range keys {
		if _, ok := f.keys[key]; ok {
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func TestTokenDenylist_Revoke(t *testing.T) {
	tests := []struct {
		name          string
		tokenID       string
		expiresAt     time.Time
		redisErr      error
		expectStored  bool
		expectedError bool
	}{
		{
			name:         "stores until expiry",
			tokenID:      "jti-1",
			expiresAt:    time.Now().Add(30 * time.Minute),
			expectStored: true,
		},
		{
			name:      "expired token is skipped",
			tokenID:   "jti-2",
			expiresAt: time.Now().Add(-time.Minute),
		},
		{
			name:      "empty token id is skipped",
			expiresAt: time.Now().Add(time.Minute),
		},
		{
			name:          "redis error",
			tokenID:       "jti-3",
			expiresAt:     time.Now().Add(time.Minute),
			redisErr:      errors.New("connection refused"),
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newFakeRedis()
			client.err = tt.redisErr
			denylist := NewTokenDenylist(client, zap.NewNop())

			err := denylist.Revoke(context.Background(), tt.tokenID, tt.expiresAt)

			if tt.expectedError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			ttl, stored := client.keys[denylistKeyPrefix+tt.tokenID]
			assert.Equal(t, tt.expectStored, stored)
			if tt.expectStored {
				assert.InDelta(t, time.Until(tt.expiresAt).Seconds(), ttl.Seconds(), 2)
			}
		})
	}
}

func TestTokenDenylist_IsRevoked(t *testing.T) {
	client := newFakeRedis()
	denylist := NewTokenDenylist(client, zap.NewNop())
	require.NoError(t, denylist.Revoke(context.Background(), "jti-1", time.Now().Add(time.Hour)))

	revoked, err := denylist.IsRevoked(context.Background(), "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = denylist.IsRevoked(context.Background(), "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)

	client.err = errors.New("connection refused")
	_, err = denylist.IsRevoked(context.Background(), "jti-1")
	assert.Error(t, err)
}

func TestTokenDenylist_Redis(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if testing.Short() || addr == "" {
		t.Skip("Skipping redis test: TEST_REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	require.NoError(t, client.Ping(context.Background()).Err())

	denylist := NewTokenDenylist(client, zap.NewNop())
	tokenID := "integration-" + time.Now().Format(time.RFC3339Nano)

	require.NoError(t, denylist.Revoke(context.Background(), tokenID, time.Now().Add(time.Minute)))
	defer client.Del(context.Background(), denylistKeyPrefix+tokenID)

	revoked, err := denylist.IsRevoked(context.Background(), tokenID)
	require.NoError(t, err)
	assert.True(t, revoked)

	ttl, err := client.TTL(context.Background(), denylistKeyPrefix+tokenID).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
