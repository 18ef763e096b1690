package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRevoker(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC)

	m := NewMemoryRevoker()
	m.now = func() time.Time { return now }

	revoked, err := m.IsRevoked(ctx, "a")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, m.Revoke(ctx, "a", now.Add(time.Hour)))
	require.NoError(t, m.Revoke(ctx, "b", now.Add(time.Minute)))

	revoked, err = m.IsRevoked(ctx, "a")
	require.NoError(t, err)
	assert.True(t, revoked)

	now = now.Add(2 * time.Minute)

	revoked, err = m.IsRevoked(ctx, "b")
	require.NoError(t, err)
	assert.False(t, revoked, "expired tokens no longer need remembering")

	require.NoError(t, m.Revoke(ctx, "c", now.Add(time.Hour)))
	assert.Len(t, m.revoked, 2)
}

// TestRedisRevoker runs against a live server named by TEST_REDIS_ADDR.
func TestRedisRevoker(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR is not set")
	}

	ctx := context.Background()

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })

	r := NewRedisRevoker(client)
	id := uuid.NewString()

	revoked, err := r.IsRevoked(ctx, id)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, r.Revoke(ctx, id, time.Now().Add(time.Minute)))

	revoked, err = r.IsRevoked(ctx, id)
	require.NoError(t, err)
	assert.True(t, revoked)

	require.NoError(t, r.Revoke(ctx, "expired", time.Now().Add(-time.Minute)))

	revoked, err = r.IsRevoked(ctx, "expired")
	require.NoError(t, err)
	assert.False(t, revoked)
}
