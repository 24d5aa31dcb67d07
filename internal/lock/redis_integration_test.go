package lock

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLockIntegration(t *testing.T) {
	url := os.Getenv("LOCK_REDIS_URL")
	if url == "" {
		t.Skip("LOCK_REDIS_URL must be set to run this test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := NewRedisClient(ctx, url)
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	key := "job-sync:test:" + uuid.NewString()
	first := NewRedis(client, key, time.Minute)
	second := NewRedis(client, key, time.Minute)

	release, ok, err := first.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = second.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, release(ctx))

	release2, ok, err := second.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	// a stale release must not drop the current holder's lease
	require.NoError(t, release(ctx))
	_, ok, _ = first.TryLock(ctx)
	assert.False(t, ok)

	require.NoError(t, release2(ctx))
}
