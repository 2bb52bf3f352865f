package redis_repo

import (
	"context"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/devstore/internal/domain/model"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniRedisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestCartLocker(t *testing.T) {
	ctx := context.Background()
	mr, client := newMiniRedisClient(t)
	locker := NewCartLocker(client, time.Second)

	release, err := locker.Acquire(ctx, "cart-1")
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "cart-1")
	assert.ErrorIs(t, err, ErrCartLocked)
	assert.True(t, model.IsRetryable(err))

	// 不同購物車互不影響
	releaseOther, err := locker.Acquire(ctx, "cart-2")
	require.NoError(t, err)
	require.NoError(t, releaseOther(ctx))

	require.NoError(t, release(ctx))

	release, err = locker.Acquire(ctx, "cart-1")
	require.NoError(t, err)

	// 租約過期後可以被重新取得，舊持有者釋放不影響新持有者
	mr.FastForward(2 * time.Second)
	releaseNew, err := locker.Acquire(ctx, "cart-1")
	require.NoError(t, err)
	require.NoError(t, release(ctx))

	_, err = locker.Acquire(ctx, "cart-1")
	assert.ErrorIs(t, err, ErrCartLocked)
	require.NoError(t, releaseNew(ctx))
}

func TestProcessedEventCache(t *testing.T) {
	ctx := context.Background()
	mr, client := newMiniRedisClient(t)
	cache := NewProcessedEventCache(client, time.Minute)

	ok, err := cache.IsProcessed(ctx, "CartCheckedOut:evt-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.MarkProcessed(ctx, "CartCheckedOut:evt-1"))

	ok, err = cache.IsProcessed(ctx, "CartCheckedOut:evt-1")
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(2 * time.Minute)
	ok, err = cache.IsProcessed(ctx, "CartCheckedOut:evt-1")
	require.NoError(t, err)
	assert.False(t, ok)
}
