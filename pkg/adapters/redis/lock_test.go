package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/coldline/pkg/adapters/redis"
)

func TestLocker_AcquireAndRelease(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	locker := redis.NewLocker(client, "coldline:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "call-1", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("coldline:lock:call-1"))

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("coldline:lock:call-1"))
}

func TestLocker_BlocksSecondHolder(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	locker := redis.NewLocker(client, "coldline:")

	unlock, err := locker.Lock(context.Background(), "call-1", 5*time.Second)
	require.NoError(t, err)
	defer func() { _ = unlock(context.Background()) }()

	// A second acquisition must wait until the context gives up.
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	_, err = locker.Lock(ctx, "call-1", 5*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
