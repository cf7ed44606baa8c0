package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisadapter "github.com/voyago/voyago/pkg/adapters/redis"
	"github.com/voyago/voyago/pkg/ports/tests"
)

func newTestClient(t *testing.T) *backend.Client {
	t.Helper()
	srv := miniredis.RunT(t)
	return backend.NewClient(&backend.Options{Addr: srv.Addr()})
}

func TestStore_Contract(t *testing.T) {
	store := redisadapter.NewStore(newTestClient(t), "voyago-test:")
	tests.RunConversationStoreContract(t, store)
}

func TestLocker_MutualExclusion(t *testing.T) {
	client := newTestClient(t)
	locker := redisadapter.NewLocker(client, "voyago-test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "conv-1", time.Minute)
	require.NoError(t, err)

	// A second acquisition must block until the context gives up.
	shortCtx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(shortCtx, "conv-1", time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// Released lock is immediately acquirable again.
	require.NoError(t, unlock(ctx))
	unlock2, err := locker.Lock(ctx, "conv-1", time.Minute)
	require.NoError(t, err)
	require.NoError(t, unlock2(ctx))
}

func TestLocker_IndependentKeys(t *testing.T) {
	locker := redisadapter.NewLocker(newTestClient(t), "voyago-test:")
	ctx := context.Background()

	unlockA, err := locker.Lock(ctx, "conv-a", time.Minute)
	require.NoError(t, err)
	defer func() { _ = unlockA(ctx) }()

	unlockB, err := locker.Lock(ctx, "conv-b", time.Minute)
	require.NoError(t, err)
	require.NoError(t, unlockB(ctx))
}
