package session_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyago/voyago/pkg/ports"
	"github.com/voyago/voyago/pkg/session"
)

type fakeLocker struct {
	locks   atomic.Int32
	unlocks atomic.Int32
	fail    bool
}

func (f *fakeLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	if f.fail {
		return nil, errors.New("lock held elsewhere")
	}
	f.locks.Add(1)
	return func(ctx context.Context) error {
		f.unlocks.Add(1)
		return nil
	}, nil
}

func TestWithLock_UsesDistributedLocker(t *testing.T) {
	locker := &fakeLocker{}
	manager := session.NewManager(&slowStore{}, session.WithLocker(locker))

	err := manager.WithLock(context.Background(), "conv", func(ctx context.Context) error {
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), locker.locks.Load())
	assert.Equal(t, int32(1), locker.unlocks.Load())
}

func TestWithLock_PropagatesLockFailure(t *testing.T) {
	manager := session.NewManager(&slowStore{}, session.WithLocker(&fakeLocker{fail: true}))

	called := false
	err := manager.WithLock(context.Background(), "conv", func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, called)
}
