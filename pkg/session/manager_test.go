package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyago/voyago/pkg/domain"
	"github.com/voyago/voyago/pkg/session"
)

// slowStore simulates IO latency to provoke races if locking is missing.
type slowStore struct {
	mu   sync.Mutex
	data map[string]*domain.State
}

func (s *slowStore) Save(ctx context.Context, id string, state *domain.State) error {
	time.Sleep(10 * time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]*domain.State)
	}
	s.data[id] = state.Clone()
	return nil
}

func (s *slowStore) Load(ctx context.Context, id string) (*domain.State, error) {
	time.Sleep(10 * time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()

	if state, ok := s.data[id]; ok {
		return state.Clone(), nil
	}
	return nil, domain.ErrConversationNotFound
}

func (s *slowStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

func (s *slowStore) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.data))
	for id := range s.data {
		out = append(out, id)
	}
	return out, nil
}

func newState(id string) *domain.State {
	return domain.NewState(id, domain.DefaultSlotOrder())
}

func TestManager_SerializesWrites(t *testing.T) {
	store := &slowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "race-test"

	require.NoError(t, manager.Save(ctx, id, newState(id)))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, manager.Save(ctx, id, newState(id)))
		}()
	}
	wg.Wait()
}

func TestManager_LoadOrStart(t *testing.T) {
	store := &slowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "atomic-init"

	// Two goroutines racing to initialize the same conversation must not
	// both create it.
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			state, err := manager.LoadOrStart(ctx, id, func() *domain.State { return newState(id) })
			assert.NoError(t, err)
			assert.NotNil(t, state)
		}()
	}
	wg.Wait()

	state, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, state.ID)
	assert.Equal(t, domain.PhaseCollecting, state.Phase)
}

func TestManager_LoadNotFound(t *testing.T) {
	manager := session.NewManager(&slowStore{})
	_, err := manager.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrConversationNotFound)
}

func TestManager_DeleteAndList(t *testing.T) {
	store := &slowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()

	require.NoError(t, manager.Save(ctx, "a", newState("a")))
	require.NoError(t, manager.Save(ctx, "b", newState("b")))

	ids, err := manager.List(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	require.NoError(t, manager.Delete(ctx, "a"))
	_, err = manager.Load(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrConversationNotFound)
}
