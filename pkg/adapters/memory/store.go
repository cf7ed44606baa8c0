// Package memory provides an in-memory ConversationStore, used by tests
// and the default CLI chat session.
package memory

import (
	"context"
	"sync"

	"github.com/voyago/voyago/pkg/domain"
)

// Store implements ports.ConversationStore in memory.
// Safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	data map[string]*domain.State
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{data: make(map[string]*domain.State)}
}

// Save persists a deep copy of the state, mirroring the isolation a
// serializing store would give.
func (s *Store) Save(ctx context.Context, conversationID string, state *domain.State) error {
	copied := state.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[conversationID] = copied
	return nil
}

// Load returns a copy so the caller cannot mutate stored state by pointer.
func (s *Store) Load(ctx context.Context, conversationID string) (*domain.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.data[conversationID]
	if !ok {
		return nil, domain.ErrConversationNotFound
	}
	return state.Clone(), nil
}

// Delete removes the conversation.
func (s *Store) Delete(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, conversationID)
	return nil
}

// List returns all known conversation IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}
