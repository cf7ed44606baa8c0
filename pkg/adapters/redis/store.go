// Package redis persists conversations in Redis and provides the
// distributed lock used by multi-instance deployments.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	backend "github.com/redis/go-redis/v9"

	"github.com/voyago/voyago/pkg/domain"
)

// DefaultPrefix namespaces all keys written by this store.
const DefaultPrefix = "voyago:"

// Store implements ports.ConversationStore on Redis. Each conversation is
// one JSON value; a set keeps the index of known IDs so List does not
// need SCAN.
type Store struct {
	client *backend.Client
	prefix string
}

// NewStore creates a Redis-backed store. An empty prefix falls back to
// DefaultPrefix.
func NewStore(client *backend.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) key(id string) string {
	return s.prefix + "conversation:" + id
}

func (s *Store) indexKey() string {
	return s.prefix + "conversations"
}

// Save writes the state and registers the ID in the index atomically.
func (s *Store) Save(ctx context.Context, conversationID string, state *domain.State) error {
	if conversationID == "" {
		return fmt.Errorf("conversationID cannot be empty")
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(conversationID), data, 0)
	pipe.SAdd(ctx, s.indexKey(), conversationID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	return nil
}

// Load retrieves and decodes the state.
func (s *Store) Load(ctx context.Context, conversationID string) (*domain.State, error) {
	data, err := s.client.Get(ctx, s.key(conversationID)).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, domain.ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	var state domain.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode conversation: %w", err)
	}
	if state.ProcessedTurns == nil {
		state.ProcessedTurns = make(map[string]string)
	}
	return &state, nil
}

// Delete removes the state and its index entry.
func (s *Store) Delete(ctx context.Context, conversationID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(conversationID))
	pipe.SRem(ctx, s.indexKey(), conversationID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}

// List returns the indexed conversation IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return ids, nil
}
