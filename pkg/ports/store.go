package ports

import (
	"context"

	"github.com/voyago/voyago/pkg/domain"
)

// ConversationStore defines the interface for persisting conversation
// state. This allows durable intake sessions that survive process crashes.
type ConversationStore interface {
	// Save persists the state for a given conversation ID.
	Save(ctx context.Context, conversationID string, state *domain.State) error

	// Load retrieves the state for a given conversation ID.
	// Returns domain.ErrConversationNotFound if the conversation does not
	// exist.
	Load(ctx context.Context, conversationID string) (*domain.State, error)

	// Delete removes the state for a given conversation ID.
	Delete(ctx context.Context, conversationID string) error

	// List returns all known conversation IDs.
	List(ctx context.Context) ([]string, error)
}

// Recoverable is an optional extension implemented by stores that can
// report how a snapshot was brought back (main file, backup fallback, or a
// hard failure). The engine type-asserts for it at session start.
type Recoverable interface {
	// Restore loads a conversation together with recovery metadata. A store
	// with backups may return a usable state even when the main snapshot is
	// corrupt.
	Restore(ctx context.Context, conversationID string) (*domain.State, domain.RecoveryInfo, error)
}
