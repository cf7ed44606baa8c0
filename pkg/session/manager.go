package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/voyago/voyago/internal/logging"
	"github.com/voyago/voyago/pkg/domain"
	"github.com/voyago/voyago/pkg/ports"
)

// lockEntry holds the per-conversation mutex and its reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager serializes access per conversation id. Turns for one
// conversation run one at a time; different conversations proceed in
// parallel. Reference counting garbage-collects idle lock entries.
type Manager struct {
	store ports.ConversationStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker adds a distributed lock around every WithLock section, for
// deployments running more than one instance against a shared store.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) { m.locker = locker }
}

// WithLockTTL overrides the distributed-lock TTL (default 30s).
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.lockTTL = ttl }
}

// WithLogger configures a logger for deferred errors.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// NewManager creates a Manager over the given store.
func NewManager(store ports.ConversationStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: 30 * time.Second,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) acquire(id string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[id]
	if !ok {
		entry = &lockEntry{}
		m.locks[id] = entry
	}
	entry.refs++
	return entry
}

func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[id]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, id)
	}
}

// WithLock runs fn while holding the conversation's lock, plus the
// distributed lock when one is configured.
func (m *Manager) WithLock(ctx context.Context, id string, fn func(context.Context) error) error {
	entry := m.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, id, m.lockTTL)
		if err != nil {
			return fmt.Errorf("acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"conversation", id,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Load retrieves an existing conversation.
func (m *Manager) Load(ctx context.Context, id string) (*domain.State, error) {
	var state *domain.State
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		state, err = m.store.Load(ctx, id)
		return err
	})
	return state, err
}

// LoadOrStart loads a conversation or creates one via create when the
// store has no snapshot for the id. The fresh state is saved immediately
// to reserve the id.
func (m *Manager) LoadOrStart(ctx context.Context, id string, create func() *domain.State) (*domain.State, error) {
	var state *domain.State
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		state, err = m.store.Load(ctx, id)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrConversationNotFound) {
			return fmt.Errorf("check conversation existence: %w", err)
		}

		state = create()
		if err := m.store.Save(ctx, id, state); err != nil {
			return fmt.Errorf("initialize conversation: %w", err)
		}
		return nil
	})
	return state, err
}

// Save persists the conversation under its lock.
func (m *Manager) Save(ctx context.Context, id string, state *domain.State) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		return m.store.Save(ctx, id, state)
	})
}

// Delete removes the conversation from the store.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		return m.store.Delete(ctx, id)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying conversation store.
func (m *Manager) Store() ports.ConversationStore {
	return m.store
}
