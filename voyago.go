// Package voyago is the high-level entry point for the trip-intake
// dialogue engine. It wires the per-turn state machine, the session
// manager and a persistence adapter behind one facade.
package voyago

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/voyago/voyago/internal/dialogue"
	"github.com/voyago/voyago/internal/logging"
	"github.com/voyago/voyago/internal/metrics"
	"github.com/voyago/voyago/pkg/adapters/memory"
	"github.com/voyago/voyago/pkg/domain"
	"github.com/voyago/voyago/pkg/ports"
	"github.com/voyago/voyago/pkg/session"
)

// TurnResult is the outcome of one processed user message.
type TurnResult struct {
	// Response is the assistant reply.
	Response string `json:"response"`

	// ExpectedSlot names the slot the next message should fill, empty once
	// everything is locked.
	ExpectedSlot domain.SlotName `json:"expectedSlot,omitempty"`

	// ReadyForSearch is true once every required slot is locked.
	ReadyForSearch bool `json:"readyForSearch"`

	// Duplicate marks a redelivered turn token; Response is the reply
	// recorded for the original delivery.
	Duplicate bool `json:"duplicate"`
}

// Engine is the public facade. All methods are safe for concurrent use;
// turns for the same conversation are serialized internally.
type Engine struct {
	engine   *dialogue.Engine
	sessions *session.Manager
	store    ports.ConversationStore
	cfg      dialogue.Config
	logger   *slog.Logger
	clock    func() time.Time
	metrics  *metrics.Metrics

	locker ports.DistributedLocker
}

// Option configures the Engine.
type Option func(*Engine)

// WithStore selects the persistence adapter (default: in-memory).
func WithStore(store ports.ConversationStore) Option {
	return func(e *Engine) { e.store = store }
}

// WithLocker adds a distributed lock around every turn, for multi
// instance deployments sharing one store.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) { e.locker = locker }
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithConfig overrides the flow configuration (questions, phrase sets,
// slot priority).
func WithConfig(cfg dialogue.Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithClock injects a clock for deterministic tests.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		cfg:    dialogue.DefaultConfig(),
		logger: logging.NewNop(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		e.store = memory.NewStore()
	}
	e.cfg.Clock = e.clock
	e.engine = dialogue.NewEngine(e.cfg, e.logger)

	sessionOpts := []session.Option{session.WithLogger(e.logger)}
	if e.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(e.locker))
	}
	e.sessions = session.NewManager(e.store, sessionOpts...)
	return e
}

// newState builds a fresh conversation in the configured slot order.
func (e *Engine) newState(conversationID string) *domain.State {
	return domain.NewState(conversationID, e.cfg.SlotOrder)
}

// ProcessTurn handles one user message. The turn token makes delivery
// idempotent: a repeated token returns the recorded response without
// reprocessing. The updated state is snapshotted before returning.
func (e *Engine) ProcessTurn(ctx context.Context, conversationID, turnToken, message string) (TurnResult, error) {
	var result TurnResult
	started := e.clock()

	err := e.sessions.WithLock(ctx, conversationID, func(ctx context.Context) error {
		state, err := e.loadOrCreate(ctx, conversationID)
		if err != nil {
			return err
		}

		lockedBefore := len(state.LockedSlots())
		res, err := e.engine.ProcessTurn(state, turnToken, message, e.clock())
		if err != nil {
			return err
		}
		result = TurnResult{
			Response:       res.Response,
			ExpectedSlot:   res.ExpectedSlot,
			ReadyForSearch: res.ReadyForSearch,
			Duplicate:      res.Duplicate,
		}
		e.observeTurn(state, res, lockedBefore)
		if res.Duplicate {
			return nil // nothing changed, skip the snapshot
		}

		// Snapshots are best effort: a write failure is logged but never
		// gates the reply to the user.
		if err := e.store.Save(ctx, conversationID, state); err != nil {
			e.logger.Error("snapshot write failed", "conversation", conversationID, "err", err)
		}
		return nil
	})
	if err != nil {
		if e.metrics != nil {
			e.metrics.TurnsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		}
		return TurnResult{}, err
	}
	if e.metrics != nil {
		e.metrics.TurnDuration.Observe(e.clock().Sub(started).Seconds())
	}
	e.logger.Debug("turn processed",
		"conversation", conversationID,
		"expected_slot", result.ExpectedSlot,
		"ready", result.ReadyForSearch,
		"duplicate", result.Duplicate,
	)
	return result, nil
}

func (e *Engine) observeTurn(state *domain.State, res dialogue.Result, lockedBefore int) {
	if e.metrics == nil {
		return
	}
	outcome := metrics.OutcomeAsked
	switch {
	case res.Duplicate:
		outcome = metrics.OutcomeDuplicate
	case res.ReadyForSearch:
		outcome = metrics.OutcomeReady
	case state.PendingConfirmation != "":
		outcome = metrics.OutcomeConfirmed
	case pendingClarification(state):
		outcome = metrics.OutcomeClarified
	}
	e.metrics.TurnsTotal.WithLabelValues(outcome).Inc()
	if delta := len(state.LockedSlots()) - lockedBefore; delta > 0 {
		e.metrics.SlotsLocked.Add(float64(delta))
	}
}

// pendingClarification reports whether any slot is waiting on a
// disambiguation question rather than a confirmation.
func pendingClarification(state *domain.State) bool {
	for i := range state.Slots {
		if state.Slots[i].NeedsClarification {
			return true
		}
	}
	return false
}

func (e *Engine) loadOrCreate(ctx context.Context, conversationID string) (*domain.State, error) {
	state, err := e.store.Load(ctx, conversationID)
	if errors.Is(err, domain.ErrConversationNotFound) {
		if e.metrics != nil {
			e.metrics.Conversations.Inc()
		}
		return e.newState(conversationID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	return state, nil
}

// Signal injects a reserved control message from the trip-generation
// subsystem (SYSTEM_ITINERARY_GENERATED or SYSTEM_ITINERARY_FAILED) and
// returns the user-facing reply it produces.
func (e *Engine) Signal(ctx context.Context, conversationID, signal string) (string, error) {
	var reply string
	err := e.sessions.WithLock(ctx, conversationID, func(ctx context.Context) error {
		state, err := e.store.Load(ctx, conversationID)
		if err != nil {
			return err
		}
		reply, err = e.engine.Signal(state, signal, e.clock())
		if err != nil {
			return err
		}
		return e.store.Save(ctx, conversationID, state)
	})
	return reply, err
}

// TriggerSearch moves a ready conversation to the searching state. It
// fails with domain.ErrNotReady unless every required slot is locked.
func (e *Engine) TriggerSearch(ctx context.Context, conversationID string) error {
	return e.sessions.WithLock(ctx, conversationID, func(ctx context.Context) error {
		state, err := e.store.Load(ctx, conversationID)
		if err != nil {
			return err
		}
		if err := e.engine.TriggerSearch(state, e.clock()); err != nil {
			return err
		}
		return e.store.Save(ctx, conversationID, state)
	})
}

// AttachSuggestions records downstream search results on the
// conversation, deduplicated by ID and ordered by score.
func (e *Engine) AttachSuggestions(ctx context.Context, conversationID string, suggestions []domain.Suggestion) error {
	return e.sessions.WithLock(ctx, conversationID, func(ctx context.Context) error {
		state, err := e.store.Load(ctx, conversationID)
		if err != nil {
			return err
		}
		merged := append(state.Suggestions, suggestions...)
		merged = lo.UniqBy(merged, func(s domain.Suggestion) string { return s.ID })
		sort.SliceStable(merged, func(i, j int) bool { return merged[i].Score > merged[j].Score })
		state.Suggestions = merged
		state.LastUpdated = e.clock()
		return e.store.Save(ctx, conversationID, state)
	})
}

// Resume loads a conversation at session start together with recovery
// metadata. A store without backup support still reports whether a
// snapshot existed; a missing conversation yields a fresh state with
// Recovered=false.
func (e *Engine) Resume(ctx context.Context, conversationID string) (*domain.State, domain.RecoveryInfo, error) {
	var state *domain.State
	var info domain.RecoveryInfo

	err := e.sessions.WithLock(ctx, conversationID, func(ctx context.Context) error {
		if rec, ok := e.store.(ports.Recoverable); ok {
			var err error
			state, info, err = rec.Restore(ctx, conversationID)
			if errors.Is(err, domain.ErrConversationNotFound) {
				state = e.newState(conversationID)
				info = domain.RecoveryInfo{LastAction: domain.RecoveryActionNone}
				return e.store.Save(ctx, conversationID, state)
			}
			if err != nil && info.LastAction == domain.RecoveryActionFailed {
				// Snapshot and every backup are unreadable. Start over
				// rather than wedging the conversation; the failed action
				// stays visible to the caller.
				e.logger.Error("recovery failed, starting fresh", "conversation", conversationID, "err", err)
				state = e.newState(conversationID)
				info = domain.RecoveryInfo{LastAction: domain.RecoveryActionFailed}
				return e.store.Save(ctx, conversationID, state)
			}
			return err
		}

		loaded, err := e.store.Load(ctx, conversationID)
		if errors.Is(err, domain.ErrConversationNotFound) {
			state = e.newState(conversationID)
			info = domain.RecoveryInfo{LastAction: domain.RecoveryActionNone}
			return e.store.Save(ctx, conversationID, state)
		}
		if err != nil {
			return err
		}
		state = loaded
		info = domain.RecoveryInfo{
			Recovered:     true,
			RecoveryPoint: domain.RecoveryPointOf(loaded, e.cfg.Required),
			LastAction:    domain.RecoveryActionResumed,
		}
		if !loaded.LastUpdated.IsZero() {
			info.MissedDuration = e.clock().Sub(loaded.LastUpdated)
		}
		return nil
	})
	if err != nil {
		return nil, info, err
	}
	if e.metrics != nil {
		e.metrics.Recoveries.WithLabelValues(info.LastAction).Inc()
	}
	return state, info, nil
}

// State returns the current conversation state.
func (e *Engine) State(ctx context.Context, conversationID string) (*domain.State, error) {
	return e.sessions.Load(ctx, conversationID)
}

// Delete removes a conversation and its snapshots.
func (e *Engine) Delete(ctx context.Context, conversationID string) error {
	if err := e.sessions.Delete(ctx, conversationID); err != nil {
		return err
	}
	if e.metrics != nil {
		e.metrics.Conversations.Dec()
	}
	return nil
}

// List returns all known conversation IDs.
func (e *Engine) List(ctx context.Context) ([]string, error) {
	return e.sessions.List(ctx)
}

// Config returns the active flow configuration.
func (e *Engine) Config() dialogue.Config {
	return e.cfg
}
