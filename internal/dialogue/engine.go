package dialogue

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/voyago/voyago/internal/extract"
	"github.com/voyago/voyago/internal/logging"
	"github.com/voyago/voyago/pkg/domain"
)

// Result is the outcome of one processed turn.
type Result struct {
	// Response is the assistant reply for this turn.
	Response string

	// ExpectedSlot is the slot the next user message is expected to fill,
	// empty once all slots are locked.
	ExpectedSlot domain.SlotName

	// ReadyForSearch is true once every required slot is locked.
	ReadyForSearch bool

	// Duplicate marks a redelivered turn token; Response is the recorded
	// reply of the original delivery and no state was mutated.
	Duplicate bool
}

// Engine is the per-turn state machine. It composes the extractor, the
// slot store and the confirmation tracker; it holds no conversation state
// of its own, so one Engine serves any number of conversations.
type Engine struct {
	cfg     Config
	ex      *extract.Extractor
	tracker *ConfirmationTracker
	log     *slog.Logger
}

// NewEngine builds an engine from a flow configuration.
func NewEngine(cfg Config, log *slog.Logger) *Engine {
	cfg = cfg.withDefaults()
	if log == nil {
		log = logging.NewNop()
	}
	return &Engine{
		cfg: cfg,
		ex: extract.New(extract.Config{
			BudgetLexicon: cfg.BudgetLexicon,
			Now:           cfg.Clock,
		}),
		tracker: NewConfirmationTracker(cfg.Affirmatives, cfg.Negatives),
		log:     log,
	}
}

// Anchored correction command. This is the only path that may mutate a
// locked slot.
var reExplicitChange = regexp.MustCompile(
	`(?i)^\s*(?:please\s+)?(?:change|switch|update)\s+(?:the\s+|my\s+)?([a-z]+)\s+to\s+(.+?)\s*$`)

var slotAliases = map[string]domain.SlotName{
	"destination": domain.SlotDestination, "city": domain.SlotDestination,
	"dates": domain.SlotDates, "date": domain.SlotDates, "duration": domain.SlotDates,
	"budget": domain.SlotBudget, "price": domain.SlotBudget,
	"travelers": domain.SlotTravelers, "travellers": domain.SlotTravelers,
	"people": domain.SlotTravelers, "group": domain.SlotTravelers,
	"origin": domain.SlotOrigin, "departure": domain.SlotOrigin,
	"accommodation": domain.SlotAccommodation, "lodging": domain.SlotAccommodation,
	"hotel": domain.SlotAccommodation,
	"style": domain.SlotStyle, "interests": domain.SlotInterests,
}

// ProcessTurn runs the per-turn algorithm against a conversation state.
// The caller must hold the conversation's lock; the state is mutated in
// place and should be persisted afterwards. A turn token that was already
// processed returns the recorded response untouched.
func (e *Engine) ProcessTurn(s *domain.State, token, text string, now time.Time) (Result, error) {
	if token != "" {
		if recorded, ok := s.ProcessedTurns[token]; ok {
			e.log.Debug("duplicate turn token", "conversation", s.ID, "token", token)
			return Result{
				Response:       recorded,
				ExpectedSlot:   e.expectedSlot(s),
				ReadyForSearch: e.isReady(s),
				Duplicate:      true,
			}, nil
		}
	}

	s.AppendMessage(domain.RoleUser, text, now)
	response := e.step(s, text, now)
	s.AppendMessage(domain.RoleAssistant, response, now)
	s.LastUpdated = now

	// The token is recorded only after the turn completed, so a failed
	// turn can be retried with the same token.
	if token != "" {
		if s.ProcessedTurns == nil {
			s.ProcessedTurns = make(map[string]string)
		}
		s.ProcessedTurns[token] = response
	}

	return Result{
		Response:       response,
		ExpectedSlot:   e.expectedSlot(s),
		ReadyForSearch: e.isReady(s),
	}, nil
}

func (e *Engine) step(s *domain.State, text string, now time.Time) string {
	store := NewSlotStore(s)

	if s.PendingConfirmation != "" {
		return e.handleConfirmation(s, store, text, now)
	}
	if m := reExplicitChange.FindStringSubmatch(text); m != nil {
		return e.handleExplicitChange(s, store, m[1], m[2], now)
	}
	return e.handleExtraction(s, store, text, now)
}

// handleConfirmation resolves a pending read-back reply.
func (e *Engine) handleConfirmation(s *domain.State, store *SlotStore, text string, now time.Time) string {
	name := s.PendingConfirmation
	sl := s.Slot(name)
	if sl == nil {
		// Stale pointer in a snapshot from an older flow config.
		s.PendingConfirmation = ""
		return e.nextPrompt(s, store, "")
	}

	switch e.tracker.Resolve(text) {
	case VerdictLock:
		if err := store.Lock(name, now); err != nil {
			e.log.Warn("lock failed", "conversation", s.ID, "slot", name, "error", err)
			s.PendingConfirmation = ""
			s.Phase = domain.PhaseCollecting
			return e.nextPrompt(s, store, "")
		}
		s.PendingConfirmation = ""
		e.log.Info("slot locked", "conversation", s.ID, "slot", name)
		if reply, ok := e.confirmNextQueued(s, store, now); ok {
			return reply
		}
		return e.nextPrompt(s, store, fmt.Sprintf("%s confirmed.", capitalize(slotLabel(name))))

	case VerdictUnlock:
		_ = store.Unlock(name)
		s.PendingConfirmation = ""
		s.Phase = domain.PhaseCollecting
		e.log.Info("slot value rejected", "conversation", s.ID, "slot", name)
		return fmt.Sprintf("No problem, let's redo the %s. %s", slotLabel(name), e.question(name))

	default:
		// Unclear: re-issue the same read-back question unchanged.
		return e.tracker.Question(sl)
	}
}

// confirmNextQueued pops the next viable queued candidate from a
// multi-slot message and opens its confirmation.
func (e *Engine) confirmNextQueued(s *domain.State, store *SlotStore, now time.Time) (string, bool) {
	for len(s.PendingQueue) > 0 {
		next := s.PendingQueue[0]
		s.PendingQueue = s.PendingQueue[1:]

		sl := s.Slot(next.Slot)
		if sl == nil || sl.Locked {
			continue
		}
		if err := store.Upsert(next.Slot, next.Value, now); err != nil {
			e.log.Warn("queued upsert failed", "conversation", s.ID, "slot", next.Slot, "error", err)
			continue
		}
		if sl.NeedsClarification {
			s.Phase = domain.PhaseCollecting
			return e.cfg.CurrencyQuestion, true
		}
		s.PendingConfirmation = next.Slot
		s.Phase = domain.PhaseAwaitingConfirmation
		return e.tracker.Question(sl), true
	}
	return "", false
}

// handleExplicitChange runs the correction command: the only way to
// modify a locked slot, by unlocking it first and re-entering the normal
// confirm cycle.
func (e *Engine) handleExplicitChange(s *domain.State, store *SlotStore, rawSlot, rawValue string, now time.Time) string {
	name, ok := slotAliases[strings.ToLower(rawSlot)]
	if !ok {
		return fmt.Sprintf("There's nothing called %q to change. You can change: destination, dates, budget, travelers, origin, accommodation, style or interests.", rawSlot)
	}

	c, ok := e.ex.ExtractFor(name, rawValue, s)
	if !ok {
		return fmt.Sprintf("I couldn't read a new %s from %q. Could you rephrase it?", slotLabel(name), rawValue)
	}
	if c.Redundant {
		sl := s.Slot(name)
		return fmt.Sprintf("Your %s is already %s. %s", slotLabel(name), e.tracker.ReadBack(sl), e.nextQuestion(s, store))
	}

	if sl := s.Slot(name); sl != nil && sl.Locked {
		if err := store.Unlock(name); err != nil {
			return e.nextPrompt(s, store, "")
		}
	}
	if err := store.Upsert(name, c.Value, now); err != nil {
		e.log.Warn("explicit change failed", "conversation", s.ID, "slot", name, "error", err)
		return e.nextPrompt(s, store, "")
	}
	e.log.Info("explicit change", "conversation", s.ID, "slot", name)

	sl := s.Slot(name)
	if sl.NeedsClarification {
		s.Phase = domain.PhaseCollecting
		return e.cfg.CurrencyQuestion
	}
	s.PendingConfirmation = name
	s.Phase = domain.PhaseAwaitingConfirmation
	return e.tracker.Question(sl)
}

// handleExtraction runs the extractor against the expected slot and
// applies at most one update, queueing the rest.
func (e *Engine) handleExtraction(s *domain.State, store *SlotStore, text string, now time.Time) string {
	expected := e.expectedSlot(s)
	cands := e.ex.Extract(text, expected, s)

	var applicable []extract.Candidate
	var redundant []extract.Candidate
	var lockedHits []extract.Candidate

	for _, c := range cands {
		if c.Redundant {
			redundant = append(redundant, c)
			continue
		}
		if sl := s.Slot(c.Slot); sl != nil && sl.Locked {
			// A restated-but-different value for a locked slot is
			// acknowledged, never applied outside the change command.
			lockedHits = append(lockedHits, c)
			continue
		}
		applicable = append(applicable, c)
	}

	// The expected slot's candidate is confirmed first; the rest of a
	// multi-slot message queues up for later turns.
	var primary *extract.Candidate
	for i := range applicable {
		if applicable[i].Slot == expected {
			primary = &applicable[i]
			break
		}
	}
	if primary == nil && len(applicable) > 0 {
		primary = &applicable[0]
	}
	var queued []extract.Candidate
	for i := range applicable {
		if primary != nil && &applicable[i] == primary {
			continue
		}
		queued = append(queued, applicable[i])
	}

	for _, c := range queued {
		s.PendingQueue = append(s.PendingQueue, domain.PendingUpdate{Slot: c.Slot, Value: c.Value})
	}

	if primary == nil {
		var prefix string
		switch {
		case len(lockedHits) > 0:
			sl := s.Slot(lockedHits[0].Slot)
			prefix = fmt.Sprintf("Your %s is locked in as %s — say \"change %s to ...\" if you want something different.",
				slotLabel(sl.Name), e.tracker.ReadBack(sl), sl.Name)
		case len(redundant) > 0:
			sl := s.Slot(redundant[0].Slot)
			prefix = fmt.Sprintf("Yes, I already have your %s as %s.", slotLabel(sl.Name), e.tracker.ReadBack(sl))
		}
		return e.nextPrompt(s, store, prefix)
	}

	if err := store.Upsert(primary.Slot, primary.Value, now); err != nil {
		e.log.Warn("upsert failed", "conversation", s.ID, "slot", primary.Slot, "error", err)
		return e.nextPrompt(s, store, "")
	}
	sl := s.Slot(primary.Slot)
	if sl.NeedsClarification {
		// Amount captured without a currency: the clarification question
		// overrides normal slot priority.
		s.Phase = domain.PhaseCollecting
		return e.cfg.CurrencyQuestion
	}
	s.PendingConfirmation = primary.Slot
	s.Phase = domain.PhaseAwaitingConfirmation
	return e.tracker.Question(sl)
}

// nextPrompt emits the ready summary or the question for the first
// unlocked slot, with an optional acknowledgment prefix.
func (e *Engine) nextPrompt(s *domain.State, store *SlotStore, prefix string) string {
	var reply string
	if store.IsComplete(e.cfg.Required) {
		if s.Phase == domain.PhaseCollecting || s.Phase == domain.PhaseAwaitingConfirmation {
			s.Phase = domain.PhaseReadyForSearch
		}
		reply = e.summary(s)
	} else {
		s.Phase = domain.PhaseCollecting
		reply = e.nextQuestion(s, store)
	}
	if prefix != "" {
		return prefix + " " + reply
	}
	return reply
}

func (e *Engine) nextQuestion(s *domain.State, store *SlotStore) string {
	name, ok := store.FirstUnlocked(e.cfg.SlotOrder)
	if !ok {
		return e.summary(s)
	}
	if sl := s.Slot(name); sl != nil && sl.NeedsClarification {
		return e.cfg.CurrencyQuestion
	}
	return e.question(name)
}

func (e *Engine) question(name domain.SlotName) string {
	if q, ok := e.cfg.Questions[name]; ok {
		return q
	}
	return fmt.Sprintf("What should I use for %s?", slotLabel(name))
}

// summary renders the locked trip for the ready-for-search hand-off.
func (e *Engine) summary(s *domain.State) string {
	var parts []string
	for _, name := range e.cfg.SlotOrder {
		sl := s.Slot(name)
		if sl == nil || !sl.Locked {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %s", slotLabel(name), e.tracker.ReadBack(sl)))
	}
	return fmt.Sprintf("I have everything I need: %s. Say \"plan it\" or trigger a search to get your itinerary.",
		strings.Join(parts, ", "))
}

// expectedSlot recomputes the slot the next message should fill. It is
// derived, never stored: a pending clarification wins, then the pending
// confirmation, then priority order.
func (e *Engine) expectedSlot(s *domain.State) domain.SlotName {
	if s.PendingConfirmation != "" {
		return s.PendingConfirmation
	}
	name, ok := NewSlotStore(s).FirstUnlocked(e.cfg.SlotOrder)
	if !ok {
		return ""
	}
	return name
}

func (e *Engine) isReady(s *domain.State) bool {
	return NewSlotStore(s).IsComplete(e.cfg.Required)
}

// TriggerSearch moves a ready conversation into the searching state. The
// downstream generator reports back through Signal.
func (e *Engine) TriggerSearch(s *domain.State, now time.Time) error {
	if !e.isReady(s) || s.PendingConfirmation != "" {
		return domain.ErrNotReady
	}
	s.Phase = domain.PhaseSearchTriggered
	s.LastUpdated = now
	e.log.Info("search triggered", "conversation", s.ID)
	return nil
}

// Signal applies a reserved control message from the trip-generation
// subsystem and returns the user-facing reply it produces.
func (e *Engine) Signal(s *domain.State, signal string, now time.Time) (string, error) {
	switch signal {
	case domain.SystemItineraryGenerated:
		s.SystemEvents = append(s.SystemEvents, signal)
		s.Phase = domain.PhaseComplete
		reply := "Your itinerary is ready! Let me know if you'd like to adjust anything."
		s.AppendMessage(domain.RoleAssistant, reply, now)
		s.LastUpdated = now
		return reply, nil
	case domain.SystemItineraryFailed:
		s.SystemEvents = append(s.SystemEvents, signal)
		s.Phase = domain.PhaseReadyForSearch
		reply := "I couldn't generate your itinerary this time. Everything is still saved — trigger the search again to retry."
		s.AppendMessage(domain.RoleAssistant, reply, now)
		s.LastUpdated = now
		return reply, nil
	default:
		return "", domain.ErrUnknownSignal
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
