package domain

import (
	"time"
)

// Phase is the coarse position of a conversation in the intake flow.
type Phase string

const (
	PhaseCollecting           Phase = "collecting"
	PhaseAwaitingConfirmation Phase = "awaiting_confirmation"
	PhaseReadyForSearch       Phase = "ready_for_search"
	PhaseSearchTriggered      Phase = "search_triggered"
	PhaseComplete             Phase = "complete"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Reserved control messages injected by the downstream trip-generation
// subsystem.
const (
	SystemItineraryGenerated = "SYSTEM_ITINERARY_GENERATED"
	SystemItineraryFailed    = "SYSTEM_ITINERARY_FAILED"
)

// Message is one entry in the append-only conversation history.
type Message struct {
	Role      string            `json:"role"`
	Content   string            `json:"content"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// PendingUpdate is a candidate slot value extracted from an earlier message
// and queued for its own confirmation turn.
type PendingUpdate struct {
	Slot  SlotName `json:"slot"`
	Value Value    `json:"value"`
}

// Suggestion is an opaque downstream result (flight, hotel, activity).
// The engine records these after a search but never inspects them.
type Suggestion struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Score float64 `json:"score"`
}

// SnapshotVersion is the current persisted snapshot schema version.
const SnapshotVersion = 1

// State owns everything known about one conversation: the slots, the
// message history, the pending confirmation, and the idempotency ledger.
//
// Invariants: at most one slot is pending confirmation at a time, and
// message timestamps are monotonically non-decreasing.
type State struct {
	ID    string `json:"conversationId"`
	Phase Phase  `json:"phase"`

	Slots    []*Slot   `json:"slots"`
	Messages []Message `json:"messages"`

	// PendingConfirmation names the single slot awaiting a yes/no read-back
	// reply, or is empty.
	PendingConfirmation SlotName `json:"pendingConfirmation,omitempty"`

	// PendingQueue holds extra candidates extracted from a multi-slot
	// message, confirmed one at a time on subsequent turns.
	PendingQueue []PendingUpdate `json:"pendingQueue,omitempty"`

	// ProcessedTurns maps a turn token to the response it produced, so a
	// redelivered turn returns the identical reply without reprocessing.
	// Persisted with the snapshot so dedup survives restarts.
	ProcessedTurns map[string]string `json:"processedTurns,omitempty"`

	// SystemEvents records the reserved control messages received so far.
	SystemEvents []string `json:"systemEvents,omitempty"`

	Suggestions []Suggestion `json:"suggestions,omitempty"`

	Version     int       `json:"version"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// NewState creates a fresh conversation with empty slots in the given
// priority order.
func NewState(id string, order []SlotName) *State {
	slots := make([]*Slot, 0, len(order))
	for _, name := range order {
		slots = append(slots, &Slot{Name: name})
	}
	return &State{
		ID:             id,
		Phase:          PhaseCollecting,
		Slots:          slots,
		ProcessedTurns: make(map[string]string),
		Version:        SnapshotVersion,
	}
}

// Slot returns the slot with the given name, or nil.
func (s *State) Slot(name SlotName) *Slot {
	for _, sl := range s.Slots {
		if sl.Name == name {
			return sl
		}
	}
	return nil
}

// AppendMessage adds a history entry, clamping the timestamp so history
// stays monotonically non-decreasing even if the clock steps backwards.
func (s *State) AppendMessage(role, content string, ts time.Time) {
	if n := len(s.Messages); n > 0 && ts.Before(s.Messages[n-1].Timestamp) {
		ts = s.Messages[n-1].Timestamp
	}
	s.Messages = append(s.Messages, Message{Role: role, Content: content, Timestamp: ts})
}

// HasSystemEvent reports whether the given control message was received.
func (s *State) HasSystemEvent(name string) bool {
	for _, e := range s.SystemEvents {
		if e == name {
			return true
		}
	}
	return false
}

// LockedSlots returns the names of all locked slots in priority order.
func (s *State) LockedSlots() []SlotName {
	var out []SlotName
	for _, sl := range s.Slots {
		if sl.Locked {
			out = append(out, sl.Name)
		}
	}
	return out
}

// Clone returns a deep copy so stores can hand out isolated snapshots.
func (s *State) Clone() *State {
	c := *s
	c.Slots = make([]*Slot, len(s.Slots))
	for i, sl := range s.Slots {
		copied := *sl
		if sl.ConfirmedAt != nil {
			t := *sl.ConfirmedAt
			copied.ConfirmedAt = &t
		}
		if sl.Value.Money != nil {
			m := *sl.Value.Money
			copied.Value.Money = &m
		}
		if sl.Value.Dates != nil {
			d := *sl.Value.Dates
			copied.Value.Dates = &d
		}
		if sl.Value.List != nil {
			copied.Value.List = append([]string(nil), sl.Value.List...)
		}
		c.Slots[i] = &copied
	}
	c.Messages = append([]Message(nil), s.Messages...)
	c.PendingQueue = append([]PendingUpdate(nil), s.PendingQueue...)
	c.SystemEvents = append([]string(nil), s.SystemEvents...)
	c.Suggestions = append([]Suggestion(nil), s.Suggestions...)
	c.ProcessedTurns = make(map[string]string, len(s.ProcessedTurns))
	for k, v := range s.ProcessedTurns {
		c.ProcessedTurns[k] = v
	}
	return &c
}
