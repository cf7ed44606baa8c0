package dialogue

import (
	"time"

	"github.com/voyago/voyago/pkg/domain"
)

// SlotStore applies slot mutations to a conversation state while holding
// the fill/lock invariants. It is a view over the state, not a copy:
// callers own the locking around the enclosing turn.
type SlotStore struct {
	state *domain.State
}

// NewSlotStore wraps a conversation state.
func NewSlotStore(state *domain.State) *SlotStore {
	return &SlotStore{state: state}
}

// Get returns the named slot.
func (s *SlotStore) Get(name domain.SlotName) (*domain.Slot, error) {
	sl := s.state.Slot(name)
	if sl == nil {
		return nil, domain.ErrUnknownSlot
	}
	return sl, nil
}

// Upsert fills a slot with a new value. Locked slots reject any different
// value; the explicit-change path must Unlock first. Structured values
// merge partially: a money value carrying only a currency completes a
// pending-currency amount instead of replacing it.
func (s *SlotStore) Upsert(name domain.SlotName, value domain.Value, now time.Time) error {
	sl := s.state.Slot(name)
	if sl == nil {
		return domain.ErrUnknownSlot
	}
	if sl.Locked && !sl.Value.Equal(value) {
		return domain.ErrLockedSlotConflict
	}
	if sl.Locked {
		return nil // same value, nothing to do
	}

	if merged, ok := mergeMoney(sl, value); ok {
		value = merged
	}
	sl.Value = value
	sl.Filled = true
	sl.NeedsClarification = needsClarification(value)
	sl.LastUpdated = now
	return nil
}

// mergeMoney completes a pending-currency budget from a currency-only
// value, keeping the previously captured amount.
func mergeMoney(sl *domain.Slot, value domain.Value) (domain.Value, bool) {
	if value.Kind != domain.KindMoney || value.Money == nil {
		return domain.Value{}, false
	}
	if !sl.Filled || sl.Value.Money == nil {
		return domain.Value{}, false
	}
	if value.Money.Amount == 0 && sl.Value.Money.Amount > 0 {
		return domain.MoneyValue(domain.Money{
			Amount:   sl.Value.Money.Amount,
			Currency: value.Money.Currency,
		}), true
	}
	if value.Money.NeedsCurrency() && !sl.Value.Money.NeedsCurrency() &&
		value.Money.Amount == sl.Value.Money.Amount {
		return sl.Value, true
	}
	return domain.Value{}, false
}

func needsClarification(value domain.Value) bool {
	return value.Kind == domain.KindMoney && value.Money != nil && value.Money.NeedsCurrency()
}

// Lock confirms a slot's value. The slot must be filled and free of
// pending clarifications.
func (s *SlotStore) Lock(name domain.SlotName, now time.Time) error {
	sl := s.state.Slot(name)
	if sl == nil {
		return domain.ErrUnknownSlot
	}
	if !sl.Filled || sl.NeedsClarification {
		return domain.ErrSlotNotFilled
	}
	sl.Locked = true
	ts := now
	sl.ConfirmedAt = &ts
	sl.LastUpdated = now
	return nil
}

// Unlock discards a slot's value entirely, returning it to unfilled. Used
// when the user rejects a read-back or explicitly changes a locked slot.
func (s *SlotStore) Unlock(name domain.SlotName) error {
	sl := s.state.Slot(name)
	if sl == nil {
		return domain.ErrUnknownSlot
	}
	sl.Value = domain.Value{}
	sl.Filled = false
	sl.Locked = false
	sl.NeedsClarification = false
	sl.ConfirmedAt = nil
	return nil
}

// IsComplete reports whether every required slot is locked.
func (s *SlotStore) IsComplete(required []domain.SlotName) bool {
	for _, name := range required {
		sl := s.state.Slot(name)
		if sl == nil || !sl.Locked {
			return false
		}
	}
	return true
}

// FirstUnlocked returns the first slot in priority order that is not yet
// locked. A slot with a pending clarification takes precedence over
// everything else. The second return is false when all slots are locked.
func (s *SlotStore) FirstUnlocked(order []domain.SlotName) (domain.SlotName, bool) {
	for _, name := range order {
		if sl := s.state.Slot(name); sl != nil && sl.NeedsClarification {
			return name, true
		}
	}
	for _, name := range order {
		if sl := s.state.Slot(name); sl != nil && !sl.Locked {
			return name, true
		}
	}
	return "", false
}
