package dialogue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyago/voyago/pkg/domain"
)

var testClock = time.Date(2026, time.January, 15, 10, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Clock = func() time.Time { return testClock }
	return NewEngine(cfg, nil)
}

func newConversation() *domain.State {
	return domain.NewState("conv-test", domain.DefaultSlotOrder())
}

func turn(t *testing.T, e *Engine, s *domain.State, token, text string) Result {
	t.Helper()
	res, err := e.ProcessTurn(s, token, text, testClock)
	require.NoError(t, err)
	return res
}

func TestEngine_DestinationThenQueuedDuration(t *testing.T) {
	e := newTestEngine(t)
	s := newConversation()

	res := turn(t, e, s, "t1", "Paris for 7 days")
	assert.Contains(t, res.Response, "Paris")
	assert.Contains(t, res.Response, "Is that correct?")
	assert.Equal(t, domain.SlotDestination, s.PendingConfirmation)
	assert.Equal(t, domain.PhaseAwaitingConfirmation, s.Phase)
	require.Len(t, s.PendingQueue, 1)
	assert.Equal(t, domain.SlotDates, s.PendingQueue[0].Slot)

	res = turn(t, e, s, "t2", "yes")
	assert.True(t, s.Slot(domain.SlotDestination).Locked)
	// The queued duration enters its own confirmation instead of the
	// dates question being asked again.
	assert.Equal(t, domain.SlotDates, s.PendingConfirmation)
	assert.Contains(t, res.Response, "7 days")
	assert.Empty(t, s.PendingQueue)

	turn(t, e, s, "t3", "yes")
	assert.True(t, s.Slot(domain.SlotDates).Locked)
	assert.Equal(t, domain.SlotBudget, e.expectedSlot(s))
}

func TestEngine_PendingCurrencyClarification(t *testing.T) {
	e := newTestEngine(t)
	s := newConversation()

	res := turn(t, e, s, "t1", "I have 2000")
	assert.Equal(t, e.cfg.CurrencyQuestion, res.Response)
	sl := s.Slot(domain.SlotBudget)
	assert.True(t, sl.Filled)
	assert.True(t, sl.NeedsClarification)
	assert.Equal(t, domain.CurrencyPending, sl.Value.Money.Currency)
	assert.Empty(t, s.PendingConfirmation)

	// The clarification overrides normal slot priority.
	assert.Equal(t, domain.SlotBudget, res.ExpectedSlot)

	res = turn(t, e, s, "t2", "euros")
	sl = s.Slot(domain.SlotBudget)
	assert.False(t, sl.NeedsClarification)
	assert.Equal(t, "EUR", sl.Value.Money.Currency)
	assert.Equal(t, float64(2000), sl.Value.Money.Amount)
	assert.Equal(t, domain.SlotBudget, s.PendingConfirmation)
	assert.Contains(t, res.Response, "EUR 2000")
}

func TestEngine_LockedSlotRestatement(t *testing.T) {
	e := newTestEngine(t)
	s := newConversation()

	turn(t, e, s, "t1", "I want to go to Paris")
	turn(t, e, s, "t2", "yes")
	require.True(t, s.Slot(domain.SlotDestination).Locked)
	before := *s.Slot(domain.SlotDestination)

	res := turn(t, e, s, "t3", "I want to go to London")
	assert.Contains(t, res.Response, "Paris")
	assert.Contains(t, res.Response, "change destination to")
	after := *s.Slot(domain.SlotDestination)
	assert.Equal(t, before.Value, after.Value)
	assert.Equal(t, before.LastUpdated, after.LastUpdated)
	assert.True(t, after.Locked)
}

func TestEngine_ExplicitChangeUnlocksAndReconfirms(t *testing.T) {
	e := newTestEngine(t)
	s := newConversation()

	turn(t, e, s, "t1", "I want to go to Paris")
	turn(t, e, s, "t2", "yes")
	require.True(t, s.Slot(domain.SlotDestination).Locked)

	res := turn(t, e, s, "t3", "change destination to London")
	sl := s.Slot(domain.SlotDestination)
	assert.False(t, sl.Locked)
	assert.Equal(t, "London", sl.Value.Text)
	assert.Equal(t, domain.SlotDestination, s.PendingConfirmation)
	assert.Contains(t, res.Response, "London")

	turn(t, e, s, "t4", "yes")
	assert.True(t, s.Slot(domain.SlotDestination).Locked)
	assert.Equal(t, "London", s.Slot(domain.SlotDestination).Value.Text)
}

func TestEngine_ExplicitChangeUnknownTarget(t *testing.T) {
	e := newTestEngine(t)
	s := newConversation()
	turn(t, e, s, "t1", "I want to go to Paris")

	snapshot := s.Clone()
	res := turn(t, e, s, "t2", "change airline to Lufthansa")
	assert.Contains(t, res.Response, "nothing called")
	// No slot state was mutated.
	for i, sl := range s.Slots {
		assert.Equal(t, *snapshot.Slots[i], *sl)
	}
}

func TestEngine_NegativeDiscardsValue(t *testing.T) {
	e := newTestEngine(t)
	s := newConversation()

	turn(t, e, s, "t1", "I want to go to Paris")
	res := turn(t, e, s, "t2", "no")

	sl := s.Slot(domain.SlotDestination)
	assert.False(t, sl.Filled)
	assert.False(t, sl.Locked)
	assert.True(t, sl.Value.IsZero())
	assert.Empty(t, s.PendingConfirmation)
	assert.Contains(t, res.Response, "Where would you like to go?")
}

func TestEngine_UnclearReissuesReadBack(t *testing.T) {
	e := newTestEngine(t)
	s := newConversation()

	first := turn(t, e, s, "t1", "I want to go to Paris")
	res := turn(t, e, s, "t2", "hmm maybe")
	assert.Equal(t, first.Response, res.Response)
	assert.Equal(t, domain.SlotDestination, s.PendingConfirmation)
}

func TestEngine_RedundantInputAcknowledged(t *testing.T) {
	e := newTestEngine(t)
	s := newConversation()

	turn(t, e, s, "t1", "I want to go to Paris")
	turn(t, e, s, "t2", "yes")
	locked := *s.Slot(domain.SlotDestination)

	res := turn(t, e, s, "t3", "we are going to Paris")
	assert.Contains(t, res.Response, "already")
	assert.Contains(t, res.Response, "Paris")
	assert.Equal(t, locked.LastUpdated, s.Slot(domain.SlotDestination).LastUpdated)
}

func TestEngine_DuplicateTurnToken(t *testing.T) {
	e := newTestEngine(t)
	s := newConversation()

	first := turn(t, e, s, "tok-1", "I want to go to Paris")
	messages := len(s.Messages)

	replay := turn(t, e, s, "tok-1", "I want to go to Paris")
	assert.True(t, replay.Duplicate)
	assert.Equal(t, first.Response, replay.Response)
	assert.Len(t, s.Messages, messages)
	assert.Equal(t, domain.SlotDestination, s.PendingConfirmation)
}

func TestEngine_FullIntakeToReady(t *testing.T) {
	e := newTestEngine(t)
	s := newConversation()

	steps := []string{
		"I want to go to Rome", "yes",
		"June 10-20, 2026", "yes",
		"$2500", "yes",
		"2 people",
	}
	var res Result
	for i, text := range steps {
		res = turn(t, e, s, string(rune('a'+i)), text)
	}
	assert.False(t, res.ReadyForSearch)

	res = turn(t, e, s, "final", "yes")
	assert.True(t, res.ReadyForSearch)
	assert.Equal(t, domain.PhaseReadyForSearch, s.Phase)
	assert.Contains(t, res.Response, "Rome")
	assert.Contains(t, res.Response, "USD 2500")
	assert.Contains(t, res.Response, "2 travelers")

	require.NoError(t, e.TriggerSearch(s, testClock))
	assert.Equal(t, domain.PhaseSearchTriggered, s.Phase)
}

func TestEngine_TriggerSearchNotReady(t *testing.T) {
	e := newTestEngine(t)
	s := newConversation()
	turn(t, e, s, "t1", "I want to go to Rome")

	assert.ErrorIs(t, e.TriggerSearch(s, testClock), domain.ErrNotReady)
}

func TestEngine_Signals(t *testing.T) {
	e := newTestEngine(t)
	s := newConversation()
	s.Phase = domain.PhaseSearchTriggered

	reply, err := e.Signal(s, domain.SystemItineraryFailed, testClock)
	require.NoError(t, err)
	assert.Contains(t, reply, "retry")
	assert.Equal(t, domain.PhaseReadyForSearch, s.Phase)
	assert.True(t, s.HasSystemEvent(domain.SystemItineraryFailed))

	s.Phase = domain.PhaseSearchTriggered
	reply, err = e.Signal(s, domain.SystemItineraryGenerated, testClock)
	require.NoError(t, err)
	assert.Contains(t, reply, "ready")
	assert.Equal(t, domain.PhaseComplete, s.Phase)

	_, err = e.Signal(s, "SYSTEM_SOMETHING_ELSE", testClock)
	assert.ErrorIs(t, err, domain.ErrUnknownSignal)
}

func TestEngine_MessageHistoryGrowsMonotonically(t *testing.T) {
	e := newTestEngine(t)
	s := newConversation()

	turn(t, e, s, "t1", "I want to go to Paris")
	// A clock step backwards must not break history ordering.
	_, err := e.ProcessTurn(s, "t2", "yes", testClock.Add(-time.Hour))
	require.NoError(t, err)

	for i := 1; i < len(s.Messages); i++ {
		assert.False(t, s.Messages[i].Timestamp.Before(s.Messages[i-1].Timestamp))
	}
}

func TestEngine_AffirmativeWithGenerationTrigger(t *testing.T) {
	e := newTestEngine(t)
	s := newConversation()

	turn(t, e, s, "t1", "I want to go to Paris")
	turn(t, e, s, "t2", "yes that's right, let's do it!")
	assert.True(t, s.Slot(domain.SlotDestination).Locked)
}
