package dialogue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/voyago/voyago/pkg/domain"
)

func defaultTracker() *ConfirmationTracker {
	cfg := DefaultConfig()
	return NewConfirmationTracker(cfg.Affirmatives, cfg.Negatives)
}

func TestResolve(t *testing.T) {
	tr := defaultTracker()

	for _, reply := range []string{
		"yes", "Yes!", "yep", "sounds good", "ok", "that's right",
		"yes, plan it!", "perfect, let's do it",
	} {
		assert.Equal(t, VerdictLock, tr.Resolve(reply), reply)
	}

	for _, reply := range []string{
		"no", "Nope.", "that's wrong", "no, that's not right",
	} {
		assert.Equal(t, VerdictUnlock, tr.Resolve(reply), reply)
	}

	for _, reply := range []string{
		"hmm", "maybe", "what about trains", "", "november works",
	} {
		assert.Equal(t, VerdictUnclear, tr.Resolve(reply), reply)
	}
}

func TestResolve_NegativeWinsOverAffirmative(t *testing.T) {
	tr := defaultTracker()
	assert.Equal(t, VerdictUnlock, tr.Resolve("no, not right, but sure sounds close"))
}

func TestReadBack_Dates(t *testing.T) {
	tr := defaultTracker()

	sl := &domain.Slot{
		Name: domain.SlotDates,
		Value: domain.DatesValue(domain.DateRange{
			Start: time.Date(2026, time.June, 10, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2026, time.June, 20, 0, 0, 0, 0, time.UTC),
			Days:  11,
		}),
	}
	assert.Equal(t,
		"Wednesday, June 10, 2026 to Saturday, June 20, 2026 (11 days)",
		tr.ReadBack(sl))

	sl.Value = domain.DatesValue(domain.DateRange{Days: 7})
	assert.Equal(t, "7 days", tr.ReadBack(sl))
}

func TestReadBack_MoneyAndTravelers(t *testing.T) {
	tr := defaultTracker()

	budget := &domain.Slot{
		Name:  domain.SlotBudget,
		Value: domain.MoneyValue(domain.Money{Amount: 2000, Currency: "USD"}),
	}
	assert.Equal(t, "USD 2000", tr.ReadBack(budget))

	one := &domain.Slot{Name: domain.SlotTravelers, Value: domain.NumberValue(1)}
	assert.Equal(t, "1 traveler", tr.ReadBack(one))

	four := &domain.Slot{Name: domain.SlotTravelers, Value: domain.NumberValue(4)}
	assert.Equal(t, "4 travelers", tr.ReadBack(four))
}

func TestQuestion(t *testing.T) {
	tr := defaultTracker()
	sl := &domain.Slot{Name: domain.SlotDestination, Value: domain.TextValue("Kyoto")}
	assert.Equal(t, "Got it — destination: Kyoto. Is that correct?", tr.Question(sl))
}
