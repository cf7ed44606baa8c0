package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyago/voyago/pkg/domain"
)

func fixedNow() time.Time {
	return time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
}

func newTestExtractor() *Extractor {
	return New(Config{Now: fixedNow})
}

func emptyState() *domain.State {
	return domain.NewState("conv-1", domain.DefaultSlotOrder())
}

func findCandidate(t *testing.T, cands []Candidate, slot domain.SlotName) Candidate {
	t.Helper()
	for _, c := range cands {
		if c.Slot == slot {
			return c
		}
	}
	t.Fatalf("no candidate for slot %q in %+v", slot, cands)
	return Candidate{}
}

func hasCandidate(cands []Candidate, slot domain.SlotName) bool {
	for _, c := range cands {
		if c.Slot == slot {
			return true
		}
	}
	return false
}

func TestExtract_DestinationAndDuration(t *testing.T) {
	e := newTestExtractor()
	cands := e.Extract("I want to go to Paris for 7 days", domain.SlotDestination, emptyState())

	dest := findCandidate(t, cands, domain.SlotDestination)
	assert.Equal(t, "Paris", dest.Value.Text)

	dates := findCandidate(t, cands, domain.SlotDates)
	require.NotNil(t, dates.Value.Dates)
	assert.Equal(t, 7, dates.Value.Dates.Days)

	// The "7" belongs to the duration, never to a traveler count.
	assert.False(t, hasCandidate(cands, domain.SlotTravelers))
	assert.False(t, hasCandidate(cands, domain.SlotBudget))
}

func TestExtract_MultiSlotMessage(t *testing.T) {
	e := newTestExtractor()
	cands := e.Extract("Traveling to Tokyo with 2 people, budget $3k", domain.SlotDestination, emptyState())

	assert.Equal(t, "Tokyo", findCandidate(t, cands, domain.SlotDestination).Value.Text)
	assert.Equal(t, float64(2), findCandidate(t, cands, domain.SlotTravelers).Value.Number)

	budget := findCandidate(t, cands, domain.SlotBudget)
	require.NotNil(t, budget.Value.Money)
	assert.Equal(t, float64(3000), budget.Value.Money.Amount)
	assert.Equal(t, "USD", budget.Value.Money.Currency)
}

func TestExtract_ExplicitDateRange(t *testing.T) {
	e := newTestExtractor()

	cands := e.Extract("June 10-20, 2026 works for us", domain.SlotDates, emptyState())
	c := findCandidate(t, cands, domain.SlotDates)
	require.NotNil(t, c.Value.Dates)
	assert.Equal(t, time.Date(2026, time.June, 10, 0, 0, 0, 0, time.UTC), c.Value.Dates.Start)
	assert.Equal(t, time.Date(2026, time.June, 20, 0, 0, 0, 0, time.UTC), c.Value.Dates.End)
	assert.Equal(t, 11, c.Value.Dates.Days)
}

func TestExtract_CrossMonthDateRange(t *testing.T) {
	e := newTestExtractor()

	cands := e.Extract("June 28 to July 5, 2026", domain.SlotDates, emptyState())
	c := findCandidate(t, cands, domain.SlotDates)
	require.NotNil(t, c.Value.Dates)
	assert.Equal(t, time.Date(2026, time.June, 28, 0, 0, 0, 0, time.UTC), c.Value.Dates.Start)
	assert.Equal(t, time.Date(2026, time.July, 5, 0, 0, 0, 0, time.UTC), c.Value.Dates.End)
	assert.Equal(t, 8, c.Value.Dates.Days)
}

func TestExtract_CrossYearDateRange(t *testing.T) {
	e := newTestExtractor()

	cands := e.Extract("December 28 to January 3, 2027", domain.SlotDates, emptyState())
	c := findCandidate(t, cands, domain.SlotDates)
	require.NotNil(t, c.Value.Dates)
	assert.Equal(t, time.Date(2026, time.December, 28, 0, 0, 0, 0, time.UTC), c.Value.Dates.Start)
	assert.Equal(t, time.Date(2027, time.January, 3, 0, 0, 0, 0, time.UTC), c.Value.Dates.End)
}

func TestExtract_UntilDate(t *testing.T) {
	e := newTestExtractor()

	cands := e.Extract("I can stay until July 3", domain.SlotDates, emptyState())
	c := findCandidate(t, cands, domain.SlotDates)
	require.NotNil(t, c.Value.Dates)
	assert.Equal(t, time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC), c.Value.Dates.Start)
	assert.Equal(t, time.Date(2026, time.July, 3, 0, 0, 0, 0, time.UTC), c.Value.Dates.End)

	// Without a year, a month already behind us means next year.
	cands = e.Extract("until March 3", domain.SlotDates, emptyState())
	c = findCandidate(t, cands, domain.SlotDates)
	assert.Equal(t, 2027, c.Value.Dates.End.Year())
}

func TestExtract_SpelledDuration(t *testing.T) {
	e := newTestExtractor()

	cands := e.Extract("two weeks sounds right", domain.SlotDates, emptyState())
	c := findCandidate(t, cands, domain.SlotDates)
	require.NotNil(t, c.Value.Dates)
	assert.Equal(t, 14, c.Value.Dates.Days)

	cands = e.Extract("10 nights", domain.SlotDates, emptyState())
	c = findCandidate(t, cands, domain.SlotDates)
	assert.Equal(t, 11, c.Value.Dates.Days)
}

func TestExtract_BareAmountNeedsLexicon(t *testing.T) {
	e := newTestExtractor()

	// No money words, not the expected slot: the number is ignored.
	cands := e.Extract("maybe 2000", domain.SlotDestination, emptyState())
	assert.False(t, hasCandidate(cands, domain.SlotBudget))

	// With a budget-context word the bare amount is accepted, pending
	// a currency clarification.
	cands = e.Extract("our budget is 2000", domain.SlotDestination, emptyState())
	c := findCandidate(t, cands, domain.SlotBudget)
	require.NotNil(t, c.Value.Money)
	assert.Equal(t, float64(2000), c.Value.Money.Amount)
	assert.Equal(t, domain.CurrencyPending, c.Value.Money.Currency)
	assert.True(t, c.NeedsClarification)

	// Same for a bare number when the budget question was just asked.
	cands = e.Extract("2000", domain.SlotBudget, emptyState())
	c = findCandidate(t, cands, domain.SlotBudget)
	assert.True(t, c.NeedsClarification)
}

func TestExtract_CurrencyWordsAndSymbols(t *testing.T) {
	e := newTestExtractor()

	for _, tc := range []struct {
		text     string
		amount   float64
		currency string
	}{
		{"around $2000", 2000, "USD"},
		{"1,500 euros total", 1500, "EUR"},
		{"£950", 950, "GBP"},
		{"2k dollars", 2000, "USD"},
		{"budget of 300000 yen", 300000, "JPY"},
	} {
		cands := e.Extract(tc.text, domain.SlotBudget, emptyState())
		c := findCandidate(t, cands, domain.SlotBudget)
		require.NotNil(t, c.Value.Money, tc.text)
		assert.Equal(t, tc.amount, c.Value.Money.Amount, tc.text)
		assert.Equal(t, tc.currency, c.Value.Money.Currency, tc.text)
		assert.False(t, c.NeedsClarification, tc.text)
	}
}

func TestExtract_PendingCurrencyClarification(t *testing.T) {
	e := newTestExtractor()
	state := emptyState()
	sl := state.Slot(domain.SlotBudget)
	sl.Value = domain.MoneyValue(domain.Money{Amount: 2000, Currency: domain.CurrencyPending})
	sl.Filled = true
	sl.NeedsClarification = true

	// A lone currency word completes the pending amount via partial merge.
	cands := e.Extract("euros", domain.SlotBudget, state)
	require.Len(t, cands, 1)
	require.NotNil(t, cands[0].Value.Money)
	assert.Equal(t, "EUR", cands[0].Value.Money.Currency)
	assert.Zero(t, cands[0].Value.Money.Amount)

	// A full restatement replaces amount and currency in one go.
	cands = e.Extract("make it 2500 euros", domain.SlotBudget, state)
	require.Len(t, cands, 1)
	require.NotNil(t, cands[0].Value.Money)
	assert.Equal(t, float64(2500), cands[0].Value.Money.Amount)
	assert.Equal(t, "EUR", cands[0].Value.Money.Currency)
	assert.False(t, cands[0].NeedsClarification)
}

func TestExtract_Travelers(t *testing.T) {
	e := newTestExtractor()

	cands := e.Extract("there will be 4 of us", domain.SlotTravelers, emptyState())
	assert.Equal(t, float64(4), findCandidate(t, cands, domain.SlotTravelers).Value.Number)

	cands = e.Extract("two adults", domain.SlotTravelers, emptyState())
	assert.Equal(t, float64(2), findCandidate(t, cands, domain.SlotTravelers).Value.Number)

	cands = e.Extract("traveling solo this time", domain.SlotDestination, emptyState())
	assert.Equal(t, float64(1), findCandidate(t, cands, domain.SlotTravelers).Value.Number)

	// Bare number only when the traveler question is on the table.
	cands = e.Extract("3", domain.SlotTravelers, emptyState())
	assert.Equal(t, float64(3), findCandidate(t, cands, domain.SlotTravelers).Value.Number)

	cands = e.Extract("3", domain.SlotDestination, emptyState())
	assert.False(t, hasCandidate(cands, domain.SlotTravelers))
}

func TestExtract_RedundantValue(t *testing.T) {
	e := newTestExtractor()
	state := emptyState()
	sl := state.Slot(domain.SlotDestination)
	sl.Value = domain.TextValue("Paris")
	sl.Filled = true

	cands := e.Extract("we are going to Paris", domain.SlotDates, state)
	c := findCandidate(t, cands, domain.SlotDestination)
	assert.True(t, c.Redundant)
}

func TestExtract_SecondarySlotsAreGated(t *testing.T) {
	e := newTestExtractor()

	// "hotel" in passing does not produce an accommodation candidate...
	cands := e.Extract("the hotel near the beach in Lisbon", domain.SlotDestination, emptyState())
	assert.False(t, hasCandidate(cands, domain.SlotAccommodation))

	// ...unless accommodation is the expected slot.
	cands = e.Extract("a nice hotel please", domain.SlotAccommodation, emptyState())
	assert.Equal(t, "hotel", findCandidate(t, cands, domain.SlotAccommodation).Value.Text)

	cands = e.Extract("something relaxed and cheap", domain.SlotStyle, emptyState())
	assert.Equal(t, "relaxed", findCandidate(t, cands, domain.SlotStyle).Value.Text)

	cands = e.Extract("museums, food and hiking", domain.SlotInterests, emptyState())
	c := findCandidate(t, cands, domain.SlotInterests)
	assert.Equal(t, []string{"museums", "food", "hiking"}, c.Value.List)
}

func TestExtract_Origin(t *testing.T) {
	e := newTestExtractor()

	cands := e.Extract("flying from New York", domain.SlotOrigin, emptyState())
	assert.Equal(t, "New York", findCandidate(t, cands, domain.SlotOrigin).Value.Text)

	cands = e.Extract("London", domain.SlotOrigin, emptyState())
	assert.Equal(t, "London", findCandidate(t, cands, domain.SlotOrigin).Value.Text)
}

func TestExtractFor_ExplicitChange(t *testing.T) {
	e := newTestExtractor()
	state := emptyState()

	c, ok := e.ExtractFor(domain.SlotDestination, "London", state)
	require.True(t, ok)
	assert.Equal(t, "London", c.Value.Text)

	c, ok = e.ExtractFor(domain.SlotBudget, "$2500", state)
	require.True(t, ok)
	require.NotNil(t, c.Value.Money)
	assert.Equal(t, float64(2500), c.Value.Money.Amount)

	_, ok = e.ExtractFor(domain.SlotDates, "something vague", state)
	assert.False(t, ok)
}

func TestExtractFor_RedundantChange(t *testing.T) {
	e := newTestExtractor()
	state := emptyState()
	sl := state.Slot(domain.SlotDestination)
	sl.Value = domain.TextValue("Paris")
	sl.Filled = true
	sl.Locked = true

	c, ok := e.ExtractFor(domain.SlotDestination, "Paris", state)
	require.True(t, ok)
	assert.True(t, c.Redundant)
}
