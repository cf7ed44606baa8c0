package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// SlotName identifies one trackable attribute of the trip being assembled.
type SlotName string

const (
	SlotDestination   SlotName = "destination"
	SlotDates         SlotName = "dates"
	SlotBudget        SlotName = "budget"
	SlotTravelers     SlotName = "travelers"
	SlotOrigin        SlotName = "origin"
	SlotAccommodation SlotName = "accommodation"
	SlotStyle         SlotName = "style"
	SlotInterests     SlotName = "interests"
)

// DefaultSlotOrder is the priority in which unfilled slots are asked about.
func DefaultSlotOrder() []SlotName {
	return []SlotName{
		SlotDestination,
		SlotDates,
		SlotBudget,
		SlotTravelers,
		SlotOrigin,
		SlotAccommodation,
		SlotStyle,
		SlotInterests,
	}
}

// DefaultRequiredSlots are the slots that must be locked before a search
// can be triggered.
func DefaultRequiredSlots() []SlotName {
	return []SlotName{SlotDestination, SlotDates, SlotBudget, SlotTravelers}
}

// ValueKind discriminates the typed payload of a Value.
type ValueKind string

const (
	KindText      ValueKind = "text"
	KindNumber    ValueKind = "number"
	KindMoney     ValueKind = "money"
	KindDateRange ValueKind = "dates"
	KindList      ValueKind = "list"
)

// CurrencyPending marks a budget whose amount is known but whose currency
// still needs clarification.
const CurrencyPending = "PENDING"

// Money is an amount plus a currency code.
type Money struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// NeedsCurrency reports whether the currency is still unresolved.
func (m Money) NeedsCurrency() bool {
	return m.Currency == "" || m.Currency == CurrencyPending
}

func (m Money) String() string {
	if m.NeedsCurrency() {
		return fmt.Sprintf("%.0f (currency pending)", m.Amount)
	}
	return fmt.Sprintf("%s %.0f", m.Currency, m.Amount)
}

// DateRange is a normalized travel window. Start/End may be zero when only
// a duration was given ("7 days", "two weeks").
type DateRange struct {
	Start time.Time `json:"start,omitempty"`
	End   time.Time `json:"end,omitempty"`
	Days  int       `json:"days"`
}

// HasDates reports whether explicit calendar dates are known.
func (d DateRange) HasDates() bool {
	return !d.Start.IsZero() && !d.End.IsZero()
}

func (d DateRange) String() string {
	if d.HasDates() {
		return fmt.Sprintf("%s to %s (%d days)",
			d.Start.Format("January 2, 2006"),
			d.End.Format("January 2, 2006"),
			d.Days)
	}
	return fmt.Sprintf("%d days", d.Days)
}

// Value is the typed payload of a slot. Exactly one field matching Kind is
// meaningful; the rest stay zero so JSON snapshots remain compact.
type Value struct {
	Kind   ValueKind  `json:"kind"`
	Text   string     `json:"text,omitempty"`
	Number float64    `json:"number,omitempty"`
	Money  *Money     `json:"money,omitempty"`
	Dates  *DateRange `json:"dates,omitempty"`
	List   []string   `json:"list,omitempty"`
}

func TextValue(s string) Value       { return Value{Kind: KindText, Text: s} }
func NumberValue(n float64) Value    { return Value{Kind: KindNumber, Number: n} }
func MoneyValue(m Money) Value       { return Value{Kind: KindMoney, Money: &m} }
func DatesValue(d DateRange) Value   { return Value{Kind: KindDateRange, Dates: &d} }
func ListValue(items []string) Value { return Value{Kind: KindList, List: items} }

// IsZero reports whether the value carries no payload.
func (v Value) IsZero() bool {
	return v.Kind == ""
}

// Equal compares two values semantically: text case-insensitively, lists as
// sets, money by amount+currency, date ranges by endpoints and duration.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindText:
		return strings.EqualFold(strings.TrimSpace(v.Text), strings.TrimSpace(o.Text))
	case KindNumber:
		return v.Number == o.Number
	case KindMoney:
		if v.Money == nil || o.Money == nil {
			return v.Money == o.Money
		}
		return v.Money.Amount == o.Money.Amount &&
			strings.EqualFold(v.Money.Currency, o.Money.Currency)
	case KindDateRange:
		if v.Dates == nil || o.Dates == nil {
			return v.Dates == o.Dates
		}
		return v.Dates.Start.Equal(o.Dates.Start) &&
			v.Dates.End.Equal(o.Dates.End) &&
			v.Dates.Days == o.Dates.Days
	case KindList:
		if len(v.List) != len(o.List) {
			return false
		}
		a := normalizedSet(v.List)
		b := normalizedSet(o.List)
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
		return true
	}
	return false
}

func normalizedSet(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		out = append(out, strings.ToLower(strings.TrimSpace(s)))
	}
	sort.Strings(out)
	return out
}

func (v Value) String() string {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindNumber:
		return fmt.Sprintf("%.0f", v.Number)
	case KindMoney:
		if v.Money != nil {
			return v.Money.String()
		}
	case KindDateRange:
		if v.Dates != nil {
			return v.Dates.String()
		}
	case KindList:
		return strings.Join(v.List, ", ")
	}
	return ""
}

// Slot is one named, typed attribute of the trip with its fill/lock state.
//
// Invariants: Locked implies Filled, and a locked value never changes except
// through the explicit unlock path.
type Slot struct {
	Name  SlotName `json:"name"`
	Value Value    `json:"value"`

	Filled bool `json:"filled"`
	Locked bool `json:"locked"`

	// NeedsClarification is set when the value was accepted but a required
	// disambiguation (e.g. missing currency) must be resolved before the
	// dialogue can move on.
	NeedsClarification bool `json:"needsClarification,omitempty"`

	ConfirmedAt *time.Time `json:"confirmedAt,omitempty"`
	LastUpdated time.Time  `json:"lastUpdated"`
}
