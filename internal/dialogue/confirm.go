package dialogue

import (
	"fmt"
	"strings"

	"github.com/voyago/voyago/pkg/domain"
)

// Verdict is the outcome of resolving a confirmation reply.
type Verdict int

const (
	// VerdictUnclear means the reply was neither clearly affirmative nor
	// clearly negative; the read-back question is re-issued unchanged.
	VerdictUnclear Verdict = iota
	// VerdictLock confirms the pending value.
	VerdictLock
	// VerdictUnlock rejects the pending value; it is discarded.
	VerdictUnlock
)

// ConfirmationTracker resolves yes/no replies against fixed phrase sets
// and renders the read-back strings used to request confirmation.
type ConfirmationTracker struct {
	affirmatives []string
	negatives    []string
}

// NewConfirmationTracker builds a tracker from the configured phrase sets.
func NewConfirmationTracker(affirmatives, negatives []string) *ConfirmationTracker {
	return &ConfirmationTracker{
		affirmatives: lowerAll(affirmatives),
		negatives:    lowerAll(negatives),
	}
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

// Resolve classifies a reply. Negative phrases win over affirmative ones
// so "no, that's not right, but sure sounds close" rejects. Longer
// confirmatory sentences count as long as they contain an affirmative
// phrase ("yes, plan it!").
func (t *ConfirmationTracker) Resolve(reply string) Verdict {
	normalized := normalizeReply(reply)
	if normalized == "" {
		return VerdictUnclear
	}
	if containsPhrase(normalized, t.negatives) {
		return VerdictUnlock
	}
	if containsPhrase(normalized, t.affirmatives) {
		return VerdictLock
	}
	return VerdictUnclear
}

func normalizeReply(reply string) string {
	lower := strings.ToLower(strings.TrimSpace(reply))
	var b strings.Builder
	for _, r := range lower {
		switch r {
		case '.', ',', '!', '?', ';', ':':
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// containsPhrase reports whether any phrase occurs in the reply on word
// boundaries, so "no" does not fire inside "november".
func containsPhrase(reply string, phrases []string) bool {
	padded := " " + reply + " "
	for _, p := range phrases {
		if strings.Contains(padded, " "+p+" ") {
			return true
		}
	}
	return false
}

// slotLabels are the human names used in read-backs and acknowledgments.
var slotLabels = map[domain.SlotName]string{
	domain.SlotDestination:   "destination",
	domain.SlotDates:         "travel dates",
	domain.SlotBudget:        "budget",
	domain.SlotTravelers:     "travelers",
	domain.SlotOrigin:        "departure city",
	domain.SlotAccommodation: "accommodation",
	domain.SlotStyle:         "travel style",
	domain.SlotInterests:     "interests",
}

func slotLabel(name domain.SlotName) string {
	if l, ok := slotLabels[name]; ok {
		return l
	}
	return string(name)
}

// ReadBack renders a slot value fully expanded: calendar dates with
// weekdays and the computed duration, money as currency plus amount,
// traveler counts pluralized.
func (t *ConfirmationTracker) ReadBack(sl *domain.Slot) string {
	v := sl.Value
	switch sl.Name {
	case domain.SlotDates:
		if v.Dates == nil {
			return v.String()
		}
		if v.Dates.HasDates() {
			return fmt.Sprintf("%s to %s (%d days)",
				v.Dates.Start.Format("Monday, January 2, 2006"),
				v.Dates.End.Format("Monday, January 2, 2006"),
				v.Dates.Days)
		}
		return fmt.Sprintf("%d days", v.Dates.Days)
	case domain.SlotBudget:
		if v.Money == nil {
			return v.String()
		}
		return v.Money.String()
	case domain.SlotTravelers:
		n := int(v.Number)
		if n == 1 {
			return "1 traveler"
		}
		return fmt.Sprintf("%d travelers", n)
	default:
		return v.String()
	}
}

// Question renders the read-back confirmation question for a slot.
func (t *ConfirmationTracker) Question(sl *domain.Slot) string {
	return fmt.Sprintf("Got it — %s: %s. Is that correct?", slotLabel(sl.Name), t.ReadBack(sl))
}
