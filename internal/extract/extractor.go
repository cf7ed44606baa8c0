package extract

import (
	"strings"
	"time"

	"github.com/voyago/voyago/pkg/domain"
)

// Candidate is one proposed slot update produced from a user message.
type Candidate struct {
	Slot  domain.SlotName
	Value domain.Value

	// Redundant marks a value semantically equal to what the conversation
	// already knows. The engine acknowledges these without mutating state.
	Redundant bool

	// NeedsClarification marks a value that was accepted but requires a
	// follow-up disambiguation (e.g. a budget amount without a currency).
	NeedsClarification bool
}

// Config tunes the rule tables. Zero values fall back to defaults.
type Config struct {
	// BudgetLexicon are context words that let a bare number be read as a
	// budget amount.
	BudgetLexicon []string

	// Now supplies the current time for relative date phrasings ("until
	// July 3"). Injectable for deterministic tests.
	Now func() time.Time
}

// DefaultBudgetLexicon is the built-in budget-context word list.
func DefaultBudgetLexicon() []string {
	return []string{
		"budget", "spend", "spending", "afford", "cost", "costs",
		"price", "around", "have", "max", "maximum", "total", "cheap",
	}
}

// Extractor turns free text into candidate slot updates. It is stateless
// given its inputs: the same (text, expectedSlot, state) triple always
// yields the same candidates.
type Extractor struct {
	cfg     Config
	lexicon map[string]struct{}
}

// New creates an Extractor with the given config.
func New(cfg Config) *Extractor {
	if len(cfg.BudgetLexicon) == 0 {
		cfg.BudgetLexicon = DefaultBudgetLexicon()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	lex := make(map[string]struct{}, len(cfg.BudgetLexicon))
	for _, w := range cfg.BudgetLexicon {
		lex[strings.ToLower(w)] = struct{}{}
	}
	return &Extractor{cfg: cfg, lexicon: lex}
}

// span is a half-open byte range of the input already consumed by a
// higher-priority rule. Numeric rules skip claimed digits so "7" inside
// "7 days" is never also read as a traveler count or budget.
type span struct{ start, end int }

type scratch struct {
	text     string
	lower    string
	expected domain.SlotName
	state    *domain.State
	claimed  []span
}

func (sc *scratch) claim(start, end int) {
	sc.claimed = append(sc.claimed, span{start, end})
}

func (sc *scratch) isClaimed(start, end int) bool {
	for _, s := range sc.claimed {
		if start < s.end && end > s.start {
			return true
		}
	}
	return false
}

// Extract runs the rule tables against a message. Rules are ordered from
// most to least specific; each slot contributes at most one candidate.
func (e *Extractor) Extract(text string, expected domain.SlotName, state *domain.State) []Candidate {
	sc := &scratch{
		text:     text,
		lower:    strings.ToLower(text),
		expected: expected,
		state:    state,
	}

	var out []Candidate
	add := func(c Candidate, ok bool) {
		if !ok {
			return
		}
		for _, prev := range out {
			if prev.Slot == c.Slot {
				return
			}
		}
		out = append(out, c)
	}

	// A pending currency clarification owns the turn: a full restatement
	// ("2000 euros") replaces the amount, a lone currency marker ("euros")
	// completes the slot via partial merge.
	if expected == domain.SlotBudget && budgetNeedsCurrency(state) {
		if c, ok := e.extractBudget(sc); ok && !c.NeedsClarification {
			return e.markRedundant([]Candidate{c}, state)
		}
		if c, ok := e.extractCurrencyOnly(sc); ok {
			return []Candidate{c}
		}
	}

	// Specific before general: dates claim their numbers first, then
	// money, then traveler counts, so bare-number rules see only what is
	// left.
	add(e.extractDates(sc))
	add(e.extractBudget(sc))
	add(e.extractTravelers(sc))
	add(e.extractDestination(sc))

	// Secondary slots are extracted only when expected (or via the
	// explicit-change path, which calls ExtractFor directly). This keeps
	// casual mentions of "hotel" or "from" from clobbering state.
	switch expected {
	case domain.SlotOrigin:
		add(e.extractOrigin(sc))
	case domain.SlotAccommodation:
		add(e.extractAccommodation(sc))
	case domain.SlotStyle:
		add(e.extractStyle(sc))
	case domain.SlotInterests:
		add(e.extractInterests(sc))
	}

	return e.markRedundant(out, state)
}

// ExtractFor parses a value for one specific slot, used by the explicit
// "change <slot> to <value>" command where the target slot is known.
func (e *Extractor) ExtractFor(slot domain.SlotName, text string, state *domain.State) (Candidate, bool) {
	sc := &scratch{
		text:     text,
		lower:    strings.ToLower(text),
		expected: slot,
		state:    state,
	}

	var c Candidate
	var ok bool
	switch slot {
	case domain.SlotDestination:
		c, ok = e.extractDestination(sc)
		if !ok {
			c, ok = freeTextCandidate(domain.SlotDestination, text)
		}
	case domain.SlotDates:
		c, ok = e.extractDates(sc)
	case domain.SlotBudget:
		c, ok = e.extractBudget(sc)
	case domain.SlotTravelers:
		c, ok = e.extractTravelers(sc)
	case domain.SlotOrigin:
		c, ok = e.extractOrigin(sc)
		if !ok {
			c, ok = freeTextCandidate(domain.SlotOrigin, text)
		}
	case domain.SlotAccommodation:
		c, ok = e.extractAccommodation(sc)
	case domain.SlotStyle:
		c, ok = e.extractStyle(sc)
	case domain.SlotInterests:
		c, ok = e.extractInterests(sc)
	}
	if !ok {
		return Candidate{}, false
	}
	if cur := state.Slot(slot); cur != nil && cur.Filled && cur.Value.Equal(c.Value) {
		c.Redundant = true
	}
	return c, true
}

func (e *Extractor) markRedundant(cands []Candidate, state *domain.State) []Candidate {
	for i := range cands {
		sl := state.Slot(cands[i].Slot)
		if sl != nil && sl.Filled && sl.Value.Equal(cands[i].Value) {
			cands[i].Redundant = true
			cands[i].NeedsClarification = false
		}
	}
	return cands
}

func budgetNeedsCurrency(state *domain.State) bool {
	if state == nil {
		return false
	}
	sl := state.Slot(domain.SlotBudget)
	return sl != nil && sl.Filled && sl.NeedsClarification &&
		sl.Value.Money != nil && sl.Value.Money.NeedsCurrency()
}

// freeTextCandidate accepts a short free-form answer as a text value,
// used when the slot is explicitly expected and no pattern matched.
func freeTextCandidate(slot domain.SlotName, text string) (Candidate, bool) {
	cleaned := strings.Trim(strings.TrimSpace(text), ".!?")
	if cleaned == "" {
		return Candidate{}, false
	}
	if len(strings.Fields(cleaned)) > 4 {
		return Candidate{}, false
	}
	return Candidate{Slot: slot, Value: domain.TextValue(cleaned)}, true
}

// lexiconMatch reports whether any budget-context word appears in the
// message.
func (e *Extractor) lexiconMatch(lower string) bool {
	for _, w := range strings.FieldsFunc(lower, func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '!' || r == '?' || r == '\''
	}) {
		if _, ok := e.lexicon[w]; ok {
			return true
		}
	}
	return false
}
