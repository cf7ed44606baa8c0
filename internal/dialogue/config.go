package dialogue

import (
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/voyago/voyago/internal/extract"
	"github.com/voyago/voyago/pkg/domain"
)

// Config tunes the dialogue flow: slot priority, the questions asked per
// slot, and the phrase sets used to resolve confirmations. Zero-value
// fields fall back to the defaults, so a partial YAML file only overrides
// what it names.
type Config struct {
	// SlotOrder is the priority in which unfilled slots are asked about.
	SlotOrder []domain.SlotName `mapstructure:"slotOrder"`

	// Required slots must all be locked before a search can run.
	Required []domain.SlotName `mapstructure:"required"`

	// Questions maps a slot to the question asked when it is expected.
	Questions map[domain.SlotName]string `mapstructure:"questions"`

	// CurrencyQuestion is asked when a budget amount arrives without a
	// currency marker.
	CurrencyQuestion string `mapstructure:"currencyQuestion"`

	// Affirmatives and Negatives resolve confirmation replies. Matching is
	// case-insensitive on whole phrases and words.
	Affirmatives []string `mapstructure:"affirmatives"`
	Negatives    []string `mapstructure:"negatives"`

	// BudgetLexicon are context words that let a bare number be read as a
	// budget amount.
	BudgetLexicon []string `mapstructure:"budgetLexicon"`

	// Clock supplies the current time. Injectable for deterministic tests.
	Clock func() time.Time `mapstructure:"-"`
}

// DefaultConfig returns the built-in flow configuration.
func DefaultConfig() Config {
	return Config{
		SlotOrder: domain.DefaultSlotOrder(),
		Required:  domain.DefaultRequiredSlots(),
		Questions: map[domain.SlotName]string{
			domain.SlotDestination:   "Where would you like to go?",
			domain.SlotDates:         "When are you planning to travel, and for how long?",
			domain.SlotBudget:        "What's your budget for this trip?",
			domain.SlotTravelers:     "How many people are traveling?",
			domain.SlotOrigin:        "Where will you be traveling from?",
			domain.SlotAccommodation: "What kind of accommodation do you prefer?",
			domain.SlotStyle:         "What travel style are you going for?",
			domain.SlotInterests:     "What are you most interested in doing there?",
		},
		CurrencyQuestion: "Which currency is that in? For example USD, EUR or GBP.",
		Affirmatives: []string{
			"yes", "yeah", "yep", "yup", "sure", "correct", "right",
			"exactly", "confirm", "confirmed", "ok", "okay", "perfect",
			"sounds good", "that's right", "looks good", "go ahead",
			"plan it", "let's do it", "book it", "generate",
		},
		Negatives: []string{
			"no", "nope", "nah", "wrong", "incorrect", "not right",
			"not correct", "that's wrong", "cancel", "change it",
		},
		BudgetLexicon: extract.DefaultBudgetLexicon(),
		Clock:         time.Now,
	}
}

// LoadConfig reads a YAML flow file and overlays it onto the defaults.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read flow config: %w", err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Config{}, fmt.Errorf("parse flow config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Config{}, err
	}
	if err := dec.Decode(doc); err != nil {
		return Config{}, fmt.Errorf("decode flow config %s: %w", path, err)
	}
	return cfg.withDefaults(), nil
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if len(c.SlotOrder) == 0 {
		c.SlotOrder = def.SlotOrder
	}
	if len(c.Required) == 0 {
		c.Required = def.Required
	}
	if len(c.Questions) == 0 {
		c.Questions = def.Questions
	} else {
		for slot, q := range def.Questions {
			if _, ok := c.Questions[slot]; !ok {
				c.Questions[slot] = q
			}
		}
	}
	if c.CurrencyQuestion == "" {
		c.CurrencyQuestion = def.CurrencyQuestion
	}
	if len(c.Affirmatives) == 0 {
		c.Affirmatives = def.Affirmatives
	}
	if len(c.Negatives) == 0 {
		c.Negatives = def.Negatives
	}
	if len(c.BudgetLexicon) == 0 {
		c.BudgetLexicon = def.BudgetLexicon
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	return c
}
