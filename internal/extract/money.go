package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/voyago/voyago/pkg/domain"
)

var currencyBySymbol = map[string]string{
	"$": "USD", "€": "EUR", "£": "GBP", "¥": "JPY",
}

var currencyByWord = map[string]string{
	"usd": "USD", "dollar": "USD", "dollars": "USD", "bucks": "USD",
	"eur": "EUR", "euro": "EUR", "euros": "EUR",
	"gbp": "GBP", "pound": "GBP", "pounds": "GBP", "quid": "GBP",
	"jpy": "JPY", "yen": "JPY",
}

const currencyWordAlternation = `usd|dollars?|bucks|eur|euros?|gbp|pounds?|quid|jpy|yen`

var (
	// "$2000" / "€1,500.50" / "$2k"
	reSymbolAmount = regexp.MustCompile(
		`([$€£¥])\s?(\d[\d,]*(?:\.\d{1,2})?)(k?)\b`)

	// "2000 USD" / "1500 euros" / "2k dollars"
	reWordAmount = regexp.MustCompile(
		`(?i)\b(\d[\d,]*(?:\.\d{1,2})?)(k?)\s*(` + currencyWordAlternation + `)\b`)

	// bare amount, only meaningful in budget context
	reBareAmount = regexp.MustCompile(
		`\b(\d[\d,]*(?:\.\d{1,2})?)(k?)\b`)

	// lone currency marker, answers a pending-currency clarification
	reCurrencyOnly = regexp.MustCompile(
		`(?i)(?:\b(` + currencyWordAlternation + `)\b|([$€£¥]))`)
)

func parseAmount(digits, kSuffix string) (float64, bool) {
	digits = strings.ReplaceAll(digits, ",", "")
	amount, err := strconv.ParseFloat(digits, 64)
	if err != nil || amount <= 0 {
		return 0, false
	}
	if kSuffix != "" {
		amount *= 1000
	}
	return amount, true
}

func (e *Extractor) extractBudget(sc *scratch) (Candidate, bool) {
	if m := reSymbolAmount.FindStringSubmatchIndex(sc.text); m != nil && !sc.isClaimed(m[0], m[1]) {
		amount, ok := parseAmount(group(sc.text, m, 2), group(sc.text, m, 3))
		if ok {
			sc.claim(m[0], m[1])
			return moneyCandidate(amount, currencyBySymbol[group(sc.text, m, 1)]), true
		}
	}
	if m := reWordAmount.FindStringSubmatchIndex(sc.text); m != nil && !sc.isClaimed(m[0], m[1]) {
		amount, ok := parseAmount(group(sc.text, m, 1), group(sc.text, m, 2))
		if ok {
			sc.claim(m[0], m[1])
			cur := currencyByWord[strings.ToLower(group(sc.text, m, 3))]
			return moneyCandidate(amount, cur), true
		}
	}

	// A bare number counts as a budget only when the surrounding text
	// reads like money talk, or the dialogue explicitly asked for the
	// budget. The currency stays PENDING and forces a clarification.
	if !e.lexiconMatch(sc.lower) && sc.expected != domain.SlotBudget {
		return Candidate{}, false
	}
	for _, m := range reBareAmount.FindAllStringSubmatchIndex(sc.text, -1) {
		if sc.isClaimed(m[0], m[1]) {
			continue
		}
		amount, ok := parseAmount(group(sc.text, m, 1), group(sc.text, m, 2))
		if !ok || amount < 10 {
			// Single digits in budget context are more likely counts
			// ("we have 3 kids") than amounts.
			continue
		}
		sc.claim(m[0], m[1])
		c := moneyCandidate(amount, domain.CurrencyPending)
		c.NeedsClarification = true
		return c, true
	}
	return Candidate{}, false
}

// extractCurrencyOnly resolves a pending-currency clarification from a
// reply like "euros" or "in USD". The zero amount signals a partial merge.
func (e *Extractor) extractCurrencyOnly(sc *scratch) (Candidate, bool) {
	m := reCurrencyOnly.FindStringSubmatch(sc.text)
	if m == nil {
		return Candidate{}, false
	}
	cur := ""
	if m[1] != "" {
		cur = currencyByWord[strings.ToLower(m[1])]
	} else if m[2] != "" {
		cur = currencyBySymbol[m[2]]
	}
	if cur == "" {
		return Candidate{}, false
	}
	return Candidate{
		Slot:  domain.SlotBudget,
		Value: domain.MoneyValue(domain.Money{Currency: cur}),
	}, true
}

func moneyCandidate(amount float64, currency string) Candidate {
	return Candidate{
		Slot:  domain.SlotBudget,
		Value: domain.MoneyValue(domain.Money{Amount: amount, Currency: currency}),
	}
}
