package extract

import (
	"regexp"
	"strings"

	"github.com/voyago/voyago/pkg/domain"
)

// A capitalized place name: one to four words, each starting uppercase,
// allowing "New York", "Rio de Janeiro", "Aix-en-Provence".
const placePattern = `([A-Z][\p{L}'’-]*(?:\s+(?:de|del|la|le|von|van|of)\s+[A-Z][\p{L}'’-]*|\s+[A-Z][\p{L}'’-]*){0,3})`

var (
	reDestinationPhrase = regexp.MustCompile(
		`(?:(?i:travel(?:ing|ling)?\s+to|go(?:ing)?\s+to|fly(?:ing)?\s+to|trip\s+to|visit(?:ing)?|vacation\s+in|holiday\s+in|head(?:ing)?\s+to))\s+` + placePattern)

	reLeadingPlace = regexp.MustCompile(`^\s*` + placePattern)

	reOriginPhrase = regexp.MustCompile(
		`(?:(?i:from|leaving\s+from|departing\s+from|flying\s+out\s+of|based\s+in))\s+` + placePattern)

	reTravelersUnit = regexp.MustCompile(
		`(?i)\b(\d{1,2}|` + spelledAlternation + `)\s*(?:people|persons?|travell?ers|adults?|guests?|pax|of\s+us)\b`)

	reTravelersFor = regexp.MustCompile(
		`(?i)\bfor\s+(\d{1,2})\b`)

	reBareCount = regexp.MustCompile(`\b(\d{1,2})\b`)

	reInterestSplit = regexp.MustCompile(`(?i)\s*(?:,|;|\band\b)\s*`)
)

// Group phrases that imply a traveler count without a number.
var groupWords = map[string]int{
	"solo": 1, "alone": 1, "just me": 1, "by myself": 1,
	"couple": 2, "my partner and i": 2, "me and my wife": 2,
	"me and my husband": 2,
}

var accommodationTypes = map[string]string{
	"hotel": "hotel", "hotels": "hotel",
	"hostel": "hostel", "hostels": "hostel",
	"airbnb": "airbnb", "bnb": "bed and breakfast", "b&b": "bed and breakfast",
	"bed and breakfast": "bed and breakfast",
	"apartment": "apartment", "apartments": "apartment", "flat": "apartment",
	"resort": "resort", "resorts": "resort",
	"villa": "villa", "villas": "villa",
	"camping": "camping", "campsite": "camping", "tent": "camping",
}

var travelStyles = map[string]string{
	"luxury": "luxury", "luxurious": "luxury", "upscale": "luxury",
	"budget": "budget", "cheap": "budget", "backpacking": "backpacking",
	"backpacker": "backpacking",
	"family": "family", "romantic": "romantic", "honeymoon": "romantic",
	"adventure": "adventure", "adventurous": "adventure",
	"relaxed": "relaxed", "relaxing": "relaxed", "chill": "relaxed",
	"cultural": "cultural", "culture": "cultural",
}

func (e *Extractor) extractTravelers(sc *scratch) (Candidate, bool) {
	if m := reTravelersUnit.FindStringSubmatchIndex(sc.text); m != nil && !sc.isClaimed(m[0], m[1]) {
		if n, ok := parseCount(group(sc.text, m, 1)); ok && n > 0 {
			sc.claim(m[0], m[1])
			return countCandidate(n), true
		}
	}
	for phrase, n := range groupWords {
		if strings.Contains(sc.lower, phrase) {
			return countCandidate(n), true
		}
	}
	// "for 4" reads as a head count only when the number was not already
	// consumed by a date/duration or amount rule ("for 7 days").
	if m := reTravelersFor.FindStringSubmatchIndex(sc.text); m != nil && !sc.isClaimed(m[2], m[3]) {
		if n, ok := parseCount(group(sc.text, m, 1)); ok && n > 0 && n <= 20 {
			sc.claim(m[0], m[1])
			return countCandidate(n), true
		}
	}
	// A bare number answers the traveler question only when that is what
	// the dialogue just asked.
	if sc.expected == domain.SlotTravelers {
		for _, m := range reBareCount.FindAllStringSubmatchIndex(sc.text, -1) {
			if sc.isClaimed(m[0], m[1]) {
				continue
			}
			if n, ok := parseCount(group(sc.text, m, 1)); ok && n > 0 && n <= 20 {
				sc.claim(m[0], m[1])
				return countCandidate(n), true
			}
		}
	}
	return Candidate{}, false
}

func countCandidate(n int) Candidate {
	return Candidate{Slot: domain.SlotTravelers, Value: domain.NumberValue(float64(n))}
}

func (e *Extractor) extractDestination(sc *scratch) (Candidate, bool) {
	if m := reDestinationPhrase.FindStringSubmatchIndex(sc.text); m != nil {
		place := cleanPlace(group(sc.text, m, 1))
		if place != "" {
			return Candidate{Slot: domain.SlotDestination, Value: domain.TextValue(place)}, true
		}
	}
	// When the destination question is on the table, accept a leading
	// capitalized phrase ("Paris for 7 days") or a short free answer.
	if sc.expected == domain.SlotDestination {
		if m := reLeadingPlace.FindStringSubmatchIndex(sc.text); m != nil && !sc.isClaimed(m[2], m[3]) {
			place := cleanPlace(group(sc.text, m, 1))
			if place != "" && !strings.EqualFold(place, "i") {
				return Candidate{Slot: domain.SlotDestination, Value: domain.TextValue(place)}, true
			}
		}
	}
	return Candidate{}, false
}

func (e *Extractor) extractOrigin(sc *scratch) (Candidate, bool) {
	if m := reOriginPhrase.FindStringSubmatchIndex(sc.text); m != nil {
		place := cleanPlace(group(sc.text, m, 1))
		if place != "" {
			return Candidate{Slot: domain.SlotOrigin, Value: domain.TextValue(place)}, true
		}
	}
	if m := reLeadingPlace.FindStringSubmatchIndex(sc.text); m != nil {
		place := cleanPlace(group(sc.text, m, 1))
		if place != "" && !strings.EqualFold(place, "i") {
			return Candidate{Slot: domain.SlotOrigin, Value: domain.TextValue(place)}, true
		}
	}
	return Candidate{}, false
}

func (e *Extractor) extractAccommodation(sc *scratch) (Candidate, bool) {
	return lexiconCandidate(domain.SlotAccommodation, sc.lower, accommodationTypes)
}

func (e *Extractor) extractStyle(sc *scratch) (Candidate, bool) {
	return lexiconCandidate(domain.SlotStyle, sc.lower, travelStyles)
}

func lexiconCandidate(slot domain.SlotName, lower string, table map[string]string) (Candidate, bool) {
	best := ""
	bestIdx := len(lower) + 1
	for word, canonical := range table {
		if idx := strings.Index(lower, word); idx >= 0 && idx < bestIdx {
			best = canonical
			bestIdx = idx
		}
	}
	if best == "" {
		return Candidate{}, false
	}
	return Candidate{Slot: slot, Value: domain.TextValue(best)}, true
}

func (e *Extractor) extractInterests(sc *scratch) (Candidate, bool) {
	cleaned := strings.Trim(strings.TrimSpace(sc.text), ".!?")
	if cleaned == "" {
		return Candidate{}, false
	}
	parts := reInterestSplit.Split(cleaned, -1)
	var items []string
	for _, p := range parts {
		p = strings.TrimSpace(strings.Trim(p, ".!?"))
		if p == "" {
			continue
		}
		items = append(items, strings.ToLower(p))
		if len(items) == 10 {
			break
		}
	}
	if len(items) == 0 {
		return Candidate{}, false
	}
	return Candidate{Slot: domain.SlotInterests, Value: domain.ListValue(items)}, true
}

// cleanPlace trims trailing connective words that the capitalized-phrase
// pattern can drag along ("London Next" from "London next week").
func cleanPlace(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, ".,!?")
	words := strings.Fields(s)
	for len(words) > 1 {
		last := strings.ToLower(words[len(words)-1])
		if last == "next" || last == "this" || last == "in" || last == "on" {
			words = words[:len(words)-1]
			continue
		}
		break
	}
	return strings.Join(words, " ")
}
