package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/voyago/voyago/pkg/domain"
)

var monthsByName = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may": time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

const monthAlternation = `january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec`

// Literal date-range formats, most specific first. Each normalizer turns
// the match into an explicit start/end pair plus a day count.
var (
	// "June 10-20, 2026" / "June 28 to July 5, 2026"
	reMonthDayRange = regexp.MustCompile(
		`(?i)\b(` + monthAlternation + `)\s+(\d{1,2})(?:st|nd|rd|th)?\s*(?:-|–|—|to|through|until)\s*(?:(` + monthAlternation + `)\s+)?(\d{1,2})(?:st|nd|rd|th)?,?\s*(\d{4})`)

	// "10-15 of July, 2026"
	reDayOfMonthRange = regexp.MustCompile(
		`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s*(?:-|–|—|to)\s*(\d{1,2})(?:st|nd|rd|th)?\s+of\s+(` + monthAlternation + `),?\s*(\d{4})`)

	// "until July 3" / "until July 3, 2026", a window starting today
	reUntilDate = regexp.MustCompile(
		`(?i)\buntil\s+(` + monthAlternation + `)\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s*(\d{4}))?`)

	// "7 days" / "10 nights" / "2 weeks" / "two weeks"
	reDuration = regexp.MustCompile(
		`(?i)\b(\d{1,3}|` + spelledAlternation + `)[\s-]*(days?|nights?|weeks?)\b`)
)

func (e *Extractor) extractDates(sc *scratch) (Candidate, bool) {
	if m := reMonthDayRange.FindStringSubmatchIndex(sc.text); m != nil {
		c, ok := e.normalizeMonthDayRange(sc.text, m)
		if ok {
			sc.claim(m[0], m[1])
			return c, true
		}
	}
	if m := reDayOfMonthRange.FindStringSubmatchIndex(sc.text); m != nil {
		c, ok := e.normalizeDayOfMonthRange(sc.text, m)
		if ok {
			sc.claim(m[0], m[1])
			return c, true
		}
	}
	if m := reUntilDate.FindStringSubmatchIndex(sc.text); m != nil {
		c, ok := e.normalizeUntil(sc.text, m)
		if ok {
			sc.claim(m[0], m[1])
			return c, true
		}
	}
	if m := reDuration.FindStringSubmatchIndex(sc.text); m != nil {
		c, ok := normalizeDuration(sc.text, m)
		if ok {
			sc.claim(m[0], m[1])
			return c, true
		}
	}
	return Candidate{}, false
}

func group(text string, m []int, i int) string {
	if m[2*i] < 0 {
		return ""
	}
	return text[m[2*i]:m[2*i+1]]
}

func (e *Extractor) normalizeMonthDayRange(text string, m []int) (Candidate, bool) {
	startMonth, ok := monthsByName[strings.ToLower(group(text, m, 1))]
	if !ok {
		return Candidate{}, false
	}
	endMonth := startMonth
	if g := group(text, m, 3); g != "" {
		endMonth, ok = monthsByName[strings.ToLower(g)]
		if !ok {
			return Candidate{}, false
		}
	}
	startDay, _ := strconv.Atoi(group(text, m, 2))
	endDay, _ := strconv.Atoi(group(text, m, 4))
	year, _ := strconv.Atoi(group(text, m, 5))

	start := time.Date(year, startMonth, startDay, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, endMonth, endDay, 0, 0, 0, 0, time.UTC)
	// Cross-year ranges like "December 28 to January 3, 2027": the year in
	// the text belongs to the end date.
	if end.Before(start) && endMonth < startMonth {
		start = start.AddDate(-1, 0, 0)
	}
	return rangeCandidate(start, end)
}

func (e *Extractor) normalizeDayOfMonthRange(text string, m []int) (Candidate, bool) {
	month, ok := monthsByName[strings.ToLower(group(text, m, 3))]
	if !ok {
		return Candidate{}, false
	}
	startDay, _ := strconv.Atoi(group(text, m, 1))
	endDay, _ := strconv.Atoi(group(text, m, 2))
	year, _ := strconv.Atoi(group(text, m, 4))

	start := time.Date(year, month, startDay, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, month, endDay, 0, 0, 0, 0, time.UTC)
	return rangeCandidate(start, end)
}

func (e *Extractor) normalizeUntil(text string, m []int) (Candidate, bool) {
	month, ok := monthsByName[strings.ToLower(group(text, m, 1))]
	if !ok {
		return Candidate{}, false
	}
	day, _ := strconv.Atoi(group(text, m, 2))

	now := e.cfg.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	year := today.Year()
	if g := group(text, m, 3); g != "" {
		year, _ = strconv.Atoi(g)
	}
	end := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	// Without an explicit year, "until March 3" means the next occurrence.
	if group(text, m, 3) == "" && end.Before(today) {
		end = end.AddDate(1, 0, 0)
	}
	return rangeCandidate(today, end)
}

func rangeCandidate(start, end time.Time) (Candidate, bool) {
	if end.Before(start) {
		return Candidate{}, false
	}
	days := int(end.Sub(start).Hours()/24) + 1
	return Candidate{
		Slot:  domain.SlotDates,
		Value: domain.DatesValue(domain.DateRange{Start: start, End: end, Days: days}),
	}, true
}

func normalizeDuration(text string, m []int) (Candidate, bool) {
	n, ok := parseCount(group(text, m, 1))
	if !ok || n <= 0 {
		return Candidate{}, false
	}
	unit := strings.ToLower(group(text, m, 2))
	days := n
	switch {
	case strings.HasPrefix(unit, "week"):
		days = n * 7
	case strings.HasPrefix(unit, "night"):
		days = n + 1
	}
	return Candidate{
		Slot:  domain.SlotDates,
		Value: domain.DatesValue(domain.DateRange{Days: days}),
	}, true
}
