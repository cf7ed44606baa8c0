package extract

import "strings"

// spelledNumbers maps spelled-out counts to their numeric value. The
// table covers the range users actually type; anything larger arrives as
// digits anyway.
var spelledNumbers = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14,
	"fifteen": 15, "sixteen": 16, "seventeen": 17, "eighteen": 18,
	"nineteen": 19, "twenty": 20,
	"a": 1, "an": 1, "a couple of": 2,
}

// spelledAlternation is the regexp alternation of all spelled numbers,
// longest first so "a couple of" wins over "a".
const spelledAlternation = `a couple of|eleven|twelve|thirteen|fourteen|fifteen|sixteen|seventeen|eighteen|nineteen|twenty|one|two|three|four|five|six|seven|eight|nine|ten|an|a`

// parseCount converts a digit string or spelled-out number to an int.
func parseCount(s string) (int, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, ok := spelledNumbers[s]; ok {
		return n, true
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	if s == "" {
		return 0, false
	}
	return n, true
}
