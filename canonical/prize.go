package canonical

import (
	"regexp"
	"strconv"
	"strings"
)

// amountPattern matches one number with an optional currency symbol in front
// and the letters glued to it, so "10k", "1st" and "10min" can be told apart.
var amountPattern = regexp.MustCompile(`([$€£₹¥]\s*)?(\d[\d,]*(?:\.\d+)?)([A-Za-z]*)`)

// ParsePrize extracts the numeric value of a prize description. Currency
// symbols and thousands separators are ignored and a directly attached k or m
// multiplies by a thousand or a million. Numbers glued to other letters
// ("1st", "48h") are not amounts. When any amount carries a currency symbol
// or a k/m multiplier only those are summed, so "Top 3 teams share $1,000"
// is 1000; otherwise every bare number is summed.
// Returns nil when nothing parses or the total is zero.
func ParsePrize(value string) *float64 {
	var marked, bare float64
	var hasMarked bool
	for _, m := range amountPattern.FindAllStringSubmatch(value, -1) {
		n, err := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", ""), 64)
		if err != nil {
			continue
		}
		currency := m[1] != ""
		switch strings.ToLower(m[3]) {
		case "":
		case "k":
			n *= 1e3
			currency = true
		case "m":
			n *= 1e6
			currency = true
		default:
			continue
		}
		if currency {
			marked += n
			hasMarked = true
		} else {
			bare += n
		}
	}

	total := bare
	if hasMarked {
		total = marked
	}
	if total <= 0 {
		return nil
	}
	return &total
}
