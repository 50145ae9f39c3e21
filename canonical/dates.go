package canonical

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/hackfind/core"
)

// dateTimeLayouts carry a time component; only their date part is kept.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// dateLayouts are tried in order after the ISO forms.
var dateLayouts = []string{
	"2006-1-2",
	"2006/1/2",
	"20060102",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"January 2 2006",
	"2 Jan 2006",
	"2 January 2006",
	"2 Jan, 2006",
	"Mon, Jan 2, 2006",
	"Monday, January 2, 2006",
	"2-1-2006",
	"1/2/2006",
	"2.1.2006",
}

var (
	ordinalSuffix = regexp.MustCompile(`(?i)\b(\d{1,2})(st|nd|rd|th)\b`)
	digitsOnly    = regexp.MustCompile(`^\d+$`)
)

// ParseDate interprets the many date spellings scrapers produce. An empty
// value is the unknown date, not an error.
//
// Digit strings of 9 or more characters are Unix timestamps: seconds up to 11
// digits, milliseconds beyond that.
func ParseDate(value string) (core.Date, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return core.Date{}, nil
	}

	if digitsOnly.MatchString(s) && len(s) >= 9 {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return core.Date{}, fmt.Errorf("%w: timestamp %q: %w", ErrParse, s, err)
		}
		if len(s) >= 12 {
			return core.DateOf(time.UnixMilli(n).UTC()), nil
		}
		return core.DateOf(time.Unix(n, 0).UTC()), nil
	}

	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.DateOf(t), nil
		}
	}

	s = ordinalSuffix.ReplaceAllString(s, "$1")
	s = strings.Join(strings.Fields(s), " ")
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.DateOf(t), nil
		}
	}

	return core.Date{}, fmt.Errorf("%w: unrecognized date %q", ErrParse, value)
}
