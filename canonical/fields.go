package canonical

import (
	"cmp"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/poiesic/hackfind/core"
)

var explicitModes = map[string]core.Mode{
	"online":    core.ModeOnline,
	"virtual":   core.ModeOnline,
	"remote":    core.ModeOnline,
	"in-person": core.ModeInPerson,
	"in person": core.ModeInPerson,
	"inperson":  core.ModeInPerson,
	"offline":   core.ModeInPerson,
	"onsite":    core.ModeInPerson,
	"on-site":   core.ModeInPerson,
	"physical":  core.ModeInPerson,
	"hybrid":    core.ModeHybrid,
}

// DetectMode maps an explicit mode to the canonical set and otherwise infers
// it from the location: no location means online, a location mentioning
// online/virtual/remote is online, one mentioning hybrid is hybrid, and any
// other location is in-person.
func DetectMode(explicit, location string) core.Mode {
	if m, ok := explicitModes[strings.ToLower(strings.TrimSpace(explicit))]; ok {
		return m
	}

	loc := strings.ToLower(strings.TrimSpace(location))
	switch {
	case loc == "":
		return core.ModeOnline
	case strings.Contains(loc, "hybrid"):
		return core.ModeHybrid
	case strings.Contains(loc, "online"), strings.Contains(loc, "virtual"), strings.Contains(loc, "remote"):
		return core.ModeOnline
	default:
		return core.ModeInPerson
	}
}

// NormalizeTags trims tags, drops empty ones, removes case-insensitive
// duplicates (keeping the first spelling) and sorts the result.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	slices.SortFunc(out, func(a, b string) int {
		if c := cmp.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return out
}

var (
	integerPattern = regexp.MustCompile(`\d+`)
	countPattern   = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([kK]?)\+?$`)
)

// ParseTeamSize reads "2-4", "up to 4" or "4" style team sizes.
// An empty value yields nil bounds without error.
func ParseTeamSize(value string) (minSize, maxSize *int, err error) {
	s := strings.ToLower(strings.TrimSpace(value))
	if s == "" {
		return nil, nil, nil
	}

	nums := integerPattern.FindAllString(s, 2)
	switch len(nums) {
	case 0:
		return nil, nil, fmt.Errorf("%w: no team size in %q", ErrParse, value)
	case 1:
		n, err := strconv.Atoi(nums[0])
		if err != nil {
			return nil, nil, fmt.Errorf("%w: team size %q: %w", ErrParse, value, err)
		}
		if strings.Contains(s, "up to") || strings.Contains(s, "max") || strings.Contains(s, "<=") {
			return nil, &n, nil
		}
		m := n
		return &n, &m, nil
	default:
		lo, err := strconv.Atoi(nums[0])
		if err != nil {
			return nil, nil, fmt.Errorf("%w: team size %q: %w", ErrParse, value, err)
		}
		hi, err := strconv.Atoi(nums[1])
		if err != nil {
			return nil, nil, fmt.Errorf("%w: team size %q: %w", ErrParse, value, err)
		}
		if lo > hi {
			lo, hi = hi, lo
		}
		return &lo, &hi, nil
	}
}

// ParseCount reads participant counts such as 1234, "1,234", "500+" or "1.2k".
// An empty value yields nil without error.
func ParseCount(value string) (*int, error) {
	s := strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	if s == "" {
		return nil, nil
	}
	m := countPattern.FindStringSubmatch(s)
	if m == nil {
		return nil, fmt.Errorf("%w: not a count %q", ErrParse, value)
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	if m[2] != "" {
		n *= 1e3
	}
	count := int(math.Round(n))
	return &count, nil
}
