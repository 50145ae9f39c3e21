package storage

import (
	"cmp"
	"slices"
	"strings"

	"github.com/poiesic/hackfind/core"
)

// Sort keys accepted by EventQuery.SortBy.
const (
	SortByStartDate = "start_date"
	SortByPrize     = "prize"
	SortByRecency   = "recency"
	SortByTitle     = "title"
)

// Sort orders accepted by EventQuery.SortOrder.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// DefaultPageSize is used when EventQuery.PageSize is not positive.
const DefaultPageSize = 50

// EventQuery describes a filtered, sorted and paginated event listing.
// Zero-valued fields do not filter.
type EventQuery struct {
	Search    string      // case-insensitive substring over title, description and location
	Source    string      // exact source
	Sources   []string    // any of these sources
	Mode      core.Mode   // exact mode
	Status    core.Status // resolved status
	Tags      []string    // at least one of these tags, case-insensitive
	MinPrize  float64     // > 0 enables; events without a numeric prize are excluded
	SortBy    string
	SortOrder string
	Page      int // 1-based
	PageSize  int
}

// Normalized returns a copy with defaults applied: unknown sort keys become
// start_date, an empty order becomes the key's default, and paging is clamped.
func (q EventQuery) Normalized() EventQuery {
	switch q.SortBy {
	case SortByStartDate, SortByPrize, SortByRecency, SortByTitle:
	default:
		q.SortBy = SortByStartDate
	}
	switch strings.ToLower(q.SortOrder) {
	case SortAsc:
		q.SortOrder = SortAsc
	case SortDesc:
		q.SortOrder = SortDesc
	default:
		if q.SortBy == SortByPrize {
			q.SortOrder = SortDesc
		} else {
			q.SortOrder = SortAsc
		}
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	return q
}

// Matches reports whether an event, with its status already resolved,
// satisfies every filter of the query.
func (q EventQuery) Matches(e *core.Event) bool {
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(e.Title), needle) &&
			!strings.Contains(strings.ToLower(e.Description), needle) &&
			!strings.Contains(strings.ToLower(e.Location), needle) {
			return false
		}
	}
	if q.Source != "" && e.Source != q.Source {
		return false
	}
	if len(q.Sources) > 0 && !slices.Contains(q.Sources, e.Source) {
		return false
	}
	if q.Mode != "" && e.Mode != q.Mode {
		return false
	}
	if q.Status != "" && e.Status != q.Status {
		return false
	}
	if len(q.Tags) > 0 && !hasAnyTag(e.Tags, q.Tags) {
		return false
	}
	if q.MinPrize > 0 && (e.PrizePoolNumeric == nil || *e.PrizePoolNumeric < q.MinPrize) {
		return false
	}
	return true
}

func hasAnyTag(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(h, w) {
				return true
			}
		}
	}
	return false
}

// SortEvents orders events in place by the query's sort key and order.
// Events without a value for the key sort last in both directions; ties are
// broken by ascending ID so the order is stable across calls.
func SortEvents(events []*core.Event, q EventQuery) {
	q = q.Normalized()
	desc := q.SortOrder == SortDesc

	slices.SortFunc(events, func(a, b *core.Event) int {
		aNull, bNull, c := compareKey(a, b, q.SortBy)
		switch {
		case aNull && bNull:
			c = 0
		case aNull:
			return 1
		case bNull:
			return -1
		case desc:
			c = -c
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// compareKey compares the sort key of two events in ascending order and
// reports which of them lacks the key.
func compareKey(a, b *core.Event, key string) (aNull, bNull bool, c int) {
	switch key {
	case SortByPrize:
		aNull, bNull = a.PrizePoolNumeric == nil, b.PrizePoolNumeric == nil
		if !aNull && !bNull {
			c = cmp.Compare(*a.PrizePoolNumeric, *b.PrizePoolNumeric)
		}
	case SortByRecency:
		aNull, bNull = a.ScrapedAt.IsZero(), b.ScrapedAt.IsZero()
		if !aNull && !bNull {
			c = a.ScrapedAt.Compare(b.ScrapedAt)
		}
	case SortByTitle:
		c = cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	default:
		aNull, bNull = a.StartDate.IsZero(), b.StartDate.IsZero()
		if !aNull && !bNull {
			c = a.StartDate.Compare(b.StartDate)
		}
	}
	return aNull, bNull, c
}

// Paginate returns the requested page of an already sorted slice.
func Paginate(events []*core.Event, q EventQuery) []*core.Event {
	q = q.Normalized()
	// Compare page numbers before multiplying so huge pages cannot overflow.
	pages := len(events) / q.PageSize
	if len(events)%q.PageSize != 0 {
		pages++
	}
	if q.Page > pages {
		return []*core.Event{}
	}
	start := (q.Page - 1) * q.PageSize
	end := start + min(q.PageSize, len(events)-start)
	return events[start:end]
}

// Apply filters, sorts and paginates events, returning the page and the
// number of matches before pagination.
func Apply(events []*core.Event, q EventQuery) ([]*core.Event, int) {
	matched := make([]*core.Event, 0, len(events))
	for _, e := range events {
		if q.Matches(e) {
			matched = append(matched, e)
		}
	}
	SortEvents(matched, q)
	return Paginate(matched, q), len(matched)
}
