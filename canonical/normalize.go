package canonical

import (
	"fmt"
	"strings"

	"github.com/poiesic/hackfind/core"
)

// Normalize converts one raw scraper record into a canonical Event.
//
// A record without a title or url is rejected with an error wrapping
// core.ErrInvalidEvent; callers drop and count it. Fields that fail to parse
// are reported as ParseErrors and left empty on the returned event. The
// event status is not set here; the store resolves it against the current day.
func Normalize(raw *RawRecord, source string) (*core.Event, []*ParseError, error) {
	if raw == nil {
		return nil, nil, fmt.Errorf("%w: record is nil", core.ErrInvalidEvent)
	}
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, nil, fmt.Errorf("%w: %w", core.ErrInvalidEvent, core.ErrMissingSource)
	}
	title := raw.Title.String()
	if title == "" {
		return nil, nil, fmt.Errorf("%w: %w", core.ErrInvalidEvent, core.ErrMissingTitle)
	}
	rawURL := raw.URL.String()
	if rawURL == "" {
		return nil, nil, fmt.Errorf("%w: %w", core.ErrInvalidEvent, core.ErrMissingURL)
	}

	var parseErrs []*ParseError
	date := func(field string, value Text) core.Date {
		d, err := ParseDate(value.String())
		if err != nil {
			parseErrs = append(parseErrs, newParseError(field, value.String(), err))
		}
		return d
	}

	location := raw.Location.String()
	prizeText := raw.Prize.String()

	event := &core.Event{
		ID:               core.EventID(source, NativeID(raw.ID.String(), rawURL)),
		Source:           source,
		Title:            title,
		URL:              CanonicalURL(rawURL),
		Description:      raw.Description.String(),
		StartDate:        date("start_date", raw.StartDate),
		EndDate:          date("end_date", raw.EndDate),
		Deadline:         date("deadline", raw.Deadline),
		Location:         location,
		Mode:             DetectMode(raw.Mode.String(), location),
		PrizePool:        prizeText,
		PrizePoolNumeric: ParsePrize(prizeText),
		Tags:             NormalizeTags(raw.Tags),
		Organizer:        raw.Organizer.String(),
		ImageURL:         raw.Image.String(),
	}

	count, err := ParseCount(raw.ParticipantsCount.String())
	if err != nil {
		parseErrs = append(parseErrs, newParseError("participants_count", raw.ParticipantsCount.String(), err))
	}
	event.ParticipantsCount = count

	minSize, maxSize, err := ParseTeamSize(raw.TeamSize.String())
	if err != nil {
		parseErrs = append(parseErrs, newParseError("team_size", raw.TeamSize.String(), err))
	}
	event.TeamSizeMin, event.TeamSizeMax = minSize, maxSize

	return event, parseErrs, nil
}
