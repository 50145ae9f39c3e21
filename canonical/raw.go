package canonical

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// RawRecord is the single input schema every scraper emits.
type RawRecord struct {
	ID                Text    `json:"id,omitempty"`
	Title             Text    `json:"title"`
	URL               Text    `json:"url"`
	Description       Text    `json:"description,omitempty"`
	StartDate         Text    `json:"start_date,omitempty"`
	EndDate           Text    `json:"end_date,omitempty"`
	Deadline          Text    `json:"deadline,omitempty"`
	Location          Text    `json:"location,omitempty"`
	Mode              Text    `json:"mode,omitempty"`
	Prize             Text    `json:"prize,omitempty"`
	Tags              TagList `json:"tags,omitempty"`
	Organizer         Text    `json:"organizer,omitempty"`
	Image             Text    `json:"image,omitempty"`
	ParticipantsCount Text    `json:"participants_count,omitempty"`
	TeamSize          Text    `json:"team_size,omitempty"`
}

// DecodeRecords decodes a JSON array of raw records.
func DecodeRecords(data []byte) ([]*RawRecord, error) {
	var records []*RawRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return records, nil
}

// Text is a loosely typed JSON scalar. Scrapers send numbers, strings,
// booleans or null for the same field; all of them decode to their textual
// form and null decodes to "".
type Text string

// String returns the value with surrounding whitespace removed.
func (t Text) String() string {
	return strings.TrimSpace(string(t))
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		*t = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*t = Text(data)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("%w: expected a scalar, got %s", ErrInvalidRecord, data)
		}
		*t = Text(n.String())
	}
	return nil
}

// TagList accepts either a JSON array of scalars or a single comma separated string.
type TagList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *TagList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if data[0] == '[' {
		var items []Text
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		out := make([]string, len(items))
		for i, item := range items {
			out[i] = string(item)
		}
		*l = out
		return nil
	}

	var single Text
	if err := single.UnmarshalJSON(data); err != nil {
		return err
	}
	*l = strings.Split(string(single), ",")
	return nil
}
