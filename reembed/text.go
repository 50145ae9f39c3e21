package reembed

import (
	"strings"

	"github.com/poiesic/hackfind/core"
)

// SearchText builds the text that represents an event in the semantic index:
// tags, title, description, location and mode joined by " . ". Tags lead
// because they carry the most topical signal. Blank parts are skipped.
func SearchText(e *core.Event) string {
	parts := []string{
		strings.Join(e.Tags, " "),
		e.Title,
		e.Description,
		e.Location,
		string(e.Mode),
	}

	kept := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " . ")
}

// IndexMetadata is the metadata stored next to an event vector.
func IndexMetadata(e *core.Event) map[string]string {
	return map[string]string{
		"title":  e.Title,
		"source": e.Source,
		"url":    e.URL,
		"mode":   string(e.Mode),
	}
}
