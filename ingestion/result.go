package ingestion

import (
	"time"

	"github.com/google/uuid"
)

// SourceResult summarizes one ingestion unit.
type SourceResult struct {
	Source      string        `json:"source"`
	RunID       uuid.UUID     `json:"run_id"`
	Received    int           `json:"received"`     // Raw records handed over by the scraper
	Accepted    int           `json:"accepted"`     // Stored or already up to date
	Rejected    int           `json:"rejected"`     // Ended or past their deadline
	Dropped     int           `json:"dropped"`      // Invalid records
	FieldErrors int           `json:"field_errors"` // Fields that failed to parse and were nulled
	Indexed     int           `json:"indexed"`
	Success     bool          `json:"success"`
	Elapsed     time.Duration `json:"elapsed"`
	Error       string        `json:"error,omitempty"`
	Err         error         `json:"-"`
}

func newSourceResult(source string) *SourceResult {
	return &SourceResult{Source: source, RunID: uuid.New()}
}

func (r *SourceResult) fail(err error) {
	r.Success = false
	r.Err = err
	r.Error = err.Error()
}

// Totals adds up a set of results.
func Totals(results []*SourceResult) (accepted, rejected, dropped, failed int) {
	for _, r := range results {
		accepted += r.Accepted
		rejected += r.Rejected
		dropped += r.Dropped
		if !r.Success {
			failed++
		}
	}
	return accepted, rejected, dropped, failed
}
