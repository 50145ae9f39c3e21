package core

import (
	"errors"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// ErrCorruptRecord indicates a stored record could not be decoded.
var ErrCorruptRecord = errors.New("corrupt record")

// EventMUS is the binary codec for Event records.
var EventMUS = eventMUS{}

// ScrapeMetadataMUS is the binary codec for ScrapeMetadata records.
var ScrapeMetadataMUS = scrapeMetadataMUS{}

// IndexEntryMUS is the binary codec for IndexEntry records.
var IndexEntryMUS = indexEntryMUS{}

// musSizer accumulates the encoded size of a record.
type musSizer struct{ n int }

func (s *musSizer) str(v string)   { s.n += ord.String.Size(v) }
func (s *musSizer) boolean(v bool) { s.n += ord.Bool.Size(v) }
func (s *musSizer) i64(v int64)    { s.n += varint.Int64.Size(v) }
func (s *musSizer) u64(v uint64)   { s.n += varint.Uint64.Size(v) }
func (s *musSizer) f32(v float32)  { s.n += raw.Float32.Size(v) }
func (s *musSizer) f64(v float64)  { s.n += raw.Float64.Size(v) }

// musWriter appends fields to a pre-sized buffer.
type musWriter struct {
	bs []byte
	n  int
}

func (w *musWriter) str(v string)   { w.n += ord.String.Marshal(v, w.bs[w.n:]) }
func (w *musWriter) boolean(v bool) { w.n += ord.Bool.Marshal(v, w.bs[w.n:]) }
func (w *musWriter) i64(v int64)    { w.n += varint.Int64.Marshal(v, w.bs[w.n:]) }
func (w *musWriter) u64(v uint64)   { w.n += varint.Uint64.Marshal(v, w.bs[w.n:]) }
func (w *musWriter) f32(v float32)  { w.n += raw.Float32.Marshal(v, w.bs[w.n:]) }
func (w *musWriter) f64(v float64)  { w.n += raw.Float64.Marshal(v, w.bs[w.n:]) }

// musReader decodes fields in order. The first error sticks and turns every
// later read into a no-op.
type musReader struct {
	bs  []byte
	n   int
	err error
}

func (r *musReader) str() (v string) {
	if r.err != nil {
		return
	}
	var n int
	v, n, r.err = ord.String.Unmarshal(r.bs[r.n:])
	r.n += n
	return
}

func (r *musReader) boolean() (v bool) {
	if r.err != nil {
		return
	}
	var n int
	v, n, r.err = ord.Bool.Unmarshal(r.bs[r.n:])
	r.n += n
	return
}

func (r *musReader) i64() (v int64) {
	if r.err != nil {
		return
	}
	var n int
	v, n, r.err = varint.Int64.Unmarshal(r.bs[r.n:])
	r.n += n
	return
}

func (r *musReader) u64() (v uint64) {
	if r.err != nil {
		return
	}
	var n int
	v, n, r.err = varint.Uint64.Unmarshal(r.bs[r.n:])
	r.n += n
	return
}

func (r *musReader) f32() (v float32) {
	if r.err != nil {
		return
	}
	var n int
	v, n, r.err = raw.Float32.Unmarshal(r.bs[r.n:])
	r.n += n
	return
}

func (r *musReader) f64() (v float64) {
	if r.err != nil {
		return
	}
	var n int
	v, n, r.err = raw.Float64.Unmarshal(r.bs[r.n:])
	r.n += n
	return
}

// count reads a length prefix and rejects values that cannot fit in the
// remaining input.
func (r *musReader) count() int {
	c := r.u64()
	if r.err == nil && c > uint64(len(r.bs)-r.n) {
		r.err = ErrCorruptRecord
		return 0
	}
	return int(c)
}

func (r *musReader) date() Date {
	s := r.str()
	if r.err != nil || s == "" {
		return Date{}
	}
	d, err := ParseDate(s)
	if err != nil {
		r.err = err
	}
	return d
}

func (r *musReader) time() time.Time {
	us := r.i64()
	if us == 0 {
		return time.Time{}
	}
	return time.UnixMicro(us).UTC()
}

func (r *musReader) optInt() *int {
	if !r.boolean() {
		return nil
	}
	v := int(r.i64())
	return &v
}

func (r *musReader) optFloat() *float64 {
	if !r.boolean() {
		return nil
	}
	v := r.f64()
	return &v
}

func unixMicro(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

// fieldSink is implemented by musSizer and musWriter so that size and
// layout come from the same field walk.
type fieldSink interface {
	str(string)
	boolean(bool)
	i64(int64)
	u64(uint64)
	f64(float64)
}

func putOptInt(s fieldSink, v *int) {
	s.boolean(v != nil)
	if v != nil {
		s.i64(int64(*v))
	}
}

func putOptFloat(s fieldSink, v *float64) {
	s.boolean(v != nil)
	if v != nil {
		s.f64(*v)
	}
}

func putEvent(s fieldSink, e Event) {
	s.str(e.ID)
	s.str(e.Source)
	s.str(e.Title)
	s.str(e.URL)
	s.str(e.Description)
	s.str(e.StartDate.String())
	s.str(e.EndDate.String())
	s.str(e.Deadline.String())
	s.str(e.Location)
	s.str(string(e.Mode))
	s.str(e.PrizePool)
	putOptFloat(s, e.PrizePoolNumeric)
	s.u64(uint64(len(e.Tags)))
	for _, tag := range e.Tags {
		s.str(tag)
	}
	s.str(e.Organizer)
	s.str(e.ImageURL)
	putOptInt(s, e.TeamSizeMin)
	putOptInt(s, e.TeamSizeMax)
	putOptInt(s, e.ParticipantsCount)
	s.str(string(e.Status))
	s.i64(unixMicro(e.ScrapedAt))
	s.i64(unixMicro(e.LastUpdated))
}

type eventMUS struct{}

func (eventMUS) Size(e Event) int {
	var s musSizer
	putEvent(&s, e)
	return s.n
}

func (eventMUS) Marshal(e Event, bs []byte) int {
	w := musWriter{bs: bs}
	putEvent(&w, e)
	return w.n
}

func (eventMUS) Unmarshal(bs []byte) (Event, int, error) {
	r := musReader{bs: bs}
	var e Event
	e.ID = r.str()
	e.Source = r.str()
	e.Title = r.str()
	e.URL = r.str()
	e.Description = r.str()
	e.StartDate = r.date()
	e.EndDate = r.date()
	e.Deadline = r.date()
	e.Location = r.str()
	e.Mode = Mode(r.str())
	e.PrizePool = r.str()
	e.PrizePoolNumeric = r.optFloat()
	if n := r.count(); n > 0 {
		e.Tags = make([]string, n)
		for i := range e.Tags {
			e.Tags[i] = r.str()
		}
	}
	e.Organizer = r.str()
	e.ImageURL = r.str()
	e.TeamSizeMin = r.optInt()
	e.TeamSizeMax = r.optInt()
	e.ParticipantsCount = r.optInt()
	e.Status = Status(r.str())
	e.ScrapedAt = r.time()
	e.LastUpdated = r.time()
	if r.err != nil {
		return Event{}, r.n, r.err
	}
	return e, r.n, nil
}

func putScrapeMetadata(s fieldSink, m ScrapeMetadata) {
	s.str(m.Source)
	s.i64(unixMicro(m.LastScraped))
	s.i64(int64(m.EventCount))
	s.boolean(m.Success)
	s.str(m.ErrorMessage)
}

type scrapeMetadataMUS struct{}

func (scrapeMetadataMUS) Size(m ScrapeMetadata) int {
	var s musSizer
	putScrapeMetadata(&s, m)
	return s.n
}

func (scrapeMetadataMUS) Marshal(m ScrapeMetadata, bs []byte) int {
	w := musWriter{bs: bs}
	putScrapeMetadata(&w, m)
	return w.n
}

func (scrapeMetadataMUS) Unmarshal(bs []byte) (ScrapeMetadata, int, error) {
	r := musReader{bs: bs}
	var m ScrapeMetadata
	m.Source = r.str()
	m.LastScraped = r.time()
	m.EventCount = int(r.i64())
	m.Success = r.boolean()
	m.ErrorMessage = r.str()
	if r.err != nil {
		return ScrapeMetadata{}, r.n, r.err
	}
	return m, r.n, nil
}

type indexEntryMUS struct{}

func (indexEntryMUS) Size(e IndexEntry) int {
	var s musSizer
	s.str(e.ID)
	s.u64(uint64(len(e.Vector)))
	for _, f := range e.Vector {
		s.f32(f)
	}
	s.u64(uint64(len(e.Metadata)))
	for k, v := range e.Metadata {
		s.str(k)
		s.str(v)
	}
	return s.n
}

func (indexEntryMUS) Marshal(e IndexEntry, bs []byte) int {
	w := musWriter{bs: bs}
	w.str(e.ID)
	w.u64(uint64(len(e.Vector)))
	for _, f := range e.Vector {
		w.f32(f)
	}
	w.u64(uint64(len(e.Metadata)))
	for k, v := range e.Metadata {
		w.str(k)
		w.str(v)
	}
	return w.n
}

func (indexEntryMUS) Unmarshal(bs []byte) (IndexEntry, int, error) {
	r := musReader{bs: bs}
	var e IndexEntry
	e.ID = r.str()
	if n := r.count(); n > 0 {
		e.Vector = make([]float32, n)
		for i := range e.Vector {
			e.Vector[i] = r.f32()
		}
	}
	if n := r.count(); n > 0 {
		e.Metadata = make(map[string]string, n)
		for range n {
			k := r.str()
			e.Metadata[k] = r.str()
		}
	}
	if r.err != nil {
		return IndexEntry{}, r.n, r.err
	}
	return e, r.n, nil
}
