package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/poiesic/hackfind/canonical"
	"github.com/poiesic/hackfind/core"
	"github.com/poiesic/hackfind/ingestion"
	"github.com/poiesic/hackfind/search"
	"github.com/poiesic/hackfind/storage"
)

// MaxPageSize caps page_size on /api/hackathons.
const MaxPageSize = 200

// maxIngestBody bounds the JSON body accepted by /api/ingest/{source}.
const maxIngestBody = 32 << 20

// Error codes returned in the "error" field of failure responses.
const (
	CodeBadRequest           = "bad_request"
	CodeNotFound             = "not_found"
	CodeIndexNotReady        = "index_not_ready"
	CodeEmbeddingUnavailable = "embedding_unavailable"
	CodeStoreUnavailable     = "store_unavailable"
	CodeInternal             = "internal_error"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type listResponse struct {
	Events   []*core.Event `json:"events"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

type searchHit struct {
	ID             string        `json:"id"`
	FusedScore     float64       `json:"fused_score"`
	MatchedSignals []core.Signal `json:"matched_signals"`
	Event          *core.Event   `json:"event"`
}

type searchResponse struct {
	Query   string      `json:"query"`
	Results []searchHit `json:"results"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /api/hackathons
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	q, err := parseEventQuery(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, CodeBadRequest, err)
		return
	}

	events, total, err := s.svc.Events().Query(r.Context(), q)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if events == nil {
		events = []*core.Event{}
	}
	writeJSON(w, http.StatusOK, listResponse{Events: events, Total: total, Page: q.Page, PageSize: q.PageSize})
}

// GET /api/hackathons/{id}
func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := s.svc.Events().Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// GET /api/search/ai?q=
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		s.writeError(w, http.StatusBadRequest, CodeBadRequest, errors.New("missing query parameter 'q'"))
		return
	}

	results, err := s.svc.Search(r.Context(), query)
	switch {
	case errors.Is(err, search.ErrIndexNotReady):
		s.writeError(w, http.StatusServiceUnavailable, CodeIndexNotReady, err)
		return
	case errors.Is(err, search.ErrEmbeddingUnavailable):
		s.writeError(w, http.StatusServiceUnavailable, CodeEmbeddingUnavailable, err)
		return
	case err != nil:
		s.writeStoreError(w, err)
		return
	}

	resp := searchResponse{Query: query, Results: make([]searchHit, len(results))}
	for i, res := range results {
		resp.Results[i] = searchHit{
			ID:             res.ID,
			FusedScore:     res.Score,
			MatchedSignals: res.Signals,
			Event:          res.Event,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Events().Stats(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GET /api/sources
func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.svc.Events().Sources(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sources)
}

// GET /api/tags
func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.svc.Events().Tags(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

// GET /api/sources/metadata
func (s *Server) handleSourceMetadata(w http.ResponseWriter, r *http.Request) {
	rows, err := s.svc.Tracker().All(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if rows == nil {
		rows = []*core.ScrapeMetadata{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// GET /api/stale?max_age_hours=6
func (s *Server) handleStale(w http.ResponseWriter, r *http.Request) {
	var maxAge time.Duration
	if v := r.URL.Query().Get("max_age_hours"); v != "" {
		hours, err := strconv.ParseFloat(v, 64)
		if err != nil || hours <= 0 {
			s.writeError(w, http.StatusBadRequest, CodeBadRequest, fmt.Errorf("invalid max_age_hours %q", v))
			return
		}
		maxAge = time.Duration(hours * float64(time.Hour))
	}

	stale, err := s.svc.StaleSources(r.Context(), maxAge)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"stale": stale})
}

// POST /api/retention/sweep?days=90
func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	days := -1
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, CodeBadRequest, fmt.Errorf("invalid days %q", v))
			return
		}
		days = n
	}

	deleted, err := s.svc.Sweep(r.Context(), days)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}

// POST /api/ingest/{source} with a JSON array of raw records.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	body, err := io.ReadAll(io.LimitReader(r.Body, maxIngestBody))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, CodeBadRequest, err)
		return
	}
	records, err := canonical.DecodeRecords(body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, CodeBadRequest, err)
		return
	}

	res := s.pipeline.IngestSource(r.Context(), ingestion.NewStaticScraper(source, records))
	status := http.StatusOK
	if !res.Success {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, res)
}

func parseEventQuery(r *http.Request) (storage.EventQuery, error) {
	v := r.URL.Query()
	q := storage.EventQuery{
		Search:    strings.TrimSpace(v.Get("search")),
		Mode:      core.Mode(v.Get("mode")),
		Status:    core.Status(v.Get("status")),
		Tags:      splitList(v.Get("tags")),
		SortBy:    v.Get("sort_by"),
		SortOrder: v.Get("sort_order"),
	}

	if sources := splitList(v.Get("source")); len(sources) == 1 {
		q.Source = sources[0]
	} else {
		q.Sources = sources
	}

	var err error
	if q.MinPrize, err = parseFloat(v.Get("min_prize")); err != nil {
		return q, fmt.Errorf("invalid min_prize: %w", err)
	}
	if q.Page, err = parseInt(v.Get("page")); err != nil {
		return q, fmt.Errorf("invalid page: %w", err)
	}
	if q.PageSize, err = parseInt(v.Get("page_size")); err != nil {
		return q, fmt.Errorf("invalid page_size: %w", err)
	}
	q = q.Normalized()
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	return q, nil
}

// splitList splits a comma-separated parameter and drops blank items.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.writeError(w, http.StatusNotFound, CodeNotFound, err)
	case errors.Is(err, storage.ErrInvalidQuery):
		s.writeError(w, http.StatusBadRequest, CodeBadRequest, err)
	case errors.Is(err, storage.ErrStoreUnavailable), errors.Is(err, storage.ErrStorageClosed):
		s.writeError(w, http.StatusServiceUnavailable, CodeStoreUnavailable, err)
	default:
		s.writeError(w, http.StatusInternalServerError, CodeInternal, err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code string, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "code", code, "err", err)
	}
	writeJSON(w, status, errorResponse{Error: code, Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
