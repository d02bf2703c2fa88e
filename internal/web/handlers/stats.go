package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/kozaktomas/face-clock/internal/attendance"
	"github.com/kozaktomas/face-clock/internal/ledger"
)

const statsCacheTTL = 30 * time.Second

// statsCache holds per-date stats with expiry. Kiosk dashboards poll this
// endpoint, so one computed answer is shared across a short window.
type statsCache struct {
	mu      sync.RWMutex
	entries map[string]statsEntry
}

type statsEntry struct {
	data      *StatsResponse
	expiresAt time.Time
}

func (c *statsCache) get(date string) (*StatsResponse, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[date]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.data, true
}

func (c *statsCache) set(date string, data *StatsResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[string]statsEntry)
	}
	c.entries[date] = statsEntry{data: data, expiresAt: time.Now().Add(statsCacheTTL)}
}

// StatsHandler serves per-date ledger statistics.
type StatsHandler struct {
	store ledger.Store
	cache statsCache
	now   func() time.Time
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(store ledger.Store) *StatsHandler {
	return &StatsHandler{
		store: store,
		now:   time.Now,
	}
}

// StatsResponse represents the per-date statistics response.
type StatsResponse struct {
	Date         string `json:"date"`
	Records      int    `json:"records"`
	Identities   int    `json:"identities"`
	OpenSessions int    `json:"open_sessions"`
	Flagged      int    `json:"flagged_records"`
	TotalHours   string `json:"total_hours"`
}

// Get returns statistics for one date (today by default).
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r, h.now)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if cached, ok := h.cache.get(date); ok {
		respondJSON(w, http.StatusOK, cached)
		return
	}

	records, err := h.store.DateRecords(r.Context(), date)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "reading records failed")
		return
	}

	stats := computeStats(date, records)
	h.cache.set(date, stats)
	respondJSON(w, http.StatusOK, stats)
}

// Dates lists every date that has a ledger, ascending.
func (h *StatsHandler) Dates(w http.ResponseWriter, r *http.Request) {
	dates, err := h.store.Dates(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "listing dates failed")
		return
	}
	if dates == nil {
		dates = []string{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"dates": dates})
}

// computeStats folds one date's records into the dashboard numbers.
func computeStats(date string, records []attendance.Record) *StatsResponse {
	byIdentity := make(map[string][]attendance.Record)
	flagged := 0
	for _, rec := range records {
		byIdentity[rec.Identity] = append(byIdentity[rec.Identity], rec)
		if len(rec.Flags) > 0 {
			flagged++
		}
	}

	open := 0
	var total time.Duration
	for _, day := range byIdentity {
		if attendance.CurrentState(day) == attendance.OpenSession {
			open++
		}
		total += attendance.ComputeHours(day)
	}

	return &StatsResponse{
		Date:         date,
		Records:      len(records),
		Identities:   len(byIdentity),
		OpenSessions: open,
		Flagged:      flagged,
		TotalHours:   attendance.FormatHours(total),
	}
}
