package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-clock/internal/attendance"
)

// RecordsHandler serves per-identity ledger queries.
type RecordsHandler struct {
	recorder *attendance.Recorder
	now      func() time.Time
}

// NewRecordsHandler creates a new records handler.
func NewRecordsHandler(recorder *attendance.Recorder) *RecordsHandler {
	return &RecordsHandler{
		recorder: recorder,
		now:      time.Now,
	}
}

// List returns one identity's records for a date, ordered by time.
func (h *RecordsHandler) List(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r, h.now)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := chi.URLParam(r, "identity")
	records, err := h.recorder.DayRecords(r.Context(), id, date)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "reading records failed")
		return
	}
	if records == nil {
		records = []attendance.Record{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"date":    date,
		"records": records,
	})
}

// Status reports the identity's session state and the status its next record
// would get.
func (h *RecordsHandler) Status(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r, h.now)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := chi.URLParam(r, "identity")
	state, next, err := h.recorder.DayStatus(r.Context(), id, date)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "reading status failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"date":        date,
		"state":       state,
		"next_status": next,
	})
}

// Hours reports the identity's closed-session hours for a date plus the live
// value including a still-open session.
func (h *RecordsHandler) Hours(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r, h.now)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := chi.URLParam(r, "identity")
	closed, live, err := h.recorder.DayHours(r.Context(), id, date)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "reading hours failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"date":   date,
		"closed": attendance.FormatHours(closed),
		"live":   attendance.FormatHours(live),
	})
}
