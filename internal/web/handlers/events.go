package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-clock/internal/attendance"
)

// EventsHandler ingests recognition events from the camera pipeline.
type EventsHandler struct {
	recorder *attendance.Recorder
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(recorder *attendance.Recorder) *EventsHandler {
	return &EventsHandler{recorder: recorder}
}

// eventRequest is one recognition event plus who asked for the record.
type eventRequest struct {
	attendance.Event
	Trigger string `json:"trigger"`
}

// Post handles one recognition event and reports what became of it.
// Skipped and rejected events are normal results, not errors.
func (h *EventsHandler) Post(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	trigger := attendance.TriggerManual
	switch req.Trigger {
	case "", string(attendance.TriggerManual):
	case string(attendance.TriggerAuto):
		trigger = attendance.TriggerAuto
	default:
		respondError(w, http.StatusBadRequest, "unknown trigger: "+sanitizeForLog(req.Trigger))
		return
	}

	outcome, err := h.recorder.Handle(r.Context(), req.Event, trigger)
	if err != nil {
		if errors.Is(err, attendance.ErrInvalidEvent) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("handling recognition event: %v", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	status := http.StatusOK
	if outcome.Kind == attendance.OutcomeRecorded {
		status = http.StatusCreated
	}
	respondJSON(w, status, outcome)
}

// Forget ends an identity's detection streak. The camera pipeline calls this
// when a face leaves the frame so the next sighting starts a fresh streak.
func (h *EventsHandler) Forget(w http.ResponseWriter, r *http.Request) {
	h.recorder.Forget(chi.URLParam(r, "identity"))
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
