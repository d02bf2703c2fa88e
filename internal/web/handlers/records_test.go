package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-clock/internal/attendance"
	"github.com/kozaktomas/face-clock/internal/ledger/mock"
)

func recordsRouter(h *RecordsHandler) chi.Router {
	router := chi.NewRouter()
	router.Get("/identities/{identity}/records", h.List)
	router.Get("/identities/{identity}/status", h.Status)
	router.Get("/identities/{identity}/hours", h.Hours)
	return router
}

func getJSON(t *testing.T, router chi.Router, url string, wantCode int, out any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != wantCode {
		t.Fatalf("GET %s: expected %d, got %d: %s", url, wantCode, rec.Code, rec.Body.String())
	}
	if out != nil {
		if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
			t.Fatalf("GET %s: failed to decode response: %v", url, err)
		}
	}
}

func TestRecordsList(t *testing.T) {
	store := mock.New()
	seedDay(store, "2025-06-02")
	router := recordsRouter(NewRecordsHandler(newTestRecorder(store)))

	t.Run("NormalizedIdentity", func(t *testing.T) {
		var resp struct {
			Date    string              `json:"date"`
			Records []attendance.Record `json:"records"`
		}
		getJSON(t, router, "/identities/Jan-Novák/records?date=2025-06-02", http.StatusOK, &resp)
		if resp.Date != "2025-06-02" {
			t.Errorf("Expected date echo, got %q", resp.Date)
		}
		if len(resp.Records) != 2 {
			t.Fatalf("Expected 2 records, got %d", len(resp.Records))
		}
		if resp.Records[0].Time != "09:00:00" {
			t.Errorf("Expected time ordering, got %s first", resp.Records[0].Time)
		}
	})

	t.Run("EmptyDayIsEmptyArray", func(t *testing.T) {
		var resp struct {
			Records []attendance.Record `json:"records"`
		}
		getJSON(t, router, "/identities/nobody/records?date=2025-06-02", http.StatusOK, &resp)
		if resp.Records == nil || len(resp.Records) != 0 {
			t.Errorf("Expected empty array, got %v", resp.Records)
		}
	})

	t.Run("InvalidDate", func(t *testing.T) {
		getJSON(t, router, "/identities/jan/records?date=yesterday", http.StatusBadRequest, nil)
	})
}

func TestRecordsStatus(t *testing.T) {
	store := mock.New()
	seedDay(store, "2025-06-02")
	router := recordsRouter(NewRecordsHandler(newTestRecorder(store)))

	var resp struct {
		State      attendance.SessionState `json:"state"`
		NextStatus attendance.Status       `json:"next_status"`
	}

	getJSON(t, router, "/identities/jan%20novak/status?date=2025-06-02", http.StatusOK, &resp)
	if resp.State != attendance.ClosedSession || resp.NextStatus != attendance.StatusClockIn {
		t.Errorf("Expected closed/Clock In, got %s/%s", resp.State, resp.NextStatus)
	}

	getJSON(t, router, "/identities/petra/status?date=2025-06-02", http.StatusOK, &resp)
	if resp.State != attendance.OpenSession || resp.NextStatus != attendance.StatusClockOut {
		t.Errorf("Expected open/Clock Out, got %s/%s", resp.State, resp.NextStatus)
	}

	getJSON(t, router, "/identities/nobody/status?date=2025-06-02", http.StatusOK, &resp)
	if resp.State != attendance.NoRecordYet || resp.NextStatus != attendance.StatusClockIn {
		t.Errorf("Expected no_record/Clock In, got %s/%s", resp.State, resp.NextStatus)
	}
}

func TestRecordsHours(t *testing.T) {
	store := mock.New()
	seedDay(store, "2025-06-02")
	router := recordsRouter(NewRecordsHandler(newTestRecorder(store)))

	var resp struct {
		Closed string `json:"closed"`
		Live   string `json:"live"`
	}
	getJSON(t, router, "/identities/jan%20novak/hours?date=2025-06-02", http.StatusOK, &resp)
	if resp.Closed != "08:00" {
		t.Errorf("Expected closed hours 08:00, got %s", resp.Closed)
	}
	if resp.Live != "08:00" {
		t.Errorf("Expected live hours to match closed session, got %s", resp.Live)
	}
}

func TestRecordsStorageError(t *testing.T) {
	store := mock.New()
	store.ReadError = errRead
	router := recordsRouter(NewRecordsHandler(newTestRecorder(store)))
	getJSON(t, router, "/identities/jan/records?date=2025-06-02", http.StatusInternalServerError, nil)
}
