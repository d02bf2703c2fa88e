package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/face-clock/internal/attendance"
	"github.com/kozaktomas/face-clock/internal/ledger/mock"
)

func getStats(t *testing.T, h *StatsHandler, url string) StatsResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	h.Get(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET %s: expected 200, got %d: %s", url, rec.Code, rec.Body.String())
	}
	var resp StatsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode stats: %v", err)
	}
	return resp
}

func TestStatsGet(t *testing.T) {
	store := mock.New()
	seedDay(store, "2025-06-02")
	h := NewStatsHandler(store)

	stats := getStats(t, h, "/stats?date=2025-06-02")
	if stats.Records != 3 {
		t.Errorf("Expected 3 records, got %d", stats.Records)
	}
	if stats.Identities != 2 {
		t.Errorf("Expected 2 identities, got %d", stats.Identities)
	}
	if stats.OpenSessions != 1 {
		t.Errorf("Expected 1 open session, got %d", stats.OpenSessions)
	}
	if stats.Flagged != 1 {
		t.Errorf("Expected 1 flagged record, got %d", stats.Flagged)
	}
	if stats.TotalHours != "08:00" {
		t.Errorf("Expected total hours 08:00, got %s", stats.TotalHours)
	}
}

func TestStatsCached(t *testing.T) {
	store := mock.New()
	seedDay(store, "2025-06-02")
	h := NewStatsHandler(store)

	first := getStats(t, h, "/stats?date=2025-06-02")
	store.Seed(attendance.Record{Identity: "karel", Date: "2025-06-02", Time: "10:00:00", Status: attendance.StatusClockIn})
	second := getStats(t, h, "/stats?date=2025-06-02")

	if second.Records != first.Records {
		t.Errorf("Expected cached stats within TTL, got %d then %d records", first.Records, second.Records)
	}
}

func TestStatsInvalidDate(t *testing.T) {
	h := NewStatsHandler(mock.New())
	req := httptest.NewRequest(http.MethodGet, "/stats?date=nope", nil)
	rec := httptest.NewRecorder()
	h.Get(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestStatsDates(t *testing.T) {
	store := mock.New()
	seedDay(store, "2025-06-02")
	seedDay(store, "2025-06-03")
	h := NewStatsHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/dates", nil)
	rec := httptest.NewRecorder()
	h.Dates(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp struct {
		Dates []string `json:"dates"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode dates: %v", err)
	}
	if len(resp.Dates) != 2 || resp.Dates[0] != "2025-06-02" {
		t.Errorf("Expected two ascending dates, got %v", resp.Dates)
	}
}
