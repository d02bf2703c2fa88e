package attendance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeStore is an in-memory RecordStore with error injection, matching the
// shape of the ledger mock but local to avoid an import cycle.
type fakeStore struct {
	mu      sync.Mutex
	records map[string][]Record // identity + "|" + date

	AppendError error
	ReadError   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string][]Record)}
}

func (s *fakeStore) AppendRecord(ctx context.Context, rec Record) error {
	if s.AppendError != nil {
		return s.AppendError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := rec.Identity + "|" + rec.Date
	s.records[key] = append(s.records[key], rec)
	return nil
}

func (s *fakeStore) DayRecords(ctx context.Context, id, date string) ([]Record, error) {
	if s.ReadError != nil {
		return nil, s.ReadError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Record(nil), s.records[id+"|"+date]...), nil
}

func manualEvent(id string, confidence float64, ts time.Time) Event {
	return Event{
		Identity:   id,
		Confidence: confidence,
		Timestamp:  ts,
		FaceCenter: Point{X: 320, Y: 240},
		FaceSize:   Size{W: 120, H: 150},
	}
}

// warmRecorder returns a permissive-policy recorder whose stability window
// for the identity is already stable at the given time.
func warmRecorder(store RecordStore, id string, ts time.Time) *Recorder {
	r := NewRecorder(permissivePolicy(), store)
	for i := 0; i < 5; i++ {
		r.stability.Observe(id, Point{X: 320, Y: 240}, 0.9, ts.Add(time.Duration(i-5)*300*time.Millisecond))
	}
	return r
}

func TestHandle_FirstEventRecordsClockIn(t *testing.T) {
	store := newFakeStore()
	r := NewRecorder(permissivePolicy(), store)
	ts := time.Date(2025, 6, 2, 9, 0, 0, 0, time.Local)

	out, err := r.Handle(context.Background(), manualEvent("Jan-Novák", 0.92, ts), TriggerManual)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Kind != OutcomeRecorded {
		t.Fatalf("expected recorded, got %s (%s)", out.Kind, out.Reason)
	}
	if out.Record.Status != StatusClockIn {
		t.Errorf("first record of the day must be Clock In, got %s", out.Record.Status)
	}
	if out.Record.Identity != "jan novak" {
		t.Errorf("identity must be normalized, got %q", out.Record.Identity)
	}
	if out.Record.ID == "" {
		t.Error("record must carry an ID")
	}
	if out.Record.Date != "2025-06-02" || out.Record.Time != "09:00:00" {
		t.Errorf("unexpected date/time %s %s", out.Record.Date, out.Record.Time)
	}
}

func TestHandle_ClockOutCarriesHoursSnapshot(t *testing.T) {
	store := newFakeStore()
	ts := time.Date(2025, 6, 2, 9, 0, 0, 0, time.Local)
	r := NewRecorder(permissivePolicy(), store)

	if out, _ := r.Handle(context.Background(), manualEvent("a", 0.9, ts), TriggerManual); out.Kind != OutcomeRecorded {
		t.Fatalf("clock in failed: %s", out.Reason)
	}

	out, err := r.Handle(context.Background(), manualEvent("a", 0.9, ts.Add(8*time.Hour)), TriggerManual)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Kind != OutcomeRecorded || out.Record.Status != StatusClockOut {
		t.Fatalf("expected recorded Clock Out, got %s %v", out.Kind, out.Record)
	}
	if out.Record.WorkHours != "08:00" {
		t.Errorf("expected 08:00 snapshot, got %q", out.Record.WorkHours)
	}
}

func TestHandle_CooldownIdempotence(t *testing.T) {
	// Two calls within the manual cooldown yield exactly one Recorded and
	// one Rejected("cooldown"), never two Recorded.
	store := newFakeStore()
	ts := time.Date(2025, 6, 2, 9, 0, 0, 0, time.Local)
	r := NewRecorder(permissivePolicy(), store)

	first, _ := r.Handle(context.Background(), manualEvent("a", 0.9, ts), TriggerManual)
	second, _ := r.Handle(context.Background(), manualEvent("a", 0.9, ts.Add(time.Second)), TriggerManual)

	if first.Kind != OutcomeRecorded {
		t.Fatalf("expected first recorded, got %s (%s)", first.Kind, first.Reason)
	}
	if second.Kind != OutcomeRejected || second.Reason != "cooldown" {
		t.Fatalf("expected second rejected for cooldown, got %s (%s)", second.Kind, second.Reason)
	}

	records, _ := store.DayRecords(context.Background(), "a", "2025-06-02")
	if len(records) != 1 {
		t.Errorf("expected exactly one persisted record, got %d", len(records))
	}
}

func TestHandle_AutoSkippedWhenNotStable(t *testing.T) {
	store := newFakeStore()
	r := NewRecorder(strictPolicy(), store)
	ts := time.Date(2025, 6, 2, 9, 0, 0, 0, time.Local)

	out, err := r.Handle(context.Background(), manualEvent("a", 0.9, ts), TriggerAuto)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Kind != OutcomeSkipped {
		t.Errorf("expected auto skip on first frame, got %s", out.Kind)
	}
}

func TestHandle_AutoLowConfidenceSkipped(t *testing.T) {
	store := newFakeStore()
	ts := time.Date(2025, 6, 2, 9, 0, 0, 0, time.Local)
	r := warmRecorder(store, "a", ts)

	out, _ := r.Handle(context.Background(), manualEvent("a", 0.5, ts), TriggerAuto)

	if out.Kind != OutcomeSkipped || out.Reason != "low confidence" {
		t.Errorf("expected low-confidence skip for auto trigger, got %s (%s)", out.Kind, out.Reason)
	}
}

func TestHandle_ManualLowConfidenceRecordsWithFlag(t *testing.T) {
	store := newFakeStore()
	r := NewRecorder(permissivePolicy(), store)
	ts := time.Date(2025, 6, 2, 9, 0, 0, 0, time.Local)

	// A human pressed the button, so the write proceeds flagged.
	out, _ := r.Handle(context.Background(), manualEvent("a", 0.2, ts), TriggerManual)

	if out.Kind != OutcomeRecorded {
		t.Fatalf("expected manual low-confidence write to record, got %s (%s)", out.Kind, out.Reason)
	}
	if !out.Record.HasFlag(FlagLowConfidence) {
		t.Error("expected low_confidence flag on the record")
	}
}

func TestHandle_AutoStableRecords(t *testing.T) {
	store := newFakeStore()
	ts := time.Date(2025, 6, 2, 9, 0, 0, 0, time.Local)
	r := warmRecorder(store, "a", ts)

	out, _ := r.Handle(context.Background(), manualEvent("a", 0.9, ts), TriggerAuto)

	if out.Kind != OutcomeRecorded {
		t.Errorf("expected stable auto event to record, got %s (%s)", out.Kind, out.Reason)
	}
}

func TestHandle_StorageErrorRollsBackCooldown(t *testing.T) {
	store := newFakeStore()
	store.AppendError = errors.New("disk full")
	ts := time.Date(2025, 6, 2, 9, 0, 0, 0, time.Local)
	r := NewRecorder(permissivePolicy(), store)

	out, _ := r.Handle(context.Background(), manualEvent("a", 0.9, ts), TriggerManual)
	if out.Kind != OutcomeRejected || out.Reason != "storage error" {
		t.Fatalf("expected storage-error rejection, got %s (%s)", out.Kind, out.Reason)
	}

	// The failed attempt must not consume the cooldown window.
	store.AppendError = nil
	out, _ = r.Handle(context.Background(), manualEvent("a", 0.9, ts.Add(time.Second)), TriggerManual)
	if out.Kind != OutcomeRecorded {
		t.Errorf("expected retry to record after rollback, got %s (%s)", out.Kind, out.Reason)
	}
}

func TestHandle_ReadErrorRejectsWithoutPenalty(t *testing.T) {
	store := newFakeStore()
	store.ReadError = errors.New("corrupt connection")
	ts := time.Date(2025, 6, 2, 9, 0, 0, 0, time.Local)
	r := NewRecorder(permissivePolicy(), store)

	out, _ := r.Handle(context.Background(), manualEvent("a", 0.9, ts), TriggerManual)
	if out.Kind != OutcomeRejected || out.Reason != "storage error" {
		t.Fatalf("expected storage-error rejection, got %s (%s)", out.Kind, out.Reason)
	}

	store.ReadError = nil
	out, _ = r.Handle(context.Background(), manualEvent("a", 0.9, ts.Add(time.Second)), TriggerManual)
	if out.Kind != OutcomeRecorded {
		t.Errorf("expected retry to record, got %s (%s)", out.Kind, out.Reason)
	}
}

func TestHandle_InvalidEvents(t *testing.T) {
	store := newFakeStore()
	r := NewRecorder(permissivePolicy(), store)
	ts := time.Now()

	tests := []struct {
		name  string
		event Event
	}{
		{"empty identity", manualEvent("   ", 0.9, ts)},
		{"confidence above one", manualEvent("a", 1.5, ts)},
		{"negative confidence", manualEvent("a", -0.1, ts)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Handle(context.Background(), tt.event, TriggerManual)
			if !errors.Is(err, ErrInvalidEvent) {
				t.Errorf("expected ErrInvalidEvent, got %v", err)
			}
		})
	}
}

func TestHandle_EnforcedDailyCapRejects(t *testing.T) {
	p := permissivePolicy()
	p.DailyCap = 1
	p.EnforceDailyCap = true
	p.ManualCooldown = 0
	store := newFakeStore()
	r := NewRecorder(p, store)
	ts := time.Date(2025, 6, 2, 9, 0, 0, 0, time.Local)

	if out, _ := r.Handle(context.Background(), manualEvent("a", 0.9, ts), TriggerManual); out.Kind != OutcomeRecorded {
		t.Fatalf("first write failed: %s", out.Reason)
	}

	out, _ := r.Handle(context.Background(), manualEvent("a", 0.9, ts.Add(time.Hour)), TriggerManual)
	if out.Kind != OutcomeRejected || out.Reason != "daily cap" {
		t.Errorf("expected daily-cap rejection, got %s (%s)", out.Kind, out.Reason)
	}
}

func TestHandle_AdvisoryDailyCapFlagsButRecords(t *testing.T) {
	p := permissivePolicy()
	p.DailyCap = 1
	p.ManualCooldown = 0
	p.SuspiciousInterval = 0
	store := newFakeStore()
	r := NewRecorder(p, store)
	ts := time.Date(2025, 6, 2, 9, 0, 0, 0, time.Local)

	if out, _ := r.Handle(context.Background(), manualEvent("a", 0.9, ts), TriggerManual); out.Kind != OutcomeRecorded {
		t.Fatalf("first write failed: %s", out.Reason)
	}

	out, _ := r.Handle(context.Background(), manualEvent("a", 0.9, ts.Add(time.Hour)), TriggerManual)
	if out.Kind != OutcomeRecorded {
		t.Fatalf("advisory cap must not block, got %s (%s)", out.Kind, out.Reason)
	}
	if !out.Record.HasFlag(FlagDailyCapExceeded) {
		t.Error("expected daily_cap_exceeded flag")
	}
}

func TestHandle_LegacyPresentResolvedAndFlagged(t *testing.T) {
	store := newFakeStore()
	store.records["a|2025-06-02"] = []Record{
		{Identity: "a", Date: "2025-06-02", Time: "08:00:00", Status: StatusPresent},
	}
	r := NewRecorder(permissivePolicy(), store)
	ts := time.Date(2025, 6, 2, 16, 0, 0, 0, time.Local)

	out, _ := r.Handle(context.Background(), manualEvent("a", 0.9, ts), TriggerManual)

	if out.Kind != OutcomeRecorded || out.Record.Status != StatusClockOut {
		t.Fatalf("expected Clock Out after legacy Present, got %s %v", out.Kind, out.Record)
	}
	if !out.Record.HasFlag(FlagLegacyStatus) {
		t.Error("expected legacy_status flag when resolving a Present predecessor")
	}
	if out.Record.WorkHours != "08:00" {
		t.Errorf("expected the Present row to open the session, got %q hours", out.Record.WorkHours)
	}
}

func TestDayStatus(t *testing.T) {
	store := newFakeStore()
	r := NewRecorder(permissivePolicy(), store)
	ts := time.Date(2025, 6, 2, 9, 0, 0, 0, time.Local)

	state, next, err := r.DayStatus(context.Background(), "a", "2025-06-02")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != NoRecordYet || next != StatusClockIn {
		t.Errorf("expected fresh day, got %s/%s", state, next)
	}

	if out, _ := r.Handle(context.Background(), manualEvent("a", 0.9, ts), TriggerManual); out.Kind != OutcomeRecorded {
		t.Fatalf("write failed: %s", out.Reason)
	}

	state, next, err = r.DayStatus(context.Background(), "a", "2025-06-02")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != OpenSession || next != StatusClockOut {
		t.Errorf("expected open session, got %s/%s", state, next)
	}
}
