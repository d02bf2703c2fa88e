package attendance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/face-clock/internal/config"
	"github.com/kozaktomas/face-clock/internal/identity"
)

// ErrInvalidEvent marks malformed recognition events (confidence out of
// range, empty identity). The event is dropped; stream processing continues.
var ErrInvalidEvent = errors.New("invalid recognition event")

// RecordStore is the persistence boundary the recorder writes through.
// Appends must be atomic with respect to concurrent readers.
type RecordStore interface {
	// AppendRecord durably appends one record to the date's ledger.
	AppendRecord(ctx context.Context, rec Record) error
	// DayRecords returns the identity's records for a date, ordered by time.
	DayRecords(ctx context.Context, id, date string) ([]Record, error)
}

// Recorder turns recognition events into at most one ledger record each.
// It owns all per-identity mutable state (stability windows, cooldowns,
// daily counts), so independent sites can run independent Recorders.
type Recorder struct {
	policy    config.Policy
	store     RecordStore
	stability *Tracker
	guard     *Guard
	now       func() time.Time
}

// NewRecorder creates a recorder over the given store.
func NewRecorder(policy config.Policy, store RecordStore) *Recorder {
	return &Recorder{
		policy:    policy,
		store:     store,
		stability: NewTracker(policy),
		guard:     NewGuard(policy),
		now:       time.Now,
	}
}

// Handle processes one recognition event. The returned error is non-nil only
// for validation failures; every policy or storage result is an Outcome.
func (r *Recorder) Handle(ctx context.Context, event Event, trigger Trigger) (Outcome, error) {
	id := identity.Normalize(event.Identity)
	if id == "" {
		return Outcome{}, fmt.Errorf("%w: empty identity", ErrInvalidEvent)
	}
	if event.Confidence < 0 || event.Confidence > 1 {
		return Outcome{}, fmt.Errorf("%w: confidence %.3f out of range", ErrInvalidEvent, event.Confidence)
	}
	if event.Quality != nil && (*event.Quality < 0 || *event.Quality > 1) {
		return Outcome{}, fmt.Errorf("%w: quality %.3f out of range", ErrInvalidEvent, *event.Quality)
	}

	ts := event.Timestamp
	if ts.IsZero() {
		ts = r.now()
	}

	stab := r.stability.Observe(id, event.FaceCenter, event.Confidence, ts)

	if trigger == TriggerAuto && !accepted(stab, r.policy) {
		reason := stab.Reason
		if reason == "" {
			reason = string(stab.Status)
		}
		return Skipped("not stable: " + reason), nil
	}

	// Auto writes have no human confirmation, so their floor hard-skips.
	// A manual press below its floor still records, flagged low_confidence.
	if trigger == TriggerAuto && event.Confidence < r.policy.AutoConfidenceFloor {
		return Skipped("low confidence"), nil
	}

	allowed := r.guard.AllowManual(id, ts)
	if trigger == TriggerAuto {
		allowed = r.guard.AllowAuto(id, ts)
	}
	if !allowed {
		return Rejected("cooldown"), nil
	}

	date := DateOf(ts)
	records, err := r.store.DayRecords(ctx, id, date)
	if err != nil {
		r.guard.Release(id, trigger)
		log.Printf("attendance: reading day records for %s/%s: %v", id, date, err)
		return Rejected("storage error"), nil
	}

	next := NextStatus(records)
	legacy := len(records) > 0 && records[len(records)-1].Status == StatusPresent

	flags := r.guard.Flags(id, date, event.Confidence, event.Quality, ts)
	if legacy {
		flags = append(flags, FlagLegacyStatus)
	}

	if r.policy.EnforceDailyCap && r.guard.CapExceeded(id, date) {
		r.guard.Release(id, trigger)
		return Rejected("daily cap"), nil
	}

	confidence := event.Confidence
	rec := Record{
		ID:         uuid.NewString(),
		Identity:   id,
		Date:       date,
		Time:       TimeOf(ts),
		Status:     next,
		Confidence: &confidence,
		Quality:    event.Quality,
		Flags:      flags,
	}

	if next == StatusClockOut {
		rec.WorkHours = FormatHours(ComputeHours(append(records, rec)))
	}

	if err := r.store.AppendRecord(ctx, rec); err != nil {
		// The write never became durable, so the identity must not be
		// penalized: give the cooldown window back.
		r.guard.Release(id, trigger)
		log.Printf("attendance: appending record for %s/%s: %v", id, date, err)
		return Rejected("storage error"), nil
	}

	r.guard.RecordWritten(id, date, ts)
	return Recorded(&rec), nil
}

// accepted maps a stability classification to the policy's automatic-write
// gate.
func accepted(stab Stability, policy config.Policy) bool {
	switch stab.Status {
	case StabilityStable:
		return true
	case StabilityFlexible:
		return policy.AllowFlexible
	default:
		return false
	}
}

// Forget ends the identity's detection streak; call when the face leaves
// the frame.
func (r *Recorder) Forget(id string) {
	r.stability.Reset(identity.Normalize(id))
}

// DayRecords exposes the day ledger for display, identity-normalized.
func (r *Recorder) DayRecords(ctx context.Context, id, date string) ([]Record, error) {
	return r.store.DayRecords(ctx, identity.Normalize(id), date)
}

// DayStatus reports the identity's session state and the status its next
// record would get.
func (r *Recorder) DayStatus(ctx context.Context, id, date string) (SessionState, Status, error) {
	records, err := r.store.DayRecords(ctx, identity.Normalize(id), date)
	if err != nil {
		return "", "", fmt.Errorf("reading day records: %w", err)
	}
	return CurrentState(records), NextStatus(records), nil
}

// DayHours reports closed-session hours and the live value including an open
// session.
func (r *Recorder) DayHours(ctx context.Context, id, date string) (closed, live time.Duration, err error) {
	records, err := r.store.DayRecords(ctx, identity.Normalize(id), date)
	if err != nil {
		return 0, 0, fmt.Errorf("reading day records: %w", err)
	}
	return ComputeHours(records), HoursSoFar(records, r.now()), nil
}
