package attendance

import (
	"time"
)

// Status is the kind of attendance record written to the ledger.
type Status string

const (
	StatusClockIn  Status = "Clock In"
	StatusClockOut Status = "Clock Out"
	// StatusPresent appears only in ledgers written by older one-shot
	// attendance takers. It is never written by this engine.
	StatusPresent Status = "Present"
)

// SessionState describes where an identity stands within its day.
type SessionState string

const (
	NoRecordYet   SessionState = "no_record"
	OpenSession   SessionState = "open"
	ClosedSession SessionState = "closed"
)

// Trigger says who asked for the record: a human pressing the button or the
// automatic recognition loop.
type Trigger string

const (
	TriggerManual Trigger = "manual"
	TriggerAuto   Trigger = "auto"
)

// Flag is a non-blocking advisory marker attached to a record for audit.
type Flag string

const (
	FlagLowConfidence    Flag = "low_confidence"
	FlagLowQuality       Flag = "low_quality"
	FlagDailyCapExceeded Flag = "daily_cap_exceeded"
	FlagRapidReentry     Flag = "rapid_reentry"
	// FlagLegacyStatus marks a record whose expected status had to be
	// resolved from a legacy "Present" predecessor.
	FlagLegacyStatus Flag = "legacy_status"
)

// Point is a face-center coordinate in frame pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a face bounding-box size in frame pixels.
type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Event is one recognition observation from the external recognizer.
// Events are consumed immediately and never persisted.
type Event struct {
	Identity   string    `json:"identity"`
	Confidence float64   `json:"confidence"`
	Quality    *float64  `json:"quality,omitempty"` // optional frame/face condition score in [0,1]
	Timestamp  time.Time `json:"timestamp"`
	FaceCenter Point     `json:"face_center"`
	FaceSize   Size      `json:"face_size"`
}

// Record is one immutable attendance ledger row.
// Confidence and Quality are nil when the source schema did not carry them.
type Record struct {
	ID         string   `json:"id,omitempty"`
	Identity   string   `json:"identity"`
	Date       string   `json:"date"` // YYYY-MM-DD
	Time       string   `json:"time"` // HH:MM:SS wall clock
	Status     Status   `json:"status"`
	WorkHours  string   `json:"work_hours,omitempty"` // HH:MM snapshot, fixed at write time
	Confidence *float64 `json:"confidence,omitempty"`
	Quality    *float64 `json:"quality,omitempty"`
	Flags      []Flag   `json:"flags,omitempty"`
}

// HasFlag reports whether the record carries the given advisory flag.
func (r *Record) HasFlag(f Flag) bool {
	for _, have := range r.Flags {
		if have == f {
			return true
		}
	}
	return false
}

// OutcomeKind is the result class of handling one recognition event.
type OutcomeKind string

const (
	OutcomeRecorded OutcomeKind = "recorded"
	OutcomeSkipped  OutcomeKind = "skipped"
	OutcomeRejected OutcomeKind = "rejected"
)

// Outcome is what became of a recognition event: exactly one record written,
// or a reason why not. Skipped and Rejected are expected, non-exceptional
// results and never surface as errors.
type Outcome struct {
	Kind   OutcomeKind `json:"kind"`
	Reason string      `json:"reason,omitempty"`
	Record *Record     `json:"record,omitempty"`
}

func Recorded(rec *Record) Outcome {
	return Outcome{Kind: OutcomeRecorded, Record: rec}
}

func Skipped(reason string) Outcome {
	return Outcome{Kind: OutcomeSkipped, Reason: reason}
}

func Rejected(reason string) Outcome {
	return Outcome{Kind: OutcomeRejected, Reason: reason}
}

// DateOf formats a timestamp as a ledger date key.
func DateOf(t time.Time) string {
	return t.Format("2006-01-02")
}

// TimeOf formats a timestamp as a ledger wall-clock time.
func TimeOf(t time.Time) string {
	return t.Format("15:04:05")
}
