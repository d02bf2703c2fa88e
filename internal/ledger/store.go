// Package ledger defines the persistence boundary for attendance records
// and the selection between the CSV file backend and PostgreSQL.
package ledger

import (
	"context"

	"github.com/kozaktomas/face-clock/internal/attendance"
)

// Store is the full persistence surface. Every backend guarantees that a
// single append is atomic with respect to concurrent readers and that
// appends within one date are serialized.
type Store interface {
	// AppendRecord durably appends one record to the date's ledger.
	AppendRecord(ctx context.Context, rec attendance.Record) error
	// DayRecords returns one identity's records for a date, ordered by time.
	DayRecords(ctx context.Context, identity, date string) ([]attendance.Record, error)
	// DateRecords returns every identity's records for a date, ordered by time.
	DateRecords(ctx context.Context, date string) ([]attendance.Record, error)
	// Dates lists every date that has a ledger, ascending.
	Dates(ctx context.Context) ([]string, error)
	// Close releases backend resources.
	Close() error
}

// Store must satisfy the recorder's narrower write interface.
var _ attendance.RecordStore = (Store)(nil)
