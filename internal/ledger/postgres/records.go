package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kozaktomas/face-clock/internal/attendance"
	"github.com/kozaktomas/face-clock/internal/identity"
)

const flagSeparator = "|"

// RecordRepository provides PostgreSQL-backed attendance record storage.
// Each insert is one transaction, so readers never observe partial rows and
// same-date appends serialize on the database.
type RecordRepository struct {
	pool *Pool
}

// NewRecordRepository creates a new PostgreSQL record repository.
func NewRecordRepository(pool *Pool) *RecordRepository {
	return &RecordRepository{pool: pool}
}

// AppendRecord inserts one record. Records without an ID (legacy imports)
// get one assigned here.
func (r *RecordRepository) AppendRecord(ctx context.Context, rec attendance.Record) error {
	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}

	query := `
		INSERT INTO attendance_records
			(id, identity, record_date, record_time, status, work_hours, confidence, quality, flags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		id,
		identity.Normalize(rec.Identity),
		rec.Date,
		rec.Time,
		string(rec.Status),
		rec.WorkHours,
		nullableScore(rec.Confidence),
		nullableScore(rec.Quality),
		joinFlags(rec.Flags),
	)
	if err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

// DayRecords returns one identity's records for a date, ordered by time.
func (r *RecordRepository) DayRecords(ctx context.Context, id, date string) ([]attendance.Record, error) {
	query := `
		SELECT id, identity, record_date, record_time, status, work_hours, confidence, quality, flags
		FROM attendance_records
		WHERE identity = $1 AND record_date = $2
		ORDER BY record_time ASC
	`

	rows, err := r.pool.Query(ctx, query, identity.Normalize(id), date)
	if err != nil {
		return nil, fmt.Errorf("day records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// DateRecords returns every identity's records for a date, ordered by time.
func (r *RecordRepository) DateRecords(ctx context.Context, date string) ([]attendance.Record, error) {
	query := `
		SELECT id, identity, record_date, record_time, status, work_hours, confidence, quality, flags
		FROM attendance_records
		WHERE record_date = $1
		ORDER BY record_time ASC
	`

	rows, err := r.pool.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("date records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Dates lists every date with records, ascending.
func (r *RecordRepository) Dates(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT record_date FROM attendance_records ORDER BY record_date ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("dates: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return nil, fmt.Errorf("scanning date: %w", err)
		}
		dates = append(dates, date)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating dates: %w", err)
	}
	return dates, nil
}

// Close closes the underlying pool.
func (r *RecordRepository) Close() error {
	return r.pool.Close()
}

func scanRecords(rows *sql.Rows) ([]attendance.Record, error) {
	var records []attendance.Record
	for rows.Next() {
		var (
			rec        attendance.Record
			confidence sql.NullFloat64
			quality    sql.NullFloat64
			flags      string
		)
		if err := rows.Scan(
			&rec.ID, &rec.Identity, &rec.Date, &rec.Time,
			&rec.Status, &rec.WorkHours, &confidence, &quality, &flags,
		); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		if confidence.Valid {
			rec.Confidence = &confidence.Float64
		}
		if quality.Valid {
			rec.Quality = &quality.Float64
		}
		rec.Flags = parseFlags(flags)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return records, nil
}

func nullableScore(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func joinFlags(flags []attendance.Flag) string {
	parts := make([]string, len(flags))
	for i, f := range flags {
		parts[i] = string(f)
	}
	return strings.Join(parts, flagSeparator)
}

func parseFlags(s string) []attendance.Flag {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, flagSeparator)
	flags := make([]attendance.Flag, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			flags = append(flags, attendance.Flag(p))
		}
	}
	return flags
}
