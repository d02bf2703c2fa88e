package mariadb

import (
	"context"
	"fmt"
	"strings"

	"github.com/kozaktomas/face-clock/internal/attendance"
)

// LegacyReader pulls attendance rows from the old HRIS `attendance_log`
// table and maps them onto the current record shape.
type LegacyReader struct {
	pool *Pool
}

// NewLegacyReader creates a reader over the pool.
func NewLegacyReader(pool *Pool) *LegacyReader {
	return &LegacyReader{pool: pool}
}

// Dates lists every date present in the legacy table, ascending.
func (r *LegacyReader) Dates(ctx context.Context) ([]string, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT DISTINCT DATE_FORMAT(att_date, '%Y-%m-%d')
		FROM attendance_log
		ORDER BY att_date ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing legacy dates: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return nil, fmt.Errorf("scanning legacy date: %w", err)
		}
		dates = append(dates, date)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating legacy dates: %w", err)
	}
	return dates, nil
}

// DateRecords returns the legacy rows for one date, ordered by time.
func (r *LegacyReader) DateRecords(ctx context.Context, date string) ([]attendance.Record, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT employee_name, DATE_FORMAT(att_date, '%Y-%m-%d'),
		       TIME_FORMAT(att_time, '%H:%i:%s'), direction, work_hours
		FROM attendance_log
		WHERE att_date = ?
		ORDER BY att_time ASC
	`, date)
	if err != nil {
		return nil, fmt.Errorf("reading legacy records: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		var (
			rec       attendance.Record
			direction string
			hours     string
		)
		if err := rows.Scan(&rec.Identity, &rec.Date, &rec.Time, &direction, &hours); err != nil {
			return nil, fmt.Errorf("scanning legacy record: %w", err)
		}
		rec.Status = legacyStatus(direction)
		rec.WorkHours = hours
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating legacy records: %w", err)
	}
	return records, nil
}

// legacyStatus maps the HRIS direction column onto the current status set.
// Anything unrecognized becomes Present, the value the oldest takers used.
func legacyStatus(direction string) attendance.Status {
	switch strings.ToUpper(strings.TrimSpace(direction)) {
	case "IN", "CLOCK IN":
		return attendance.StatusClockIn
	case "OUT", "CLOCK OUT":
		return attendance.StatusClockOut
	default:
		return attendance.StatusPresent
	}
}
