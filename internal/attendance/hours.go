package attendance

import (
	"fmt"
	"math"
	"time"
)

const day = 24 * time.Hour

// parseClock converts a ledger wall-clock value into an offset since
// midnight. Accepts HH:MM:SS and the HH:MM written by some legacy takers.
func parseClock(s string) (time.Duration, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, nil
		}
	}
	return 0, fmt.Errorf("invalid clock value %q", s)
}

// ComputeHours folds a day's records, ordered by time, into the total worked
// duration. Only closed sessions count: a Clock In opens a session
// (overwriting any earlier unclosed open, which then contributes nothing),
// a Clock Out closes it. Clock Outs that look earlier than their Clock In
// crossed midnight and get a day added. A trailing open session contributes
// zero; see HoursSoFar for the live variant. Unparseable rows are skipped.
func ComputeHours(records []Record) time.Duration {
	var total time.Duration
	openSince := time.Duration(-1)

	for _, rec := range records {
		at, err := parseClock(rec.Time)
		if err != nil {
			continue
		}

		switch rec.Status {
		case StatusClockIn, StatusPresent:
			openSince = at
		case StatusClockOut:
			if openSince < 0 {
				continue
			}
			elapsed := at - openSince
			if elapsed < 0 {
				elapsed += day
			}
			total += elapsed
			openSince = -1
		}
	}

	return total
}

// HoursSoFar is ComputeHours plus the still-running portion of a trailing
// open session, measured against now. This is the display value; record
// snapshots always use ComputeHours.
func HoursSoFar(records []Record, now time.Time) time.Duration {
	total := ComputeHours(records)

	if CurrentState(records) != OpenSession {
		return total
	}

	openAt, err := parseClock(records[len(records)-1].Time)
	if err != nil {
		return total
	}

	nowClock := time.Duration(now.Hour())*time.Hour +
		time.Duration(now.Minute())*time.Minute +
		time.Duration(now.Second())*time.Second

	elapsed := nowClock - openAt
	if elapsed < 0 {
		elapsed += day
	}
	return total + elapsed
}

// FormatHours renders a duration as HH:MM, never negative, 00:00 for a day
// with no closed sessions.
func FormatHours(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	totalMinutes := int(math.Round(d.Minutes()))
	return fmt.Sprintf("%02d:%02d", totalMinutes/60, totalMinutes%60)
}
