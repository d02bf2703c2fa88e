package attendance

// NextStatus decides whether the next record for a day should be a Clock In
// or a Clock Out, by inspecting the chronologically last record of the day.
// Pure and idempotent: without an intervening write it always returns the
// same answer.
//
// A trailing legacy "Present" reads as an open arrival, so the next record
// is a Clock Out. Callers flag such records with FlagLegacyStatus since the
// old data never said whether the person actually left in between.
func NextStatus(records []Record) Status {
	if len(records) == 0 {
		return StatusClockIn
	}

	switch records[len(records)-1].Status {
	case StatusClockIn, StatusPresent:
		return StatusClockOut
	case StatusClockOut:
		return StatusClockIn
	default:
		// Unknown status from a damaged row: safest to start a fresh session.
		return StatusClockIn
	}
}

// CurrentState reports where the identity stands within its day.
func CurrentState(records []Record) SessionState {
	if len(records) == 0 {
		return NoRecordYet
	}

	switch records[len(records)-1].Status {
	case StatusClockIn, StatusPresent:
		return OpenSession
	default:
		return ClosedSession
	}
}
