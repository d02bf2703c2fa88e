package handlers

import (
	"errors"
	"time"

	"github.com/kozaktomas/face-clock/internal/attendance"
	"github.com/kozaktomas/face-clock/internal/config"
	"github.com/kozaktomas/face-clock/internal/ledger/mock"
)

var errRead = errors.New("disk gone")

// testPolicy is permissive enough that a single manual event records.
func testPolicy() config.Policy {
	return config.Policy{
		Name:                  "test",
		WindowSize:            5,
		MinSamples:            1,
		MaxPositionVariance:   1e6,
		MaxConfidenceVariance: 1,
		MinStreakAge:          0,
		MinStableRuns:         1,
		AutoConfidenceFloor:   0.6,
		ManualConfidenceFloor: 0.5,
		ManualCooldown:        3 * time.Second,
		AutoCooldown:          5 * time.Second,
		SuspiciousInterval:    60 * time.Second,
		DailyCap:              10,
		QualityFloor:          0.4,
	}
}

func newTestRecorder(store *mock.Store) *attendance.Recorder {
	return attendance.NewRecorder(testPolicy(), store)
}

func seedDay(store *mock.Store, date string) {
	store.Seed(
		attendance.Record{Identity: "jan novak", Date: date, Time: "09:00:00", Status: attendance.StatusClockIn},
		attendance.Record{Identity: "jan novak", Date: date, Time: "17:00:00", Status: attendance.StatusClockOut, WorkHours: "08:00"},
		attendance.Record{Identity: "petra", Date: date, Time: "08:30:00", Status: attendance.StatusClockIn,
			Flags: []attendance.Flag{attendance.FlagLowConfidence}},
	)
}
