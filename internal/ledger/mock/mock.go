// Package mock provides an in-memory ledger.Store for testing.
package mock

import (
	"context"
	"sort"
	"sync"

	"github.com/kozaktomas/face-clock/internal/attendance"
	"github.com/kozaktomas/face-clock/internal/identity"
)

// Store is an in-memory attendance store with error injection.
type Store struct {
	mu      sync.RWMutex
	byDate  map[string][]attendance.Record
	appends int

	// Error injection
	AppendError error
	ReadError   error
}

// New creates an empty mock store.
func New() *Store {
	return &Store{byDate: make(map[string][]attendance.Record)}
}

// Seed inserts records without going through AppendRecord, for test setup.
func (s *Store) Seed(records ...attendance.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		s.byDate[rec.Date] = append(s.byDate[rec.Date], rec)
	}
}

// Appends reports how many AppendRecord calls succeeded.
func (s *Store) Appends() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.appends
}

// AppendRecord appends one record to the date's in-memory ledger.
func (s *Store) AppendRecord(ctx context.Context, rec attendance.Record) error {
	if s.AppendError != nil {
		return s.AppendError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byDate[rec.Date] = append(s.byDate[rec.Date], rec)
	s.appends++
	return nil
}

// DayRecords returns one identity's records for the date, ordered by time.
func (s *Store) DayRecords(ctx context.Context, id, date string) ([]attendance.Record, error) {
	if s.ReadError != nil {
		return nil, s.ReadError
	}
	want := identity.Normalize(id)

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []attendance.Record
	for _, rec := range s.byDate[date] {
		if identity.Normalize(rec.Identity) == want {
			out = append(out, rec)
		}
	}
	sortByTime(out)
	return out, nil
}

// DateRecords returns every record for the date, ordered by time.
func (s *Store) DateRecords(ctx context.Context, date string) ([]attendance.Record, error) {
	if s.ReadError != nil {
		return nil, s.ReadError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]attendance.Record(nil), s.byDate[date]...)
	sortByTime(out)
	return out, nil
}

// Dates lists every date with records, ascending.
func (s *Store) Dates(ctx context.Context) ([]string, error) {
	if s.ReadError != nil {
		return nil, s.ReadError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	dates := make([]string, 0, len(s.byDate))
	for date := range s.byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates, nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

func sortByTime(records []attendance.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Time < records[j].Time
	})
}
