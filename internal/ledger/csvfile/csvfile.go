// Package csvfile stores attendance records as one append-only CSV file per
// calendar date, the format shared with older attendance takers.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kozaktomas/face-clock/internal/attendance"
	"github.com/kozaktomas/face-clock/internal/identity"
)

const (
	filePrefix = "attendance_"
	fileSuffix = ".csv"

	appendRetries = 3
	retryDelay    = 50 * time.Millisecond
)

// Canonical column set: the union of every schema version ever written.
// Older files may carry any subset in any order; readers match by name.
var canonicalHeader = []string{
	"IDENTITY", "TIME", "DATE", "STATUS", "WORK_HOURS", "CONFIDENCE", "QUALITY", "FLAGS",
}

const flagSeparator = "|"

// Store is a date-scoped CSV file backend. The mutex serializes appends so
// rows from concurrent identities never interleave; each row is flushed
// whole, so readers never observe a partial record.
type Store struct {
	dir string
	mu  sync.Mutex
}

// New creates a CSV store rooted at dir. The directory is created on the
// first append, not here, so read-only use never touches the filesystem.
func New(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) path(date string) string {
	return filepath.Join(s.dir, filePrefix+date+fileSuffix)
}

// AppendRecord appends one record to the date's file, creating the file with
// the canonical header when needed. Transient errors are retried a bounded
// number of times before surfacing.
func (s *Store) AppendRecord(ctx context.Context, rec attendance.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt < appendRetries; attempt++ {
		if lastErr = s.appendOnce(rec); lastErr == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	return fmt.Errorf("appending record after %d attempts: %w", appendRetries, lastErr)
}

func (s *Store) appendOnce(rec attendance.Record) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating ledger directory: %w", err)
	}

	path := s.path(rec.Date)
	header, err := readHeader(path)
	if errors.Is(err, fs.ErrNotExist) {
		header = canonicalHeader
		if err := writeHeader(path, header); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening ledger file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	// Rows follow the file's own header so legacy files stay aligned.
	if err := w.Write(rowFor(rec, header)); err != nil {
		return fmt.Errorf("writing record row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing record row: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing ledger file: %w", err)
	}
	return nil
}

func readHeader(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading ledger header: %w", err)
	}
	for i := range header {
		header[i] = strings.ToUpper(strings.TrimSpace(header[i]))
	}
	return header, nil
}

func writeHeader(path string, header []string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("creating ledger file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing ledger header: %w", err)
	}
	w.Flush()
	return w.Error()
}

// rowFor renders the record in the given header's column order. Columns the
// header lacks are dropped, matching the file's schema version.
func rowFor(rec attendance.Record, header []string) []string {
	row := make([]string, len(header))
	for i, col := range header {
		switch col {
		case "IDENTITY", "NAME":
			row[i] = rec.Identity
		case "TIME":
			row[i] = rec.Time
		case "DATE":
			row[i] = rec.Date
		case "STATUS":
			row[i] = string(rec.Status)
		case "WORK_HOURS":
			row[i] = rec.WorkHours
		case "CONFIDENCE":
			row[i] = formatScore(rec.Confidence)
		case "QUALITY":
			row[i] = formatScore(rec.Quality)
		case "FLAGS":
			row[i] = joinFlags(rec.Flags)
		}
	}
	return row
}

func formatScore(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 3, 64)
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

func parseScore(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// readDate loads every parseable row of a date's file. A missing file is an
// empty day; a corrupt file yields whatever rows still parse, never an
// error, because attendance-taking must keep working over damaged history.
func (s *Store) readDate(date string) []attendance.Record {
	f, err := os.Open(s.path(date))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("csvfile: opening ledger for %s: %v", date, err)
		}
		return nil
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		log.Printf("csvfile: unreadable ledger header for %s: %v", date, err)
		return nil
	}
	cols := make(map[string]int, len(header))
	for i, col := range header {
		cols[strings.ToUpper(strings.TrimSpace(col))] = i
	}

	var records []attendance.Record
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Damaged row: skip it and keep the readable remainder.
			log.Printf("csvfile: skipping damaged row in %s: %v", date, err)
			continue
		}

		cell := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		id := cell("IDENTITY")
		if id == "" {
			// Oldest files named this column NAME.
			id = cell("NAME")
		}
		rec := attendance.Record{
			Identity:   id,
			Time:       cell("TIME"),
			Date:       cell("DATE"),
			Status:     attendance.Status(cell("STATUS")),
			WorkHours:  cell("WORK_HOURS"),
			Confidence: parseScore(cell("CONFIDENCE")),
			Quality:    parseScore(cell("QUALITY")),
			Flags:      parseFlags(cell("FLAGS")),
		}
		if rec.Date == "" {
			rec.Date = date
		}
		if rec.Identity == "" && rec.Status == "" {
			continue
		}
		records = append(records, rec)
	}

	// HH:MM:SS sorts correctly as text.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Time < records[j].Time
	})
	return records
}

// DayRecords returns one identity's records for the date, ordered by time.
// Identities are compared normalized so legacy spellings still match.
func (s *Store) DayRecords(ctx context.Context, id, date string) ([]attendance.Record, error) {
	want := identity.Normalize(id)
	var out []attendance.Record
	for _, rec := range s.readDate(date) {
		if identity.Normalize(rec.Identity) == want {
			out = append(out, rec)
		}
	}
	return out, nil
}

// DateRecords returns every identity's records for the date, ordered by time.
func (s *Store) DateRecords(ctx context.Context, date string) ([]attendance.Record, error) {
	return s.readDate(date), nil
}

// Dates lists every date with a ledger file, ascending.
func (s *Store) Dates(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing ledger directory: %w", err)
	}

	var dates []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		date := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
		if _, err := time.Parse("2006-01-02", date); err != nil {
			continue
		}
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates, nil
}

// Close is a no-op; files are opened per operation.
func (s *Store) Close() error {
	return nil
}
