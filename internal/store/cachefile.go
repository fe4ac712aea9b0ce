// Package store persists one day's fetched dataset as a CSV cache file,
// one file per (airport, date), and resolves the most recent file by the
// date encoded in its name.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jszwec/csvutil"

	"github.com/claudian37/lax-flights-dashboard/internal/models"
)

const dateLayout = "20060102"

// CacheRef identifies one on-disk cache file and the calendar date
// decoded from its name.
type CacheRef struct {
	Path    string
	Airport string
	Date    time.Time // midnight UTC of the encoded date
}

// Store reads and writes daily cache files under a single directory.
type Store struct {
	dir string
}

// New returns a Store rooted at dir. The directory is created lazily on
// first write.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the cache directory.
func (s *Store) Dir() string {
	return s.dir
}

// FileName returns the cache file name for an airport and date:
// {airport_lower}_flights_{YYYYMMDD}.csv.
func FileName(airport string, date time.Time) string {
	return fmt.Sprintf("%s_flights_%s.csv", strings.ToLower(airport), date.Format(dateLayout))
}

// csvRow is the on-disk row shape: every flight field plus the time the
// dataset was fetched, repeated per row so the file is self-describing.
type csvRow struct {
	models.FlightRecord
	FetchTime time.Time `csv:"timestamp_api_call"`
}

// Latest scans the cache directory for the airport's cache files and
// returns the one with the greatest encoded date. The comparison is over
// dates decoded from filenames, never filesystem metadata, so behavior
// is deterministic across copies and restores. Returns ok=false when no
// matching file exists (including when the directory is missing).
func (s *Store) Latest(airport string) (CacheRef, bool, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return CacheRef{}, false, nil
		}
		return CacheRef{}, false, fmt.Errorf("scan cache dir %s: %w", s.dir, err)
	}

	prefix := strings.ToLower(airport) + "_flights_"
	var best CacheRef
	found := false
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".csv") {
			continue
		}
		encoded := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".csv")
		date, err := time.Parse(dateLayout, encoded)
		if err != nil {
			continue
		}
		if !found || date.After(best.Date) {
			best = CacheRef{
				Path:    filepath.Join(s.dir, name),
				Airport: strings.ToUpper(airport),
				Date:    date,
			}
			found = true
		}
	}
	return best, found, nil
}

// Read loads the referenced cache file into a Dataset. The dataset fetch
// time is taken from the first row's timestamp_api_call column.
func (s *Store) Read(ref CacheRef) (*models.Dataset, error) {
	data, err := os.ReadFile(ref.Path)
	if err != nil {
		return nil, fmt.Errorf("read cache file %s: %w", ref.Path, err)
	}

	var rows []csvRow
	if err := csvutil.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode cache file %s: %w", ref.Path, err)
	}

	ds := &models.Dataset{
		Airport: ref.Airport,
		Records: make([]models.FlightRecord, 0, len(rows)),
	}
	for _, row := range rows {
		ds.Records = append(ds.Records, row.FlightRecord)
	}
	if len(rows) > 0 {
		ds.FetchTime = rows[0].FetchTime
	}
	return ds, nil
}

// Write persists the dataset as the cache file for the given date and
// returns the written path. Prior days' files are never touched; one
// process writes at most one file, once.
func (s *Store) Write(airport string, date time.Time, ds *models.Dataset) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir %s: %w", s.dir, err)
	}

	rows := make([]csvRow, 0, len(ds.Records))
	for _, r := range ds.Records {
		rows = append(rows, csvRow{FlightRecord: r, FetchTime: ds.FetchTime})
	}

	data, err := csvutil.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("encode cache file: %w", err)
	}

	path := filepath.Join(s.dir, FileName(airport, date))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write cache file %s: %w", path, err)
	}
	return path, nil
}
