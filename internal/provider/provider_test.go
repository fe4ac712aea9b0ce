package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/claudian37/lax-flights-dashboard/internal/client"
	"github.com/claudian37/lax-flights-dashboard/internal/models"
	"github.com/claudian37/lax-flights-dashboard/internal/store"
)

type mockSchedulesClient struct {
	records []models.FlightRecord
	err     error
	calls   int
}

func (m *mockSchedulesClient) GetSchedules(ctx context.Context, depIATA string) ([]models.FlightRecord, error) {
	m.calls++
	return m.records, m.err
}

func record(flight, terminal string, depTime time.Time) models.FlightRecord {
	return models.FlightRecord{
		AirlineIATA: flight[:2],
		FlightIATA:  flight,
		DepIATA:     "LAX",
		DepTerminal: terminal,
		DepTime:     depTime,
	}
}

// newProvider wires a provider around a real store in a temp dir and a
// fixed clock.
func newProvider(t *testing.T, mock *mockSchedulesClient, now time.Time) (*Provider, *store.Store) {
	t.Helper()
	s := store.New(t.TempDir())
	p := New(mock, s, "LAX", zap.NewNop())
	p.now = func() time.Time { return now }
	return p, s
}

// TestDataset_ReusesTodaysCacheFile verifies that when today's cache file
// exists the dataset comes from disk and the API is never called.
func TestDataset_ReusesTodaysCacheFile(t *testing.T) {
	now := time.Date(2023, 2, 8, 9, 0, 0, 0, time.UTC)
	mock := &mockSchedulesClient{err: errors.New("must not be called")}
	p, s := newProvider(t, mock, now)

	cached := &models.Dataset{
		Airport:   "LAX",
		Records:   []models.FlightRecord{record("AA100", "4", now.Add(-2*time.Hour))},
		FetchTime: now.Add(-3 * time.Hour),
	}
	if _, err := s.Write("LAX", now, cached); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	ds, err := p.Dataset(context.Background())
	if err != nil {
		t.Fatalf("Dataset() error = %v", err)
	}
	if mock.calls != 0 {
		t.Errorf("API called %d times, want 0 when today's cache exists", mock.calls)
	}
	if ds.Stale {
		t.Error("Dataset().Stale = true, want false for today's cache")
	}
	if len(ds.Records) != 1 || ds.Records[0].FlightIATA != "AA100" {
		t.Errorf("Dataset() records = %+v, want the cached AA100 row", ds.Records)
	}
}

// TestDataset_FetchesAndPersistsWhenNoCache verifies the API path: fresh
// fetch, fetch_time stamped, cache file written for today.
func TestDataset_FetchesAndPersistsWhenNoCache(t *testing.T) {
	now := time.Date(2023, 2, 8, 9, 0, 0, 0, time.UTC)
	mock := &mockSchedulesClient{
		records: []models.FlightRecord{
			record("AA100", "4", now.Add(time.Hour)),
			record("DL200", "2", now.Add(2*time.Hour)),
		},
	}
	p, s := newProvider(t, mock, now)

	ds, err := p.Dataset(context.Background())
	if err != nil {
		t.Fatalf("Dataset() error = %v", err)
	}
	if mock.calls != 1 {
		t.Errorf("API called %d times, want 1", mock.calls)
	}
	if !ds.FetchTime.Equal(now) {
		t.Errorf("FetchTime = %v, want %v", ds.FetchTime, now)
	}

	ref, ok, err := s.Latest("LAX")
	if err != nil || !ok {
		t.Fatalf("Latest() after fetch = ok=%v err=%v, want written file", ok, err)
	}
	persisted, err := s.Read(ref)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(persisted.Records) != 2 {
		t.Errorf("persisted %d records, want 2", len(persisted.Records))
	}
	if !persisted.FetchTime.Equal(now) {
		t.Errorf("persisted FetchTime = %v, want %v", persisted.FetchTime, now)
	}
}

// TestDataset_StaleFallbackOnEmptyResponse covers the empty-API-response
// path: the most recent (stale) cache file is served and marked stale.
func TestDataset_StaleFallbackOnEmptyResponse(t *testing.T) {
	now := time.Date(2023, 2, 9, 9, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	mock := &mockSchedulesClient{err: client.ErrEmptyResponse}
	p, s := newProvider(t, mock, now)

	stale := &models.Dataset{
		Airport:   "LAX",
		Records:   []models.FlightRecord{record("AA100", "4", yesterday)},
		FetchTime: yesterday,
	}
	if _, err := s.Write("LAX", yesterday, stale); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	ds, err := p.Dataset(context.Background())
	if err != nil {
		t.Fatalf("Dataset() error = %v, want stale fallback", err)
	}
	if mock.calls != 1 {
		t.Errorf("API called %d times, want 1", mock.calls)
	}
	if !ds.Stale {
		t.Error("Dataset().Stale = false, want true for fallback dataset")
	}
	if len(ds.Records) != 1 {
		t.Errorf("Dataset() has %d records, want 1 from stale cache", len(ds.Records))
	}
}

// TestDataset_NetworkErrorAlsoFallsBack verifies that transport-level
// failures take the same stale path as an empty response.
func TestDataset_NetworkErrorAlsoFallsBack(t *testing.T) {
	now := time.Date(2023, 2, 9, 9, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	mock := &mockSchedulesClient{err: errors.New("dial tcp: connection refused")}
	p, s := newProvider(t, mock, now)

	stale := &models.Dataset{
		Airport:   "LAX",
		Records:   []models.FlightRecord{record("AA100", "4", yesterday)},
		FetchTime: yesterday,
	}
	if _, err := s.Write("LAX", yesterday, stale); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	ds, err := p.Dataset(context.Background())
	if err != nil {
		t.Fatalf("Dataset() error = %v, want stale fallback", err)
	}
	if !ds.Stale {
		t.Error("Dataset().Stale = false, want true")
	}
}

// TestDataset_EmptyRecordListTreatedAsEmptyResponse verifies that a
// successful call with zero rows does not produce an empty dataset when a
// stale cache exists.
func TestDataset_EmptyRecordListTreatedAsEmptyResponse(t *testing.T) {
	now := time.Date(2023, 2, 9, 9, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	mock := &mockSchedulesClient{records: []models.FlightRecord{}}
	p, s := newProvider(t, mock, now)

	stale := &models.Dataset{
		Airport:   "LAX",
		Records:   []models.FlightRecord{record("AA100", "4", yesterday)},
		FetchTime: yesterday,
	}
	if _, err := s.Write("LAX", yesterday, stale); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	ds, err := p.Dataset(context.Background())
	if err != nil {
		t.Fatalf("Dataset() error = %v, want stale fallback", err)
	}
	if !ds.Stale || len(ds.Records) != 1 {
		t.Errorf("Dataset() = stale=%v records=%d, want stale fallback with 1 record", ds.Stale, len(ds.Records))
	}
}

// TestDataset_FatalWhenNoCacheAndNoData covers the unrecoverable case:
// no cache file and nothing from the API.
func TestDataset_FatalWhenNoCacheAndNoData(t *testing.T) {
	now := time.Date(2023, 2, 9, 9, 0, 0, 0, time.UTC)
	mock := &mockSchedulesClient{err: client.ErrEmptyResponse}
	p, _ := newProvider(t, mock, now)

	_, err := p.Dataset(context.Background())
	if !errors.Is(err, ErrNoDataSource) {
		t.Fatalf("Dataset() error = %v, want ErrNoDataSource", err)
	}
}

// TestDataset_MemoizedForProcessLifetime verifies the one-slot memo: the
// second call returns the same dataset without another API call.
func TestDataset_MemoizedForProcessLifetime(t *testing.T) {
	now := time.Date(2023, 2, 8, 9, 0, 0, 0, time.UTC)
	mock := &mockSchedulesClient{
		records: []models.FlightRecord{record("AA100", "4", now.Add(time.Hour))},
	}
	p, _ := newProvider(t, mock, now)

	first, err := p.Dataset(context.Background())
	if err != nil {
		t.Fatalf("Dataset() error = %v", err)
	}
	second, err := p.Dataset(context.Background())
	if err != nil {
		t.Fatalf("Dataset() second call error = %v", err)
	}
	if mock.calls != 1 {
		t.Errorf("API called %d times across two Dataset() calls, want 1", mock.calls)
	}
	if first != second {
		t.Error("Dataset() returned different pointers, want the memoized dataset")
	}
}
