package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/claudian37/lax-flights-dashboard/internal/aggregate"
	"github.com/claudian37/lax-flights-dashboard/internal/models"
)

func testHandler(t *testing.T, stale bool) *Handler {
	t.Helper()
	dep := func(flight, airline, terminal string, hour, minute int) models.FlightRecord {
		return models.FlightRecord{
			AirlineIATA: airline,
			FlightIATA:  flight,
			DepIATA:     "LAX",
			DepTerminal: terminal,
			DepTime:     time.Date(2023, 2, 8, hour, minute, 0, 0, time.UTC),
		}
	}
	ds := &models.Dataset{
		Airport: "LAX",
		Records: []models.FlightRecord{
			dep("AA100", "AA", "4", 10, 5),
			dep("DL200", "DL", "2", 10, 30),
			dep("UA300", "UA", "7", 23, 59),
		},
		FetchTime: time.Date(2023, 2, 8, 6, 0, 0, 0, time.UTC),
		Stale:     stale,
	}
	return NewHandler(ds, aggregate.NewEngine(ds), zap.NewNop())
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
}

// TestGetDataset verifies the metadata panel payload: fetch time, record
// count, and the covered departure range.
func TestGetDataset(t *testing.T) {
	h := testHandler(t, false)

	rec := httptest.NewRecorder()
	h.GetDataset(rec, httptest.NewRequest("GET", "/api/dataset", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Airport    string    `json:"airport"`
		Records    int       `json:"records"`
		Stale      bool      `json:"stale"`
		MinDepTime time.Time `json:"minDepTime"`
		MaxDepTime time.Time `json:"maxDepTime"`
	}
	decodeBody(t, rec, &body)

	if body.Airport != "LAX" || body.Records != 3 || body.Stale {
		t.Errorf("dataset meta = %+v, want LAX/3/fresh", body)
	}
	if body.MinDepTime.Hour() != 10 || body.MaxDepTime.Hour() != 23 {
		t.Errorf("departure range = %v..%v, want 10:05..23:59", body.MinDepTime, body.MaxDepTime)
	}
}

// TestGetHistogram_WithHourFilter verifies filter echo and bucket counts.
func TestGetHistogram_WithHourFilter(t *testing.T) {
	h := testHandler(t, false)

	rec := httptest.NewRecorder()
	h.GetHistogram(rec, httptest.NewRequest("GET", "/api/histogram?hour=10", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body histogramResponse
	decodeBody(t, rec, &body)

	if body.Hour == nil || *body.Hour != 10 {
		t.Errorf("hour echo = %v, want 10", body.Hour)
	}
	if body.Departures != 2 || body.Minutes[5] != 1 || body.Minutes[30] != 1 {
		t.Errorf("histogram = departures %d minutes[5]=%d minutes[30]=%d, want 2/1/1",
			body.Departures, body.Minutes[5], body.Minutes[30])
	}
}

// TestGetHistogram_NoFilters verifies that omitting both params means no
// restriction.
func TestGetHistogram_NoFilters(t *testing.T) {
	h := testHandler(t, false)

	rec := httptest.NewRecorder()
	h.GetHistogram(rec, httptest.NewRequest("GET", "/api/histogram", nil))

	var body histogramResponse
	decodeBody(t, rec, &body)

	if body.Hour != nil {
		t.Errorf("hour echo = %v, want absent", *body.Hour)
	}
	if body.Departures != 3 {
		t.Errorf("departures = %d, want 3 (all records)", body.Departures)
	}
}

// TestGetHistogram_InvalidParams verifies 400s with the standard error
// envelope.
func TestGetHistogram_InvalidParams(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		wantCode string
	}{
		{"hour too large", "/api/histogram?hour=24", "INVALID_HOUR"},
		{"hour negative", "/api/histogram?hour=-2", "INVALID_HOUR"},
		{"hour not a number", "/api/histogram?hour=ten", "INVALID_HOUR"},
		{"bad terminal", "/api/histogram?terminal=..%2Fetc", "INVALID_TERMINAL"},
	}

	h := testHandler(t, false)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.GetHistogram(rec, httptest.NewRequest("GET", tc.target, nil))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			decodeBody(t, rec, &body)
			if body.Error.Code != tc.wantCode {
				t.Errorf("error code = %q, want %q", body.Error.Code, tc.wantCode)
			}
		})
	}
}

// TestGetTerminals verifies the per-terminal rows for an hour.
func TestGetTerminals(t *testing.T) {
	h := testHandler(t, false)

	rec := httptest.NewRecorder()
	h.GetTerminals(rec, httptest.NewRequest("GET", "/api/terminals?hour=10", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Terminals []models.TerminalCount `json:"terminals"`
	}
	decodeBody(t, rec, &body)

	want := []models.TerminalCount{
		{Terminal: "2", CountFlights: 1},
		{Terminal: "4", CountFlights: 1},
	}
	if len(body.Terminals) != 2 || body.Terminals[0] != want[0] || body.Terminals[1] != want[1] {
		t.Errorf("terminals = %+v, want %+v", body.Terminals, want)
	}
}

// TestGetAirlines_EmptyHourIsZeroRows verifies the no-data selection:
// 200 with zero rows, never an error.
func TestGetAirlines_EmptyHourIsZeroRows(t *testing.T) {
	h := testHandler(t, false)

	rec := httptest.NewRecorder()
	h.GetAirlines(rec, httptest.NewRequest("GET", "/api/airlines?hour=3", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Airlines []models.AirlineCount `json:"airlines"`
	}
	decodeBody(t, rec, &body)
	if len(body.Airlines) != 0 {
		t.Errorf("airlines = %+v, want zero rows", body.Airlines)
	}
}

// TestGetAirlines verifies airport tagging on populated rows.
func TestGetAirlines(t *testing.T) {
	h := testHandler(t, false)

	rec := httptest.NewRecorder()
	h.GetAirlines(rec, httptest.NewRequest("GET", "/api/airlines?hour=10", nil))

	var body struct {
		Airlines []models.AirlineCount `json:"airlines"`
	}
	decodeBody(t, rec, &body)

	if len(body.Airlines) != 2 {
		t.Fatalf("airlines = %+v, want 2 rows", body.Airlines)
	}
	for _, row := range body.Airlines {
		if row.Airport != "LAX" {
			t.Errorf("row %+v airport = %q, want LAX", row, row.Airport)
		}
	}
}

// TestGetHealth reports stale datasets without failing the check: a
// stale view is still a serving dashboard.
func TestGetHealth(t *testing.T) {
	tests := []struct {
		name       string
		stale      bool
		wantStatus string
		wantCheck  string
	}{
		{"fresh dataset", false, "healthy", "fresh"},
		{"stale dataset", true, "stale-data", "stale"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := testHandler(t, tc.stale)

			rec := httptest.NewRecorder()
			h.GetHealth(rec, httptest.NewRequest("GET", "/health", nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			var body struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
			}
			decodeBody(t, rec, &body)
			if body.Status != tc.wantStatus {
				t.Errorf("status = %q, want %q", body.Status, tc.wantStatus)
			}
			if body.Checks["dataset"] != tc.wantCheck {
				t.Errorf("dataset check = %q, want %q", body.Checks["dataset"], tc.wantCheck)
			}
		})
	}
}
