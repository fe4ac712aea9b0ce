package http

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/claudian37/lax-flights-dashboard/internal/aggregate"
	"github.com/claudian37/lax-flights-dashboard/internal/models"
	"github.com/claudian37/lax-flights-dashboard/internal/validation"
)

// Handler holds dependencies for HTTP handlers. The dataset is loaded
// once at startup and immutable, so handlers read it without locking.
type Handler struct {
	dataset *models.Dataset
	engine  *aggregate.Engine
	logger  *zap.Logger
}

// NewHandler returns a new Handler over the loaded dataset.
func NewHandler(dataset *models.Dataset, engine *aggregate.Engine, logger *zap.Logger) *Handler {
	return &Handler{
		dataset: dataset,
		engine:  engine,
		logger:  logger,
	}
}

// datasetMeta mirrors the dashboard's "About Dataset" panel: when the
// data was pulled and the departure range it covers.
type datasetMeta struct {
	Airport    string    `json:"airport"`
	FetchTime  time.Time `json:"fetchTime"`
	Stale      bool      `json:"stale"`
	Records    int       `json:"records"`
	MinDepTime time.Time `json:"minDepTime,omitempty"`
	MaxDepTime time.Time `json:"maxDepTime,omitempty"`
}

// GetDataset handles GET /api/dataset.
func (h *Handler) GetDataset(w http.ResponseWriter, r *http.Request) {
	meta := datasetMeta{
		Airport:   h.dataset.Airport,
		FetchTime: h.dataset.FetchTime,
		Stale:     h.dataset.Stale,
		Records:   len(h.dataset.Records),
	}
	for _, rec := range h.dataset.Records {
		if !rec.HasDepTime() {
			continue
		}
		if meta.MinDepTime.IsZero() || rec.DepTime.Before(meta.MinDepTime) {
			meta.MinDepTime = rec.DepTime
		}
		if rec.DepTime.After(meta.MaxDepTime) {
			meta.MaxDepTime = rec.DepTime
		}
	}
	writeJSON(w, http.StatusOK, meta)
}

// histogramResponse echoes the filters alongside the 60 minute buckets.
type histogramResponse struct {
	Hour       *int    `json:"hour,omitempty"`
	Terminal   string  `json:"terminal,omitempty"`
	Minutes    [60]int `json:"minutes"`
	Departures int     `json:"departures"`
}

// GetHistogram handles GET /api/histogram?hour=H&terminal=T. Both params
// are optional; an hour outside 0-23 is a 400.
func (h *Handler) GetHistogram(w http.ResponseWriter, r *http.Request) {
	hour, terminal, ok := h.parseFilters(w, r)
	if !ok {
		return
	}

	hist := h.engine.Histogram(hour, terminal)
	writeJSON(w, http.StatusOK, histogramResponse{
		Hour:       hourPtr(hour),
		Terminal:   terminal,
		Minutes:    hist.Minutes,
		Departures: hist.Departures,
	})
}

// GetTerminals handles GET /api/terminals?hour=H. No terminal filter by
// design: the view compares terminals against each other.
func (h *Handler) GetTerminals(w http.ResponseWriter, r *http.Request) {
	hour, ok := h.parseHour(w, r)
	if !ok {
		return
	}

	rows := h.engine.Terminals(hour)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"hour":      hourPtr(hour),
		"terminals": rows,
	})
}

// GetAirlines handles GET /api/airlines?hour=H.
func (h *Handler) GetAirlines(w http.ResponseWriter, r *http.Request) {
	hour, ok := h.parseHour(w, r)
	if !ok {
		return
	}

	rows := h.engine.Airlines(hour)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"hour":     hourPtr(hour),
		"airlines": rows,
	})
}

// GetHealth handles GET /health. The dataset is a startup requirement,
// so a running process is serving something; "stale" surfaces when that
// something is a prior day's cache.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	datasetCheck := "fresh"
	if h.dataset.Stale {
		status = "stale-data"
		datasetCheck = "stale"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  status,
		"service": "lax-flights-dashboard",
		"checks": map[string]string{
			"dataset": datasetCheck,
		},
		"fetchTime": h.dataset.FetchTime.UTC().Format(time.RFC3339),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// parseFilters extracts hour and terminal query params, writing a 400
// and returning ok=false on invalid input.
func (h *Handler) parseFilters(w http.ResponseWriter, r *http.Request) (int, string, bool) {
	hour, ok := h.parseHour(w, r)
	if !ok {
		return 0, "", false
	}
	terminal, err := validation.ParseTerminal(r.URL.Query().Get("terminal"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_TERMINAL", err.Error())
		return 0, "", false
	}
	return hour, terminal, true
}

func (h *Handler) parseHour(w http.ResponseWriter, r *http.Request) (int, bool) {
	hour, err := validation.ParseHour(r.URL.Query().Get("hour"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_HOUR", err.Error())
		return 0, false
	}
	return hour, true
}

func hourPtr(hour int) *int {
	if hour == aggregate.NoHour {
		return nil
	}
	return &hour
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard error format with
// code, message, and requestId (correlation ID) if available in request
// context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	corrID := ""
	if v := r.Context().Value("correlation_id"); v != nil {
		corrID = v.(string)
	}
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": corrID,
		},
	})
}
