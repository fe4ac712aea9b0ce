package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claudian37/lax-flights-dashboard/internal/models"
	"github.com/claudian37/lax-flights-dashboard/internal/observability"
)

// SchedulesClient fetches one day's departures for an airport from the
// remote schedules API.
type SchedulesClient interface {
	GetSchedules(ctx context.Context, depIATA string) ([]models.FlightRecord, error)
}

var (
	// ErrEmptyResponse means the API answered but the response array was
	// null or absent. The provider treats this as "no data today" and
	// falls back to the latest cache file.
	ErrEmptyResponse = errors.New("schedules API returned no data")

	ErrInvalidAPIKey   = errors.New("invalid or missing API key")
	ErrRateLimited     = errors.New("rate limited")
	ErrUpstreamFailure = errors.New("upstream failure")
)

// AirLabsClient calls the AirLabs v9 schedules endpoint. The API key is
// optional at construction: an empty key is sent through and rejected by
// the API at call time, which the provider handles like any other fetch
// failure rather than aborting startup.
type AirLabsClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewAirLabsClient returns a client for the given base URL (e.g.
// "https://airlabs.co/api/v9/"). timeout bounds each request.
func NewAirLabsClient(apiKey, baseURL string, timeout time.Duration) (*AirLabsClient, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("schedules API base URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid schedules API base URL: %w", err)
	}

	return &AirLabsClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// airLabsRecord mirrors the wire shape of one schedules row. Timestamps
// arrive as "YYYY-MM-DD HH:MM" strings in airport-local time.
type airLabsRecord struct {
	AirlineIATA  string `json:"airline_iata"`
	AirlineICAO  string `json:"airline_icao"`
	FlightIATA   string `json:"flight_iata"`
	FlightICAO   string `json:"flight_icao"`
	FlightNumber string `json:"flight_number"`
	DepIATA      string `json:"dep_iata"`
	DepTerminal  string `json:"dep_terminal"`
	DepGate      string `json:"dep_gate"`
	DepTime      string `json:"dep_time"`
	ArrIATA      string `json:"arr_iata"`
	ArrTerminal  string `json:"arr_terminal"`
	ArrTime      string `json:"arr_time"`
	Status       string `json:"status"`
	Duration     int    `json:"duration"`
	Delayed      int    `json:"delayed"`
	AircraftICAO string `json:"aircraft_icao"`
}

// airLabsResponse is the envelope: data under "response", which is null
// or absent when the API has nothing (including most error conditions on
// the free tier).
type airLabsResponse struct {
	Response []airLabsRecord `json:"response"`
	Error    *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

// GetSchedules performs a single GET against the schedules path for the
// given departure airport. No retry loop: the caller's policy on failure
// is to degrade to the cache, not to hammer a metered API.
func (c *AirLabsClient) GetSchedules(ctx context.Context, depIATA string) ([]models.FlightRecord, error) {
	start := time.Now()

	req, err := c.buildRequest(ctx, depIATA)
	if err != nil {
		observability.SchedulesAPICallsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		duration := time.Since(start).Seconds()
		observability.SchedulesAPICallsTotal.WithLabelValues("error").Inc()
		observability.SchedulesAPIDuration.WithLabelValues("error").Observe(duration)

		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("request timeout: %w", err)
		}
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	duration := time.Since(start).Seconds()
	status := statusLabel(resp.StatusCode)
	observability.SchedulesAPICallsTotal.WithLabelValues(status).Inc()
	observability.SchedulesAPIDuration.WithLabelValues(status).Observe(duration)

	if err := c.handleErrorResponse(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	var apiResp airLabsResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	if apiResp.Error != nil {
		msg := apiResp.Error.Message
		if strings.Contains(strings.ToLower(msg), "key") {
			return nil, fmt.Errorf("%w: %s", ErrInvalidAPIKey, msg)
		}
		return nil, fmt.Errorf("%w: %s", ErrUpstreamFailure, msg)
	}
	if apiResp.Response == nil {
		return nil, ErrEmptyResponse
	}

	records := make([]models.FlightRecord, 0, len(apiResp.Response))
	for _, r := range apiResp.Response {
		records = append(records, mapRecord(r))
	}
	return records, nil
}

// buildRequest assembles GET {base}/schedules?api_key=...&dep_iata=...
func (c *AirLabsClient) buildRequest(ctx context.Context, depIATA string) (*http.Request, error) {
	baseURL, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	baseURL = baseURL.JoinPath("schedules")

	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("dep_iata", depIATA)
	baseURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", baseURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *AirLabsClient) handleErrorResponse(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: HTTP %d", ErrInvalidAPIKey, resp.StatusCode)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w", ErrRateLimited)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: HTTP %d", ErrUpstreamFailure, resp.StatusCode)
	}

	return nil
}

// mapRecord converts a wire record to the domain type, normalizing the
// departure and arrival timestamps. A timestamp that fails to parse is
// left zero; the record itself is kept.
func mapRecord(r airLabsRecord) models.FlightRecord {
	return models.FlightRecord{
		AirlineIATA:  r.AirlineIATA,
		AirlineICAO:  r.AirlineICAO,
		FlightIATA:   r.FlightIATA,
		FlightICAO:   r.FlightICAO,
		FlightNumber: r.FlightNumber,
		DepIATA:      r.DepIATA,
		DepTerminal:  r.DepTerminal,
		DepGate:      r.DepGate,
		DepTime:      parseAPITime(r.DepTime),
		ArrIATA:      r.ArrIATA,
		ArrTerminal:  r.ArrTerminal,
		ArrTime:      parseAPITime(r.ArrTime),
		Status:       r.Status,
		Duration:     r.Duration,
		Delayed:      r.Delayed,
		AircraftICAO: r.AircraftICAO,
	}
}

func parseAPITime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(models.DepTimeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == 429 {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}
