package models

import "time"

// DepTimeLayout is the timestamp format used by the AirLabs schedules API
// for dep_time/arr_time fields. Times are airport-local and carry no zone.
const DepTimeLayout = "2006-01-02 15:04"

// FlightRecord is one row of the schedules dataset. Terminal, gate and
// airline fields may be empty for some records; real-world schedule data
// has gaps.
type FlightRecord struct {
	AirlineIATA  string    `json:"airline_iata" csv:"airline_iata"`
	AirlineICAO  string    `json:"airline_icao" csv:"airline_icao"`
	FlightIATA   string    `json:"flight_iata" csv:"flight_iata"`
	FlightICAO   string    `json:"flight_icao" csv:"flight_icao"`
	FlightNumber string    `json:"flight_number" csv:"flight_number"`
	DepIATA      string    `json:"dep_iata" csv:"dep_iata"`
	DepTerminal  string    `json:"dep_terminal" csv:"dep_terminal"`
	DepGate      string    `json:"dep_gate" csv:"dep_gate"`
	DepTime      time.Time `json:"dep_time" csv:"dep_time"`
	ArrIATA      string    `json:"arr_iata" csv:"arr_iata"`
	ArrTerminal  string    `json:"arr_terminal" csv:"arr_terminal"`
	ArrTime      time.Time `json:"arr_time" csv:"arr_time"`
	Status       string    `json:"status" csv:"status"`
	Duration     int       `json:"duration" csv:"duration"`
	Delayed      int       `json:"delayed" csv:"delayed"`
	AircraftICAO string    `json:"aircraft_icao" csv:"aircraft_icao"`
}

// HasDepTime reports whether the departure timestamp parsed successfully.
// Records without one are kept in the dataset but excluded from time-based
// bucketing.
func (r FlightRecord) HasDepTime() bool {
	return !r.DepTime.IsZero()
}

// Dataset is one day's flight departures for a single airport plus the
// time the data was fetched from the API. Immutable after construction.
type Dataset struct {
	Airport   string         `json:"airport"`
	Records   []FlightRecord `json:"records"`
	FetchTime time.Time      `json:"fetchTime"`
	Stale     bool           `json:"stale,omitempty"` // served from a prior day's cache file
}

// HourlyHistogram is the per-minute departure count for one hour filter:
// 60 fixed buckets, minute 0 through 59, counting raw record occurrences.
type HourlyHistogram struct {
	Minutes    [60]int `json:"minutes"`
	Departures int     `json:"departures"` // sum over all buckets
}

// TerminalCount is one row of the per-terminal view: distinct flight
// identifiers departing from the terminal under the current hour filter.
type TerminalCount struct {
	Terminal     string `json:"dep_terminal"`
	CountFlights int    `json:"count_flights"`
}

// AirlineCount is one row of the per-terminal-per-airline view, tagged
// with the airport label for hierarchical display (airport > terminal >
// airline).
type AirlineCount struct {
	Airport      string `json:"airport"`
	Terminal     string `json:"dep_terminal"`
	Airline      string `json:"airline_iata"`
	CountFlights int    `json:"count_flights"`
}
