// Package aggregate derives the dashboard's summary views from the
// loaded dataset: a per-minute departure histogram, distinct-flight
// counts per terminal, and distinct-flight counts per terminal and
// airline. All views are pure functions of the dataset and the (hour,
// terminal) filter, so results are memoized per argument combination.
package aggregate

import (
	"sort"

	"github.com/claudian37/lax-flights-dashboard/internal/models"
	"github.com/claudian37/lax-flights-dashboard/internal/observability"
)

// NoHour disables the hour filter. Valid hours are 0-23; hour 0 is a
// real filter (midnight departures), not "unset".
const NoHour = -1

// viewKey is the memo key: one slot per distinct filter combination.
// Key space is bounded (25 hour values x a handful of terminals), so
// entries are never evicted.
type viewKey struct {
	hour     int
	terminal string
}

// Engine computes and memoizes derived views over one immutable dataset.
// The dataset never changes within a process run, which is what makes
// the memo sound. Single in-process consumer; no locking.
type Engine struct {
	ds *models.Dataset

	histograms map[viewKey]models.HourlyHistogram
	terminals  map[viewKey][]models.TerminalCount
	airlines   map[viewKey][]models.AirlineCount
}

// NewEngine returns an Engine over the given dataset.
func NewEngine(ds *models.Dataset) *Engine {
	return &Engine{
		ds:         ds,
		histograms: make(map[viewKey]models.HourlyHistogram),
		terminals:  make(map[viewKey][]models.TerminalCount),
		airlines:   make(map[viewKey][]models.AirlineCount),
	}
}

// Filter returns the records matching the given hour and terminal.
// hour==NoHour and terminal=="" each mean "no restriction"; both filters
// AND-combine. A set hour filter only matches records with a parseable
// departure time, so a record with an unknown time can never alias as an
// hour-0 departure.
func Filter(records []models.FlightRecord, hour int, terminal string) []models.FlightRecord {
	out := make([]models.FlightRecord, 0, len(records))
	for _, r := range records {
		if hour != NoHour {
			if !r.HasDepTime() || r.DepTime.Hour() != hour {
				continue
			}
		}
		if terminal != "" && r.DepTerminal != terminal {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Histogram buckets the filtered records by departure minute: 60 fixed
// buckets counting raw record occurrences (codeshare rows count each
// time). Records without a parseable departure time are skipped. An
// empty filter result yields zero-filled buckets, never an error.
func (e *Engine) Histogram(hour int, terminal string) models.HourlyHistogram {
	k := viewKey{hour: hour, terminal: terminal}
	if h, ok := e.histograms[k]; ok {
		observability.AggregateMemoHitsTotal.WithLabelValues("histogram").Inc()
		return h
	}
	observability.AggregateComputationsTotal.WithLabelValues("histogram").Inc()

	var h models.HourlyHistogram
	for _, r := range Filter(e.ds.Records, hour, terminal) {
		if !r.HasDepTime() {
			continue
		}
		h.Minutes[r.DepTime.Minute()]++
		h.Departures++
	}
	e.histograms[k] = h
	return h
}

// Terminals counts distinct flight identifiers per departure terminal
// under the hour filter. No terminal restriction applies: the view
// exists to compare terminals against each other. Records with an empty
// terminal are dropped; rows are sorted by terminal. Callers must treat
// the returned slice as read-only (it is the memoized value).
func (e *Engine) Terminals(hour int) []models.TerminalCount {
	k := viewKey{hour: hour}
	if rows, ok := e.terminals[k]; ok {
		observability.AggregateMemoHitsTotal.WithLabelValues("terminals").Inc()
		return rows
	}
	observability.AggregateComputationsTotal.WithLabelValues("terminals").Inc()

	flights := make(map[string]map[string]struct{})
	for _, r := range Filter(e.ds.Records, hour, "") {
		if r.DepTerminal == "" {
			continue
		}
		set, ok := flights[r.DepTerminal]
		if !ok {
			set = make(map[string]struct{})
			flights[r.DepTerminal] = set
		}
		set[r.FlightIATA] = struct{}{}
	}

	rows := make([]models.TerminalCount, 0, len(flights))
	for terminal, set := range flights {
		rows = append(rows, models.TerminalCount{Terminal: terminal, CountFlights: len(set)})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Terminal < rows[j].Terminal })
	e.terminals[k] = rows
	return rows
}

// Airlines counts distinct flight identifiers per (terminal, airline)
// pair under the hour filter, tagging each row with the airport label
// for hierarchical display. Records missing either group key are
// dropped; rows sort by terminal then airline. An empty filter result is
// zero rows with no airport label anywhere, not an error.
func (e *Engine) Airlines(hour int) []models.AirlineCount {
	k := viewKey{hour: hour}
	if rows, ok := e.airlines[k]; ok {
		observability.AggregateMemoHitsTotal.WithLabelValues("airlines").Inc()
		return rows
	}
	observability.AggregateComputationsTotal.WithLabelValues("airlines").Inc()

	type group struct {
		terminal string
		airline  string
	}
	flights := make(map[group]map[string]struct{})
	for _, r := range Filter(e.ds.Records, hour, "") {
		if r.DepTerminal == "" || r.AirlineIATA == "" {
			continue
		}
		g := group{terminal: r.DepTerminal, airline: r.AirlineIATA}
		set, ok := flights[g]
		if !ok {
			set = make(map[string]struct{})
			flights[g] = set
		}
		set[r.FlightIATA] = struct{}{}
	}

	rows := make([]models.AirlineCount, 0, len(flights))
	for g, set := range flights {
		rows = append(rows, models.AirlineCount{
			Airport:      e.ds.Airport,
			Terminal:     g.terminal,
			Airline:      g.airline,
			CountFlights: len(set),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Terminal != rows[j].Terminal {
			return rows[i].Terminal < rows[j].Terminal
		}
		return rows[i].Airline < rows[j].Airline
	})
	e.airlines[k] = rows
	return rows
}
