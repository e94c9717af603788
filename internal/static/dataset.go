package static

import (
	"errors"
	"sort"

	"zpgsa.live/internal/transit"
)

var (
	ErrStopNotFound  = errors.New("stop not found")
	ErrRouteNotFound = errors.New("route not found")
)

// Dataset is the immutable static reference data: stops, route definitions and per-stop timetables.
// It is safe for concurrent reads.
type Dataset struct {
	stops      []transit.Stop
	stopIndex  map[string]int
	routes     map[string]transit.RouteDefinition
	timetables map[string][]transit.TimetableEntry
}

// NewDataset indexes the given data. Later stops win on duplicate ids.
func NewDataset(stops []transit.Stop, routes []transit.RouteDefinition, timetables map[string][]transit.TimetableEntry) *Dataset {
	d := &Dataset{
		stopIndex:  make(map[string]int, len(stops)),
		routes:     make(map[string]transit.RouteDefinition, len(routes)),
		timetables: make(map[string][]transit.TimetableEntry, len(timetables)),
	}

	for _, s := range stops {
		if i, ok := d.stopIndex[s.ID]; ok {
			d.stops[i] = s
			continue
		}
		d.stopIndex[s.ID] = len(d.stops)
		d.stops = append(d.stops, s)
	}
	for _, r := range routes {
		d.routes[r.ID] = r
	}
	for stopID, entries := range timetables {
		d.timetables[stopID] = append([]transit.TimetableEntry(nil), entries...)
	}
	return d
}

// Stops returns all stops in load order.
func (d *Dataset) Stops() []transit.Stop {
	return append([]transit.Stop(nil), d.stops...)
}

func (d *Dataset) Stop(id string) (transit.Stop, error) {
	i, ok := d.stopIndex[id]
	if !ok {
		return transit.Stop{}, ErrStopNotFound
	}
	return d.stops[i], nil
}

// StopPosition implements fleet.StopIndex.
func (d *Dataset) StopPosition(id string) (transit.Coordinates, bool) {
	i, ok := d.stopIndex[id]
	if !ok {
		return transit.Coordinates{}, false
	}
	return d.stops[i].Position, true
}

func (d *Dataset) Route(id string) (transit.RouteDefinition, bool) {
	r, ok := d.routes[id]
	return r, ok
}

// Routes returns every route definition ordered by id.
func (d *Dataset) Routes() []transit.RouteDefinition {
	out := make([]transit.RouteDefinition, 0, len(d.routes))
	for _, r := range d.routes {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Timetable returns the raw timetable of a stop; a stop without one yields an empty slice.
func (d *Dataset) Timetable(stopID string) ([]transit.TimetableEntry, error) {
	if _, ok := d.stopIndex[stopID]; !ok {
		if _, hasTimetable := d.timetables[stopID]; !hasTimetable {
			return nil, ErrStopNotFound
		}
	}
	return d.timetables[stopID], nil
}

// Timetables exposes every stop's timetable, keyed by stop id.
func (d *Dataset) Timetables() map[string][]transit.TimetableEntry {
	return d.timetables
}

// Counts reports the size of each collection.
func (d *Dataset) Counts() map[string]int {
	entries := 0
	for _, t := range d.timetables {
		entries += len(t)
	}
	return map[string]int{
		"stops":             len(d.stops),
		"routes":            len(d.routes),
		"timetables":        len(d.timetables),
		"timetable_entries": entries,
	}
}
