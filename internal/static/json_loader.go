package static

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"zpgsa.live/internal/logging"
	"zpgsa.live/internal/transit"
	"zpgsa.live/internal/utils"
)

const (
	stopsFile       = "stops.json"
	stopDetailsFile = "stop_details.json"
	routesFile      = "routes.json"
)

type jsonStop struct {
	City string           `json:"city"`
	Name string           `json:"name"`
	ID   utils.FlexString `json:"id"`
	Lat  float64          `json:"lat"`
	Lon  float64          `json:"lon"`
	Href string           `json:"href"`
}

type jsonStopDetail struct {
	Time              string           `json:"time"`
	Line              utils.FlexString `json:"line"`
	Destination       string           `json:"destination"`
	OperatingDays     string           `json:"operating_days"`
	SchoolRestriction string           `json:"school_restriction"`
}

type jsonRoute struct {
	ID      utils.FlexString   `json:"id"`
	Line    utils.FlexString   `json:"line"`
	Name    string             `json:"name"`
	Details []utils.FlexString `json:"details"`
}

// LoadJSON reads stops.json, stop_details.json and routes.json from a directory or base URL.
func LoadJSON(ctx context.Context, location string, opts Options) (*Dataset, error) {
	opts = opts.withDefaults()

	stopsRaw, err := fetchRaw(ctx, join(location, stopsFile), opts)
	if err != nil {
		return nil, fmt.Errorf("error loading %s: %w", stopsFile, err)
	}
	detailsRaw, err := fetchRaw(ctx, join(location, stopDetailsFile), opts)
	if err != nil {
		return nil, fmt.Errorf("error loading %s: %w", stopDetailsFile, err)
	}
	routesRaw, err := fetchRaw(ctx, join(location, routesFile), opts)
	if err != nil {
		return nil, fmt.Errorf("error loading %s: %w", routesFile, err)
	}

	dataset, err := ParseJSON(stopsRaw, detailsRaw, routesRaw)
	if err != nil {
		return nil, err
	}

	counts := dataset.Counts()
	logging.LogOperation(opts.Logger, "static_data_loaded",
		slog.String("source", location),
		slog.String("format", "json"),
		slog.Int("stops", counts["stops"]),
		slog.Int("routes", counts["routes"]),
		slog.Int("timetable_entries", counts["timetable_entries"]))

	return dataset, nil
}

// ParseJSON builds a dataset from the three JSON documents.
func ParseJSON(stopsRaw, detailsRaw, routesRaw []byte) (*Dataset, error) {
	var rawStops []jsonStop
	if err := json.Unmarshal(stopsRaw, &rawStops); err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", stopsFile, err)
	}
	var rawDetails map[string][]jsonStopDetail
	if err := json.Unmarshal(detailsRaw, &rawDetails); err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", stopDetailsFile, err)
	}
	var rawRoutes map[string]jsonRoute
	if err := json.Unmarshal(routesRaw, &rawRoutes); err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", routesFile, err)
	}

	stops := make([]transit.Stop, 0, len(rawStops))
	for _, s := range rawStops {
		stops = append(stops, transit.Stop{
			ID:       s.ID.String(),
			Name:     s.Name,
			City:     s.City,
			Href:     s.Href,
			Position: transit.Coordinates{Lat: s.Lat, Lon: s.Lon},
		})
	}

	timetables := make(map[string][]transit.TimetableEntry, len(rawDetails))
	for stopID, details := range rawDetails {
		entries := make([]transit.TimetableEntry, 0, len(details))
		for _, d := range details {
			entries = append(entries, transit.TimetableEntry{
				DepartureTime:     d.Time,
				LineID:            d.Line.String(),
				Destination:       d.Destination,
				ServiceDays:       transit.ParseServiceDays(d.OperatingDays),
				SchoolRestriction: transit.ParseSchoolRestriction(d.SchoolRestriction),
			})
		}
		timetables[stopID] = entries
	}

	keys := make([]string, 0, len(rawRoutes))
	for k := range rawRoutes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	routes := make([]transit.RouteDefinition, 0, len(rawRoutes))
	for _, key := range keys {
		r := rawRoutes[key]
		// Vehicles reference routes by map key.
		route := transit.RouteDefinition{
			ID:      key,
			LineID:  r.Line.String(),
			Name:    r.Name,
			StopIDs: make([]string, 0, len(r.Details)),
		}
		for _, stopID := range r.Details {
			route.StopIDs = append(route.StopIDs, stopID.String())
		}
		routes = append(routes, route)
	}

	return NewDataset(stops, routes, timetables), nil
}
