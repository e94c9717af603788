package static

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/jamespfennell/gtfs"
	"zpgsa.live/internal/logging"
	"zpgsa.live/internal/transit"
)

// LoadGTFS reads a GTFS static zip from a path or URL.
func LoadGTFS(ctx context.Context, location string, opts Options) (*Dataset, error) {
	opts = opts.withDefaults()

	b, err := fetchRaw(ctx, location, opts)
	if err != nil {
		return nil, fmt.Errorf("error reading GTFS data: %w", err)
	}

	dataset, err := ParseGTFS(b)
	if err != nil {
		return nil, err
	}

	counts := dataset.Counts()
	logging.LogOperation(opts.Logger, "static_data_loaded",
		slog.String("source", location),
		slog.String("format", "gtfs"),
		slog.Int("stops", counts["stops"]),
		slog.Int("routes", counts["routes"]),
		slog.Int("timetable_entries", counts["timetable_entries"]))

	return dataset, nil
}

// ParseGTFS converts a GTFS zip into a dataset. Each trip becomes a route definition keyed by
// trip id, which is also what GTFS-Realtime vehicles carry.
func ParseGTFS(b []byte) (*Dataset, error) {
	staticData, err := gtfs.ParseStatic(b, gtfs.ParseStaticOptions{})
	if err != nil {
		return nil, fmt.Errorf("error parsing GTFS data: %w", err)
	}

	stops := make([]transit.Stop, 0, len(staticData.Stops))
	for _, s := range staticData.Stops {
		stop := transit.Stop{ID: s.Id, Name: s.Name}
		if s.Latitude != nil && s.Longitude != nil {
			stop.Position = transit.Coordinates{Lat: *s.Latitude, Lon: *s.Longitude}
		}
		stops = append(stops, stop)
	}

	var routes []transit.RouteDefinition
	timetables := map[string][]transit.TimetableEntry{}

	for _, trip := range staticData.Trips {
		line := ""
		if trip.Route != nil {
			line = trip.Route.ShortName
			if line == "" {
				line = trip.Route.Id
			}
		}

		stopTimes := append([]gtfs.ScheduledStopTime(nil), trip.StopTimes...)
		sort.SliceStable(stopTimes, func(i, j int) bool {
			return stopTimes[i].StopSequence < stopTimes[j].StopSequence
		})

		destination := trip.Headsign
		if destination == "" && len(stopTimes) > 0 && stopTimes[len(stopTimes)-1].Stop != nil {
			destination = stopTimes[len(stopTimes)-1].Stop.Name
		}

		route := transit.RouteDefinition{ID: trip.ID, LineID: line, Name: destination}
		days := serviceDays(trip.Service)

		for i, st := range stopTimes {
			if st.Stop == nil {
				continue
			}
			route.StopIDs = append(route.StopIDs, st.Stop.Id)

			// Nobody boards at the terminus.
			if i == len(stopTimes)-1 {
				continue
			}
			for _, d := range days {
				timetables[st.Stop.Id] = append(timetables[st.Stop.Id], transit.TimetableEntry{
					DepartureTime: clockTime(st.DepartureTime),
					LineID:        line,
					Destination:   destination,
					ServiceDays:   d,
				})
			}
		}
		routes = append(routes, route)
	}

	return NewDataset(stops, routes, timetables), nil
}

// serviceDays maps a GTFS service to the day classes it runs on.
func serviceDays(s *gtfs.Service) []transit.ServiceDays {
	if s == nil {
		return nil
	}
	var days []transit.ServiceDays
	if s.Monday || s.Tuesday || s.Wednesday || s.Thursday || s.Friday {
		days = append(days, transit.ServiceWeekday)
	}
	if s.Saturday {
		days = append(days, transit.ServiceSaturday)
	}
	if s.Sunday {
		days = append(days, transit.ServiceSunday)
	}
	return days
}

// clockTime formats a GTFS stop time as HH:MM. Times past midnight wrap to the early hours.
func clockTime(d time.Duration) string {
	minutes := int(d/time.Minute) % (24 * 60)
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
