package vehiclesource

import (
	"context"
	"fmt"

	"github.com/jamespfennell/gtfs"
	"zpgsa.live/internal/fleet"
	"zpgsa.live/internal/transit"
)

// GTFSRealtimeSource reads a GTFS-Realtime VehiclePositions feed.
type GTFSRealtimeSource struct {
	url  string
	opts Options
}

func NewGTFSRealtimeSource(url string, opts Options) *GTFSRealtimeSource {
	return &GTFSRealtimeSource{url: url, opts: opts.withDefaults()}
}

func (s *GTFSRealtimeSource) Fetch(ctx context.Context) ([]fleet.Record, error) {
	body, err := get(ctx, s.url, s.opts)
	if err != nil {
		return nil, err
	}
	return ParseRealtime(body)
}

// ParseRealtime decodes a GTFS-Realtime feed into records. Vehicles without an id are skipped.
func ParseRealtime(body []byte) ([]fleet.Record, error) {
	realtime, err := gtfs.ParseRealtime(body, &gtfs.ParseRealtimeOptions{})
	if err != nil {
		return nil, fmt.Errorf("error parsing GTFS-Realtime feed: %w", err)
	}

	records := make([]fleet.Record, 0, len(realtime.Vehicles))
	for _, v := range realtime.Vehicles {
		if r, ok := recordFromVehicle(v); ok {
			records = append(records, r)
		}
	}
	return records, nil
}

func recordFromVehicle(v gtfs.Vehicle) (fleet.Record, bool) {
	if v.ID == nil || v.ID.ID == "" {
		return fleet.Record{}, false
	}

	r := fleet.Record{ID: v.ID.ID, Label: v.ID.Label}

	if v.Position != nil && v.Position.Latitude != nil && v.Position.Longitude != nil {
		r.Position = transit.Coordinates{
			Lat: float64(*v.Position.Latitude),
			Lon: float64(*v.Position.Longitude),
		}
	}
	if v.StopID != nil {
		r.LastPassedStopID = *v.StopID
	}

	if v.Trip != nil {
		r.LineID = v.Trip.ID.RouteID
		r.RouteID = v.Trip.ID.ID
		r.DeviationMillis = firstDelay(v.Trip.StopTimeUpdates)
	}
	return r, true
}

// firstDelay is the delay of the earliest update that carries one, arrival before departure.
func firstDelay(updates []gtfs.StopTimeUpdate) int64 {
	for _, u := range updates {
		for _, e := range []*gtfs.StopTimeEvent{u.Arrival, u.Departure} {
			if e != nil && e.Delay != nil {
				return e.Delay.Milliseconds()
			}
		}
	}
	return 0
}
