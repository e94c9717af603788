package vehiclesource

import (
	"context"
	"encoding/json"
	"fmt"

	"zpgsa.live/internal/fleet"
	"zpgsa.live/internal/transit"
	"zpgsa.live/internal/utils"
)

// JSONSource reads the operator's vehicle endpoint, a JSON array of records.
type JSONSource struct {
	url  string
	opts Options
}

func NewJSONSource(url string, opts Options) *JSONSource {
	return &JSONSource{url: url, opts: opts.withDefaults()}
}

type jsonVehicle struct {
	ID              utils.FlexString `json:"id"`
	Destination     string           `json:"destination"`
	Line            utils.FlexString `json:"line"`
	Label           utils.FlexString `json:"label"`
	Deviation       float64          `json:"deviation"`
	Lat             float64          `json:"lat"`
	Lon             float64          `json:"lon"`
	Route           utils.FlexString `json:"route"`
	LatestRouteStop utils.FlexString `json:"latestRouteStop"`
}

func (s *JSONSource) Fetch(ctx context.Context) ([]fleet.Record, error) {
	body, err := get(ctx, s.url, s.opts)
	if err != nil {
		return nil, err
	}
	return ParseJSON(body)
}

// ParseJSON decodes an operator payload into records.
func ParseJSON(body []byte) ([]fleet.Record, error) {
	var raw []jsonVehicle
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("error decoding vehicle feed: %w", err)
	}

	records := make([]fleet.Record, 0, len(raw))
	for _, v := range raw {
		records = append(records, fleet.Record{
			ID:               v.ID.String(),
			LineID:           v.Line.String(),
			Label:            v.Label.String(),
			Position:         transit.Coordinates{Lat: v.Lat, Lon: v.Lon},
			DeviationMillis:  int64(v.Deviation),
			RouteID:          v.Route.String(),
			LastPassedStopID: v.LatestRouteStop.String(),
			Destination:      v.Destination,
		})
	}
	return records, nil
}
