package models

import "zpgsa.live/internal/transit"

type Stop struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	City string  `json:"city"`
	Href string  `json:"href,omitempty"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	// LocationKnown is false when the data set carries no usable coordinates for the stop.
	LocationKnown bool `json:"locationKnown"`
}

func NewStop(s transit.Stop) Stop {
	return Stop{
		ID:            s.ID,
		Name:          s.Name,
		City:          s.City,
		Href:          s.Href,
		Lat:           s.Position.Lat,
		Lon:           s.Position.Lon,
		LocationKnown: s.Position.Known(),
	}
}
