package models

import (
	"github.com/twpayne/go-polyline"
	"zpgsa.live/internal/fleet"
	"zpgsa.live/internal/utils"
)

// EncodedPolyline is a Google encoded polyline and its length in characters.
type EncodedPolyline struct {
	Points string `json:"points"`
	Length int    `json:"length"`
}

// RouteProjection is the path ahead of a vehicle, as points and as an encoded polyline.
type RouteProjection struct {
	VehicleID string          `json:"vehicleId"`
	RouteID   string          `json:"routeId"`
	Points    []Point         `json:"points"`
	Polyline  EncodedPolyline `json:"polyline"`
	// Heading is the compass point from the vehicle towards the next stop, empty without one.
	Heading string `json:"heading"`
}

func NewRouteProjection(p fleet.ProjectedRoute) RouteProjection {
	points := make([]Point, 0, len(p.Points))
	coords := make([][]float64, 0, len(p.Points))
	for _, c := range p.Points {
		points = append(points, Point{Lat: c.Lat, Lon: c.Lon})
		coords = append(coords, []float64{c.Lat, c.Lon})
	}
	encoded := string(polyline.EncodeCoords(coords))
	projection := RouteProjection{
		VehicleID: p.VehicleID,
		RouteID:   p.RouteID,
		Points:    points,
		Polyline:  EncodedPolyline{Points: encoded, Length: len(encoded)},
	}
	if len(points) > 1 {
		projection.Heading = utils.Heading(points[0].Lat, points[0].Lon, points[1].Lat, points[1].Lon)
	}
	return projection
}
