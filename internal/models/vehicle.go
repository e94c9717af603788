package models

import (
	"time"

	"zpgsa.live/internal/fleet"
)

// VehicleStatus is the API view of a tracked vehicle.
type VehicleStatus struct {
	VehicleID        string `json:"vehicleId"`
	Label            string `json:"label"`
	Line             string `json:"line"`
	RouteID          string `json:"routeId"`
	Destination      string `json:"destination"`
	LastPassedStopID string `json:"lastPassedStopId"`
	Location         *Point `json:"location"`
	Deviation        string `json:"deviation"`
	DeviationMs      int64  `json:"deviationMs"`
	Status           string `json:"status"`
	LastUpdateTime   int64  `json:"lastUpdateTime"`
}

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// NewVehicleStatus converts a tracked vehicle. Location is nil when the position is unknown.
func NewVehicleStatus(v fleet.Vehicle, updatedAt time.Time) VehicleStatus {
	status := VehicleStatus{
		VehicleID:        v.ID,
		Label:            v.Label,
		Line:             v.LineID,
		RouteID:          v.RouteID,
		Destination:      v.Destination,
		LastPassedStopID: v.LastPassedStopID,
		Deviation:        v.DeviationDisplay,
		DeviationMs:      v.DeviationMillis,
		Status:           string(v.Status),
	}
	if v.Position.Known() {
		status.Location = &Point{Lat: v.Position.Lat, Lon: v.Position.Lon}
	}
	if !updatedAt.IsZero() {
		status.LastUpdateTime = updatedAt.UnixMilli()
	}
	return status
}
