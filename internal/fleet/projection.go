package fleet

import (
	"zpgsa.live/internal/transit"
)

// StopIndex resolves stop ids to positions.
type StopIndex interface {
	StopPosition(id string) (transit.Coordinates, bool)
}

// Catalog is the static data the projector needs.
type Catalog interface {
	StopIndex
	Route(id string) (transit.RouteDefinition, bool)
}

// ProjectedRoute is the path ahead of a vehicle. Points[0] is the vehicle itself.
type ProjectedRoute struct {
	VehicleID string                `json:"vehicleId"`
	RouteID   string                `json:"routeId"`
	Points    []transit.Coordinates `json:"points"`
}

// Project returns the vehicle position followed by the known positions of the stops after its
// last passed stop. ok is false when that stop is not part of the route.
func Project(v Vehicle, route transit.RouteDefinition, stops StopIndex) (ProjectedRoute, bool) {
	idx := -1
	for i, id := range route.StopIDs {
		if id == v.LastPassedStopID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ProjectedRoute{}, false
	}

	remaining := route.StopIDs[idx+1:]
	points := make([]transit.Coordinates, 0, len(remaining)+1)
	points = append(points, v.Position)
	for _, id := range remaining {
		pos, ok := stops.StopPosition(id)
		if !ok || !pos.Known() {
			continue
		}
		points = append(points, pos)
	}

	return ProjectedRoute{VehicleID: v.ID, RouteID: route.ID, Points: points}, true
}

// ProjectTracked looks vehicleID up in tracked and projects it along its route.
func ProjectTracked(tracked map[string]Vehicle, vehicleID string, catalog Catalog) (ProjectedRoute, bool) {
	v, ok := tracked[vehicleID]
	if !ok {
		return ProjectedRoute{}, false
	}
	route, ok := catalog.Route(v.RouteID)
	if !ok {
		return ProjectedRoute{}, false
	}
	return Project(v, route, catalog)
}
