package restapi

import (
	"slices"

	"zpgsa.live/internal/models"
	"zpgsa.live/internal/transit"
)

// routesServing returns the route definitions that call at stopID, ordered by route id.
func (api *RestAPI) routesServing(stopID string) []transit.RouteDefinition {
	var out []transit.RouteDefinition
	for _, route := range api.Static.Routes() {
		if slices.Contains(route.StopIDs, stopID) {
			out = append(out, route)
		}
	}
	return out
}

// stopReferences resolves stop ids to reference models, skipping unknown and repeated ids.
func (api *RestAPI) stopReferences(stopIDs []string) []models.Stop {
	seen := make(map[string]bool, len(stopIDs))
	out := make([]models.Stop, 0, len(stopIDs))
	for _, id := range stopIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if stop, err := api.Static.Stop(id); err == nil {
			out = append(out, models.NewStop(stop))
		}
	}
	return out
}

// routeReferences returns the route and the stops it calls at, or empty references when the route
// is unknown.
func (api *RestAPI) routeReferences(routeID string) models.ReferencesModel {
	references := models.NewEmptyReferences()
	route, ok := api.Static.Route(routeID)
	if !ok {
		return references
	}
	references.Routes = append(references.Routes, models.NewRoute(route))
	references.Stops = api.stopReferences(route.StopIDs)
	return references
}
