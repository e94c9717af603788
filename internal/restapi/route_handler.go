package restapi

import (
	"net/http"

	"zpgsa.live/internal/models"
	"zpgsa.live/internal/utils"
)

func (api *RestAPI) routeHandler(w http.ResponseWriter, r *http.Request) {
	routeID := utils.ExtractIDFromParams(r, "id")

	if err := utils.ValidateID(routeID); err != nil {
		fieldErrors := map[string][]string{
			"id": {err.Error()},
		}
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	route, ok := api.Static.Route(routeID)
	if !ok {
		api.sendNotFound(w, r)
		return
	}

	references := models.NewEmptyReferences()
	references.Stops = api.stopReferences(route.StopIDs)

	api.sendResponse(w, r, models.NewEntryResponse(models.NewRoute(route), references))
}

// routeForVehicleHandler serves the path ahead of a tracked vehicle. Vehicles that are unknown,
// on an unknown route or past a stop outside their route have no projection and yield 404.
func (api *RestAPI) routeForVehicleHandler(w http.ResponseWriter, r *http.Request) {
	vehicleID := utils.ExtractIDFromParams(r, "id")

	if err := utils.ValidateID(vehicleID); err != nil {
		fieldErrors := map[string][]string{
			"id": {err.Error()},
		}
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	projected, ok := api.Fleet.Tracker().Project(vehicleID, api.Fleet.Catalog())
	if !ok {
		api.sendNotFound(w, r)
		return
	}

	entry := models.NewRouteProjection(projected)
	api.sendResponse(w, r, models.NewEntryResponse(entry, api.routeReferences(projected.RouteID)))
}
