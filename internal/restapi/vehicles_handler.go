package restapi

import (
	"net/http"

	"zpgsa.live/internal/models"
	"zpgsa.live/internal/utils"
)

func (api *RestAPI) vehiclesHandler(w http.ResponseWriter, r *http.Request) {
	tracker := api.Fleet.Tracker()
	updatedAt := tracker.UpdatedAt()

	vehicles := tracker.Vehicles()
	list := make([]models.VehicleStatus, 0, len(vehicles))
	for _, v := range vehicles {
		list = append(list, models.NewVehicleStatus(v, updatedAt))
	}

	api.sendResponse(w, r, models.NewListResponse(list, models.NewEmptyReferences()))
}

func (api *RestAPI) vehicleHandler(w http.ResponseWriter, r *http.Request) {
	vehicleID := utils.ExtractIDFromParams(r, "id")

	if err := utils.ValidateID(vehicleID); err != nil {
		fieldErrors := map[string][]string{
			"id": {err.Error()},
		}
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	tracker := api.Fleet.Tracker()
	vehicle, ok := tracker.Vehicle(vehicleID)
	if !ok {
		api.sendNotFound(w, r)
		return
	}

	entry := models.NewVehicleStatus(vehicle, tracker.UpdatedAt())
	api.sendResponse(w, r, models.NewEntryResponse(entry, api.routeReferences(vehicle.RouteID)))
}
