package restapi

import (
	"errors"
	"net/http"

	"zpgsa.live/internal/models"
	"zpgsa.live/internal/static"
	"zpgsa.live/internal/utils"
)

func (api *RestAPI) stopsHandler(w http.ResponseWriter, r *http.Request) {
	stops := api.Static.Stops()
	list := make([]models.Stop, 0, len(stops))
	for _, s := range stops {
		list = append(list, models.NewStop(s))
	}

	api.sendResponse(w, r, models.NewListResponse(list, models.NewEmptyReferences()))
}

func (api *RestAPI) stopHandler(w http.ResponseWriter, r *http.Request) {
	stopID := utils.ExtractIDFromParams(r, "id")

	if err := utils.ValidateID(stopID); err != nil {
		fieldErrors := map[string][]string{
			"id": {err.Error()},
		}
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	stop, err := api.Static.Stop(stopID)
	if errors.Is(err, static.ErrStopNotFound) {
		api.sendNotFound(w, r)
		return
	}
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	references := models.NewEmptyReferences()
	for _, route := range api.routesServing(stopID) {
		references.Routes = append(references.Routes, models.NewRoute(route))
	}

	api.sendResponse(w, r, models.NewEntryResponse(models.NewStop(stop), references))
}
