package restapi

import (
	"net/http"

	"zpgsa.live/internal/models"
)

type healthStatus struct {
	Status          string         `json:"status"`
	TrackedVehicles int            `json:"trackedVehicles"`
	LastUpdateTime  int64          `json:"lastUpdateTime"`
	StreamClients   int            `json:"streamClients"`
	Static          map[string]int `json:"static"`
}

func (api *RestAPI) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := healthStatus{Status: "ok", Static: api.Static.Counts()}

	if api.Fleet != nil {
		tracker := api.Fleet.Tracker()
		status.TrackedVehicles = tracker.Len()
		if updated := tracker.UpdatedAt(); !updated.IsZero() {
			status.LastUpdateTime = updated.UnixMilli()
		}
	}
	if api.Stream != nil {
		status.StreamClients = api.Stream.ClientCount()
	}

	api.sendResponse(w, r, models.NewOKResponse(status))
}
