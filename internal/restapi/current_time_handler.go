package restapi

import (
	"net/http"

	"zpgsa.live/internal/models"
)

// currentTimeHandler reports the service clock and the timetable class of today, so clients
// can label departure boards without classifying dates themselves.
func (api *RestAPI) currentTimeHandler(w http.ResponseWriter, r *http.Request) {
	now := api.Now()
	api.sendResponse(w, r, models.NewOKResponse(models.NewCurrentTimeData(now, api.Departures.DayKind(now))))
}
