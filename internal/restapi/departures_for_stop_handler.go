package restapi

import (
	"errors"
	"net/http"
	"time"

	"zpgsa.live/internal/models"
	"zpgsa.live/internal/static"
	"zpgsa.live/internal/utils"
)

const (
	departuresOK       = "ok"
	departuresNotFound = "not_found"
	departuresError    = "error"
)

// departuresForStopHandler serves the upcoming departures of a stop. The optional "time" query
// parameter, in epoch milliseconds, replaces the current instant.
func (api *RestAPI) departuresForStopHandler(w http.ResponseWriter, r *http.Request) {
	stopID := utils.ExtractIDFromParams(r, "id")

	fieldErrors := map[string][]string{}
	if err := utils.ValidateID(stopID); err != nil {
		fieldErrors["id"] = append(fieldErrors["id"], err.Error())
	}
	at, err := api.queryInstant(r)
	if err != nil {
		fieldErrors["time"] = append(fieldErrors["time"], err.Error())
	}
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	timetable, err := api.Timetables.Timetable(r.Context(), stopID)
	if errors.Is(err, static.ErrStopNotFound) {
		api.countDepartureQuery(departuresNotFound)
		api.sendNotFound(w, r)
		return
	}
	if err != nil {
		api.countDepartureQuery(departuresError)
		api.serverErrorResponse(w, r, err)
		return
	}

	list := api.Departures.FilterAndSort(at, timetable)
	entry := models.NewStopDepartures(stopID, at, api.Departures.DayKind(at), list)

	references := models.NewEmptyReferences()
	references.Stops = api.stopReferences([]string{stopID})

	api.countDepartureQuery(departuresOK)
	api.sendResponse(w, r, models.NewEntryResponse(entry, references))
}

func (api *RestAPI) queryInstant(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("time")
	if raw == "" {
		return api.Now(), nil
	}
	return utils.ParseEpochMillis(raw, api.Location)
}

func (api *RestAPI) countDepartureQuery(result string) {
	if api.Metrics != nil {
		api.Metrics.DeparturesQueried(result)
	}
}
