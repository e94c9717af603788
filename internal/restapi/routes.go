package restapi

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"zpgsa.live/internal/appconf"
	"zpgsa.live/internal/webui"
)

type handlerFunc func(w http.ResponseWriter, r *http.Request)

// Routes builds the full handler chain. The event stream bypasses compression so every event is
// flushed as it is written.
func (api *RestAPI) Routes() http.Handler {
	router := httprouter.New()
	router.NotFound = http.HandlerFunc(api.sendNotFound)

	api.handle(router, "/api/where/current-time.json", api.currentTimeHandler)
	api.handle(router, "/api/where/stops.json", api.stopsHandler)
	api.handle(router, "/api/where/stop/:id", api.stopHandler)
	api.handle(router, "/api/where/departures-for-stop/:id", api.departuresForStopHandler)
	api.handle(router, "/api/where/vehicles.json", api.vehiclesHandler)
	api.handle(router, "/api/where/vehicle/:id", api.vehicleHandler)
	api.handle(router, "/api/where/route/:id", api.routeHandler)
	api.handle(router, "/api/where/route-for-vehicle/:id", api.routeForVehicleHandler)
	api.handle(router, "/healthz", api.healthHandler)

	router.Handler(http.MethodGet, "/api/where/vehicles-stream", api.limit(http.HandlerFunc(api.vehiclesStreamHandler)))
	if api.Config.Env != appconf.Production {
		ui := &webui.WebUI{Static: api.Static, Fleet: api.Fleet}
		router.Handler(http.MethodGet, "/debug", api.compress(ui.Handler()))
	}
	if api.Metrics != nil {
		router.Handler(http.MethodGet, "/metrics", api.Metrics.Handler())
	}

	return NewRequestLoggingMiddleware(api.Logger)(api.WithSecurityHeaders(router))
}

func (api *RestAPI) handle(router *httprouter.Router, path string, h handlerFunc) {
	router.Handler(http.MethodGet, path, api.compress(api.limit(http.HandlerFunc(h))))
}
