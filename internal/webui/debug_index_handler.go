// Package webui serves plain HTML dumps of the in-memory state for debugging.
package webui

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/davecgh/go-spew/spew"
	"zpgsa.live/internal/fleet"
	"zpgsa.live/internal/static"
)

//go:embed debug_index.html
var templateFS embed.FS

var debugTemplate = template.Must(template.ParseFS(templateFS, "debug_index.html"))

var dataTypes = []string{"stops", "routes", "timetables", "counts", "vehicles", "projections"}

type debugData struct {
	Title string
	Pre   string
	Types []string
}

type WebUI struct {
	Static *static.Dataset
	Fleet  *fleet.Manager
}

func writeDebugData(w http.ResponseWriter, title string, data interface{}) {
	cfg := spew.ConfigState{Indent: "  ", SortKeys: true, DisablePointerAddresses: true}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := debugTemplate.Execute(w, debugData{
		Title: title,
		Pre:   cfg.Sdump(data),
		Types: dataTypes,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (webUI *WebUI) debugIndexHandler(w http.ResponseWriter, r *http.Request) {
	dataType := r.URL.Query().Get("dataType")

	var data interface{}
	var title string

	switch dataType {
	case "stops":
		data = webUI.Static.Stops()
		title = "Static - Stops"
	case "routes":
		data = webUI.Static.Routes()
		title = "Static - Routes"
	case "timetables":
		data = webUI.Static.Timetables()
		title = "Static - Timetables"
	case "counts":
		data = webUI.Static.Counts()
		title = "Static - Counts"
	case "vehicles":
		data = webUI.Fleet.Tracker().Vehicles()
		title = "Fleet - Tracked Vehicles"
	case "projections":
		data = webUI.projections()
		title = "Fleet - Projected Routes"
	default:
		data = map[string]string{
			"error": "Please use one of the following: stops, routes, timetables, counts, vehicles, projections.",
		}
		title = "Choose a data type"
	}

	writeDebugData(w, title, data)
}

// projections maps every tracked vehicle with a projection to its route ahead.
func (webUI *WebUI) projections() map[string]fleet.ProjectedRoute {
	tracker := webUI.Fleet.Tracker()
	out := make(map[string]fleet.ProjectedRoute)
	for _, v := range tracker.Vehicles() {
		if p, ok := tracker.Project(v.ID, webUI.Fleet.Catalog()); ok {
			out[v.ID] = p
		}
	}
	return out
}

// Handler serves the debug index.
func (webUI *WebUI) Handler() http.Handler {
	return http.HandlerFunc(webUI.debugIndexHandler)
}
