package models

import "zpgsa.live/internal/transit"

type Route struct {
	ID      string   `json:"id"`
	Line    string   `json:"line"`
	Name    string   `json:"name"`
	StopIDs []string `json:"stopIds"`
}

func NewRoute(r transit.RouteDefinition) Route {
	stopIDs := r.StopIDs
	if stopIDs == nil {
		stopIDs = []string{}
	}
	return Route{ID: r.ID, Line: r.LineID, Name: r.Name, StopIDs: stopIDs}
}
