package models

import (
	"time"

	"zpgsa.live/internal/departures"
)

type Departure struct {
	Time              string `json:"time"`
	DepartureTime     int64  `json:"departureTime"`
	Line              string `json:"line"`
	Destination       string `json:"destination"`
	ServiceDays       string `json:"serviceDays"`
	SchoolRestriction string `json:"schoolRestriction"`
	NextDay           bool   `json:"nextDay"`
	DayClass          string `json:"dayClass"`
}

// StopDepartures is the departure board of one stop at one instant.
type StopDepartures struct {
	StopID      string      `json:"stopId"`
	QueryTime   int64       `json:"queryTime"`
	ServiceDate string      `json:"serviceDate"`
	DayClass    string      `json:"dayClass"`
	Departures  []Departure `json:"departures"`
}

func NewStopDepartures(stopID string, at time.Time, dayClass departures.DayKind, list []departures.Departure) StopDepartures {
	out := make([]Departure, 0, len(list))
	for _, d := range list {
		out = append(out, Departure{
			Time:              d.At.Format("15:04"),
			DepartureTime:     d.At.UnixMilli(),
			Line:              d.LineID,
			Destination:       d.Destination,
			ServiceDays:       d.ServiceDays.String(),
			SchoolRestriction: d.SchoolRestriction.String(),
			NextDay:           d.NextDay,
			DayClass:          d.DayClass.String(),
		})
	}
	return StopDepartures{
		StopID:      stopID,
		QueryTime:   at.UnixMilli(),
		ServiceDate: at.Format("2006-01-02"),
		DayClass:    dayClass.String(),
		Departures:  out,
	}
}
