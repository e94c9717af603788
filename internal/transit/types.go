package transit

import (
	"strings"
)

// Coordinates is a WGS84 position.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Known reports whether both components carry a value. The upstream data sets
// use zero for a missing coordinate, so a zero in either component is unknown.
func (c Coordinates) Known() bool {
	return c.Lat != 0 && c.Lon != 0
}

// Stop is a static stop with its display metadata.
type Stop struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	City     string      `json:"city"`
	Href     string      `json:"href,omitempty"`
	Position Coordinates `json:"position"`
}

// RouteDefinition is the ordered stop sequence of one route variant.
type RouteDefinition struct {
	ID      string   `json:"id"`
	LineID  string   `json:"line"`
	Name    string   `json:"name"`
	StopIDs []string `json:"stopIds"`
}

// ServiceDays is the day class a timetable entry operates on.
type ServiceDays int

const (
	ServiceUnknown ServiceDays = iota
	ServiceWeekday
	ServiceSaturday
	ServiceSunday
)

func (s ServiceDays) String() string {
	switch s {
	case ServiceWeekday:
		return "weekday"
	case ServiceSaturday:
		return "saturday"
	case ServiceSunday:
		return "sunday"
	default:
		return "unknown"
	}
}

// MarshalText keeps the JSON form readable.
func (s ServiceDays) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseServiceDays maps the operator's operating_days codes.
func ParseServiceDays(raw string) ServiceDays {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "mon_fri", "weekday":
		return ServiceWeekday
	case "saturday", "sat":
		return ServiceSaturday
	case "sunday", "sun":
		return ServiceSunday
	default:
		return ServiceUnknown
	}
}

// SchoolRestriction narrows weekday service to school days or school-free days.
type SchoolRestriction int

const (
	SchoolAny SchoolRestriction = iota
	SchoolDaysOnly
	FreeDaysOnly
)

func (r SchoolRestriction) String() string {
	switch r {
	case SchoolDaysOnly:
		return "school_only"
	case FreeDaysOnly:
		return "free_day_only"
	default:
		return "none"
	}
}

func (r SchoolRestriction) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// ParseSchoolRestriction maps school_restriction codes; anything unrecognised means no restriction.
func ParseSchoolRestriction(raw string) SchoolRestriction {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "school_only":
		return SchoolDaysOnly
	case "free_day_only":
		return FreeDaysOnly
	default:
		return SchoolAny
	}
}

// TimetableEntry is one scheduled departure from a stop.
type TimetableEntry struct {
	DepartureTime     string            `json:"time"`
	LineID            string            `json:"line"`
	Destination       string            `json:"destination"`
	ServiceDays       ServiceDays       `json:"serviceDays"`
	SchoolRestriction SchoolRestriction `json:"schoolRestriction"`
}
