package fleet

import (
	"fmt"
	"strings"

	"zpgsa.live/internal/transit"
)

const (
	maxLabelLength = 3

	lateThresholdMinutes  = 3
	aheadThresholdMinutes = 1
)

// Record is one vehicle as reported by the upstream feed.
type Record struct {
	ID               string
	LineID           string
	Label            string
	Position         transit.Coordinates
	DeviationMillis  int64
	RouteID          string
	LastPassedStopID string
	Destination      string
}

// StatusIcon classifies schedule adherence.
type StatusIcon string

const (
	StatusOnTime StatusIcon = "onTime"
	StatusLate   StatusIcon = "late"
	StatusAhead  StatusIcon = "ahead"
)

// Vehicle is the normalized, tracked form of a Record.
type Vehicle struct {
	ID               string              `json:"id"`
	Label            string              `json:"label"`
	Position         transit.Coordinates `json:"position"`
	LineID           string              `json:"line"`
	RouteID          string              `json:"route"`
	LastPassedStopID string              `json:"lastPassedStopId"`
	DeviationMillis  int64               `json:"deviationMs"`
	DeviationDisplay string              `json:"deviation"`
	Status           StatusIcon          `json:"status"`
	Destination      string              `json:"destination"`
}

// Normalize converts a raw record into the tracked representation.
func Normalize(r Record) Vehicle {
	return Vehicle{
		ID:               r.ID,
		Label:            truncate(r.Label, maxLabelLength),
		Position:         r.Position,
		LineID:           r.LineID,
		RouteID:          r.RouteID,
		LastPassedStopID: firstToken(r.LastPassedStopID),
		DeviationMillis:  r.DeviationMillis,
		DeviationDisplay: FormatDeviation(r.DeviationMillis),
		Status:           ClassifyDeviation(r.DeviationMillis),
		Destination:      r.Destination,
	}
}

// FormatDeviation renders a deviation as [sign][HH:]MM:SS. Hours are omitted when zero.
func FormatDeviation(ms int64) string {
	sign := "+"
	if ms < 0 {
		sign = "-"
		ms = -ms
	}

	hours := ms / 3_600_000
	minutes := (ms % 3_600_000) / 60_000
	seconds := (ms % 60_000) / 1000

	if hours > 0 {
		return fmt.Sprintf("%s%02d:%02d:%02d", sign, hours, minutes, seconds)
	}
	return fmt.Sprintf("%s%02d:%02d", sign, minutes, seconds)
}

// ClassifyDeviation only looks at the minutes component, so whole hours of lateness do not count.
func ClassifyDeviation(ms int64) StatusIcon {
	abs := ms
	if abs < 0 {
		abs = -abs
	}
	minutes := (abs % 3_600_000) / 60_000

	if ms > 0 {
		if minutes >= lateThresholdMinutes {
			return StatusLate
		}
		return StatusOnTime
	}
	if minutes >= aheadThresholdMinutes {
		return StatusAhead
	}
	return StatusOnTime
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// firstToken returns s up to its first whitespace.
func firstToken(s string) string {
	if i := strings.IndexAny(s, " \t\n\r"); i >= 0 {
		return s[:i]
	}
	return s
}
