package departures

import (
	"sort"
	"strings"
	"time"

	"zpgsa.live/internal/calendar"
	"zpgsa.live/internal/transit"
)

// MaxDepartures caps every departure list.
const MaxDepartures = 15

const clockLayout = "15:04"

// Departure is a timetable entry resolved to a concrete instant.
type Departure struct {
	transit.TimetableEntry
	At       time.Time `json:"at"`
	NextDay  bool      `json:"nextDay"`
	DayClass DayKind   `json:"-"`
}

// Filter selects upcoming departures for a stop.
type Filter struct {
	classifier *calendar.Classifier
}

func NewFilter(classifier *calendar.Classifier) *Filter {
	if classifier == nil {
		classifier = calendar.Default()
	}
	return &Filter{classifier: classifier}
}

// DayKind reports which timetable t's date runs on.
func (f *Filter) DayKind(t time.Time) DayKind {
	return Kind(f.classifier.Classify(t))
}

// FilterAndSort returns at most MaxDepartures departures at or after now, ordered by time of day.
// When today yields fewer than the cap, tomorrow's timetable (classified on its own date, with
// no cut-off) is appended after today's entries.
func (f *Filter) FilterAndSort(now time.Time, timetable []transit.TimetableEntry) []Departure {
	today := f.forDay(now, timetable)

	kept := today[:0]
	for _, d := range today {
		if !d.At.Before(now) {
			kept = append(kept, d)
		}
	}
	result := kept

	if len(result) < MaxDepartures {
		tomorrow := f.forDay(now.AddDate(0, 0, 1), timetable)
		for i := range tomorrow {
			tomorrow[i].NextDay = true
		}
		result = append(result, tomorrow...)
	}

	if len(result) > MaxDepartures {
		result = result[:MaxDepartures]
	}
	return result
}

// forDay returns the entries running on day's date, resolved to that date and sorted.
func (f *Filter) forDay(day time.Time, timetable []transit.TimetableEntry) []Departure {
	verdict := f.classifier.Classify(day)
	rule := ruleFor(verdict)

	var out []Departure
	for _, entry := range timetable {
		if !rule.admits(entry, verdict) {
			continue
		}
		at, ok := resolve(day, entry.DepartureTime)
		if !ok {
			continue
		}
		out = append(out, Departure{TimetableEntry: entry, At: at, DayClass: rule.kind})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].At.Before(out[j].At)
	})
	return out
}

// resolve places an "HH:MM" clock time on day's date in day's location.
func resolve(day time.Time, clock string) (time.Time, bool) {
	parsed, err := time.Parse(clockLayout, strings.TrimSpace(clock))
	if err != nil {
		return time.Time{}, false
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, parsed.Hour(), parsed.Minute(), 0, 0, day.Location()), true
}
