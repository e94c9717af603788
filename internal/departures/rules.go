package departures

import (
	"zpgsa.live/internal/calendar"
	"zpgsa.live/internal/transit"
)

// DayKind is the service-day class a date is dispatched to.
type DayKind int

const (
	DayHoliday DayKind = iota
	DaySunday
	DaySaturday
	DayWeekday
)

func (k DayKind) String() string {
	switch k {
	case DayHoliday:
		return "holiday"
	case DaySunday:
		return "sunday"
	case DaySaturday:
		return "saturday"
	default:
		return "weekday"
	}
}

type dayRule struct {
	kind    DayKind
	matches func(v calendar.Verdict) bool
	admits  func(e transit.TimetableEntry, v calendar.Verdict) bool
}

// Ordered by priority; the first matching rule decides. Holidays run the Sunday timetable.
var dayRules = []dayRule{
	{
		kind:    DayHoliday,
		matches: func(v calendar.Verdict) bool { return v.IsHoliday },
		admits:  runsOn(transit.ServiceSunday),
	},
	{
		kind:    DaySunday,
		matches: func(v calendar.Verdict) bool { return v.Weekday == 7 },
		admits:  runsOn(transit.ServiceSunday),
	},
	{
		kind:    DaySaturday,
		matches: func(v calendar.Verdict) bool { return v.Weekday == 6 },
		admits:  runsOn(transit.ServiceSaturday),
	},
	{
		kind:    DayWeekday,
		matches: func(calendar.Verdict) bool { return true },
		admits:  weekdayAdmits,
	},
}

func runsOn(days transit.ServiceDays) func(transit.TimetableEntry, calendar.Verdict) bool {
	return func(e transit.TimetableEntry, _ calendar.Verdict) bool {
		return e.ServiceDays == days
	}
}

func weekdayAdmits(e transit.TimetableEntry, v calendar.Verdict) bool {
	if e.ServiceDays != transit.ServiceWeekday {
		return false
	}
	switch e.SchoolRestriction {
	case transit.FreeDaysOnly:
		return v.IsSchoolFreeDay
	case transit.SchoolDaysOnly:
		return !v.IsSchoolFreeDay
	default:
		return true
	}
}

func ruleFor(v calendar.Verdict) dayRule {
	for _, r := range dayRules {
		if r.matches(v) {
			return r
		}
	}
	return dayRules[len(dayRules)-1]
}

// Kind returns the day class v dispatches to.
func Kind(v calendar.Verdict) DayKind {
	return ruleFor(v).kind
}

// Admits reports whether e runs on a date classified as v.
func Admits(e transit.TimetableEntry, v calendar.Verdict) bool {
	return ruleFor(v).admits(e, v)
}
