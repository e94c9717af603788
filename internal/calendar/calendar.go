package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DayMonth identifies a calendar date independent of the year.
type DayMonth struct {
	Day   int
	Month time.Month
}

func (d DayMonth) String() string {
	return fmt.Sprintf("%02d.%02d", d.Day, int(d.Month))
}

// ParseDayMonth parses "DD.MM", for example "24.12".
func ParseDayMonth(s string) (DayMonth, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 2 {
		return DayMonth{}, fmt.Errorf("invalid day.month %q", s)
	}

	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return DayMonth{}, fmt.Errorf("invalid day in %q: %w", s, err)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return DayMonth{}, fmt.Errorf("invalid month in %q: %w", s, err)
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return DayMonth{}, fmt.Errorf("day.month %q out of range", s)
	}

	return DayMonth{Day: day, Month: time.Month(month)}, nil
}

// Set is a year-agnostic set of dates.
type Set map[DayMonth]struct{}

// NewSet builds a Set; duplicates collapse.
func NewSet(days ...DayMonth) Set {
	s := make(Set, len(days))
	for _, d := range days {
		s[d] = struct{}{}
	}
	return s
}

// ParseSet parses a list of "DD.MM" strings.
func ParseSet(values []string) (Set, error) {
	days := make([]DayMonth, 0, len(values))
	for _, v := range values {
		d, err := ParseDayMonth(v)
		if err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return NewSet(days...), nil
}

// Contains reports whether t's day and month are in the set. The year is ignored.
func (s Set) Contains(t time.Time) bool {
	_, ok := s[DayMonth{Day: t.Day(), Month: t.Month()}]
	return ok
}

// Verdict is the classification of a single date.
type Verdict struct {
	IsHoliday       bool `json:"isHoliday"`
	IsSchoolFreeDay bool `json:"isSchoolFreeDay"`
	// Weekday runs from 1 (Monday) to 7 (Sunday).
	Weekday int `json:"weekday"`
}

// Classifier maps dates to verdicts using fixed holiday and school-free sets.
// It is safe for concurrent use once built.
type Classifier struct {
	holidays   Set
	schoolFree Set
}

func New(holidays, schoolFree Set) *Classifier {
	if holidays == nil {
		holidays = Set{}
	}
	if schoolFree == nil {
		schoolFree = Set{}
	}
	return &Classifier{holidays: holidays, schoolFree: schoolFree}
}

// Default returns a classifier with the built-in operator calendar.
func Default() *Classifier {
	return New(DefaultHolidays(), DefaultSchoolFreeDays())
}

// Classify evaluates t in its own location.
func (c *Classifier) Classify(t time.Time) Verdict {
	return Verdict{
		IsHoliday:       c.holidays.Contains(t),
		IsSchoolFreeDay: c.schoolFree.Contains(t),
		Weekday:         isoWeekday(t.Weekday()),
	}
}

func isoWeekday(w time.Weekday) int {
	if w == time.Sunday {
		return 7
	}
	return int(w)
}
