package calendar

import "time"

// DefaultHolidays is the operator's public holiday list.
func DefaultHolidays() Set {
	return NewSet(
		DayMonth{1, time.January},
		DayMonth{6, time.January},
		DayMonth{17, time.April},
		DayMonth{18, time.April},
		DayMonth{19, time.April},
		DayMonth{20, time.April},
		DayMonth{21, time.April},
		DayMonth{1, time.May},
		DayMonth{3, time.May},
		DayMonth{19, time.June},
		DayMonth{15, time.August},
		DayMonth{1, time.November},
		DayMonth{23, time.December},
		DayMonth{24, time.December},
		DayMonth{25, time.December},
	)
}

// DefaultSchoolFreeDays lists weekdays without school: winter and summer breaks plus bridge days.
func DefaultSchoolFreeDays() Set {
	days := []DayMonth{
		{2, time.January}, {3, time.January},
		{22, time.April},
		{30, time.June},
		{26, time.December}, {27, time.December}, {30, time.December}, {31, time.December},
	}
	days = appendRange(days, time.February, 3, 7)
	days = appendRange(days, time.February, 10, 14)
	days = appendRange(days, time.July, 1, 4)
	days = appendRange(days, time.July, 7, 11)
	days = appendRange(days, time.July, 14, 18)
	days = appendRange(days, time.July, 21, 25)
	days = appendRange(days, time.July, 28, 31)
	days = append(days, DayMonth{1, time.August})
	days = appendRange(days, time.August, 4, 8)
	days = appendRange(days, time.August, 11, 14)
	days = appendRange(days, time.August, 18, 22)
	days = appendRange(days, time.August, 25, 29)
	return NewSet(days...)
}

func appendRange(days []DayMonth, month time.Month, from, to int) []DayMonth {
	for d := from; d <= to; d++ {
		days = append(days, DayMonth{Day: d, Month: month})
	}
	return days
}
