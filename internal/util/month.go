package util

import "time"

// DateOf returns the calendar date of t as observed in loc, as midnight UTC.
// Calendar dates (due dates, paid dates) are always carried as midnight UTC values.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// CalendarDate keeps the year, month and day of t as written and drops the rest.
// Use it for values that already denote a date rather than an instant.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date builds a calendar date value
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// MonthRange returns the first day of the month and the first day of the following
// month, so a date d is in the month when start <= d < end
func MonthRange(year, month int) (start, end time.Time) {
	start = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, 0)
	return start, end
}

// InMonth reports whether the calendar date d falls in (year, month)
func InMonth(d time.Time, year, month int) bool {
	return d.Year() == year && int(d.Month()) == month
}

// ParseDate parses a YYYY-MM-DD calendar date
func ParseDate(s string) (time.Time, error) {
	return time.Parse(time.DateOnly, s)
}

// FormatDate renders a calendar date as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}
