package util

import (
	"testing"
	"time"
)

func TestMonthRange(t *testing.T) {
	start, end := MonthRange(2024, 2)
	if !start.Equal(Date(2024, time.February, 1)) {
		t.Errorf("Expected start 2024-02-01, got %s", FormatDate(start))
	}
	if !end.Equal(Date(2024, time.March, 1)) {
		t.Errorf("Expected end 2024-03-01, got %s", FormatDate(end))
	}

	start, end = MonthRange(2023, 12)
	if !start.Equal(Date(2023, time.December, 1)) || !end.Equal(Date(2024, time.January, 1)) {
		t.Errorf("Unexpected December range %s..%s", FormatDate(start), FormatDate(end))
	}
}

func TestDateOf_UsesLocation(t *testing.T) {
	// 23:30 UTC on Jan 14 is already Jan 15 in Jakarta (UTC+7)
	instant := time.Date(2024, 1, 14, 23, 30, 0, 0, time.UTC)
	jakarta := time.FixedZone("WIB", 7*3600)

	if got := DateOf(instant, time.UTC); !got.Equal(Date(2024, time.January, 14)) {
		t.Errorf("UTC date = %s, want 2024-01-14", FormatDate(got))
	}
	if got := DateOf(instant, jakarta); !got.Equal(Date(2024, time.January, 15)) {
		t.Errorf("WIB date = %s, want 2024-01-15", FormatDate(got))
	}
	if got := DateOf(instant, nil); !got.Equal(Date(2024, time.January, 14)) {
		t.Errorf("nil location should default to UTC, got %s", FormatDate(got))
	}
}

func TestInMonth(t *testing.T) {
	d := Date(2024, time.March, 31)
	if !InMonth(d, 2024, 3) {
		t.Error("Expected 2024-03-31 to be in March 2024")
	}
	if InMonth(d, 2024, 4) {
		t.Error("Expected 2024-03-31 not to be in April 2024")
	}
}

func TestCalendarDate_KeepsWrittenDay(t *testing.T) {
	wib := time.FixedZone("WIB", 7*3600)
	got := CalendarDate(time.Date(2024, 1, 15, 0, 0, 0, 0, wib))
	if !got.Equal(Date(2024, time.January, 15)) {
		t.Errorf("CalendarDate = %s, want 2024-01-15", FormatDate(got))
	}
}
