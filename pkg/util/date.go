package util

import (
	"strconv"
	"time"
)

const (
	// DayLayout is the ISO calendar day layout.
	DayLayout = "2006-01-02"
	// UpstreamDayLayout is the day layout mindicador.cl expects in paths.
	UpstreamDayLayout = "02-01-2006"
	// DisplayDayLayout is the dd/MM/yyyy layout shown to users.
	DisplayDayLayout = "02/01/2006"
)

// ParseTime tries RFC3339, RFC3339Nano, ISO day and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(DayLayout, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// ParseDay accepts yyyy-mm-dd or dd-mm-yyyy.
func ParseDay(s string) (time.Time, bool) {
	if t, err := time.Parse(DayLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(UpstreamDayLayout, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// CalendarDay returns midnight UTC of the calendar day t falls on in its own location.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RecentYears returns the current year of now followed by the n-1 previous years.
func RecentYears(now time.Time, n int) []int {
	if n <= 0 {
		return nil
	}
	years := make([]int, 0, n)
	for i := 0; i < n; i++ {
		years = append(years, now.Year()-i)
	}
	return years
}
