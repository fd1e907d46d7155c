package dates

import (
	"strconv"
	"time"
)

// PlainLayout is the backend's calendar date format.
const PlainLayout = "20060102"

// ParsePackedDate decodes Aspect4's packed expected-delivery encoding
// YYYYWWDD: ISO year, ISO week number and day-of-week with Monday=1 and
// Sunday=7. The field is only populated for undelivered lines, so a missing,
// zero or malformed value is normal and reported as ok=false, never as an
// error.
//
// Weekday numbering was calibrated against live Aspect4 records: 20250105
// is the Friday of ISO week 1 of 2025, i.e. 2025-01-03.
func ParsePackedDate(raw string) (time.Time, bool) {
	if len(raw) != 8 {
		return time.Time{}, false
	}

	year, err := strconv.Atoi(raw[0:4])
	if err != nil {
		return time.Time{}, false
	}
	week, err := strconv.Atoi(raw[4:6])
	if err != nil {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(raw[6:8])
	if err != nil {
		return time.Time{}, false
	}

	if week < 1 || week > 53 || day < 1 || day > 7 {
		return time.Time{}, false
	}

	// ISO week 1 is the week containing January 4.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	week1Monday := jan4.AddDate(0, 0, -(weekday - 1))

	return week1Monday.AddDate(0, 0, (week-1)*7+(day-1)), true
}

// PackedFromInt formats a numeric t01.senlv value for ParsePackedDate.
// Zero means "not set" on the backend side.
func PackedFromInt(v int64) (string, bool) {
	if v <= 0 {
		return "", false
	}
	s := strconv.FormatInt(v, 10)
	if len(s) != 8 {
		return "", false
	}
	return s, true
}

// ParsePlainDate parses an 8-digit YYYYMMDD literal into its integer form.
// Unlike the packed codec this is strict: the caller supplied the value, so
// a bad one is a request error.
func ParsePlainDate(raw string) (int, error) {
	if _, err := time.Parse(PlainLayout, raw); err != nil {
		return 0, err
	}
	return strconv.Atoi(raw)
}

// PlainDate formats t as a YYYYMMDD integer.
func PlainDate(t time.Time) int {
	v, _ := strconv.Atoi(t.Format(PlainLayout))
	return v
}
