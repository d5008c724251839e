package nav

import (
	"math"
	"time"
)

// CalendarTime converts device calendar fields to Unix seconds (UTC).
//
// The microsecond field counts microseconds within the minute, so it is added
// as a fractional offset rather than passed through the date. The conversion
// never fails: when the tuple is not a valid Gregorian date the second return
// is false and the caller records the NaN sentinel instead, keeping the raw
// calendar fields for later inspection.
func CalendarTime(year uint16, month, day, hour, minute uint8, microsecond uint32) (float64, bool) {
	if month < 1 || month > 12 {
		return math.NaN(), false
	}
	if day < 1 || int(day) > daysInMonth(int(year), time.Month(month)) {
		return math.NaN(), false
	}
	if hour > 23 || minute > 59 {
		return math.NaN(), false
	}

	t := time.Date(int(year), time.Month(month), int(day), int(hour), int(minute), 0, 0, time.UTC)
	return float64(t.Unix()) + float64(microsecond)/1e6, true
}

// CalendarFromTime is the inverse direction, used when relabeling inertial
// records from a synthesized timestamp. Sub-minute seconds fold into the
// microsecond field to match the device's encoding.
func CalendarFromTime(ts float64) (year uint16, month, day, hour, minute uint8, microsecond uint32) {
	sec := math.Floor(ts)
	t := time.Unix(int64(sec), 0).UTC()

	year = uint16(t.Year())
	month = uint8(t.Month())
	day = uint8(t.Day())
	hour = uint8(t.Hour())
	minute = uint8(t.Minute())
	microsecond = uint32(math.Round((float64(t.Second()) + (ts - sec)) * 1e6))
	return
}

func daysInMonth(year int, month time.Month) int {
	// Day 0 of the next month normalizes to the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
