package fatfs

import (
	"time"
)

// ParseDate decodes a packed FAT date stamp:
//
//	Bits 0-4:  day of month, 1-31
//	Bits 5-8:  month of year, 1-12
//	Bits 9-15: years since 1980, 0-127
//
// The returned time always has a clock time of 00:00:00 UTC.
//
// Day or month 0 is invalid per the FAT specification; in that case the zero
// time.Time is returned so callers can use time.Time.IsZero().
//
// A month bigger than 12 is unspecified and simply rolls over into the
// following year, matching time.Date.
func ParseDate(input uint16) time.Time {
	dayOfMonth := input & 0x1F
	monthOfYear := input & 0x1E0 >> 5
	yearSince1980 := input & 0xFE00 >> 9

	if dayOfMonth == 0 || monthOfYear == 0 {
		return time.Time{}
	}

	return time.Date(1980+int(yearSince1980), time.Month(monthOfYear), int(dayOfMonth), 0, 0, 0, 0, time.UTC)
}

// ParseTime decodes a packed FAT time stamp with its 2-second granularity:
//
//	Bits 0-4:   seconds divided by two, 0-29
//	Bits 5-10:  minutes, 0-59
//	Bits 11-15: hours, 0-23
//
// The returned time always has the date January 1, year 1, so a midnight
// stamp satisfies time.Time.IsZero().
//
// Out-of-range fields just add up but are capped at 23:59:59. That only
// happens for invalid time fields.
func ParseTime(input uint16) time.Time {
	seconds := int(input&0x1F) * 2
	minutes := input & 0x7E0 >> 5
	hours := input & 0xF800 >> 11

	result := time.Date(1, 1, 1, int(hours), int(minutes), seconds, 0, time.UTC)

	if result.Day() > 1 {
		return time.Date(1, 1, 1, 23, 59, 59, 0, time.UTC)
	}

	return result
}

// entryTime combines a packed date and time stamp into one timestamp.
// An invalid date makes the whole timestamp the zero time, even if the
// time half alone would be valid.
func entryTime(date, tod uint16) time.Time {
	d := ParseDate(date)
	if d.IsZero() {
		return time.Time{}
	}

	t := ParseTime(tod)
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}
