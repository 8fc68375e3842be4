// Package utils provides shared utility functions.
package utils

import (
	"strconv"
	"strings"
	"time"
)

// ClockFormat renders log timestamps as a wall clock.
const ClockFormat = "15:04:05"

// FormatClock renders an RFC 3339 timestamp as HH:MM:SS in loc.
// Unparseable input is returned as is.
func FormatClock(timestamp string, loc *time.Location) string {
	t, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return timestamp
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(ClockFormat)
}

// FormatNumber formats a float with thousands separators, keeping every
// significant decimal.
func FormatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)

	negative := strings.HasPrefix(s, "-")
	if negative {
		s = s[1:]
	}

	intPart, decPart := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, decPart = s[:i], s[i:]
	}

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	result := b.String() + decPart
	if negative {
		result = "-" + result
	}
	return result
}
