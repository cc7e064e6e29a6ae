// Package schedule implements the reminder time-string codec and the
// projection of weekly reminders onto calendar events.
package schedule

import (
	"fmt"
	"regexp"
	"strconv"
)

var timeRe = regexp.MustCompile(`(\d+):(\d+)(AM|PM)`)

// FormatTime renders a 24-hour clock time as the stored display form,
// "H:MMAM" or "H:MMPM" with no leading zero on the hour. Midnight is
// "12:00AM" and noon "12:00PM".
func FormatTime(hour24, minute int) string {
	period := "AM"
	h := hour24
	switch {
	case h == 0:
		h = 12
	case h == 12:
		period = "PM"
	case h > 12:
		h -= 12
		period = "PM"
	}
	return fmt.Sprintf("%d:%02d%s", h, minute, period)
}

// ParseTime extracts the clock hour, minute and period from a stored time
// string. A value that does not match the expected shape parses as
// 12:00AM rather than failing, mirroring how the reminder pages render
// malformed rows.
func ParseTime(s string) (hour12, minute int, period string) {
	m := timeRe.FindStringSubmatch(s)
	if m == nil {
		return 12, 0, "AM"
	}
	hour12, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	return hour12, minute, m[3]
}

// Minutes converts a stored time string to minutes after midnight, for
// chronological ordering. 12AM maps to hour 0 and 12PM to hour 12.
func Minutes(s string) int {
	hour12, minute, period := ParseTime(s)
	h := hour12 % 12
	if period == "PM" {
		h += 12
	}
	return h*60 + minute
}
