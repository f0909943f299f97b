package util

import (
	"regexp"
	"strings"
)

// Hours 0-23 and minutes 00-59, with the separator optional because OCR often
// drops the colon or reads it as L, I or H.
var clockPattern = regexp.MustCompile(`^([01]?\d|2[0-3])[:.HLI]?([0-5]\d)$`)

// ParseClock reports whether token is a time punch and returns it as HH:MM.
func ParseClock(token string) (string, bool) {
	t := strings.ToUpper(strings.TrimSpace(token))
	m := clockPattern.FindStringSubmatch(t)
	if m == nil {
		return "", false
	}
	hour := m[1]
	if len(hour) == 1 {
		hour = "0" + hour
	}
	return hour + ":" + m[2], true
}
