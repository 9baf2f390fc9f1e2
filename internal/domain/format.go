package domain

import (
	"fmt"
	"time"
)

// ShortID keeps the last five characters of long identifiers.
func ShortID(id string) string {
	r := []rune(id)
	if len(r) <= 5 {
		return id
	}
	return "…" + string(r[len(r)-5:])
}

// Remaining renders the time left until end in hours and minutes.
func Remaining(end, now time.Time) string {
	diff := end.Sub(now)
	if diff <= 0 {
		return "less than a minute"
	}
	mins := int(diff / time.Minute)
	hrs := mins / 60
	switch {
	case hrs > 0:
		return fmt.Sprintf("%dh %dm", hrs, mins%60)
	case mins >= 1:
		return fmt.Sprintf("%dm", mins)
	default:
		return fmt.Sprintf("%ds", int(diff/time.Second))
	}
}
