package store

import "time"

// timeNow is a package-level variable for testability.
// Tests can replace this to control time in assertions.
var timeNow = time.Now

// timeLayout is fixed-width so stored timestamps sort lexically in both
// dialects.
const timeLayout = "2006-01-02T15:04:05.000000Z"

func now() time.Time {
	return timeNow().UTC().Truncate(time.Microsecond)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
