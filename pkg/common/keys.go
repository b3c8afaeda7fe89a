package common

import "time"

// Bucket key layouts. All bucket keys are UTC so estimates are stable no
// matter which host computes them.
const (
	DayKeyLayout   = "2006-01-02"
	HourKeyLayout  = "2006-01-02T15"
	MonthKeyLayout = "2006-01"
)

// DayKey returns the UTC day bucket key for t.
func DayKey(t time.Time) string {
	return t.UTC().Format(DayKeyLayout)
}

// HourKey returns the UTC hour bucket key for t.
func HourKey(t time.Time) string {
	return t.UTC().Format(HourKeyLayout)
}

// MonthKey returns the UTC month bucket key for t.
func MonthKey(t time.Time) string {
	return t.UTC().Format(MonthKeyLayout)
}

// HourOfKey returns the hour of day encoded in an hour bucket key.
func HourOfKey(key string) (int, error) {
	t, err := time.Parse(HourKeyLayout, key)
	if err != nil {
		return 0, err
	}
	return t.Hour(), nil
}
