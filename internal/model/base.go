package model

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// TimestampLayout is how every created_at column is written.
const TimestampLayout = "2006-01-02 15:04:05"

// DefaultTimezone is the clinic's wall clock.
const DefaultTimezone = "Asia/Jakarta"

// Clock returns the current time. Services take one so tests can pin it.
type Clock func() time.Time

// ClinicClock returns a clock reporting wall time in the named zone.
func ClinicClock(zone string) (Clock, error) {
	if zone == "" {
		zone = DefaultTimezone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", zone, err)
	}
	return func() time.Time { return time.Now().In(loc) }, nil
}

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}
