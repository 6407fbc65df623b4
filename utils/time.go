package utils

import "time"

// TimeRange is a window of Unix timestamps. StartTime is exclusive.
type TimeRange struct {
	StartTime int64
	EndTime   int64
}

// WindowEndingAt returns the window of the given width that ends at now.
func WindowEndingAt(now time.Time, window time.Duration) TimeRange {
	return TimeRange{
		StartTime: now.Add(-window).Unix(),
		EndTime:   now.Unix(),
	}
}

// Contains reports whether ts is strictly newer than the window start.
// Timestamps from the future still count: forum clocks drift.
func (r TimeRange) Contains(ts int64) bool {
	return ts > r.StartTime
}

// Since returns the window start as a time.Time for store queries.
func (r TimeRange) Since() time.Time {
	return time.Unix(r.StartTime, 0)
}

// FormatTimestamp renders a Unix timestamp for humans.
func FormatTimestamp(timestamp int64) string {
	return time.Unix(timestamp, 0).Format("2006-01-02 15:04:05")
}
