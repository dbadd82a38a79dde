package util

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// epochMillisThreshold separates epoch seconds from epoch milliseconds. Values
// above it are read as milliseconds.
const epochMillisThreshold = 1_000_000_000_000

// ErrTimeOutOfRange is returned for instants that RFC 3339 cannot express,
// i.e. outside the years 0 to 9999.
var ErrTimeOutOfRange = errors.New("time outside years 0-9999")

// CheckTimeRange rejects instants that time.Time.MarshalJSON would refuse.
func CheckTimeRange(t time.Time) error {
	if y := t.UTC().Year(); y < 0 || y > 9999 {
		return fmt.Errorf("%w: year %d", ErrTimeOutOfRange, y)
	}
	return nil
}

// FromEpoch converts a Unix epoch value in seconds or milliseconds to UTC.
func FromEpoch(n int64) time.Time {
	if n > epochMillisThreshold {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}

// ParseTimeFlexible accepts RFC 3339 or epoch seconds/milliseconds within
// the years 0 to 9999.
func ParseTimeFlexible(timeStr string) (time.Time, error) {
	// Try parsing as RFC3339 (ISO 8601)
	t, err := time.Parse(time.RFC3339Nano, timeStr)
	if err != nil {
		// Epoch seconds or milliseconds
		n, convErr := strconv.ParseInt(timeStr, 10, 64)
		if convErr != nil {
			return time.Time{}, fmt.Errorf("invalid time format: %s", timeStr)
		}
		t = FromEpoch(n)
	}

	if err := CheckTimeRange(t); err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
