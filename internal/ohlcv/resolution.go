package ohlcv

import (
	"fmt"
	"time"
)

// Resolution identifies the bucket duration of a series.
type Resolution string

const (
	Res1m  Resolution = "1m"
	Res5m  Resolution = "5m"
	Res15m Resolution = "15m"
	Res1h  Resolution = "1h"
	Res4h  Resolution = "4h"
	Res1d  Resolution = "1d"
)

var resolutionDurations = map[Resolution]time.Duration{
	Res1m:  time.Minute,
	Res5m:  5 * time.Minute,
	Res15m: 15 * time.Minute,
	Res1h:  time.Hour,
	Res4h:  4 * time.Hour,
	Res1d:  24 * time.Hour,
}

// IsValid checks if the Resolution is a known bucket duration.
func (r Resolution) IsValid() bool {
	_, ok := resolutionDurations[r]
	return ok
}

// Duration returns the bucket duration, or zero for an unknown resolution.
func (r Resolution) Duration() time.Duration {
	return resolutionDurations[r]
}

// Ms returns the bucket duration in milliseconds.
func (r Resolution) Ms() int64 {
	return resolutionDurations[r].Milliseconds()
}

// ParseResolution parses a label like "1m" or "1h" into a Resolution.
func ParseResolution(s string) (Resolution, error) {
	r := Resolution(s)
	if !r.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownResolution, s)
	}
	return r, nil
}
