package ohlcv

import (
	"fmt"
	"math"
)

// Bar represents a single OHLCV candle for one time bucket.
// Timestamp is the bucket start in milliseconds since epoch, aligned to the
// resolution's period. The JSON field names match the wire shape consumers
// already depend on ({t,o,h,l,c,v}).
type Bar struct {
	Timestamp int64   `json:"t"` // Bucket start (in milliseconds since epoch)
	Open      float64 `json:"o"` // Opening price
	High      float64 `json:"h"` // Highest price during the bucket
	Low       float64 `json:"l"` // Lowest price during the bucket
	Close     float64 `json:"c"` // Closing price
	Volume    float64 `json:"v"` // Traded quantity within the bucket
}

// Validate reports whether the bar holds a sane OHLC relationship:
// low <= min(open, close) <= max(open, close) <= high, all values finite,
// and a positive timestamp.
func (b Bar) Validate() error {
	for _, v := range [...]float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite field", ErrMalformedEvent)
		}
	}
	// Zero and negative timestamps are rejected: the epoch-zero instant is
	// indistinguishable from a missing field, and the seconds/milliseconds
	// heuristic in NormalizeTimestamp cannot classify it either way.
	if b.Timestamp <= 0 {
		return fmt.Errorf("%w: timestamp %d", ErrMalformedEvent, b.Timestamp)
	}
	if b.Low > math.Min(b.Open, b.Close) || b.High < math.Max(b.Open, b.Close) {
		return fmt.Errorf("%w: low=%v open=%v close=%v high=%v",
			ErrMalformedEvent, b.Low, b.Open, b.Close, b.High)
	}
	return nil
}
