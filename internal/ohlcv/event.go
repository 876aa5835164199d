package ohlcv

// Event is the canonical form of a raw kline update, produced by the adapters
// at the ingestion boundary (REST rows and WebSocket payloads are mapped into
// this shape before the core ever sees them).
//
// Timestamp may arrive in seconds or milliseconds depending on the upstream
// feed; NormalizeTimestamp canonicalizes it.
type Event struct {
	Timestamp int64 // bucket start, seconds or milliseconds since epoch
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// msThreshold separates second-epoch from millisecond-epoch timestamps.
// Values below 10^12 cannot be millisecond timestamps for any realistic date.
const msThreshold = 1_000_000_000_000

// NormalizeTimestamp canonicalizes a bucket-start timestamp to milliseconds.
func NormalizeTimestamp(ts int64) int64 {
	if ts > 0 && ts < msThreshold {
		return ts * 1000
	}
	return ts
}

// Bar converts the event to a Bar with a canonical millisecond timestamp.
func (e Event) Bar() Bar {
	return Bar{
		Timestamp: NormalizeTimestamp(e.Timestamp),
		Open:      e.Open,
		High:      e.High,
		Low:       e.Low,
		Close:     e.Close,
		Volume:    e.Volume,
	}
}
