package ohlcv

import "errors"

// Store invariant violations. These indicate a bug or corrupted data and are
// surfaced as hard failures for the owning pipeline; they are never swallowed.
var (
	// ErrOrderingViolation is returned by Append when the new bar's timestamp
	// is not strictly greater than the current tail.
	ErrOrderingViolation = errors.New("ohlcv: bar timestamp not strictly increasing")

	// ErrEmptyStore is returned by ReplaceLast on an empty series.
	ErrEmptyStore = errors.New("ohlcv: series is empty")

	// ErrTimestampMismatch is returned by ReplaceLast when the replacement
	// bar's timestamp differs from the tail bar's.
	ErrTimestampMismatch = errors.New("ohlcv: replacement timestamp does not match tail")

	// ErrBackfillCorrupt is returned when historical data still violates
	// strict timestamp ordering after sort and deduplication.
	ErrBackfillCorrupt = errors.New("ohlcv: backfill data corrupt after sort+dedup")
)

// Per-event conditions recovered locally at the ingestion boundary.
var (
	// ErrMalformedEvent marks a single bad tick/kline (missing or non-numeric
	// fields). Logged and discarded, never fatal.
	ErrMalformedEvent = errors.New("ohlcv: malformed event")

	// ErrUnknownResolution is returned for a resolution label the service
	// does not track.
	ErrUnknownResolution = errors.New("ohlcv: unknown resolution")
)
