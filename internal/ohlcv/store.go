package ohlcv

import "context"

// SeriesStore is an append-only, bounded, ascending-by-timestamp sequence of
// bars for one (symbol, resolution) key. Only the tail bar is mutable: it may
// be replaced in place while its bucket is still open. Every bar before the
// tail is immutable, which makes snapshot reads safe against a single writer.
//
// Implementations: memstore (mutex-guarded slice) and redisstore (Redis list,
// one JSON-encoded bar per element).
type SeriesStore interface {
	// Append adds a bar at the tail. It fails with ErrOrderingViolation when
	// the bar's timestamp is not strictly greater than the current tail's.
	Append(ctx context.Context, bar Bar) error

	// ReplaceLast overwrites the tail bar. It fails with ErrEmptyStore on an
	// empty series and ErrTimestampMismatch when the timestamps differ.
	ReplaceLast(ctx context.Context, bar Bar) error

	// Trim drops bars from the head until the length is at most maxLen.
	Trim(ctx context.Context, maxLen int) error

	// Tail returns up to n most recent bars in ascending order. The returned
	// slice is a snapshot copy and never aliases internal state.
	Tail(ctx context.Context, n int) ([]Bar, error)

	// Len reports the current number of bars.
	Len(ctx context.Context) (int, error)

	// Load replaces the series contents with the given ascending bars,
	// bypassing per-call ordering checks. Callers must validate ordering
	// beforehand (see Backfiller).
	Load(ctx context.Context, bars []Bar) error
}
