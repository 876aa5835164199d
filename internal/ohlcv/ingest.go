package ohlcv

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Ingester applies live kline events for one (symbol, resolution) series and
// triggers incremental resampling into the derived coarser series. It is the
// single writer for its stores; callers must not invoke Ingest concurrently.
type Ingester struct {
	store      SeriesStore
	resamplers []*Resampler
	maxLen     int
	logger     *zap.Logger

	// OnBarClosed fires when a bar's bucket closes, i.e. a newer bar was
	// appended after it. Used to archive finalized candles.
	OnBarClosed func(Bar)

	// OnUpdate fires after every accepted event with the latest close price.
	OnUpdate func(price float64)
}

// NewIngester creates an ingester writing into store, bounded to maxLen bars.
func NewIngester(store SeriesStore, resamplers []*Resampler, maxLen int, logger *zap.Logger) *Ingester {
	return &Ingester{
		store:      store,
		resamplers: resamplers,
		maxLen:     maxLen,
		logger:     logger,
	}
}

// Ingest canonicalizes one event and applies it to the series:
//   - tail missing or older: append a new bar and resample
//   - tail has the same timestamp: replace in place (bucket still open)
//   - tail is newer: drop silently (out-of-order network delivery)
//
// Every accepted event ends with a trim to the series bound.
//
// Malformed events are logged and dropped without failing the loop. Store
// invariant violations propagate: they indicate corruption and must stop the
// owning pipeline.
func (in *Ingester) Ingest(ctx context.Context, ev Event) error {
	bar := ev.Bar()
	if err := bar.Validate(); err != nil {
		in.logger.Warn("dropping malformed event",
			zap.Int64("timestamp", ev.Timestamp), zap.Error(err))
		return nil
	}

	tail, err := in.store.Tail(ctx, 1)
	if err != nil {
		return fmt.Errorf("read tail: %w", err)
	}

	switch {
	case len(tail) == 1 && bar.Timestamp < tail[0].Timestamp:
		// Late or duplicate delivery; the bucket is already sealed.
		in.logger.Debug("dropping out-of-order event",
			zap.Int64("event", bar.Timestamp), zap.Int64("tail", tail[0].Timestamp))
		return nil

	case len(tail) == 1 && bar.Timestamp == tail[0].Timestamp:
		if err := in.store.ReplaceLast(ctx, bar); err != nil {
			return fmt.Errorf("replace tail: %w", err)
		}

	default:
		if err := in.store.Append(ctx, bar); err != nil {
			return fmt.Errorf("append bar: %w", err)
		}
		if len(tail) == 1 && in.OnBarClosed != nil {
			in.OnBarClosed(tail[0])
		}
		for _, r := range in.resamplers {
			if err := r.Apply(ctx); err != nil {
				return fmt.Errorf("resample: %w", err)
			}
		}
	}

	// Re-apply the bound after every mutation, not just appends: a series
	// seeded past maxLen shrinks back on the first accepted event.
	if err := in.store.Trim(ctx, in.maxLen); err != nil {
		return fmt.Errorf("trim: %w", err)
	}

	if in.OnUpdate != nil {
		in.OnUpdate(bar.Close)
	}
	return nil
}
