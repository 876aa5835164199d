package ohlcv

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// HistorySource fetches historical kline events from a REST endpoint.
// A zero start means "the most recent limit bars".
type HistorySource interface {
	Klines(ctx context.Context, symbol string, res Resolution, limit int, start int64) ([]Event, error)
}

// Backfiller pre-populates a series by paginating backward through a
// HistorySource before live ingestion begins. Pagination is strictly
// sequential within one series; pages may overlap at boundaries and are
// deduplicated after the fact.
type Backfiller struct {
	Source   HistorySource
	PageSize int
	MaxPages int
	Logger   *zap.Logger
}

// Run fetches up to MaxPages pages, merges them, and bulk-loads the result
// into store bounded to maxLen bars. An upstream failure mid-pagination keeps
// what was already accumulated: partial history beats none and must not block
// service start. It returns the number of bars loaded.
func (b *Backfiller) Run(ctx context.Context, symbol string, res Resolution, store SeriesStore, maxLen int) (int, error) {
	var acc []Event
	var cursor int64 // 0 = newest page

	for page := 0; page < b.MaxPages; page++ {
		events, err := b.Source.Klines(ctx, symbol, res, b.PageSize, cursor)
		if err != nil {
			b.Logger.Warn("backfill page fetch failed, keeping partial history",
				zap.String("symbol", symbol), zap.String("resolution", string(res)),
				zap.Int("page", page), zap.Error(err))
			break
		}
		if len(events) == 0 {
			break
		}

		earliest := NormalizeTimestamp(events[0].Timestamp)
		for _, ev := range events[1:] {
			if ts := NormalizeTimestamp(ev.Timestamp); ts < earliest {
				earliest = ts
			}
		}
		acc = append(acc, events...)

		next := earliest - int64(b.PageSize)*res.Ms()
		if cursor != 0 && next >= cursor {
			// Cursor stopped advancing; the endpoint has no older data.
			break
		}
		cursor = next
	}

	bars, err := mergeHistory(acc)
	if err != nil {
		return 0, fmt.Errorf("backfill %s %s: %w", symbol, res, err)
	}
	if len(bars) > maxLen {
		bars = bars[len(bars)-maxLen:]
	}
	if err := store.Load(ctx, bars); err != nil {
		return 0, fmt.Errorf("load backfill %s %s: %w", symbol, res, err)
	}
	return len(bars), nil
}

// mergeHistory sorts accumulated events ascending, drops exact-timestamp
// collisions keeping the latest-fetched instance, and validates strict
// ordering. Any remaining violation means upstream data is broken and must
// not be loaded (ErrBackfillCorrupt).
func mergeHistory(events []Event) ([]Bar, error) {
	bars := make([]Bar, 0, len(events))
	for _, ev := range events {
		bar := ev.Bar()
		if bar.Validate() != nil {
			continue // skip broken rows, adapter-level noise
		}
		bars = append(bars, bar)
	}

	// Stable sort keeps fetch order within equal timestamps, so the last
	// element of an equal run is the latest-fetched instance.
	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Timestamp < bars[j].Timestamp
	})

	deduped := bars[:0]
	for i, bar := range bars {
		if i+1 < len(bars) && bars[i+1].Timestamp == bar.Timestamp {
			continue
		}
		deduped = append(deduped, bar)
	}

	for i := 1; i < len(deduped); i++ {
		if deduped[i-1].Timestamp >= deduped[i].Timestamp {
			return nil, fmt.Errorf("%w: %d >= %d",
				ErrBackfillCorrupt, deduped[i-1].Timestamp, deduped[i].Timestamp)
		}
	}
	return deduped, nil
}
