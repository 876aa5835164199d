package ohlcv

import (
	"context"
	"fmt"
	"math"
)

// Resampler derives a coarser series from a finer one by collapsing a fixed
// count of consecutive fine bars into one coarse bar. It recomputes the most
// recent window from scratch on every invocation instead of accumulating
// increments, so repeated runs over the same fine window are idempotent and
// cannot drift.
type Resampler struct {
	Source SeriesStore
	Target SeriesStore
	Factor int // fine bars per coarse bar, e.g. 60 for 1m -> 1h
	MaxLen int // bound applied to the target series after append
}

// NewResampler builds a resampler between two resolutions. The coarse
// duration must be an exact multiple of the fine duration.
func NewResampler(source, target SeriesStore, fine, coarse Resolution, maxLen int) (*Resampler, error) {
	if coarse.Ms() <= 0 || fine.Ms() <= 0 || coarse.Ms()%fine.Ms() != 0 {
		return nil, fmt.Errorf("resolution %s is not a multiple of %s", coarse, fine)
	}
	return &Resampler{
		Source: source,
		Target: target,
		Factor: int(coarse.Ms() / fine.Ms()),
		MaxLen: maxLen,
	}, nil
}

// Compress collapses a run of consecutive fine bars into one coarse bar:
// timestamp/open from the first, close from the last, high/low as extremes,
// volume as the sum.
func Compress(bars []Bar) Bar {
	first, last := bars[0], bars[len(bars)-1]
	out := Bar{
		Timestamp: first.Timestamp,
		Open:      first.Open,
		High:      first.High,
		Low:       first.Low,
		Close:     last.Close,
	}
	for _, b := range bars {
		out.High = math.Max(out.High, b.High)
		out.Low = math.Min(out.Low, b.Low)
		out.Volume += b.Volume
	}
	return out
}

// Apply recomputes the coarse bar from the most recent Factor fine bars and
// writes it to the target series. With fewer than Factor fine bars available
// it does nothing: an incomplete coarse bucket is not exposed downstream.
func (r *Resampler) Apply(ctx context.Context) error {
	fine, err := r.Source.Tail(ctx, r.Factor)
	if err != nil {
		return fmt.Errorf("read fine tail: %w", err)
	}
	if len(fine) < r.Factor {
		return nil
	}

	coarse := Compress(fine)

	tail, err := r.Target.Tail(ctx, 1)
	if err != nil {
		return fmt.Errorf("read coarse tail: %w", err)
	}
	if len(tail) == 1 && tail[0].Timestamp == coarse.Timestamp {
		// Still accumulating within the same coarse bucket.
		return r.Target.ReplaceLast(ctx, coarse)
	}
	if err := r.Target.Append(ctx, coarse); err != nil {
		return err
	}
	return r.Target.Trim(ctx, r.MaxLen)
}

// Seed rebuilds the coarse series from the full fine series, grouping windows
// of Factor bars anchored at the tail so that the newest coarse bar matches
// what Apply would produce. Used once after backfill, before live ingestion.
func (r *Resampler) Seed(ctx context.Context) error {
	n, err := r.Source.Len(ctx)
	if err != nil {
		return fmt.Errorf("read fine length: %w", err)
	}
	fine, err := r.Source.Tail(ctx, n)
	if err != nil {
		return fmt.Errorf("read fine series: %w", err)
	}
	if len(fine) < r.Factor {
		return nil
	}

	// Anchor grouping at the tail; a leading remainder shorter than Factor
	// is dropped rather than exposed as a partial coarse bucket.
	offset := len(fine) % r.Factor
	var coarse []Bar
	for i := offset; i+r.Factor <= len(fine); i += r.Factor {
		coarse = append(coarse, Compress(fine[i:i+r.Factor]))
	}
	if len(coarse) > r.MaxLen {
		coarse = coarse[len(coarse)-r.MaxLen:]
	}
	return r.Target.Load(ctx, coarse)
}
