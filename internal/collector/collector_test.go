package collector

import (
	"context"
	"sync"
	"testing"

	"ohlcvd/internal/ohlcv"
	"ohlcvd/internal/ohlcv/memstore"

	"go.uber.org/zap"
)

// fixedSource serves one snapshot page regardless of pagination.
type fixedSource struct {
	events []ohlcv.Event
	calls  int
}

func (s *fixedSource) Klines(_ context.Context, _ string, _ ohlcv.Resolution, _ int, _ int64) ([]ohlcv.Event, error) {
	s.calls++
	if s.calls > 1 {
		return nil, nil
	}
	return s.events, nil
}

// newTestService wires one symbol's pipeline from a canned history source,
// skipping the network clients entirely.
func newTestService(t *testing.T, symbol string, history []ohlcv.Event) *Service {
	t.Helper()
	ctx := context.Background()

	s := &Service{
		logger:    zap.NewNop(),
		registry:  NewRegistry(),
		pipelines: make(map[string]*pipeline),
	}

	fine := memstore.New()
	coarse := memstore.New()
	resampler, err := ohlcv.NewResampler(fine, coarse, ohlcv.Res1m, ohlcv.Res1h, 10000)
	if err != nil {
		t.Fatalf("NewResampler: %v", err)
	}

	b := &ohlcv.Backfiller{Source: &fixedSource{events: history}, PageSize: 200, MaxPages: 5, Logger: s.logger}
	if _, err := b.Run(ctx, symbol, ohlcv.Res1m, fine, 10000); err != nil {
		t.Fatalf("backfill: %v", err)
	}
	if err := resampler.Seed(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	ingester := ohlcv.NewIngester(fine, []*ohlcv.Resampler{resampler}, 10000, s.logger)
	s.registry.Register(symbol, ohlcv.Res1m, fine)
	s.registry.Register(symbol, ohlcv.Res1h, coarse)
	s.pipelines[symbol] = &pipeline{symbol: symbol, ingester: ingester, logger: s.logger}
	return s
}

// A live update for the bucket the snapshot already covers must replace that
// bar in place, leaving the series length unchanged.
func TestDispatchUpdatesSnapshotTail(t *testing.T) {
	ctx := context.Background()
	base := int64(1_700_000_000_000)
	history := []ohlcv.Event{
		{Timestamp: base, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10},
		{Timestamp: base + 60_000, Open: 1.5, High: 1.8, Low: 1.2, Close: 1.6, Volume: 8},
		{Timestamp: base + 120_000, Open: 1.6, High: 1.7, Low: 1.5, Close: 1.6, Volume: 3},
	}
	s := newTestService(t, "BTCUSDT", history)

	s.Dispatch("BTCUSDT", ohlcv.Event{
		Timestamp: base + 120_000, Open: 1.5, High: 2.1, Low: 1.4, Close: 2.0, Volume: 5,
	})

	bars, err := s.registry.GetBars(ctx, "BTCUSDT", ohlcv.Res1m, 10)
	if err != nil {
		t.Fatalf("GetBars: %v", err)
	}
	if len(bars) != 3 {
		t.Fatalf("got %d bars, want 3", len(bars))
	}
	last := bars[2]
	if last.Timestamp != base+120_000 || last.Close != 2.0 || last.High != 2.1 {
		t.Fatalf("tail bar not replaced: %+v", last)
	}
	if bars[0].Timestamp != base || bars[1].Timestamp != base+60_000 {
		t.Fatalf("earlier bars disturbed: %+v", bars[:2])
	}
}

func TestDispatchAppendsNewBucket(t *testing.T) {
	ctx := context.Background()
	base := int64(1_700_000_000_000)
	history := []ohlcv.Event{
		{Timestamp: base, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10},
	}
	s := newTestService(t, "BTCUSDT", history)

	s.Dispatch("BTCUSDT", ohlcv.Event{
		Timestamp: base + 60_000, Open: 1.5, High: 1.6, Low: 1.4, Close: 1.55, Volume: 2,
	})

	bars, err := s.registry.GetBars(ctx, "BTCUSDT", ohlcv.Res1m, 10)
	if err != nil {
		t.Fatalf("GetBars: %v", err)
	}
	if len(bars) != 2 || bars[1].Timestamp != base+60_000 {
		t.Fatalf("new bucket not appended: %+v", bars)
	}
}

func TestDispatchUnknownSymbolDropped(t *testing.T) {
	base := int64(1_700_000_000_000)
	s := newTestService(t, "BTCUSDT", []ohlcv.Event{
		{Timestamp: base, Open: 1, High: 1, Low: 1, Close: 1, Volume: 1},
	})

	// Must not panic or create a series.
	s.Dispatch("ETHUSDT", ohlcv.Event{
		Timestamp: base, Open: 1, High: 1, Low: 1, Close: 1, Volume: 1,
	})

	bars, err := s.registry.GetBars(context.Background(), "ETHUSDT", ohlcv.Res1m, 10)
	if err != nil {
		t.Fatalf("GetBars: %v", err)
	}
	if bars != nil {
		t.Fatalf("unknown symbol grew a series: %+v", bars)
	}
}

func TestGetBarsUnknownResolution(t *testing.T) {
	s := newTestService(t, "BTCUSDT", []ohlcv.Event{
		{Timestamp: 1_700_000_000_000, Open: 1, High: 1, Low: 1, Close: 1, Volume: 1},
	})

	bars, err := s.registry.GetBars(context.Background(), "BTCUSDT", ohlcv.Res5m, 10)
	if err != nil || bars != nil {
		t.Fatalf("want nil, nil for unregistered series, got %v, %v", bars, err)
	}
}

func TestDispatchConcurrentEventsSerialized(t *testing.T) {
	ctx := context.Background()
	base := int64(1_700_000_000_000)
	s := newTestService(t, "BTCUSDT", []ohlcv.Event{
		{Timestamp: base, Open: 1, High: 1, Low: 1, Close: 1, Volume: 1},
	})

	// Concurrent replacements of the same bucket must never corrupt the
	// series: the pipeline serializes them.
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Dispatch("BTCUSDT", ohlcv.Event{
				Timestamp: base + 60_000, Open: 1, High: 2, Low: 0.5, Close: 1 + float64(i)*0.01, Volume: 1,
			})
		}()
	}
	wg.Wait()

	bars, err := s.registry.GetBars(ctx, "BTCUSDT", ohlcv.Res1m, 10)
	if err != nil {
		t.Fatalf("GetBars: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("got %d bars, want 2", len(bars))
	}
	if bars[0].Timestamp != base || bars[1].Timestamp != base+60_000 {
		t.Fatalf("ordering broken: %+v", bars)
	}
}
