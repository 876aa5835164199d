package ohlcv_test

import (
	"context"
	"reflect"
	"testing"

	"ohlcvd/internal/ohlcv"
	"ohlcvd/internal/ohlcv/memstore"
)

func minuteBars(startMs int64, n int) []ohlcv.Bar {
	bars := make([]ohlcv.Bar, n)
	for i := range bars {
		price := 100 + float64(i)
		bars[i] = ohlcv.Bar{
			Timestamp: startMs + int64(i)*60_000,
			Open:      price,
			High:      price + 2,
			Low:       price - 1,
			Close:     price + 1,
			Volume:    10,
		}
	}
	return bars
}

func TestCompress(t *testing.T) {
	bars := minuteBars(0, 60)
	got := ohlcv.Compress(bars)

	want := ohlcv.Bar{
		Timestamp: 0,
		Open:      100,        // first open
		High:      159 + 2,    // max high (last bar's high)
		Low:       100 - 1,    // min low (first bar's low)
		Close:     159 + 1,    // last close
		Volume:    600,        // 60 * 10
	}
	if got != want {
		t.Errorf("Compress() = %+v, want %+v", got, want)
	}
}

func TestCompressIdempotent(t *testing.T) {
	bars := minuteBars(1_700_000_000_000, 60)
	first := ohlcv.Compress(bars)
	second := ohlcv.Compress(bars)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Compress not idempotent: %+v vs %+v", first, second)
	}
}

func TestResamplerIncompleteWindow(t *testing.T) {
	ctx := context.Background()
	source, target := memstore.New(), memstore.New()

	r, err := ohlcv.NewResampler(source, target, ohlcv.Res1m, ohlcv.Res1h, 100)
	if err != nil {
		t.Fatalf("NewResampler: %v", err)
	}
	if r.Factor != 60 {
		t.Fatalf("expected factor 60, got %d", r.Factor)
	}

	// 59 fine bars: the coarse bucket is not complete, nothing is exposed.
	if err := source.Load(ctx, minuteBars(0, 59)); err != nil {
		t.Fatal(err)
	}
	if err := r.Apply(ctx); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if n, _ := target.Len(ctx); n != 0 {
		t.Errorf("expected empty coarse series, got %d bars", n)
	}
}

func TestResamplerReplaceThenAppend(t *testing.T) {
	ctx := context.Background()
	source, target := memstore.New(), memstore.New()
	r, err := ohlcv.NewResampler(source, target, ohlcv.Res1m, ohlcv.Res1h, 100)
	if err != nil {
		t.Fatalf("NewResampler: %v", err)
	}

	bars := minuteBars(0, 60)
	if err := source.Load(ctx, bars); err != nil {
		t.Fatal(err)
	}
	if err := r.Apply(ctx); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if n, _ := target.Len(ctx); n != 1 {
		t.Fatalf("expected 1 coarse bar, got %d", n)
	}
	// An intra-bucket update to the fine tail keeps the window's first
	// timestamp, so the coarse tail is replaced in place.
	updated := bars[59]
	updated.Close = 500
	updated.High = 500
	if err := source.ReplaceLast(ctx, updated); err != nil {
		t.Fatal(err)
	}
	if err := r.Apply(ctx); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	coarse, _ := target.Tail(ctx, 10)
	if len(coarse) != 1 {
		t.Fatalf("expected coarse tail replaced, got %d bars", len(coarse))
	}
	if coarse[0].Close != 500 || coarse[0].High != 500 {
		t.Errorf("coarse tail not recomputed: %+v", coarse[0])
	}
	firstCoarse, _ := target.Tail(ctx, 1)

	// One more fine bar shifts the window: same run recomputed, new first
	// timestamp, so a new coarse bar is appended.
	next := ohlcv.Bar{Timestamp: 60 * 60_000, Open: 200, High: 201, Low: 199, Close: 200, Volume: 5}
	if err := source.Append(ctx, next); err != nil {
		t.Fatal(err)
	}
	if err := r.Apply(ctx); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	tail, _ := target.Tail(ctx, 10)
	if len(tail) != 2 {
		t.Fatalf("expected 2 coarse bars, got %d", len(tail))
	}
	if tail[0] != firstCoarse[0] {
		t.Errorf("earlier coarse bar mutated: %+v vs %+v", tail[0], firstCoarse[0])
	}
	if tail[1].Timestamp != bars[1].Timestamp {
		t.Errorf("expected new window starting at %d, got %d", bars[1].Timestamp, tail[1].Timestamp)
	}
}

func TestResamplerSeed(t *testing.T) {
	ctx := context.Background()
	source, target := memstore.New(), memstore.New()
	r, err := ohlcv.NewResampler(source, target, ohlcv.Res1m, ohlcv.Res1h, 100)
	if err != nil {
		t.Fatalf("NewResampler: %v", err)
	}

	// 150 fine bars: 2 complete windows anchored at the tail, 30 dropped.
	if err := source.Load(ctx, minuteBars(0, 150)); err != nil {
		t.Fatal(err)
	}
	if err := r.Seed(ctx); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	coarse, _ := target.Tail(ctx, 10)
	if len(coarse) != 2 {
		t.Fatalf("expected 2 coarse bars, got %d", len(coarse))
	}
	// Newest seeded bar must equal an incremental recompute of the last 60.
	fine, _ := source.Tail(ctx, 60)
	if want := ohlcv.Compress(fine); coarse[1] != want {
		t.Errorf("seeded tail %+v, want %+v", coarse[1], want)
	}
	for i := 1; i < len(coarse); i++ {
		if coarse[i-1].Timestamp >= coarse[i].Timestamp {
			t.Fatalf("coarse series not strictly ascending: %+v", coarse)
		}
	}
}
