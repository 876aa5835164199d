package redisstore

import (
	"context"
	"errors"
	"testing"

	"ohlcvd/config"
	"ohlcvd/internal/ohlcv"
)

// Integration test against a local Redis; skipped when none is running.
func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(config.RedisConfig{Addr: "localhost:6379"})
	if err != nil {
		t.Skipf("redis not available: %v", err)
	}
	return client
}

func TestSeriesStoreRoundTrip(t *testing.T) {
	client := newTestClient(t)
	defer client.Close()
	ctx := context.Background()

	store := client.Series("TESTUSDT", ohlcv.Res1m)
	if err := store.Load(ctx, nil); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	defer store.Load(ctx, nil)

	bars := []ohlcv.Bar{
		{Timestamp: 1000, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10},
		{Timestamp: 61000, Open: 1.5, High: 2.5, Low: 1, Close: 2, Volume: 5},
	}
	if err := store.Load(ctx, bars); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if err := store.Append(ctx, ohlcv.Bar{Timestamp: 61000, Close: 9}); !errors.Is(err, ohlcv.ErrOrderingViolation) {
		t.Errorf("expected ErrOrderingViolation, got %v", err)
	}
	if err := store.Append(ctx, ohlcv.Bar{Timestamp: 121000, Open: 2, High: 3, Low: 2, Close: 2.5, Volume: 1}); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := store.ReplaceLast(ctx, ohlcv.Bar{Timestamp: 121000, Open: 2, High: 3.5, Low: 2, Close: 3, Volume: 2}); err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	if err := store.Trim(ctx, 2); err != nil {
		t.Fatalf("trim failed: %v", err)
	}

	tail, err := store.Tail(ctx, 10)
	if err != nil {
		t.Fatalf("tail failed: %v", err)
	}
	if len(tail) != 2 {
		t.Fatalf("expected 2 bars after trim, got %d", len(tail))
	}
	if tail[1].Timestamp != 121000 || tail[1].Close != 3 {
		t.Errorf("unexpected tail bar: %+v", tail[1])
	}
}

func TestLastPrice(t *testing.T) {
	client := newTestClient(t)
	defer client.Close()
	ctx := context.Background()

	if err := client.SetLastPrice(ctx, "TESTUSDT", 12345.5); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	price, err := client.LastPrice(ctx, "TESTUSDT")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if price != 12345.5 {
		t.Errorf("expected 12345.5, got %v", price)
	}
}
