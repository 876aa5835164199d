package postgres_test

import (
	"context"
	"testing"
	"time"

	"ohlcvd/config"
	"ohlcvd/internal/ohlcv"
	"ohlcvd/pkg/storage/postgres"
)

// Integration test against a local Postgres; skipped when none is running.
func newTestClient(t *testing.T) *postgres.PostgresClient {
	t.Helper()
	cfg := config.PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "yourpw",
		DBName:   "ohlcvd_test",
		SSLMode:  "disable",
		TimeZone: "UTC",
	}

	client, err := postgres.InitializeAndMigrateBarRecord(cfg, true)
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	return client
}

func TestBarArchiveRoundTrip(t *testing.T) {
	client := newTestClient(t)
	defer client.Close()
	ctx := context.Background()

	start := time.Now().UTC().Truncate(time.Minute)
	bar := ohlcv.Bar{
		Timestamp: start.UnixMilli(),
		Open:      31400.0, High: 31600.0, Low: 31300.0, Close: 31500.0,
		Volume: 123.45,
	}

	record := postgres.ToBarRecord("BTCUSDT", ohlcv.Res1m, bar)
	if err := client.InsertBar(ctx, record); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	// A replayed duplicate must be a silent no-op.
	if err := client.InsertBar(ctx, postgres.ToBarRecord("BTCUSDT", ohlcv.Res1m, bar)); err != nil {
		t.Fatalf("duplicate insert must not fail: %v", err)
	}

	got, err := client.GetBar(ctx, "BTCUSDT", ohlcv.Res1m, start)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Close != 31500.0 || got.Volume != 123.45 {
		t.Errorf("unexpected record: %+v", got)
	}

	if err := client.DeleteBarsBefore(ctx, start.Add(time.Minute)); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
}

func TestPostgresHealth(t *testing.T) {
	client := newTestClient(t)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if !client.IsHealthy(ctx) {
		t.Fatal("expected healthy DB connection")
	}
}
