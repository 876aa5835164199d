package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ohlcvd/internal/ohlcv"

	"github.com/go-redis/redis/v8"
)

// SeriesStore is a Redis-list-backed ohlcv.SeriesStore: one list per series
// key, each element a JSON-encoded bar, oldest at the head. The tail element
// is the only one ever rewritten (LSET -1 while a bucket is open).
//
// The ordering checks piggyback on the single-writer discipline: only the
// owning pipeline mutates a series, so check-then-write without a server-side
// transaction is safe.
type SeriesStore struct {
	rdb *redis.Client
	key string
}

func (s *SeriesStore) Append(ctx context.Context, bar ohlcv.Bar) error {
	last, ok, err := s.last(ctx)
	if err != nil {
		return err
	}
	if ok && bar.Timestamp <= last.Timestamp {
		return ohlcv.ErrOrderingViolation
	}
	data, err := json.Marshal(bar)
	if err != nil {
		return fmt.Errorf("encode bar: %w", err)
	}
	return s.rdb.RPush(ctx, s.key, data).Err()
}

func (s *SeriesStore) ReplaceLast(ctx context.Context, bar ohlcv.Bar) error {
	last, ok, err := s.last(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ohlcv.ErrEmptyStore
	}
	if last.Timestamp != bar.Timestamp {
		return ohlcv.ErrTimestampMismatch
	}
	data, err := json.Marshal(bar)
	if err != nil {
		return fmt.Errorf("encode bar: %w", err)
	}
	return s.rdb.LSet(ctx, s.key, -1, data).Err()
}

func (s *SeriesStore) Trim(ctx context.Context, maxLen int) error {
	if maxLen <= 0 {
		return s.rdb.Del(ctx, s.key).Err()
	}
	return s.rdb.LTrim(ctx, s.key, int64(-maxLen), -1).Err()
}

func (s *SeriesStore) Tail(ctx context.Context, n int) ([]ohlcv.Bar, error) {
	if n <= 0 {
		return nil, nil
	}
	items, err := s.rdb.LRange(ctx, s.key, int64(-n), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read range: %w", err)
	}
	bars := make([]ohlcv.Bar, 0, len(items))
	for _, item := range items {
		var bar ohlcv.Bar
		if err := json.Unmarshal([]byte(item), &bar); err != nil {
			return nil, fmt.Errorf("decode bar: %w", err)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func (s *SeriesStore) Len(ctx context.Context) (int, error) {
	n, err := s.rdb.LLen(ctx, s.key).Result()
	return int(n), err
}

func (s *SeriesStore) Load(ctx context.Context, bars []ohlcv.Bar) error {
	encoded := make([]interface{}, 0, len(bars))
	for _, bar := range bars {
		data, err := json.Marshal(bar)
		if err != nil {
			return fmt.Errorf("encode bar: %w", err)
		}
		encoded = append(encoded, data)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, s.key)
	if len(encoded) > 0 {
		pipe.RPush(ctx, s.key, encoded...)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *SeriesStore) last(ctx context.Context) (ohlcv.Bar, bool, error) {
	item, err := s.rdb.LIndex(ctx, s.key, -1).Result()
	if errors.Is(err, redis.Nil) {
		return ohlcv.Bar{}, false, nil
	}
	if err != nil {
		return ohlcv.Bar{}, false, fmt.Errorf("read tail: %w", err)
	}
	var bar ohlcv.Bar
	if err := json.Unmarshal([]byte(item), &bar); err != nil {
		return ohlcv.Bar{}, false, fmt.Errorf("decode tail: %w", err)
	}
	return bar, true, nil
}
