package redisstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"ohlcvd/config"
	"ohlcvd/internal/ohlcv"

	"github.com/go-redis/redis/v8"
)

// Client wraps a Redis connection used for series persistence and the
// per-symbol last-price key.
type Client struct {
	rdb *redis.Client
}

// New connects to Redis and verifies the connection with a ping.
func New(cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Client{rdb: rdb}, nil
}

// Series returns the list-backed store for one (symbol, resolution) key.
func (c *Client) Series(symbol string, res ohlcv.Resolution) *SeriesStore {
	return &SeriesStore{
		rdb: c.rdb,
		key: fmt.Sprintf("ohlcv:%s:%s", symbol, res),
	}
}

// SetLastPrice records the most recent close for a symbol.
func (c *Client) SetLastPrice(ctx context.Context, symbol string, price float64) error {
	key := fmt.Sprintf("price:%s", symbol)
	return c.rdb.Set(ctx, key, strconv.FormatFloat(price, 'f', -1, 64), 0).Err()
}

// LastPrice reads the most recent close for a symbol.
func (c *Client) LastPrice(ctx context.Context, symbol string) (float64, error) {
	key := fmt.Sprintf("price:%s", symbol)
	s, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(s, 64)
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
