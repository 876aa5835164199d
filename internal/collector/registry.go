package collector

import (
	"context"
	"sync"

	"ohlcvd/internal/ohlcv"
)

// Key identifies one candle series.
type Key struct {
	Symbol     string
	Resolution ohlcv.Resolution
}

// Registry maps series keys to their owned stores. It is the read interface
// for every external consumer: the HTTP facade and anything else that wants
// bars goes through GetBars and never touches a store directly.
type Registry struct {
	mu     sync.RWMutex
	series map[Key]ohlcv.SeriesStore
}

func NewRegistry() *Registry {
	return &Registry{series: make(map[Key]ohlcv.SeriesStore)}
}

// Register installs the store owning a series key.
func (r *Registry) Register(symbol string, res ohlcv.Resolution, store ohlcv.SeriesStore) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.series[Key{Symbol: symbol, Resolution: res}] = store
}

// Lookup returns the store for a key if one exists.
func (r *Registry) Lookup(symbol string, res ohlcv.Resolution) (ohlcv.SeriesStore, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	store, ok := r.series[Key{Symbol: symbol, Resolution: res}]
	return store, ok
}

// GetBars returns at most limit most recent bars of a series in ascending
// order. A series that does not exist yet yields an empty result, not an
// error: consumers render an empty state instead of failing.
func (r *Registry) GetBars(ctx context.Context, symbol string, res ohlcv.Resolution, limit int) ([]ohlcv.Bar, error) {
	store, ok := r.Lookup(symbol, res)
	if !ok {
		return nil, nil
	}
	return store.Tail(ctx, limit)
}
