package memstore

import (
	"context"
	"sync"

	"ohlcvd/internal/ohlcv"
)

// Store is an in-memory ohlcv.SeriesStore backed by a mutex-guarded slice.
// Writes come from a single pipeline goroutine; readers always receive a
// snapshot copy, so a reader can never observe a partial mutation.
type Store struct {
	mu   sync.Mutex
	bars []ohlcv.Bar
}

func New() *Store {
	return &Store{}
}

func (s *Store) Append(_ context.Context, bar ohlcv.Bar) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n := len(s.bars); n > 0 && bar.Timestamp <= s.bars[n-1].Timestamp {
		return ohlcv.ErrOrderingViolation
	}
	s.bars = append(s.bars, bar)
	return nil
}

func (s *Store) ReplaceLast(_ context.Context, bar ohlcv.Bar) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.bars)
	if n == 0 {
		return ohlcv.ErrEmptyStore
	}
	if s.bars[n-1].Timestamp != bar.Timestamp {
		return ohlcv.ErrTimestampMismatch
	}
	s.bars[n-1] = bar
	return nil
}

func (s *Store) Trim(_ context.Context, maxLen int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if maxLen < 0 {
		maxLen = 0
	}
	if excess := len(s.bars) - maxLen; excess > 0 {
		// Copy down instead of reslicing so trimmed bars can be collected.
		kept := make([]ohlcv.Bar, maxLen)
		copy(kept, s.bars[excess:])
		s.bars = kept
	}
	return nil
}

func (s *Store) Tail(_ context.Context, n int) ([]ohlcv.Bar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n <= 0 || len(s.bars) == 0 {
		return nil, nil
	}
	if n > len(s.bars) {
		n = len(s.bars)
	}
	cp := make([]ohlcv.Bar, n)
	copy(cp, s.bars[len(s.bars)-n:])
	return cp, nil
}

func (s *Store) Len(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bars), nil
}

func (s *Store) Load(_ context.Context, bars []ohlcv.Bar) error {
	cp := make([]ohlcv.Bar, len(bars))
	copy(cp, bars)

	s.mu.Lock()
	s.bars = cp
	s.mu.Unlock()
	return nil
}
