package bybit

import (
	"fmt"

	"ohlcvd/internal/ohlcv"
)

// KlineInterval is the interval value used in API requests and topics.
type KlineInterval string

// KlineIntervalMeta holds the API value and canonical resolution label for a
// kline interval.
type KlineIntervalMeta struct {
	APIValue   string
	Resolution ohlcv.Resolution
	Minutes    int
}

const (
	Interval1Min   KlineInterval = "1"
	Interval5Min   KlineInterval = "5"
	Interval15Min  KlineInterval = "15"
	Interval60Min  KlineInterval = "60"
	Interval240Min KlineInterval = "240"
	IntervalDaily  KlineInterval = "D"
)

var validKlineIntervals = map[KlineInterval]KlineIntervalMeta{
	Interval1Min:   {APIValue: "1", Resolution: ohlcv.Res1m, Minutes: 1},
	Interval5Min:   {APIValue: "5", Resolution: ohlcv.Res5m, Minutes: 5},
	Interval15Min:  {APIValue: "15", Resolution: ohlcv.Res15m, Minutes: 15},
	Interval60Min:  {APIValue: "60", Resolution: ohlcv.Res1h, Minutes: 60},
	Interval240Min: {APIValue: "240", Resolution: ohlcv.Res4h, Minutes: 240},
	IntervalDaily:  {APIValue: "D", Resolution: ohlcv.Res1d, Minutes: 1440}, // 24*60
}

// IsValid checks if the KlineInterval is a valid predefined interval.
func (k KlineInterval) IsValid() bool {
	_, ok := validKlineIntervals[k]
	return ok
}

// IntervalForResolution maps a canonical resolution to the Bybit API interval
// value (e.g. "1m" -> "1", "1h" -> "60").
func IntervalForResolution(res ohlcv.Resolution) (string, error) {
	for _, meta := range validKlineIntervals {
		if meta.Resolution == res {
			return meta.APIValue, nil
		}
	}
	return "", fmt.Errorf("no bybit interval for resolution %q", res)
}

// KlineTopic builds the WebSocket subscription topic for a symbol and
// resolution, e.g. "kline.1.BTCUSDT".
func KlineTopic(res ohlcv.Resolution, symbol string) (string, error) {
	interval, err := IntervalForResolution(res)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("kline.%s.%s", interval, symbol), nil
}
