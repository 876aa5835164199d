package bybit

import "encoding/json"

// Response represents the generic envelope of Bybit's V5 REST API.
// This structure covers the standard response wrapper used across all endpoints.
type Response struct {
	RetCode    int                    `json:"retCode"`    // 0 means success; non-zero indicates an error code
	RetMsg     string                 `json:"retMsg"`     // Human-readable message describing the result or error
	Result     json.RawMessage        `json:"result"`     // Delay decoding // Main response payload (varies per endpoint)
	RetExtInfo map[string]interface{} `json:"retExtInfo"` // Optional extra info (e.g. rate limits, error hints)
	Time       int64                  `json:"time"`       // Server timestamp (in milliseconds since epoch)
}

type InstrumentListResponse struct {
	Category       string `json:"category"` // e.g., "linear", "spot"
	NextPageCursor string `json:"nextPageCursor"`
	List           []struct {
		Symbol    string `json:"symbol"`    // e.g., "BTCUSDT"
		BaseCoin  string `json:"baseCoin"`  // e.g., "BTC"
		QuoteCoin string `json:"quoteCoin"` // e.g., "USDT"
	} `json:"list"`
}

// KlinesResponse carries historical candles as rows of
// [start, open, high, low, close, volume, turnover] strings, newest first.
type KlinesResponse struct {
	Category       string     `json:"category"`
	NextPageCursor string     `json:"nextPageCursor"`
	List           [][]string `json:"list"`
}

// KlineMessage represents a WebSocket push message on a kline topic.
type KlineMessage struct {
	Topic string       `json:"topic"` // Subscription stream, e.g., "kline.1.BTCUSDT"
	Data  []KlineEvent `json:"data"`  // Array of kline (candlestick) updates
	Ts    int64        `json:"ts"`    // Timestamp (in milliseconds) when the message was sent
	Type  string       `json:"type"`  // Message type, e.g., "snapshot" or "delta"
}

// KlineEvent is a single candlestick update received from the Bybit WebSocket
// stream. Prices arrive as strings and are parsed at the adapter boundary.
type KlineEvent struct {
	Start     int64  `json:"start"`     // Start time of the kline (in milliseconds since epoch)
	End       int64  `json:"end"`       // End time of the kline (in milliseconds since epoch)
	Interval  string `json:"interval"`  // Interval of the kline (e.g., "1", "5", "15") — in minutes
	Open      string `json:"open"`      // Opening price
	Close     string `json:"close"`     // Closing price
	High      string `json:"high"`      // Highest price during the interval
	Low       string `json:"low"`       // Lowest price during the interval
	Volume    string `json:"volume"`    // Trade volume (number of units traded)
	Turnover  string `json:"turnover"`  // Total traded value (usually in USD)
	Confirm   bool   `json:"confirm"`   // Whether the kline is finalized (true when the interval closes)
	Timestamp int64  `json:"timestamp"` // Time when the event was generated (in milliseconds since epoch)
}
