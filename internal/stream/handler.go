package stream

import (
	"encoding/json"
	"strings"

	"ohlcvd/internal/ohlcv"
	"ohlcvd/pkg/bybit"

	"go.uber.org/zap"
)

// EventSink receives decoded kline events keyed by symbol.
type EventSink interface {
	Dispatch(symbol string, ev ohlcv.Event)
}

// MakeMessageHandler returns a function that handles incoming WebSocket
// messages by decoding kline payloads and forwarding them to the sink.
// Every update is forwarded, confirmed or not: the tail bar stays mutable
// until its bucket closes, so intra-bucket deltas matter.
func MakeMessageHandler(logger *zap.Logger, sink EventSink) func(msg []byte) {
	return func(msg []byte) {
		// Step 1: Extract topic string for early filtering
		var meta struct {
			Topic string `json:"topic"`
		}
		if err := json.Unmarshal(msg, &meta); err != nil {
			logger.Warn("failed to extract topic", zap.Error(err))
			return
		}
		if !isKlineTopic(meta.Topic) {
			return // Ignore non-kline messages (e.g., subscription responses)
		}

		// Step 2: Fully parse the kline message payload
		var parsed bybit.KlineMessage
		if err := json.Unmarshal(msg, &parsed); err != nil {
			logger.Warn("failed to parse kline payload", zap.Error(err))
			return
		}
		symbol := extractSymbolFromTopic(parsed.Topic) // e.g., "kline.1.BTCUSDT" → "BTCUSDT"
		if symbol == "" {
			logger.Warn("kline message with malformed topic", zap.String("topic", parsed.Topic))
			return
		}

		// Step 3: Convert and forward each update
		for _, d := range parsed.Data {
			ev, err := d.Event()
			if err != nil {
				logger.Warn("dropping malformed kline payload",
					zap.String("symbol", symbol), zap.Error(err))
				continue
			}
			sink.Dispatch(symbol, ev)
		}
	}
}

// isKlineTopic returns true if the topic string indicates a kline stream.
func isKlineTopic(topic string) bool {
	return strings.HasPrefix(topic, "kline.")
}

// extractSymbolFromTopic parses the symbol from a topic like "kline.1.BTCUSDT".
func extractSymbolFromTopic(topic string) string {
	parts := strings.Split(topic, ".")
	if len(parts) == 3 {
		return parts[2]
	}
	return ""
}
