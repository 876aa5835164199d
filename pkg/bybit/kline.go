package bybit

import (
	"fmt"
	"strconv"

	"ohlcvd/internal/ohlcv"
)

// ParseKlineRows converts Bybit REST kline rows into canonical events.
// Rows that are incomplete or carry non-numeric fields are skipped; REST
// history is best-effort and a single broken row must not abort a page.
func ParseKlineRows(raw [][]string) []ohlcv.Event {
	var out []ohlcv.Event

	for _, row := range raw {
		if len(row) < 6 {
			continue // skip incomplete row
		}

		start, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			continue
		}
		open, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			continue
		}
		high, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			continue
		}
		low, err := strconv.ParseFloat(row[3], 64)
		if err != nil {
			continue
		}
		closeVal, err := strconv.ParseFloat(row[4], 64)
		if err != nil {
			continue
		}
		volume, err := strconv.ParseFloat(row[5], 64)
		if err != nil {
			continue
		}

		out = append(out, ohlcv.Event{
			Timestamp: start,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closeVal,
			Volume:    volume,
		})
	}
	return out
}

// Event converts a WebSocket kline payload into a canonical event. Unlike
// REST rows a broken push payload is surfaced to the caller so it can be
// logged at the ingestion boundary.
func (k KlineEvent) Event() (ohlcv.Event, error) {
	open, err := strconv.ParseFloat(k.Open, 64)
	if err != nil {
		return ohlcv.Event{}, fmt.Errorf("parse open %q: %w", k.Open, err)
	}
	high, err := strconv.ParseFloat(k.High, 64)
	if err != nil {
		return ohlcv.Event{}, fmt.Errorf("parse high %q: %w", k.High, err)
	}
	low, err := strconv.ParseFloat(k.Low, 64)
	if err != nil {
		return ohlcv.Event{}, fmt.Errorf("parse low %q: %w", k.Low, err)
	}
	closeVal, err := strconv.ParseFloat(k.Close, 64)
	if err != nil {
		return ohlcv.Event{}, fmt.Errorf("parse close %q: %w", k.Close, err)
	}
	volume, err := strconv.ParseFloat(k.Volume, 64)
	if err != nil {
		return ohlcv.Event{}, fmt.Errorf("parse volume %q: %w", k.Volume, err)
	}

	return ohlcv.Event{
		Timestamp: k.Start,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closeVal,
		Volume:    volume,
	}, nil
}
