package postgres

import (
	"context"
	"time"

	"ohlcvd/internal/ohlcv"

	"gorm.io/gorm/clause"
)

// InsertBar archives one closed bar. Duplicate (symbol, resolution, start)
// rows are ignored: reconnects replay recent klines and the archive keeps the
// first finalized instance.
func (p *PostgresClient) InsertBar(ctx context.Context, record *BarRecord) error {
	return p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "symbol"},
			{Name: "resolution"},
			{Name: "start"},
		},
		DoNothing: true,
	}).Create(record).Error
}

func (p *PostgresClient) GetBar(ctx context.Context, symbol string, res ohlcv.Resolution, start time.Time) (*BarRecord, error) {
	var record BarRecord
	err := p.DB.WithContext(ctx).
		Where("symbol = ? AND resolution = ? AND start = ?", symbol, string(res), start).
		First(&record).Error

	if err != nil {
		return nil, err
	}
	return &record, nil
}

// DeleteBarsBefore drops archived bars older than the given time.
func (p *PostgresClient) DeleteBarsBefore(ctx context.Context, before time.Time) error {
	return p.DB.WithContext(ctx).
		Where("start < ?", before).
		Delete(&BarRecord{}).Error
}

// ToBarRecord converts a canonical bar into an archive record.
func ToBarRecord(symbol string, res ohlcv.Resolution, bar ohlcv.Bar) *BarRecord {
	return &BarRecord{
		Symbol:     symbol,
		Resolution: string(res),
		Start:      time.UnixMilli(bar.Timestamp),
		Open:       bar.Open,
		Close:      bar.Close,
		High:       bar.High,
		Low:        bar.Low,
		Volume:     bar.Volume,
	}
}
