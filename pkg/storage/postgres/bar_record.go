package postgres

import "time"

// BarRecord represents a finalized candlestick archived in the database. Only
// bars whose bucket has closed are written; the in-progress tail bar stays in
// the series stores until a newer bucket opens.
type BarRecord struct {
	ID uint `gorm:"primaryKey"`

	// unique index
	Symbol     string    `gorm:"type:text;not null;index:idx_bar_symbol;index:idx_symbol_resolution_start,unique"`
	Resolution string    `gorm:"type:varchar(10);not null;index:idx_symbol_resolution_start,unique"`
	Start      time.Time `gorm:"not null;index:idx_symbol_resolution_start,unique"`

	Open  float64 `gorm:"type:numeric;not null"`
	Close float64 `gorm:"type:numeric;not null"`
	High  float64 `gorm:"type:numeric;not null"`
	Low   float64 `gorm:"type:numeric;not null"`

	Volume float64 `gorm:"type:numeric;not null"`

	RecordedAt time.Time `gorm:"autoCreateTime"`
}

// TableName overrides the default table name for GORM.
func (BarRecord) TableName() string {
	return "bar_record"
}
