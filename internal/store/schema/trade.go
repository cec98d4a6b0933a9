package schema

import (
	"time"

	"github.com/nftpulse/market-indexer/internal/domain"
)

// Trade represents the trade table - one time-bucketed aggregate of trading
// activity for a collection or token. Append-only fact: at most one row exists
// per (contract_id, timestamp) and rows are never updated after insert.
type Trade struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// ContractID references the collection (or token's collection) this
	// aggregate belongs to
	ContractID string `gorm:"column:contract_id;not null;type:text;uniqueIndex:idx_trade_contract_timestamp,priority:1"`
	// Timestamp is the start of the aggregation bucket
	Timestamp time.Time `gorm:"column:timestamp;not null;type:timestamptz;uniqueIndex:idx_trade_contract_timestamp,priority:2"`
	// AvgPrice is the average sale price in display units, rounded to 2 decimals
	AvgPrice float64 `gorm:"column:avg_price"`
	// MaxPrice is the highest sale price in the bucket
	MaxPrice float64 `gorm:"column:max_price"`
	// MinPrice is the lowest sale price in the bucket
	MinPrice float64 `gorm:"column:min_price"`
	// NumTrades is the number of sales in the bucket
	NumTrades int64 `gorm:"column:num_trades"`
	// UniqueBuyers is the number of distinct buyer wallets in the bucket
	UniqueBuyers int64 `gorm:"column:unique_buyers"`
	// Volume is the total traded value in display units
	Volume float64 `gorm:"column:volume"`
	// Period is the aggregation window label this point was fetched under
	Period domain.Period `gorm:"column:period;type:text"`
	// Type discriminates collection-level from token-level aggregates
	Type domain.EntityType `gorm:"column:type;type:text"`
	// APIID references the upstream source this row came from
	APIID string `gorm:"column:api_id;type:text"`
}

// TableName specifies the table name for the Trade model
func (Trade) TableName() string {
	return "trade"
}
