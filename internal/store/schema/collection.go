package schema

import (
	"time"

	"gorm.io/datatypes"
)

// Collection represents the collection table - one NFT collection (smart
// contract grouping). Mutable reference entity: every ingestion sweep
// refreshes its fields in place.
type Collection struct {
	// ContractID is the globally unique collection identifier, qualified with
	// its network (e.g. "ethereum:0xbc4c...")
	ContractID string `gorm:"column:contract_id;primaryKey;type:text"`
	// Address is the on-chain contract address
	Address string `gorm:"column:address;type:text"`
	// Name is the collection display name
	Name string `gorm:"column:name;type:text"`
	// Description is the collection description as reported upstream
	Description string `gorm:"column:description;type:text"`
	// ExternalURL links to the collection's own site
	ExternalURL string `gorm:"column:external_url;type:text"`
	// NetworkID references the owning blockchain network
	NetworkID string `gorm:"column:network_id;type:text;index"`
	// PrimaryInterface is the token standard the contract implements
	PrimaryInterface string `gorm:"column:primary_interface;type:text"`
	// RoyaltiesFeeBasicPoints is the royalty rate in basis points
	RoyaltiesFeeBasicPoints int64 `gorm:"column:royalties_fee_basic_points"`
	// RoyaltiesReceiver is the address receiving royalties
	RoyaltiesReceiver string `gorm:"column:royalties_receiver;type:text"`
	// NumTokens is the number of tokens in the collection
	NumTokens int64 `gorm:"column:num_tokens"`
	// UniqueOwners is the number of distinct holder wallets
	UniqueOwners int64 `gorm:"column:unique_owners"`
	// SmartFloorPrice is the upstream-derived fair floor price in display units
	SmartFloorPrice float64 `gorm:"column:smart_floor_price"`
	// Raw holds the upstream attribute payload for debugging and backfills
	Raw datatypes.JSON `gorm:"column:raw;type:jsonb"`
	// CreatedAt is the timestamp when this record was first ingested
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when this record was last refreshed
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`

	// Associations
	Tokens []Token `gorm:"foreignKey:ContractID;references:ContractID"`
	Trades []Trade `gorm:"foreignKey:ContractID;references:ContractID"`
}

// TableName specifies the table name for the Collection model
func (Collection) TableName() string {
	return "collection"
}
