package schema

import "time"

// Token represents the token table - one NFT within a collection. Created
// once during ingestion; only the rarity fields are ever refreshed.
type Token struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// TokenID is the platform-assigned token identifier
	TokenID string `gorm:"column:token_id;not null;type:text;uniqueIndex:idx_token_token_contract,priority:1"`
	// IDNum is the on-chain numeric token id within the contract
	IDNum int64 `gorm:"column:id_num"`
	// Name is the token display name
	Name string `gorm:"column:name;type:text"`
	// Description is the token description as reported upstream
	Description string `gorm:"column:description;type:text"`
	// ContractID references the owning collection
	ContractID string `gorm:"column:contract_id;not null;type:text;uniqueIndex:idx_token_token_contract,priority:2;index"`
	// RarityScore is the upstream-computed rarity score
	RarityScore float64 `gorm:"column:rarity_score"`
	// Ranking is the token's rarity rank within its collection (1 = rarest)
	Ranking int64 `gorm:"column:ranking"`
	// CreatedAt is the timestamp when this record was first ingested
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`

	// Associations
	Attributes []TokenAttribute `gorm:"foreignKey:TokenID;references:TokenID"`
}

// TableName specifies the table name for the Token model
func (Token) TableName() string {
	return "token"
}
