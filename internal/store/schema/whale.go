package schema

// Whale represents the whale table - a wallet holding a large position in a
// collection. The (wallet_id, contract_id) pair is unique; the save logic has
// always assumed at-most-one-row semantics, the constraint now enforces it.
type Whale struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// WalletID is the whale's wallet address
	WalletID string `gorm:"column:wallet_id;not null;type:text;uniqueIndex:idx_whale_wallet_contract,priority:1"`
	// ContractID references the collection the wallet holds
	ContractID string `gorm:"column:contract_id;not null;type:text;uniqueIndex:idx_whale_wallet_contract,priority:2"`
}

// TableName specifies the table name for the Whale model
func (Whale) TableName() string {
	return "whale"
}
