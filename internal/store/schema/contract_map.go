package schema

// ContractMap represents the contract_map table - a remapping from a
// deprecated contract_id to its successor. Collections occasionally migrate
// contracts; historical trade reads follow this mapping.
type ContractMap struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// ContractID is the deprecated collection identifier
	ContractID string `gorm:"column:contract_id;not null;type:text;uniqueIndex:idx_contract_map_pair,priority:1"`
	// NewContractID is the identifier the collection migrated to
	NewContractID string `gorm:"column:new_contract_id;not null;type:text;uniqueIndex:idx_contract_map_pair,priority:2"`
}

// TableName specifies the table name for the ContractMap model
func (ContractMap) TableName() string {
	return "contract_map"
}
