package schema

// Network represents the network table - immutable reference data naming the
// blockchains collections live on. Seeded once by the migrate binary.
type Network struct {
	// NetworkID is the canonical network identifier (e.g. "ethereum")
	NetworkID string `gorm:"column:network_id;primaryKey;type:text"`
	// ShortName is the display name for dashboards
	ShortName string `gorm:"column:short_name;type:text"`
}

// TableName specifies the table name for the Network model
func (Network) TableName() string {
	return "network"
}
