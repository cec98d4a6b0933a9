package schema

// APISource represents the api table - the registry of upstream data sources.
// Static reference data seeded by the migrate binary.
type APISource struct {
	// APIID is the source identifier (e.g. "rarify")
	APIID string `gorm:"column:api_id;primaryKey;type:text"`
	// Name is the source display name
	Name string `gorm:"column:name;type:text"`
	// EndpointURL is the source's API base URL
	EndpointURL string `gorm:"column:endpoint_url;type:text"`
}

// TableName specifies the table name for the APISource model
func (APISource) TableName() string {
	return "api"
}
