package schema

// SocialMedia represents the social_media table - the social handle tracked
// for a collection together with its latest scraped post. One row per
// collection, refreshed in place.
type SocialMedia struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// ContractID references the collection this handle belongs to
	ContractID string `gorm:"column:contract_id;not null;type:text;uniqueIndex"`
	// Name is the platform name (e.g. "twitter")
	Name string `gorm:"column:name;type:text"`
	// Handle is the account handle
	Handle string `gorm:"column:handle;type:text"`
	// HandleURL links to the account
	HandleURL string `gorm:"column:handle_url;type:text"`
	// LatestPost is the text of the most recent post scraped
	LatestPost string `gorm:"column:latest_post;type:text"`
	// HashTag is the hashtag tracked for the collection
	HashTag string `gorm:"column:hash_tag;type:text"`
}

// TableName specifies the table name for the SocialMedia model
func (SocialMedia) TableName() string {
	return "social_media"
}
