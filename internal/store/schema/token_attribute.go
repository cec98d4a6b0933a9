package schema

// TokenAttribute represents the token_attribute table - one trait/value pair
// for a token together with its collection-wide rarity. Write-once: trait
// values do not change after mint.
type TokenAttribute struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// TokenID references the token carrying this trait
	TokenID string `gorm:"column:token_id;not null;type:text;uniqueIndex:idx_token_attribute_token_trait,priority:1"`
	// TraitType is the trait category (e.g. "background")
	TraitType string `gorm:"column:trait_type;not null;type:text;uniqueIndex:idx_token_attribute_token_trait,priority:2"`
	// Value is the trait value (e.g. "blue")
	Value string `gorm:"column:value;type:text"`
	// OverallWithTraitValue is the count of tokens in the collection sharing
	// this trait value
	OverallWithTraitValue int64 `gorm:"column:overall_with_trait_value"`
	// RarityPercentage is the share of the collection carrying this trait value
	RarityPercentage float64 `gorm:"column:rarity_percentage"`
}

// TableName specifies the table name for the TokenAttribute model
func (TokenAttribute) TableName() string {
	return "token_attribute"
}
