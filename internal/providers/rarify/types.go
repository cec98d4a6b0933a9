package rarify

import "encoding/json"

// The Rarify API speaks JSON:API: every payload wraps resources carrying an
// id, a type, and an attributes object, with related resources in a
// top-level included list. Monetary amounts arrive as base-unit (wei-scale)
// integers that overflow float64 precision, so they stay json.Number until
// the normalizer rescales them.

// ContractAttributes holds the attributes object of a contract resource
type ContractAttributes struct {
	Address                 string `json:"address"`
	Name                    string `json:"name"`
	Description             string `json:"description"`
	ExternalURL             string `json:"external_url"`
	Network                 string `json:"network"`
	PrimaryInterface        string `json:"primary_interface"`
	RoyaltiesFeeBasicPoints int64  `json:"royalties_fee_basic_points"`
	RoyaltiesReceiver       string `json:"royalties_receiver"`
	Tokens                  int64  `json:"tokens"`
	UniqueOwners            int64  `json:"unique_owners"`
	// SmartFloorPrice is the upstream-derived fair floor price in base units.
	// omitempty keeps the attributes marshalable when upstream omits the
	// field: an empty json.Number is not a valid number literal.
	SmartFloorPrice json.Number `json:"smart_floor_price,omitempty"`
}

// ContractResource is one contract (collection) resource
type ContractResource struct {
	ID         string             `json:"id"`
	Type       string             `json:"type"`
	Attributes ContractAttributes `json:"attributes"`
}

// ContractsResponse is the response of the contracts listing endpoint
type ContractsResponse struct {
	Data []ContractResource `json:"data"`
}

// HistoryPoint is one time bucket of a contract's trading history
type HistoryPoint struct {
	Time         string      `json:"time"`
	AvgPrice     json.Number `json:"avg_price"`
	MaxPrice     json.Number `json:"max_price"`
	MinPrice     json.Number `json:"min_price"`
	Trades       json.Number `json:"trades"`
	UniqueBuyers json.Number `json:"unique_buyers"`
	Volume       json.Number `json:"volume"`
}

// InsightAttributes holds the attributes object of an included insight resource
type InsightAttributes struct {
	History []HistoryPoint `json:"history"`
}

// InsightResource is one included resource of the insights endpoint
type InsightResource struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Attributes InsightAttributes `json:"attributes"`
}

// InsightsResponse is the response of the contract insights endpoint. The
// history normally rides in the second included resource but upstream
// occasionally delivers it in the first.
type InsightsResponse struct {
	Included []InsightResource `json:"included"`
}

// TokenAttributes holds the attributes object of a token resource. TokenID is
// the on-chain numeric id, distinct from the resource id.
type TokenAttributes struct {
	TokenID     json.Number `json:"token_id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	RarityScore json.Number `json:"rarity_score"`
	Ranking     json.Number `json:"ranking"`
}

// TokenResource is one token resource
type TokenResource struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Attributes TokenAttributes `json:"attributes"`
}

// TokensResponse is the response of the tokens listing endpoint
type TokensResponse struct {
	Data []TokenResource `json:"data"`
}

// AttributeStat holds the attributes object of an included trait statistics
// resource on the token detail endpoint
type AttributeStat struct {
	TraitType             string      `json:"trait_type"`
	Value                 string      `json:"value"`
	OverallWithTraitValue int64       `json:"overall_with_trait_value"`
	RarityPercentage      json.Number `json:"rarity_percentage"`
}

// AttributeStatResource is one included trait statistics resource
type AttributeStatResource struct {
	ID         string        `json:"id"`
	Type       string        `json:"type"`
	Attributes AttributeStat `json:"attributes"`
}

// TokenDetailResponse is the response of the token detail endpoint with
// attribute statistics included
type TokenDetailResponse struct {
	Data     TokenResource           `json:"data"`
	Included []AttributeStatResource `json:"included"`
}

// WhaleResource is one whale (large holder) resource. The wallet address is
// the resource id.
type WhaleResource struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// WhalesResponse is the response of the contract whales endpoint
type WhalesResponse struct {
	Data []WhaleResource `json:"data"`
}
