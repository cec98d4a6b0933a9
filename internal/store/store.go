package store

import (
	"context"
	"time"

	"github.com/nftpulse/market-indexer/internal/store/schema"
)

// BatchResult summarizes a batch save. Failed rows are logged and skipped,
// never propagated: a single malformed row must not abort a sweep.
type BatchResult struct {
	// Saved is the number of rows inserted or updated
	Saved int
	// Skipped is the number of rows left untouched because the natural key
	// already existed (append-only facts)
	Skipped int
	// Failed is the number of rows rejected by validation or the database
	Failed int
}

// Add accumulates another batch result
func (r *BatchResult) Add(other BatchResult) {
	r.Saved += other.Saved
	r.Skipped += other.Skipped
	r.Failed += other.Failed
}

// RarityRank is one row of the rarity ranking report: the rarest token of a
// collection alongside collection-level aggregates.
type RarityRank struct {
	ContractID          string  `json:"contract_id"`
	CollectionName      string  `json:"collection_name"`
	TokenID             string  `json:"token_id"`
	TokenName           string  `json:"token_name"`
	RarityScore         float64 `json:"rarity_score"`
	Ranking             int64   `json:"ranking"`
	AvgCollectionRarity float64 `json:"avg_collection_rarity"`
	MaxPrice            float64 `json:"max_price"`
}

// Store defines the interface for database operations
type Store interface {
	// SeedNetworks upserts the network reference rows
	SeedNetworks(ctx context.Context, networks []schema.Network) error
	// SeedAPISources upserts the upstream source registry rows
	SeedAPISources(ctx context.Context, sources []schema.APISource) error

	// SaveCollections upserts collection rows, refreshing existing rows in place
	SaveCollections(ctx context.Context, collections []schema.Collection) (BatchResult, error)
	// SaveTrades inserts trade aggregates, leaving existing rows untouched
	SaveTrades(ctx context.Context, trades []schema.Trade) (BatchResult, error)
	// SaveTokens inserts token rows, leaving existing rows untouched
	SaveTokens(ctx context.Context, tokens []schema.Token) (BatchResult, error)
	// SaveTokenAttributes inserts trait rows, leaving existing rows untouched
	SaveTokenAttributes(ctx context.Context, attributes []schema.TokenAttribute) (BatchResult, error)
	// SaveContractMaps inserts contract remappings, leaving existing pairs untouched
	SaveContractMaps(ctx context.Context, maps []schema.ContractMap) (BatchResult, error)
	// SaveWhales inserts whale associations, leaving existing pairs untouched
	SaveWhales(ctx context.Context, whales []schema.Whale) (BatchResult, error)
	// SaveSocialMedia upserts the social handle row for a collection
	SaveSocialMedia(ctx context.Context, media schema.SocialMedia) error

	// GetSocialMedia retrieves the social handle row for a collection, nil
	// when absent
	GetSocialMedia(ctx context.Context, contractID string) (*schema.SocialMedia, error)

	// UpdateTokenRarity refreshes the rarity fields of an existing token
	UpdateTokenRarity(ctx context.Context, tokenID, contractID string, score float64, ranking int64) error

	// GetCollection retrieves a collection by contract ID, nil when absent
	GetCollection(ctx context.Context, contractID string) (*schema.Collection, error)
	// CollectionExists checks a collection's presence by contract ID
	CollectionExists(ctx context.Context, contractID string) (bool, error)
	// GetTrade retrieves a trade aggregate by natural key, nil when absent
	GetTrade(ctx context.Context, contractID string, timestamp time.Time) (*schema.Trade, error)
	// TradeExists checks a trade aggregate's presence by natural key
	TradeExists(ctx context.Context, contractID string, timestamp time.Time) (bool, error)
	// DeleteTrade removes a trade aggregate by natural key (administrative)
	DeleteTrade(ctx context.Context, contractID string, timestamp time.Time) error
	// DeleteCollection removes a collection by contract ID (administrative)
	DeleteCollection(ctx context.Context, contractID string) error

	// ListCollections retrieves collections ordered by name
	ListCollections(ctx context.Context, limit, offset int) ([]schema.Collection, error)
	// GetTradesByContract retrieves the full trade series for a contract,
	// folding in rows recorded under deprecated contract IDs
	GetTradesByContract(ctx context.Context, contractID string) ([]schema.Trade, error)
	// GetTradePanel retrieves trade series for several contracts at once
	GetTradePanel(ctx context.Context, contractIDs []string) (map[string][]schema.Trade, error)
	// GetTokensByContract retrieves all tokens of a collection
	GetTokensByContract(ctx context.Context, contractID string) ([]schema.Token, error)
	// GetTokenAttributes retrieves the trait rows of a token
	GetTokenAttributes(ctx context.Context, tokenID string) ([]schema.TokenAttribute, error)
	// GetRarityRanking reports each collection's rarest token with
	// collection-level rarity and price aggregates
	GetRarityRanking(ctx context.Context, limit int) ([]RarityRank, error)
}
