// Package normalizer converts upstream API payloads into database rows.
// Malformed records are logged and dropped, never propagated: one bad record
// must not sink the rest of its batch.
package normalizer

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/nftpulse/market-indexer/internal/adapter"
	"github.com/nftpulse/market-indexer/internal/domain"
	"github.com/nftpulse/market-indexer/internal/logger"
	"github.com/nftpulse/market-indexer/internal/providers/rarify"
	"github.com/nftpulse/market-indexer/internal/store/schema"
)

// Normalizer converts Rarify resources into schema rows
type Normalizer struct {
	clock adapter.Clock
	json  adapter.JSON
}

// New creates a new normalizer
func New(clock adapter.Clock, json adapter.JSON) *Normalizer {
	return &Normalizer{clock: clock, json: json}
}

// rescaleBaseUnits converts a base-unit (wei-scale) integer amount into
// display units: shift 18 decimal places and round to 2. decimal arithmetic
// keeps the shift exact; amounts routinely exceed float64's integer range.
func rescaleBaseUnits(n json.Number) (float64, error) {
	if n == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return 0, err
	}
	f, _ := d.Shift(-18).Round(2).Float64()
	return f, nil
}

func toInt64(n json.Number) int64 {
	if n == "" {
		return 0
	}
	v, err := n.Int64()
	if err != nil {
		return 0
	}
	return v
}

func toFloat64(n json.Number) float64 {
	if n == "" {
		return 0
	}
	v, err := n.Float64()
	if err != nil {
		return 0
	}
	return v
}

// Collections converts contract resources into collection rows. Resources
// without an id are dropped. The raw attributes payload is retained for
// debugging and backfills.
func (n *Normalizer) Collections(resources []rarify.ContractResource) []schema.Collection {
	now := n.clock.Now()
	collections := make([]schema.Collection, 0, len(resources))
	for _, resource := range resources {
		if resource.ID == "" {
			logger.Warn("dropping contract resource without id",
				zap.String("name", resource.Attributes.Name))
			continue
		}

		var raw datatypes.JSON
		if encoded, err := n.json.Marshal(resource.Attributes); err == nil {
			raw = datatypes.JSON(encoded)
		}

		floorPrice, err := rescaleBaseUnits(resource.Attributes.SmartFloorPrice)
		if err != nil {
			logger.Warn("ignoring unparseable smart_floor_price",
				zap.String("contract_id", resource.ID),
				zap.String("smart_floor_price", resource.Attributes.SmartFloorPrice.String()),
				zap.Error(err))
			floorPrice = 0
		}

		collections = append(collections, schema.Collection{
			ContractID:              resource.ID,
			Address:                 resource.Attributes.Address,
			Name:                    resource.Attributes.Name,
			Description:             resource.Attributes.Description,
			ExternalURL:             resource.Attributes.ExternalURL,
			NetworkID:               resource.Attributes.Network,
			PrimaryInterface:        resource.Attributes.PrimaryInterface,
			RoyaltiesFeeBasicPoints: resource.Attributes.RoyaltiesFeeBasicPoints,
			RoyaltiesReceiver:       resource.Attributes.RoyaltiesReceiver,
			NumTokens:               resource.Attributes.Tokens,
			UniqueOwners:            resource.Attributes.UniqueOwners,
			SmartFloorPrice:         floorPrice,
			Raw:                     raw,
			CreatedAt:               now,
			UpdatedAt:               now,
		})
	}
	return collections
}

// Trades converts history points into trade rows for a contract. Points with
// an unparseable timestamp or price are dropped.
func (n *Normalizer) Trades(contractID string, period domain.Period, points []rarify.HistoryPoint) []schema.Trade {
	trades := make([]schema.Trade, 0, len(points))
	for _, point := range points {
		timestamp, err := time.Parse(time.RFC3339, point.Time)
		if err != nil {
			logger.Warn("dropping history point with unparseable time",
				zap.String("contract_id", contractID),
				zap.String("time", point.Time),
				zap.Error(err))
			continue
		}

		avgPrice, err := rescaleBaseUnits(point.AvgPrice)
		if err != nil {
			logger.Warn("dropping history point with unparseable avg_price",
				zap.String("contract_id", contractID),
				zap.String("avg_price", point.AvgPrice.String()),
				zap.Error(err))
			continue
		}
		maxPrice, err := rescaleBaseUnits(point.MaxPrice)
		if err != nil {
			logger.Warn("dropping history point with unparseable max_price",
				zap.String("contract_id", contractID),
				zap.String("max_price", point.MaxPrice.String()),
				zap.Error(err))
			continue
		}
		minPrice, err := rescaleBaseUnits(point.MinPrice)
		if err != nil {
			logger.Warn("dropping history point with unparseable min_price",
				zap.String("contract_id", contractID),
				zap.String("min_price", point.MinPrice.String()),
				zap.Error(err))
			continue
		}
		volume, err := rescaleBaseUnits(point.Volume)
		if err != nil {
			logger.Warn("dropping history point with unparseable volume",
				zap.String("contract_id", contractID),
				zap.String("volume", point.Volume.String()),
				zap.Error(err))
			continue
		}

		trades = append(trades, schema.Trade{
			ContractID:   contractID,
			Timestamp:    timestamp,
			AvgPrice:     avgPrice,
			MaxPrice:     maxPrice,
			MinPrice:     minPrice,
			NumTrades:    toInt64(point.Trades),
			UniqueBuyers: toInt64(point.UniqueBuyers),
			Volume:       volume,
			Period:       period,
			Type:         domain.EntityTypeCollection,
			APIID:        domain.SourceRarify,
		})
	}
	return trades
}

// Tokens converts token resources into token rows for a contract. Resources
// without an id are dropped.
func (n *Normalizer) Tokens(contractID string, resources []rarify.TokenResource) []schema.Token {
	now := n.clock.Now()
	tokens := make([]schema.Token, 0, len(resources))
	for _, resource := range resources {
		if resource.ID == "" {
			logger.Warn("dropping token resource without id",
				zap.String("contract_id", contractID))
			continue
		}

		tokens = append(tokens, schema.Token{
			TokenID:     resource.ID,
			IDNum:       toInt64(resource.Attributes.TokenID),
			Name:        resource.Attributes.Name,
			Description: resource.Attributes.Description,
			ContractID:  contractID,
			RarityScore: toFloat64(resource.Attributes.RarityScore),
			Ranking:     toInt64(resource.Attributes.Ranking),
			CreatedAt:   now,
		})
	}
	return tokens
}

// TokenAttributes converts trait statistics into token attribute rows.
// Stats without a trait type are dropped.
func (n *Normalizer) TokenAttributes(tokenID string, stats []rarify.AttributeStat) []schema.TokenAttribute {
	attributes := make([]schema.TokenAttribute, 0, len(stats))
	for _, stat := range stats {
		if stat.TraitType == "" {
			logger.Warn("dropping trait stat without trait_type",
				zap.String("token_id", tokenID))
			continue
		}

		attributes = append(attributes, schema.TokenAttribute{
			TokenID:               tokenID,
			TraitType:             stat.TraitType,
			Value:                 stat.Value,
			OverallWithTraitValue: stat.OverallWithTraitValue,
			RarityPercentage:      toFloat64(stat.RarityPercentage),
		})
	}
	return attributes
}

// Whales converts whale resources into whale rows for a contract
func (n *Normalizer) Whales(contractID string, resources []rarify.WhaleResource) []schema.Whale {
	whales := make([]schema.Whale, 0, len(resources))
	for _, resource := range resources {
		if resource.ID == "" {
			logger.Warn("dropping whale resource without id",
				zap.String("contract_id", contractID))
			continue
		}

		whales = append(whales, schema.Whale{
			WalletID:   resource.ID,
			ContractID: contractID,
		})
	}
	return whales
}
