package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nftpulse/market-indexer/internal/logger"
	"github.com/nftpulse/market-indexer/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// AutoMigrate creates or updates the database schema for all tracked tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&schema.Network{},
		&schema.APISource{},
		&schema.Collection{},
		&schema.ContractMap{},
		&schema.Trade{},
		&schema.Token{},
		&schema.TokenAttribute{},
		&schema.Whale{},
		&schema.SocialMedia{},
	)
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. It accesses the underlying *sql.DB and sets the pool
// configuration. If any of the pool settings are 0 or empty, reasonable
// defaults are used:
//   - MaxOpenConns: 20 (if 0)
//   - MaxIdleConns: 5 (if 0)
//   - ConnMaxLifetime: 5 minutes (if 0)
//   - ConnMaxIdleTime: 10 minutes (if 0)
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings into safe values.
//
// Defaults (when zero):
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
//
// Notes:
//   - database/sql treats MaxOpenConns=0 as "unlimited"
//   - database/sql treats MaxIdleConns=0 as "no idle connections"
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	// Set defaults if not provided
	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	// Ensure MaxIdleConns doesn't exceed MaxOpenConns
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// finite reports whether v is a usable numeric value (not NaN or ±Inf).
// Postgres would accept NaN into a double precision column, which then poisons
// every aggregate over the series, so malformed numbers are rejected up front.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func validateCollection(c *schema.Collection) error {
	if c.ContractID == "" {
		return errors.New("collection missing contract_id")
	}
	if !finite(c.SmartFloorPrice) {
		return fmt.Errorf("collection %s has non-finite smart_floor_price", c.ContractID)
	}
	return nil
}

func validateTrade(t *schema.Trade) error {
	if t.ContractID == "" {
		return errors.New("trade missing contract_id")
	}
	if t.Timestamp.IsZero() {
		return fmt.Errorf("trade for %s missing timestamp", t.ContractID)
	}
	if !finite(t.AvgPrice) || !finite(t.MaxPrice) || !finite(t.MinPrice) || !finite(t.Volume) {
		return fmt.Errorf("trade for %s at %s has non-finite price fields", t.ContractID, t.Timestamp.Format(time.RFC3339))
	}
	return nil
}

func validateToken(t *schema.Token) error {
	if t.TokenID == "" {
		return errors.New("token missing token_id")
	}
	if t.ContractID == "" {
		return fmt.Errorf("token %s missing contract_id", t.TokenID)
	}
	if !finite(t.RarityScore) {
		return fmt.Errorf("token %s has non-finite rarity_score", t.TokenID)
	}
	return nil
}

func validateTokenAttribute(a *schema.TokenAttribute) error {
	if a.TokenID == "" {
		return errors.New("token attribute missing token_id")
	}
	if a.TraitType == "" {
		return fmt.Errorf("token attribute for %s missing trait_type", a.TokenID)
	}
	if !finite(a.RarityPercentage) {
		return fmt.Errorf("token attribute %s/%s has non-finite rarity_percentage", a.TokenID, a.TraitType)
	}
	return nil
}

// SeedNetworks upserts the network reference rows
func (s *pgStore) SeedNetworks(ctx context.Context, networks []schema.Network) error {
	if len(networks) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "network_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"short_name"}),
	}).Create(&networks).Error
}

// SeedAPISources upserts the upstream source registry rows
func (s *pgStore) SeedAPISources(ctx context.Context, sources []schema.APISource) error {
	if len(sources) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "api_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "endpoint_url"}),
	}).Create(&sources).Error
}

// SaveCollections upserts collection rows one at a time, refreshing existing
// rows in place. A row that fails validation or the database is logged and
// counted, never aborts the batch.
func (s *pgStore) SaveCollections(ctx context.Context, collections []schema.Collection) (BatchResult, error) {
	var result BatchResult
	for i := range collections {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		c := &collections[i]
		if err := validateCollection(c); err != nil {
			logger.Warn("skipping invalid collection row", zap.Error(err))
			result.Failed++
			continue
		}

		err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "contract_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"address", "name", "description", "external_url", "network_id",
				"primary_interface", "royalties_fee_basic_points", "royalties_receiver",
				"num_tokens", "unique_owners", "smart_floor_price", "raw", "updated_at",
			}),
		}).Create(c).Error
		if err != nil {
			logger.Warn("failed to save collection",
				zap.String("contract_id", c.ContractID),
				zap.Error(err))
			result.Failed++
			continue
		}
		result.Saved++
	}
	return result, nil
}

// SaveTrades inserts trade aggregates one at a time. Existing
// (contract_id, timestamp) rows are left untouched: trade aggregates are
// append-only facts.
func (s *pgStore) SaveTrades(ctx context.Context, trades []schema.Trade) (BatchResult, error) {
	var result BatchResult
	for i := range trades {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		t := &trades[i]
		if err := validateTrade(t); err != nil {
			logger.Warn("skipping invalid trade row", zap.Error(err))
			result.Failed++
			continue
		}

		tx := s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "contract_id"}, {Name: "timestamp"}},
			DoNothing: true,
		}).Create(t)
		if tx.Error != nil {
			logger.Warn("failed to save trade",
				zap.String("contract_id", t.ContractID),
				zap.Time("timestamp", t.Timestamp),
				zap.Error(tx.Error))
			result.Failed++
			continue
		}
		if tx.RowsAffected == 0 {
			result.Skipped++
			continue
		}
		result.Saved++
	}
	return result, nil
}

// SaveTokens inserts token rows one at a time. Existing
// (token_id, contract_id) rows are left untouched; rarity refreshes go
// through UpdateTokenRarity.
func (s *pgStore) SaveTokens(ctx context.Context, tokens []schema.Token) (BatchResult, error) {
	var result BatchResult
	for i := range tokens {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		t := &tokens[i]
		if err := validateToken(t); err != nil {
			logger.Warn("skipping invalid token row", zap.Error(err))
			result.Failed++
			continue
		}

		// Associations are saved separately via SaveTokenAttributes
		tx := s.db.WithContext(ctx).Omit("Attributes").Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token_id"}, {Name: "contract_id"}},
			DoNothing: true,
		}).Create(t)
		if tx.Error != nil {
			logger.Warn("failed to save token",
				zap.String("token_id", t.TokenID),
				zap.String("contract_id", t.ContractID),
				zap.Error(tx.Error))
			result.Failed++
			continue
		}
		if tx.RowsAffected == 0 {
			result.Skipped++
			continue
		}
		result.Saved++
	}
	return result, nil
}

// SaveTokenAttributes inserts trait rows one at a time. Existing
// (token_id, trait_type) rows are left untouched: trait values do not change
// after mint.
func (s *pgStore) SaveTokenAttributes(ctx context.Context, attributes []schema.TokenAttribute) (BatchResult, error) {
	var result BatchResult
	for i := range attributes {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		a := &attributes[i]
		if err := validateTokenAttribute(a); err != nil {
			logger.Warn("skipping invalid token attribute row", zap.Error(err))
			result.Failed++
			continue
		}

		tx := s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token_id"}, {Name: "trait_type"}},
			DoNothing: true,
		}).Create(a)
		if tx.Error != nil {
			logger.Warn("failed to save token attribute",
				zap.String("token_id", a.TokenID),
				zap.String("trait_type", a.TraitType),
				zap.Error(tx.Error))
			result.Failed++
			continue
		}
		if tx.RowsAffected == 0 {
			result.Skipped++
			continue
		}
		result.Saved++
	}
	return result, nil
}

// SaveContractMaps inserts contract remappings, leaving existing pairs untouched
func (s *pgStore) SaveContractMaps(ctx context.Context, maps []schema.ContractMap) (BatchResult, error) {
	var result BatchResult
	for i := range maps {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		m := &maps[i]
		if m.ContractID == "" || m.NewContractID == "" {
			logger.Warn("skipping invalid contract map row",
				zap.String("contract_id", m.ContractID),
				zap.String("new_contract_id", m.NewContractID))
			result.Failed++
			continue
		}

		tx := s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "contract_id"}, {Name: "new_contract_id"}},
			DoNothing: true,
		}).Create(m)
		if tx.Error != nil {
			logger.Warn("failed to save contract map",
				zap.String("contract_id", m.ContractID),
				zap.Error(tx.Error))
			result.Failed++
			continue
		}
		if tx.RowsAffected == 0 {
			result.Skipped++
			continue
		}
		result.Saved++
	}
	return result, nil
}

// SaveWhales inserts whale associations, leaving existing
// (wallet_id, contract_id) pairs untouched
func (s *pgStore) SaveWhales(ctx context.Context, whales []schema.Whale) (BatchResult, error) {
	var result BatchResult
	for i := range whales {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		w := &whales[i]
		if w.WalletID == "" || w.ContractID == "" {
			logger.Warn("skipping invalid whale row",
				zap.String("wallet_id", w.WalletID),
				zap.String("contract_id", w.ContractID))
			result.Failed++
			continue
		}

		tx := s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "wallet_id"}, {Name: "contract_id"}},
			DoNothing: true,
		}).Create(w)
		if tx.Error != nil {
			logger.Warn("failed to save whale",
				zap.String("wallet_id", w.WalletID),
				zap.String("contract_id", w.ContractID),
				zap.Error(tx.Error))
			result.Failed++
			continue
		}
		if tx.RowsAffected == 0 {
			result.Skipped++
			continue
		}
		result.Saved++
	}
	return result, nil
}

// SaveSocialMedia upserts the social handle row for a collection
func (s *pgStore) SaveSocialMedia(ctx context.Context, media schema.SocialMedia) error {
	if media.ContractID == "" {
		return errors.New("social media row missing contract_id")
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "contract_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "handle", "handle_url", "latest_post", "hash_tag",
		}),
	}).Create(&media).Error
}

// GetSocialMedia retrieves the social handle row for a collection, nil when
// absent
func (s *pgStore) GetSocialMedia(ctx context.Context, contractID string) (*schema.SocialMedia, error) {
	var media schema.SocialMedia
	err := s.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		First(&media).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &media, nil
}

// UpdateTokenRarity refreshes the rarity fields of an existing token
func (s *pgStore) UpdateTokenRarity(ctx context.Context, tokenID, contractID string, score float64, ranking int64) error {
	if !finite(score) {
		return fmt.Errorf("non-finite rarity score for token %s", tokenID)
	}
	tx := s.db.WithContext(ctx).Model(&schema.Token{}).
		Where("token_id = ? AND contract_id = ?", tokenID, contractID).
		Updates(map[string]interface{}{
			"rarity_score": score,
			"ranking":      ranking,
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetCollection retrieves a collection by contract ID, nil when absent
func (s *pgStore) GetCollection(ctx context.Context, contractID string) (*schema.Collection, error) {
	var collection schema.Collection
	err := s.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		First(&collection).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &collection, nil
}

// CollectionExists checks a collection's presence by contract ID
func (s *pgStore) CollectionExists(ctx context.Context, contractID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&schema.Collection{}).
		Where("contract_id = ?", contractID).
		Count(&count).Error
	return count > 0, err
}

// GetTrade retrieves a trade aggregate by natural key, nil when absent
func (s *pgStore) GetTrade(ctx context.Context, contractID string, timestamp time.Time) (*schema.Trade, error) {
	var trade schema.Trade
	err := s.db.WithContext(ctx).
		Where("contract_id = ? AND timestamp = ?", contractID, timestamp).
		First(&trade).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &trade, nil
}

// TradeExists checks a trade aggregate's presence by natural key
func (s *pgStore) TradeExists(ctx context.Context, contractID string, timestamp time.Time) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&schema.Trade{}).
		Where("contract_id = ? AND timestamp = ?", contractID, timestamp).
		Count(&count).Error
	return count > 0, err
}

// DeleteTrade removes a trade aggregate by natural key
func (s *pgStore) DeleteTrade(ctx context.Context, contractID string, timestamp time.Time) error {
	return s.db.WithContext(ctx).
		Where("contract_id = ? AND timestamp = ?", contractID, timestamp).
		Delete(&schema.Trade{}).Error
}

// DeleteCollection removes a collection by contract ID
func (s *pgStore) DeleteCollection(ctx context.Context, contractID string) error {
	return s.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Delete(&schema.Collection{}).Error
}

// ListCollections retrieves collections ordered by name
func (s *pgStore) ListCollections(ctx context.Context, limit, offset int) ([]schema.Collection, error) {
	var collections []schema.Collection
	query := s.db.WithContext(ctx).Order("name ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	err := query.Find(&collections).Error
	return collections, err
}

// aliasesFor resolves the set of contract IDs whose trade rows belong to the
// given contract: the contract itself plus any deprecated IDs that were
// remapped to it.
func (s *pgStore) aliasesFor(ctx context.Context, contractID string) ([]string, error) {
	var deprecated []string
	err := s.db.WithContext(ctx).Model(&schema.ContractMap{}).
		Where("new_contract_id = ?", contractID).
		Pluck("contract_id", &deprecated).Error
	if err != nil {
		return nil, err
	}
	return append([]string{contractID}, deprecated...), nil
}

// GetTradesByContract retrieves the full trade series for a contract ordered
// by timestamp, folding in rows recorded under deprecated contract IDs
func (s *pgStore) GetTradesByContract(ctx context.Context, contractID string) ([]schema.Trade, error) {
	aliases, err := s.aliasesFor(ctx, contractID)
	if err != nil {
		return nil, err
	}

	var trades []schema.Trade
	err = s.db.WithContext(ctx).
		Where("contract_id IN ?", aliases).
		Order("timestamp ASC").
		Find(&trades).Error
	return trades, err
}

// GetTradePanel retrieves trade series for several contracts at once, keyed
// by the requested contract ID. Rows recorded under deprecated IDs surface
// under the current ID they were remapped to.
func (s *pgStore) GetTradePanel(ctx context.Context, contractIDs []string) (map[string][]schema.Trade, error) {
	panel := make(map[string][]schema.Trade, len(contractIDs))
	for _, contractID := range contractIDs {
		trades, err := s.GetTradesByContract(ctx, contractID)
		if err != nil {
			return nil, err
		}
		panel[contractID] = trades
	}
	return panel, nil
}

// GetTokensByContract retrieves all tokens of a collection ordered by rarity rank
func (s *pgStore) GetTokensByContract(ctx context.Context, contractID string) ([]schema.Token, error) {
	var tokens []schema.Token
	err := s.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("ranking ASC").
		Find(&tokens).Error
	return tokens, err
}

// GetTokenAttributes retrieves the trait rows of a token
func (s *pgStore) GetTokenAttributes(ctx context.Context, tokenID string) ([]schema.TokenAttribute, error) {
	var attributes []schema.TokenAttribute
	err := s.db.WithContext(ctx).
		Where("token_id = ?", tokenID).
		Order("trait_type ASC").
		Find(&attributes).Error
	return attributes, err
}

// GetRarityRanking reports the rarest token (ranking = 1) of each collection
// together with the collection's average rarity score and its all-time
// maximum sale price.
func (s *pgStore) GetRarityRanking(ctx context.Context, limit int) ([]RarityRank, error) {
	if limit <= 0 {
		limit = 20
	}

	var ranks []RarityRank
	err := s.db.WithContext(ctx).Raw(`
		SELECT c.contract_id,
		       c.name AS collection_name,
		       t.token_id,
		       t.name AS token_name,
		       t.rarity_score,
		       t.ranking,
		       avg_r.avg_collection_rarity,
		       COALESCE(max_p.max_price, 0) AS max_price
		FROM token t
		JOIN collection c ON c.contract_id = t.contract_id
		JOIN (
			SELECT contract_id, AVG(rarity_score) AS avg_collection_rarity
			FROM token
			GROUP BY contract_id
		) avg_r ON avg_r.contract_id = t.contract_id
		LEFT JOIN (
			SELECT contract_id, MAX(max_price) AS max_price
			FROM trade
			GROUP BY contract_id
		) max_p ON max_p.contract_id = t.contract_id
		WHERE t.ranking = 1
		ORDER BY t.rarity_score DESC
		LIMIT ?`, limit).Scan(&ranks).Error
	return ranks, err
}
