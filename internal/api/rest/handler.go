package rest

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nftpulse/market-indexer/internal/analytics"
	"github.com/nftpulse/market-indexer/internal/store"
	"github.com/nftpulse/market-indexer/internal/store/schema"
)

const (
	DEFAULT_LIST_LIMIT  = 50
	MAX_LIST_LIMIT      = 200
	MAX_PANEL_CONTRACTS = 25
)

// Handler defines the interface for REST API handlers
// This interface allows for easy mocking and testing
type Handler interface {
	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)

	// ListCollections retrieves collections ordered by name
	// GET /api/v1/collections?limit=<limit>&offset=<offset>
	ListCollections(c *gin.Context)

	// GetCollection retrieves a single collection by its contract ID
	// GET /api/v1/collections/:contract_id
	GetCollection(c *gin.Context)

	// GetCollectionTrades retrieves a collection's trade history in timestamp
	// order, including rows recorded under deprecated contract IDs
	// GET /api/v1/collections/:contract_id/trades
	GetCollectionTrades(c *gin.Context)

	// GetCollectionStats computes descriptive statistics over one field of a
	// collection's trade history
	// GET /api/v1/collections/:contract_id/stats?field=<field>
	GetCollectionStats(c *gin.Context)

	// GetBetas computes each requested collection's beta against the basket
	// of all requested collections
	// GET /api/v1/stats/betas?contracts=<id1>,<id2>&field=<field>&weighting=<equal|volume>
	GetBetas(c *gin.Context)

	// GetCorrelation computes the pairwise correlation matrix of the requested
	// collections' percent-change series
	// GET /api/v1/stats/correlation?contracts=<id1>,<id2>&field=<field>
	GetCorrelation(c *gin.Context)

	// GetRarityRanking reports each collection's rarest token
	// GET /api/v1/rankings/rarity?limit=<limit>
	GetRarityRanking(c *gin.Context)

	// UpsertCollectionSocial sets the social handle tracked for a collection
	// (requires API key authentication)
	// PUT /api/v1/collections/:contract_id/social
	UpsertCollectionSocial(c *gin.Context)

	// DeleteCollection removes a collection (requires API key authentication)
	// DELETE /api/v1/collections/:contract_id
	DeleteCollection(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	store store.Store
}

// NewHandler creates a new REST API handler
func NewHandler(st store.Store) Handler {
	return &handler{store: st}
}

// jsonNumber guards a statistic for JSON encoding: NaN and ±Inf have no JSON
// representation and surface as null.
func jsonNumber(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func parseLimitOffset(c *gin.Context) (int, int, bool) {
	limit := DEFAULT_LIST_LIMIT
	offset := 0

	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > MAX_LIST_LIMIT {
			respondValidationError(c, "limit must be an integer between 1 and "+strconv.Itoa(MAX_LIST_LIMIT))
			return 0, 0, false
		}
		limit = parsed
	}
	if raw := c.Query("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondValidationError(c, "offset must be a non-negative integer")
			return 0, 0, false
		}
		offset = parsed
	}

	return limit, offset, true
}

func parseField(c *gin.Context) (analytics.Field, bool) {
	name := c.DefaultQuery("field", analytics.FieldAvgPrice.String())
	field, err := analytics.ParseField(name)
	if err != nil {
		respondValidationError(c, err.Error())
		return 0, false
	}
	return field, true
}

func parseContracts(c *gin.Context) ([]string, bool) {
	raw := c.Query("contracts")
	if raw == "" {
		respondBadRequest(c, "contracts query parameter is required")
		return nil, false
	}

	var contractIDs []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			contractIDs = append(contractIDs, id)
		}
	}
	if len(contractIDs) < 2 {
		respondValidationError(c, "at least two contract IDs are required")
		return nil, false
	}
	if len(contractIDs) > MAX_PANEL_CONTRACTS {
		respondValidationError(c, "at most "+strconv.Itoa(MAX_PANEL_CONTRACTS)+" contract IDs are allowed")
		return nil, false
	}

	return contractIDs, true
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListCollections retrieves collections ordered by name
func (h *handler) ListCollections(c *gin.Context) {
	limit, offset, ok := parseLimitOffset(c)
	if !ok {
		return
	}

	collections, err := h.store.ListCollections(c.Request.Context(), limit, offset)
	if err != nil {
		respondInternalError(c, err, "Failed to list collections")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"collections": collections,
		"limit":       limit,
		"offset":      offset,
	})
}

// GetCollection retrieves a single collection by its contract ID
func (h *handler) GetCollection(c *gin.Context) {
	contractID := c.Param("contract_id")

	collection, err := h.store.GetCollection(c.Request.Context(), contractID)
	if err != nil {
		respondInternalError(c, err, "Failed to get collection",
			zap.String("contract_id", contractID))
		return
	}
	if collection == nil {
		respondNotFound(c, "Collection not found")
		return
	}

	social, err := h.store.GetSocialMedia(c.Request.Context(), contractID)
	if err != nil {
		respondInternalError(c, err, "Failed to get social media",
			zap.String("contract_id", contractID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"collection":   collection,
		"social_media": social,
	})
}

// GetCollectionTrades retrieves a collection's trade history
func (h *handler) GetCollectionTrades(c *gin.Context) {
	contractID := c.Param("contract_id")

	trades, err := h.store.GetTradesByContract(c.Request.Context(), contractID)
	if err != nil {
		respondInternalError(c, err, "Failed to get trades",
			zap.String("contract_id", contractID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"contract_id": contractID,
		"trades":      trades,
	})
}

// GetCollectionStats computes descriptive statistics over one field of a
// collection's trade history
func (h *handler) GetCollectionStats(c *gin.Context) {
	contractID := c.Param("contract_id")
	field, ok := parseField(c)
	if !ok {
		return
	}

	trades, err := h.store.GetTradesByContract(c.Request.Context(), contractID)
	if err != nil {
		respondInternalError(c, err, "Failed to get trades",
			zap.String("contract_id", contractID))
		return
	}
	if len(trades) == 0 {
		respondNotFound(c, "No trade history for collection")
		return
	}

	values := analytics.SeriesFromTrades(contractID, field, trades).Values()
	changes := analytics.PercentChange(values)

	c.JSON(http.StatusOK, gin.H{
		"contract_id":        contractID,
		"field":              field.String(),
		"count":              len(values),
		"mean":               jsonNumber(analytics.Mean(values)),
		"std_dev":            jsonNumber(analytics.StdDev(values)),
		"pct_change_mean":    jsonNumber(analytics.Mean(changes)),
		"pct_change_std_dev": jsonNumber(analytics.StdDev(changes)),
	})
}

// panels loads the trade panel for the requested contracts over field, plus
// the volume panel used for volume weighting
func (h *handler) panels(c *gin.Context, contractIDs []string, field analytics.Field) (analytics.Panel, analytics.Panel, bool) {
	tradesByContract, err := h.store.GetTradePanel(c.Request.Context(), contractIDs)
	if err != nil {
		respondInternalError(c, err, "Failed to get trade panel")
		return analytics.Panel{}, analytics.Panel{}, false
	}

	for _, contractID := range contractIDs {
		if len(tradesByContract[contractID]) == 0 {
			respondNotFound(c, "No trade history for collection", contractID)
			return analytics.Panel{}, analytics.Panel{}, false
		}
	}

	panel := analytics.PanelFromTrades(field, tradesByContract)
	volumes := analytics.PanelFromTrades(analytics.FieldVolume, tradesByContract)
	return panel, volumes, true
}

// GetBetas computes each requested collection's beta against the basket of
// all requested collections
func (h *handler) GetBetas(c *gin.Context) {
	contractIDs, ok := parseContracts(c)
	if !ok {
		return
	}
	field, ok := parseField(c)
	if !ok {
		return
	}

	weighting := analytics.WeightEqual
	switch c.DefaultQuery("weighting", "equal") {
	case "equal":
	case "volume":
		weighting = analytics.WeightVolume
	default:
		respondValidationError(c, "weighting must be equal or volume")
		return
	}

	panel, volumes, ok := h.panels(c, contractIDs, field)
	if !ok {
		return
	}

	betas := analytics.Betas(panel, weighting, &volumes)
	encoded := make(map[string]*float64, len(betas))
	for id, beta := range betas {
		encoded[id] = jsonNumber(beta)
	}

	c.JSON(http.StatusOK, gin.H{
		"field":     field.String(),
		"weighting": c.DefaultQuery("weighting", "equal"),
		"betas":     encoded,
	})
}

// GetCorrelation computes the pairwise correlation matrix of the requested
// collections' percent-change series
func (h *handler) GetCorrelation(c *gin.Context) {
	contractIDs, ok := parseContracts(c)
	if !ok {
		return
	}
	field, ok := parseField(c)
	if !ok {
		return
	}

	panel, _, ok := h.panels(c, contractIDs, field)
	if !ok {
		return
	}

	ids, matrix := analytics.CorrelationMatrix(panel)
	encoded := make([][]*float64, len(matrix))
	for i, row := range matrix {
		encoded[i] = make([]*float64, len(row))
		for j, v := range row {
			encoded[i][j] = jsonNumber(v)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"field":       field.String(),
		"contracts":   ids,
		"correlation": encoded,
	})
}

// GetRarityRanking reports each collection's rarest token
func (h *handler) GetRarityRanking(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > MAX_LIST_LIMIT {
			respondValidationError(c, "limit must be an integer between 1 and "+strconv.Itoa(MAX_LIST_LIMIT))
			return
		}
		limit = parsed
	}

	ranks, err := h.store.GetRarityRanking(c.Request.Context(), limit)
	if err != nil {
		respondInternalError(c, err, "Failed to get rarity ranking")
		return
	}

	c.JSON(http.StatusOK, gin.H{"rankings": ranks})
}

// socialMediaRequest is the payload of the social handle upsert endpoint
type socialMediaRequest struct {
	Name       string `json:"name" binding:"required"`
	Handle     string `json:"handle" binding:"required"`
	HandleURL  string `json:"handle_url"`
	LatestPost string `json:"latest_post"`
	HashTag    string `json:"hash_tag"`
}

// UpsertCollectionSocial sets the social handle tracked for a collection
func (h *handler) UpsertCollectionSocial(c *gin.Context) {
	contractID := c.Param("contract_id")

	var req socialMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	exists, err := h.store.CollectionExists(c.Request.Context(), contractID)
	if err != nil {
		respondInternalError(c, err, "Failed to get collection",
			zap.String("contract_id", contractID))
		return
	}
	if !exists {
		respondNotFound(c, "Collection not found")
		return
	}

	media := schema.SocialMedia{
		ContractID: contractID,
		Name:       req.Name,
		Handle:     req.Handle,
		HandleURL:  req.HandleURL,
		LatestPost: req.LatestPost,
		HashTag:    req.HashTag,
	}
	if err := h.store.SaveSocialMedia(c.Request.Context(), media); err != nil {
		respondInternalError(c, err, "Failed to save social media",
			zap.String("contract_id", contractID))
		return
	}

	c.JSON(http.StatusOK, media)
}

// DeleteCollection removes a collection
func (h *handler) DeleteCollection(c *gin.Context) {
	contractID := c.Param("contract_id")

	collection, err := h.store.GetCollection(c.Request.Context(), contractID)
	if err != nil {
		respondInternalError(c, err, "Failed to get collection",
			zap.String("contract_id", contractID))
		return
	}
	if collection == nil {
		respondNotFound(c, "Collection not found")
		return
	}

	if err := h.store.DeleteCollection(c.Request.Context(), contractID); err != nil {
		respondInternalError(c, err, "Failed to delete collection",
			zap.String("contract_id", contractID))
		return
	}

	c.Status(http.StatusNoContent)
}
