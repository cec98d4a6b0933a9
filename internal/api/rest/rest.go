package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/nftpulse/market-indexer/internal/api/middleware"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, authCfg middleware.AuthConfig) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Collection endpoints (public read access)
		v1.GET("/collections", handler.ListCollections)
		v1.GET("/collections/:contract_id", handler.GetCollection)
		v1.GET("/collections/:contract_id/trades", handler.GetCollectionTrades)
		v1.GET("/collections/:contract_id/stats", handler.GetCollectionStats)

		// Cross-collection statistics (public read access)
		v1.GET("/stats/betas", handler.GetBetas)
		v1.GET("/stats/correlation", handler.GetCorrelation)

		// Rarity ranking report (public read access)
		v1.GET("/rankings/rarity", handler.GetRarityRanking)

		// Administrative endpoints (requires API key authentication)
		v1.PUT("/collections/:contract_id/social", middleware.APIKeyAuth(authCfg), handler.UpsertCollectionSocial)
		v1.DELETE("/collections/:contract_id", middleware.APIKeyAuth(authCfg), handler.DeleteCollection)
	}
}
