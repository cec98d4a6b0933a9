package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nftpulse/market-indexer/internal/logger"
)

// AuthConfig holds authentication configuration
type AuthConfig struct {
	APIKeys []string
}

// Authenticate validates an "APIKey <key>" Authorization header against the
// configured keys
func Authenticate(authHeader string, cfg AuthConfig) error {
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	if authHeader == "" {
		return errors.New("missing Authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return errors.New("invalid Authorization header format")
	}
	if !strings.EqualFold(parts[0], "apikey") {
		return errors.New("unsupported authorization type")
	}

	if len(apiKeyMap) == 0 {
		return errors.New("no API keys configured")
	}
	if !apiKeyMap[parts[1]] {
		return errors.New("invalid API key")
	}

	return nil
}

// APIKeyAuth returns a gin middleware requiring API key authentication
func APIKeyAuth(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := Authenticate(c.GetHeader("Authorization"), cfg); err != nil {
			logger.Warn("Authentication failed",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "unauthorized",
					"message": "Authentication failed",
				},
			})
			return
		}

		c.Next()
	}
}
