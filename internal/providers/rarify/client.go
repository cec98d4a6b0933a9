package rarify

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/nftpulse/market-indexer/internal/adapter"
	"github.com/nftpulse/market-indexer/internal/domain"
	"github.com/nftpulse/market-indexer/internal/ratelimit"
)

const PROVIDER_NAME = "rarify"

var (
	ErrNoAPIKey  = errors.New("no API key provided")
	ErrNoHistory = errors.New("insights response carried no history")
)

// Client defines the interface for Rarify client operations to enable mocking
type Client interface {
	// GetTopCollections fetches the top collections of a network ordered by
	// descending trading volume
	GetTopCollections(ctx context.Context, network string, limit int) ([]ContractResource, error)
	// GetTradeHistory fetches the bucketed trading history of a contract over
	// the given period
	GetTradeHistory(ctx context.Context, contractID string, period domain.Period) ([]HistoryPoint, error)
	// GetTokensByContract fetches the tokens minted under a contract
	GetTokensByContract(ctx context.Context, contractID string, limit int) ([]TokenResource, error)
	// GetTokenWithAttributes fetches one token together with its trait statistics
	GetTokenWithAttributes(ctx context.Context, tokenID string) (*TokenResource, []AttributeStat, error)
	// GetWhales fetches the wallets holding a large share of a contract
	GetWhales(ctx context.Context, contractID string) ([]WhaleResource, error)
}

// RarifyClient implements the Rarify data API client
type RarifyClient struct {
	httpClient     adapter.HTTPClient
	rateLimitProxy ratelimit.Proxy
	apiURL         string
	apiKey         string
	json           adapter.JSON
}

// NewClient creates a new Rarify client
func NewClient(httpClient adapter.HTTPClient, rateLimitProxy ratelimit.Proxy, apiURL string, apiKey string, json adapter.JSON) Client {
	return &RarifyClient{
		httpClient:     httpClient,
		rateLimitProxy: rateLimitProxy,
		apiURL:         apiURL,
		apiKey:         apiKey,
		json:           json,
	}
}

func (c *RarifyClient) get(ctx context.Context, requestURL string) ([]byte, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	headers := map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	}

	return ratelimit.Request(ctx, c.rateLimitProxy, PROVIDER_NAME, func(ctx context.Context) ([]byte, error) {
		return c.httpClient.GetBytes(ctx, requestURL, headers)
	})
}

// GetTopCollections fetches the top collections of a network ordered by
// descending trading volume
func (c *RarifyClient) GetTopCollections(ctx context.Context, network string, limit int) ([]ContractResource, error) {
	requestURL := fmt.Sprintf("%s/data/contracts?page[limit]=%d&sort=-insights.volume&filter[network]=%s",
		c.apiURL,
		limit,
		url.QueryEscape(network),
	)

	respBody, err := c.get(ctx, requestURL)
	if err != nil {
		return nil, fmt.Errorf("failed to call Rarify contracts API: %w", err)
	}

	var response ContractsResponse
	if err := c.json.Unmarshal(respBody, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal Rarify contracts response: %w", err)
	}

	return response.Data, nil
}

// GetTradeHistory fetches the bucketed trading history of a contract over the
// given period.
//
// The history normally rides in the second included resource, but upstream
// sometimes returns it in the first, so probe the second and fall back.
func (c *RarifyClient) GetTradeHistory(ctx context.Context, contractID string, period domain.Period) ([]HistoryPoint, error) {
	requestURL := fmt.Sprintf("%s/data/contracts/%s/insights/%s",
		c.apiURL,
		url.PathEscape(contractID),
		period,
	)

	respBody, err := c.get(ctx, requestURL)
	if err != nil {
		return nil, fmt.Errorf("failed to call Rarify insights API: %w", err)
	}

	var response InsightsResponse
	if err := c.json.Unmarshal(respBody, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal Rarify insights response: %w", err)
	}

	if len(response.Included) > 1 && len(response.Included[1].Attributes.History) > 0 {
		return response.Included[1].Attributes.History, nil
	}
	if len(response.Included) > 0 && len(response.Included[0].Attributes.History) > 0 {
		return response.Included[0].Attributes.History, nil
	}

	return nil, ErrNoHistory
}

// GetTokensByContract fetches the tokens minted under a contract
func (c *RarifyClient) GetTokensByContract(ctx context.Context, contractID string, limit int) ([]TokenResource, error) {
	requestURL := fmt.Sprintf("%s/data/tokens?filter[contract]=%s&page[limit]=%d",
		c.apiURL,
		url.QueryEscape(contractID),
		limit,
	)

	respBody, err := c.get(ctx, requestURL)
	if err != nil {
		return nil, fmt.Errorf("failed to call Rarify tokens API: %w", err)
	}

	var response TokensResponse
	if err := c.json.Unmarshal(respBody, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal Rarify tokens response: %w", err)
	}

	return response.Data, nil
}

// GetTokenWithAttributes fetches one token together with its trait statistics
func (c *RarifyClient) GetTokenWithAttributes(ctx context.Context, tokenID string) (*TokenResource, []AttributeStat, error) {
	requestURL := fmt.Sprintf("%s/data/tokens/%s?include=attributes_stats",
		c.apiURL,
		url.PathEscape(tokenID),
	)

	respBody, err := c.get(ctx, requestURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to call Rarify token API: %w", err)
	}

	var response TokenDetailResponse
	if err := c.json.Unmarshal(respBody, &response); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal Rarify token response: %w", err)
	}

	stats := make([]AttributeStat, 0, len(response.Included))
	for _, included := range response.Included {
		stats = append(stats, included.Attributes)
	}

	return &response.Data, stats, nil
}

// GetWhales fetches the wallets holding a large share of a contract
func (c *RarifyClient) GetWhales(ctx context.Context, contractID string) ([]WhaleResource, error) {
	requestURL := fmt.Sprintf("%s/data/contracts/%s/whales",
		c.apiURL,
		url.PathEscape(contractID),
	)

	respBody, err := c.get(ctx, requestURL)
	if err != nil {
		return nil, fmt.Errorf("failed to call Rarify whales API: %w", err)
	}

	var response WhalesResponse
	if err := c.json.Unmarshal(respBody, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal Rarify whales response: %w", err)
	}

	return response.Data, nil
}
