package rarify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nftpulse/market-indexer/internal/adapter"
	"github.com/nftpulse/market-indexer/internal/domain"
)

// fakeHTTPClient records the request and plays back a canned response
type fakeHTTPClient struct {
	lastURL     string
	lastHeaders map[string]string
	response    []byte
	err         error
}

func (f *fakeHTTPClient) GetBytes(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	f.lastURL = url
	f.lastHeaders = headers
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func newTestClient(fake *fakeHTTPClient) Client {
	return NewClient(fake, nil, "https://api.rarify.tech", "test-key", adapter.NewJSON())
}

func TestGetTopCollections(t *testing.T) {
	fake := &fakeHTTPClient{response: []byte(`{
		"data": [
			{
				"id": "ethereum:0xabc",
				"type": "contracts",
				"attributes": {
					"address": "0xabc",
					"name": "Punks",
					"network": "ethereum",
					"tokens": 100,
					"unique_owners": 40,
					"smart_floor_price": "3500000000000000000"
				}
			}
		]
	}`)}
	client := newTestClient(fake)

	contracts, err := client.GetTopCollections(context.Background(), "ethereum", 100)
	require.NoError(t, err)
	require.Len(t, contracts, 1)

	assert.Equal(t, "ethereum:0xabc", contracts[0].ID)
	assert.Equal(t, "Punks", contracts[0].Attributes.Name)
	assert.Equal(t, int64(100), contracts[0].Attributes.Tokens)
	assert.Equal(t, "3500000000000000000", contracts[0].Attributes.SmartFloorPrice.String())

	assert.Equal(t, "https://api.rarify.tech/data/contracts?page[limit]=100&sort=-insights.volume&filter[network]=ethereum", fake.lastURL)
	assert.Equal(t, "Bearer test-key", fake.lastHeaders["Authorization"])
}

func TestGetTradeHistoryPrefersSecondIncluded(t *testing.T) {
	fake := &fakeHTTPClient{response: []byte(`{
		"included": [
			{"id": "a", "type": "contracts", "attributes": {}},
			{"id": "b", "type": "insights", "attributes": {"history": [
				{"time": "2022-08-01T00:00:00Z", "avg_price": "1000000000000000000", "trades": "3"}
			]}}
		]
	}`)}
	client := newTestClient(fake)

	points, err := client.GetTradeHistory(context.Background(), "ethereum:0xabc", domain.Period90d)
	require.NoError(t, err)
	require.Len(t, points, 1)

	assert.Equal(t, "2022-08-01T00:00:00Z", points[0].Time)
	assert.Equal(t, "1000000000000000000", points[0].AvgPrice.String())
	assert.Equal(t, "https://api.rarify.tech/data/contracts/ethereum:0xabc/insights/90d", fake.lastURL)
}

func TestGetTradeHistoryFallsBackToFirstIncluded(t *testing.T) {
	// Upstream sometimes delivers the history in the first included resource
	fake := &fakeHTTPClient{response: []byte(`{
		"included": [
			{"id": "a", "type": "insights", "attributes": {"history": [
				{"time": "2022-08-01T00:00:00Z", "volume": "15000000000000000000"}
			]}}
		]
	}`)}
	client := newTestClient(fake)

	points, err := client.GetTradeHistory(context.Background(), "ethereum:0xabc", domain.Period90d)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "15000000000000000000", points[0].Volume.String())
}

func TestGetTradeHistoryWithoutHistory(t *testing.T) {
	fake := &fakeHTTPClient{response: []byte(`{"included": []}`)}
	client := newTestClient(fake)

	_, err := client.GetTradeHistory(context.Background(), "ethereum:0xabc", domain.Period90d)
	assert.ErrorIs(t, err, ErrNoHistory)
}

func TestGetTokensByContract(t *testing.T) {
	fake := &fakeHTTPClient{response: []byte(`{
		"data": [
			{"id": "ethereum:0xabc:1", "type": "tokens", "attributes": {"token_id": "1", "name": "Punk #1"}}
		]
	}`)}
	client := newTestClient(fake)

	tokens, err := client.GetTokensByContract(context.Background(), "ethereum:0xabc", 50)
	require.NoError(t, err)
	require.Len(t, tokens, 1)

	assert.Equal(t, "ethereum:0xabc:1", tokens[0].ID)
	assert.Equal(t, "1", tokens[0].Attributes.TokenID.String())
	assert.Equal(t, "https://api.rarify.tech/data/tokens?filter[contract]=ethereum%3A0xabc&page[limit]=50", fake.lastURL)
}

func TestGetTokenWithAttributes(t *testing.T) {
	fake := &fakeHTTPClient{response: []byte(`{
		"data": {"id": "ethereum:0xabc:1", "type": "tokens", "attributes": {"name": "Punk #1"}},
		"included": [
			{"id": "s1", "type": "attributes_stats", "attributes": {
				"trait_type": "background", "value": "blue",
				"overall_with_trait_value": 12, "rarity_percentage": "1.2"
			}}
		]
	}`)}
	client := newTestClient(fake)

	token, stats, err := client.GetTokenWithAttributes(context.Background(), "ethereum:0xabc:1")
	require.NoError(t, err)

	assert.Equal(t, "Punk #1", token.Attributes.Name)
	require.Len(t, stats, 1)
	assert.Equal(t, "background", stats[0].TraitType)
	assert.Equal(t, int64(12), stats[0].OverallWithTraitValue)
}

func TestGetWhales(t *testing.T) {
	fake := &fakeHTTPClient{response: []byte(`{
		"data": [
			{"id": "0xwallet1", "type": "wallets"},
			{"id": "0xwallet2", "type": "wallets"}
		]
	}`)}
	client := newTestClient(fake)

	whales, err := client.GetWhales(context.Background(), "ethereum:0xabc")
	require.NoError(t, err)
	require.Len(t, whales, 2)
	assert.Equal(t, "0xwallet1", whales[0].ID)
}

func TestMissingAPIKey(t *testing.T) {
	client := NewClient(&fakeHTTPClient{}, nil, "https://api.rarify.tech", "", adapter.NewJSON())

	_, err := client.GetTopCollections(context.Background(), "ethereum", 10)
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestUpstreamErrorIsWrapped(t *testing.T) {
	upstreamErr := errors.New("connection refused")
	client := newTestClient(&fakeHTTPClient{err: upstreamErr})

	_, err := client.GetTopCollections(context.Background(), "ethereum", 10)
	assert.ErrorIs(t, err, upstreamErr)
}
