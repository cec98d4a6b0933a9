package normalizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nftpulse/market-indexer/internal/adapter"
	"github.com/nftpulse/market-indexer/internal/domain"
	"github.com/nftpulse/market-indexer/internal/providers/rarify"
)

// stubClock pins Now so normalized timestamps are deterministic
type stubClock struct {
	now time.Time
}

func (c *stubClock) Now() time.Time                  { return c.now }
func (c *stubClock) Since(t time.Time) time.Duration { return c.now.Sub(t) }
func (c *stubClock) Sleep(d time.Duration)           {}
func (c *stubClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

func newTestNormalizer() *Normalizer {
	return New(&stubClock{now: time.Date(2022, 8, 15, 12, 0, 0, 0, time.UTC)}, adapter.NewJSON())
}

func TestTradesRescalesBaseUnits(t *testing.T) {
	n := newTestNormalizer()

	points := []rarify.HistoryPoint{
		{
			Time:         "2022-08-01T00:00:00Z",
			AvgPrice:     "1234500000000000000", // 1.2345 in display units
			MaxPrice:     "2000000000000000000",
			MinPrice:     "500000000000000000",
			Trades:       "12",
			UniqueBuyers: "9",
			Volume:       "15000000000000000000",
		},
	}

	trades := n.Trades("ethereum:0xabc", domain.Period90d, points)
	require.Len(t, trades, 1)

	assert.Equal(t, 1.23, trades[0].AvgPrice, "rounded to 2 decimals")
	assert.Equal(t, 2.00, trades[0].MaxPrice)
	assert.Equal(t, 0.50, trades[0].MinPrice)
	assert.Equal(t, 15.00, trades[0].Volume)
	assert.Equal(t, int64(12), trades[0].NumTrades)
	assert.Equal(t, int64(9), trades[0].UniqueBuyers)
	assert.Equal(t, time.Date(2022, 8, 1, 0, 0, 0, 0, time.UTC), trades[0].Timestamp)
}

func TestTradesRescaleIsExactBeyondFloatPrecision(t *testing.T) {
	n := newTestNormalizer()

	// 21 digits, more than float64 can represent exactly
	points := []rarify.HistoryPoint{{
		Time:     "2022-08-01T00:00:00Z",
		AvgPrice: "123456789012345678901",
		Volume:   "0",
	}}

	trades := n.Trades("ethereum:0xabc", domain.Period90d, points)
	require.Len(t, trades, 1)
	assert.Equal(t, 123.46, trades[0].AvgPrice)
}

func TestTradesAnnotatesProvenance(t *testing.T) {
	n := newTestNormalizer()

	points := []rarify.HistoryPoint{{Time: "2022-08-01T00:00:00Z"}}
	trades := n.Trades("ethereum:0xabc", domain.PeriodAllTime, points)
	require.Len(t, trades, 1)

	assert.Equal(t, "ethereum:0xabc", trades[0].ContractID)
	assert.Equal(t, domain.PeriodAllTime, trades[0].Period)
	assert.Equal(t, domain.EntityTypeCollection, trades[0].Type)
	assert.Equal(t, domain.SourceRarify, trades[0].APIID)
}

func TestTradesDropsMalformedPoints(t *testing.T) {
	n := newTestNormalizer()

	points := []rarify.HistoryPoint{
		{Time: "not-a-timestamp", AvgPrice: "1000000000000000000"},
		{Time: "2022-08-01T00:00:00Z", AvgPrice: "not-a-number"},
		{Time: "2022-08-02T00:00:00Z", AvgPrice: "1000000000000000000"},
	}

	trades := n.Trades("ethereum:0xabc", domain.Period90d, points)
	require.Len(t, trades, 1, "only the well-formed point survives")
	assert.Equal(t, time.Date(2022, 8, 2, 0, 0, 0, 0, time.UTC), trades[0].Timestamp)
}

func TestTradesEmptyAmountsDefaultToZero(t *testing.T) {
	n := newTestNormalizer()

	points := []rarify.HistoryPoint{{Time: "2022-08-01T00:00:00Z"}}
	trades := n.Trades("ethereum:0xabc", domain.Period90d, points)
	require.Len(t, trades, 1)
	assert.Zero(t, trades[0].AvgPrice)
	assert.Zero(t, trades[0].NumTrades)
}

func TestCollections(t *testing.T) {
	n := newTestNormalizer()

	resources := []rarify.ContractResource{
		{
			ID:   "ethereum:0xabc",
			Type: "contracts",
			Attributes: rarify.ContractAttributes{
				Address:          "0xabc",
				Name:             "Punks",
				Network:          "ethereum",
				PrimaryInterface: "ERC721",
				Tokens:           100,
				UniqueOwners:     40,
				SmartFloorPrice:  "3500000000000000000",
			},
		},
		{ID: "", Attributes: rarify.ContractAttributes{Name: "orphan"}},
	}

	collections := n.Collections(resources)
	require.Len(t, collections, 1, "resource without id is dropped")

	assert.Equal(t, "ethereum:0xabc", collections[0].ContractID)
	assert.Equal(t, "Punks", collections[0].Name)
	assert.Equal(t, "ethereum", collections[0].NetworkID)
	assert.Equal(t, int64(100), collections[0].NumTokens)
	assert.Equal(t, int64(40), collections[0].UniqueOwners)
	assert.Equal(t, 3.5, collections[0].SmartFloorPrice, "rescaled from base units")
	assert.NotEmpty(t, collections[0].Raw, "raw attributes are retained")
	assert.Equal(t, time.Date(2022, 8, 15, 12, 0, 0, 0, time.UTC), collections[0].CreatedAt)
}

func TestCollectionsFloorPriceDefensive(t *testing.T) {
	n := newTestNormalizer()

	resources := []rarify.ContractResource{
		{ID: "ethereum:0xa", Attributes: rarify.ContractAttributes{Name: "absent"}},
		{ID: "ethereum:0xb", Attributes: rarify.ContractAttributes{Name: "garbage", SmartFloorPrice: "not-a-number"}},
	}

	collections := n.Collections(resources)
	require.Len(t, collections, 2, "a bad floor price never drops the collection")
	assert.Zero(t, collections[0].SmartFloorPrice)
	assert.Zero(t, collections[1].SmartFloorPrice)
	assert.NotEmpty(t, collections[0].Raw, "absent floor price keeps raw attributes marshalable")
}

func TestTokens(t *testing.T) {
	n := newTestNormalizer()

	resources := []rarify.TokenResource{
		{
			ID: "ethereum:0xabc:1",
			Attributes: rarify.TokenAttributes{
				TokenID:     "1",
				Name:        "Punk #1",
				RarityScore: "42.5",
				Ranking:     "3",
			},
		},
		{ID: ""},
	}

	tokens := n.Tokens("ethereum:0xabc", resources)
	require.Len(t, tokens, 1)

	assert.Equal(t, "ethereum:0xabc:1", tokens[0].TokenID)
	assert.Equal(t, "ethereum:0xabc", tokens[0].ContractID)
	assert.Equal(t, int64(1), tokens[0].IDNum)
	assert.Equal(t, 42.5, tokens[0].RarityScore)
	assert.Equal(t, int64(3), tokens[0].Ranking)
}

func TestTokenAttributes(t *testing.T) {
	n := newTestNormalizer()

	stats := []rarify.AttributeStat{
		{TraitType: "background", Value: "blue", OverallWithTraitValue: 12, RarityPercentage: "1.2"},
		{TraitType: "", Value: "dropped"},
	}

	attributes := n.TokenAttributes("ethereum:0xabc:1", stats)
	require.Len(t, attributes, 1)

	assert.Equal(t, "ethereum:0xabc:1", attributes[0].TokenID)
	assert.Equal(t, "background", attributes[0].TraitType)
	assert.Equal(t, "blue", attributes[0].Value)
	assert.Equal(t, int64(12), attributes[0].OverallWithTraitValue)
	assert.Equal(t, 1.2, attributes[0].RarityPercentage)
}

func TestWhales(t *testing.T) {
	n := newTestNormalizer()

	resources := []rarify.WhaleResource{
		{ID: "0xwallet1"},
		{ID: ""},
		{ID: "0xwallet2"},
	}

	whales := n.Whales("ethereum:0xabc", resources)
	require.Len(t, whales, 2)
	assert.Equal(t, "0xwallet1", whales[0].WalletID)
	assert.Equal(t, "ethereum:0xabc", whales[0].ContractID)
}
