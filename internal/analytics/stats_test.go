package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nftpulse/market-indexer/internal/store/schema"
)

func tradesFromValues(contractID string, avgPrices ...float64) []schema.Trade {
	base := time.Date(2022, 8, 1, 0, 0, 0, 0, time.UTC)
	trades := make([]schema.Trade, len(avgPrices))
	for i, v := range avgPrices {
		trades[i] = schema.Trade{
			ContractID: contractID,
			Timestamp:  base.Add(time.Duration(i) * time.Hour),
			AvgPrice:   v,
			Volume:     v * 10,
		}
	}
	return trades
}

func TestParseField(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expected  Field
		expectErr bool
	}{
		{name: "avg price", input: "avg_price", expected: FieldAvgPrice},
		{name: "volume", input: "volume", expected: FieldVolume},
		{name: "unique buyers", input: "unique_buyers", expected: FieldUniqueBuyers},
		{name: "unknown column", input: "avg", expectErr: true},
		{name: "substring does not match", input: "price", expectErr: true},
		{name: "empty", input: "", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field, err := ParseField(tt.input)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, field)
			assert.Equal(t, tt.input, field.String())
		})
	}
}

func TestSeriesFromTrades(t *testing.T) {
	trades := tradesFromValues("ethereum:0xabc", 1, 2, 3)

	series := SeriesFromTrades("ethereum:0xabc", FieldAvgPrice, trades)
	assert.Equal(t, []float64{1, 2, 3}, series.Values())
	assert.Equal(t, "avg_price", series.FieldName)

	volumes := SeriesFromTrades("ethereum:0xabc", FieldVolume, trades)
	assert.Equal(t, []float64{10, 20, 30}, volumes.Values())
}

func TestPercentChange(t *testing.T) {
	changes := PercentChange([]float64{100, 110, 99})

	require.Len(t, changes, 3)
	assert.True(t, math.IsNaN(changes[0]), "first element has no predecessor")
	assert.InDelta(t, 0.10, changes[1], 1e-9)
	assert.InDelta(t, -0.10, changes[2], 1e-9)
}

func TestPercentChangeEdgeCases(t *testing.T) {
	assert.Empty(t, PercentChange(nil))

	single := PercentChange([]float64{5})
	require.Len(t, single, 1)
	assert.True(t, math.IsNaN(single[0]))

	// Zero predecessor divides out to infinity
	fromZero := PercentChange([]float64{0, 5})
	assert.True(t, math.IsInf(fromZero[1], 1))
}

func TestMeanSkipsNaN(t *testing.T) {
	assert.InDelta(t, 2.0, Mean([]float64{1, math.NaN(), 3}), 1e-9)
	assert.True(t, math.IsNaN(Mean(nil)))
	assert.True(t, math.IsNaN(Mean([]float64{math.NaN()})))
}

func TestVarianceAndStdDev(t *testing.T) {
	// Sample variance of {2, 4, 4, 4, 5, 5, 7, 9} is 32/7
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, 32.0/7.0, Variance(values), 1e-9)
	assert.InDelta(t, math.Sqrt(32.0/7.0), StdDev(values), 1e-9)

	// NaN observations are skipped, not propagated
	withNaN := []float64{2, math.NaN(), 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, 32.0/7.0, Variance(withNaN), 1e-9)

	assert.True(t, math.IsNaN(Variance([]float64{1})))
	assert.Equal(t, 0.0, Variance([]float64{3, 3, 3}))
}

func TestCovarianceSkipsNaNPairs(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	y := []float64{2, 4, 6, 8}
	assert.InDelta(t, Covariance(x, y), 2*Variance(x), 1e-9)

	// A NaN on either side drops the whole pair
	xNaN := []float64{1, math.NaN(), 3, 4}
	expected := Covariance([]float64{1, 3, 4}, []float64{2, 6, 8})
	assert.InDelta(t, expected, Covariance(xNaN, y), 1e-9)

	assert.True(t, math.IsNaN(Covariance([]float64{1, 2}, []float64{1})))
}

func TestCorrelation(t *testing.T) {
	x := []float64{1, 2, 3, 4}

	up := []float64{10, 20, 30, 40}
	assert.InDelta(t, 1.0, Correlation(x, up), 1e-9)

	down := []float64{40, 30, 20, 10}
	assert.InDelta(t, -1.0, Correlation(x, down), 1e-9)

	flat := []float64{5, 5, 5, 5}
	assert.True(t, math.IsNaN(Correlation(x, flat)), "zero variance has no defined correlation")
}

func TestBeta(t *testing.T) {
	basket := []float64{0.01, -0.02, 0.03, 0.01}

	// An asset moving exactly with the basket has beta 1
	assert.InDelta(t, 1.0, Beta(basket, basket), 1e-9)

	// Doubled moves double the beta
	double := make([]float64, len(basket))
	for i, v := range basket {
		double[i] = 2 * v
	}
	assert.InDelta(t, 2.0, Beta(double, basket), 1e-9)

	// Flat basket has zero variance, beta is undefined
	flat := []float64{0.01, 0.01, 0.01, 0.01}
	assert.True(t, math.IsNaN(Beta(basket, flat)))
}

func TestBetaToleratesLeadingNaN(t *testing.T) {
	// Percent-change series always open with NaN; beta must still resolve
	asset := PercentChange([]float64{100, 110, 99, 104})
	basket := PercentChange([]float64{200, 220, 198, 208})
	assert.InDelta(t, 1.0, Beta(asset, basket), 1e-9)
}

func TestRollingMean(t *testing.T) {
	result := RollingMean([]float64{1, 2, 3, 4, 5}, 3)

	require.Len(t, result, 5)
	assert.True(t, math.IsNaN(result[0]))
	assert.True(t, math.IsNaN(result[1]))
	assert.InDelta(t, 2.0, result[2], 1e-9)
	assert.InDelta(t, 3.0, result[3], 1e-9)
	assert.InDelta(t, 4.0, result[4], 1e-9)
}

func TestBasketReturnsEqualWeight(t *testing.T) {
	panel := PanelFromTrades(FieldAvgPrice, map[string][]schema.Trade{
		"ethereum:0xa": tradesFromValues("ethereum:0xa", 100, 110),
		"ethereum:0xb": tradesFromValues("ethereum:0xb", 200, 180),
	})

	returns := BasketReturns(panel, WeightEqual, nil)
	require.Len(t, returns, 2)
	assert.True(t, math.IsNaN(returns[0]))
	// Basket: (100+200)/2 = 150 then (110+180)/2 = 145
	assert.InDelta(t, (145.0-150.0)/150.0, returns[1], 1e-9)
}

func TestBasketReturnsVolumeWeight(t *testing.T) {
	trades := map[string][]schema.Trade{
		"ethereum:0xa": tradesFromValues("ethereum:0xa", 100, 110),
		"ethereum:0xb": tradesFromValues("ethereum:0xb", 200, 180),
	}
	panel := PanelFromTrades(FieldAvgPrice, trades)
	volumes := PanelFromTrades(FieldVolume, trades)

	returns := BasketReturns(panel, WeightVolume, &volumes)
	require.Len(t, returns, 2)
	// Volume weights are 10x the price: bucket 0 = (100*1000+200*2000)/3000
	expected0 := (100.0*1000 + 200.0*2000) / 3000.0
	expected1 := (110.0*1100 + 180.0*1800) / 2900.0
	assert.InDelta(t, (expected1-expected0)/expected0, returns[1], 1e-9)
}

func TestBetasAcrossPanel(t *testing.T) {
	panel := PanelFromTrades(FieldAvgPrice, map[string][]schema.Trade{
		"ethereum:0xa": tradesFromValues("ethereum:0xa", 100, 110, 99, 104),
		"ethereum:0xb": tradesFromValues("ethereum:0xb", 200, 220, 198, 208),
	})

	betas := Betas(panel, WeightEqual, nil)
	require.Len(t, betas, 2)
	// Both collections move identically in relative terms, so both betas are 1
	assert.InDelta(t, 1.0, betas["ethereum:0xa"], 1e-9)
	assert.InDelta(t, 1.0, betas["ethereum:0xb"], 1e-9)
}

func TestCorrelationMatrix(t *testing.T) {
	panel := PanelFromTrades(FieldAvgPrice, map[string][]schema.Trade{
		"ethereum:0xa": tradesFromValues("ethereum:0xa", 100, 110, 99, 104),
		"ethereum:0xb": tradesFromValues("ethereum:0xb", 104, 99, 110, 100),
	})

	ids, matrix := CorrelationMatrix(panel)
	require.Equal(t, []string{"ethereum:0xa", "ethereum:0xb"}, ids)
	require.Len(t, matrix, 2)
	assert.Equal(t, 1.0, matrix[0][0])
	assert.Equal(t, 1.0, matrix[1][1])
	assert.InDelta(t, matrix[0][1], matrix[1][0], 1e-9)
	assert.Less(t, matrix[0][1], 0.0, "opposite movements correlate negatively")
}

func TestCorrelationMatrixTruncatesToShortestSeries(t *testing.T) {
	panel := PanelFromTrades(FieldAvgPrice, map[string][]schema.Trade{
		"ethereum:0xa": tradesFromValues("ethereum:0xa", 100, 110, 99, 104, 120),
		"ethereum:0xb": tradesFromValues("ethereum:0xb", 200, 220, 198),
	})

	ids, matrix := CorrelationMatrix(panel)
	require.Len(t, ids, 2)
	assert.False(t, math.IsNaN(matrix[0][1]), "mismatched lengths align to the shorter series")
}

func TestMeanAndStdDevByContract(t *testing.T) {
	panel := PanelFromTrades(FieldAvgPrice, map[string][]schema.Trade{
		"ethereum:0xa": tradesFromValues("ethereum:0xa", 1, 2, 3),
		"ethereum:0xb": tradesFromValues("ethereum:0xb", 10, 10, 10),
	})

	means := MeanByContract(panel)
	assert.InDelta(t, 2.0, means["ethereum:0xa"], 1e-9)
	assert.InDelta(t, 10.0, means["ethereum:0xb"], 1e-9)

	stds := StdDevByContract(panel)
	assert.InDelta(t, 1.0, stds["ethereum:0xa"], 1e-9)
	assert.Equal(t, 0.0, stds["ethereum:0xb"])
}

func TestFilterVolatile(t *testing.T) {
	panel := PanelFromTrades(FieldAvgPrice, map[string][]schema.Trade{
		"ethereum:0xstable": tradesFromValues("ethereum:0xstable", 100, 101, 100, 102),
		"ethereum:0xwild":   tradesFromValues("ethereum:0xwild", 1, 100, 2, 90),
	})

	filtered := FilterVolatile(panel, 1.0)
	assert.Contains(t, filtered.Series, "ethereum:0xstable")
	assert.NotContains(t, filtered.Series, "ethereum:0xwild")
}
