package analytics

import (
	"math"
)

// Statistics follow series semantics: the first percent-change observation is
// NaN, and moment calculations skip NaN observations (pairwise for the
// bivariate ones) instead of letting one undefined value poison the result.
// Sample (n-1) normalization throughout.

// Weighting selects how basket returns combine the panel's collections
type Weighting int

const (
	// WeightEqual gives every collection the same weight
	WeightEqual Weighting = iota
	// WeightVolume weights each collection by its traded volume at each bucket
	WeightVolume
)

// PercentChange computes the period-over-period relative change of a series.
// The first element has no predecessor and is NaN; a zero predecessor yields
// ±Inf as plain division would.
func PercentChange(values []float64) []float64 {
	changes := make([]float64, len(values))
	if len(values) == 0 {
		return changes
	}
	changes[0] = math.NaN()
	for i := 1; i < len(values); i++ {
		changes[i] = (values[i] - values[i-1]) / values[i-1]
	}
	return changes
}

// Mean computes the arithmetic mean, skipping NaN observations. NaN when no
// valid observations remain.
func Mean(values []float64) float64 {
	var sum float64
	var n int
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// Variance computes the sample variance, skipping NaN observations. NaN with
// fewer than two valid observations.
func Variance(values []float64) float64 {
	mean := Mean(values)
	if math.IsNaN(mean) {
		return math.NaN()
	}

	var sum float64
	var n int
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		d := v - mean
		sum += d * d
		n++
	}
	if n < 2 {
		return math.NaN()
	}
	return sum / float64(n-1)
}

// StdDev computes the sample standard deviation, skipping NaN observations
func StdDev(values []float64) float64 {
	return math.Sqrt(Variance(values))
}

// Covariance computes the sample covariance of two equal-length series,
// skipping index pairs where either side is NaN. NaN on length mismatch or
// with fewer than two valid pairs.
func Covariance(x, y []float64) float64 {
	if len(x) != len(y) {
		return math.NaN()
	}

	var sumX, sumY float64
	var n int
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		sumX += x[i]
		sumY += y[i]
		n++
	}
	if n < 2 {
		return math.NaN()
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var sum float64
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		sum += (x[i] - meanX) * (y[i] - meanY)
	}
	return sum / float64(n-1)
}

// Correlation computes the Pearson correlation of two equal-length series.
// NaN when either side has zero variance.
func Correlation(x, y []float64) float64 {
	sx := StdDev(x)
	sy := StdDev(y)
	if sx == 0 || sy == 0 || math.IsNaN(sx) || math.IsNaN(sy) {
		return math.NaN()
	}
	return Covariance(x, y) / (sx * sy)
}

// Beta computes an asset's sensitivity to basket returns:
// cov(asset, basket) / var(basket). NaN when the basket has zero variance.
func Beta(assetReturns, basketReturns []float64) float64 {
	basketVar := Variance(basketReturns)
	if basketVar == 0 || math.IsNaN(basketVar) {
		return math.NaN()
	}
	return Covariance(assetReturns, basketReturns) / basketVar
}

// RollingMean computes the trailing mean over a fixed window. Positions with
// fewer than window observations behind them are NaN.
func RollingMean(values []float64, window int) []float64 {
	result := make([]float64, len(values))
	if window <= 0 {
		for i := range result {
			result[i] = math.NaN()
		}
		return result
	}
	for i := range values {
		if i+1 < window {
			result[i] = math.NaN()
			continue
		}
		result[i] = Mean(values[i+1-window : i+1])
	}
	return result
}

// alignedValues collects the panel's series values in contract order, padded
// or truncated to the shortest series so index i lines up across collections.
func alignedValues(p Panel) (ids []string, rows [][]float64, n int) {
	ids = p.ContractIDs()
	rows = make([][]float64, len(ids))
	n = -1
	for i, id := range ids {
		rows[i] = p.Series[id].Values()
		if n < 0 || len(rows[i]) < n {
			n = len(rows[i])
		}
	}
	if n < 0 {
		n = 0
	}
	for i := range rows {
		rows[i] = rows[i][:n]
	}
	return ids, rows, n
}

// BasketReturns computes the percent-change series of a synthetic basket
// holding every collection of the panel. With WeightVolume, volumes supplies
// per-bucket weights; it must cover the same contracts and buckets.
func BasketReturns(p Panel, weighting Weighting, volumes *Panel) []float64 {
	ids, rows, n := alignedValues(p)
	if n == 0 {
		return nil
	}

	var volRows [][]float64
	if weighting == WeightVolume && volumes != nil {
		volRows = make([][]float64, len(ids))
		for i, id := range ids {
			volRows[i] = volumes.Series[id].Values()
		}
	}

	basket := make([]float64, n)
	for t := 0; t < n; t++ {
		var weightedSum, totalWeight float64
		for i := range rows {
			weight := 1.0
			if volRows != nil {
				if t >= len(volRows[i]) {
					continue
				}
				weight = volRows[i][t]
			}
			if weight <= 0 || math.IsNaN(rows[i][t]) {
				continue
			}
			weightedSum += rows[i][t] * weight
			totalWeight += weight
		}
		if totalWeight == 0 {
			basket[t] = math.NaN()
			continue
		}
		basket[t] = weightedSum / totalWeight
	}

	return PercentChange(basket)
}

// Betas computes each collection's beta against the basket of the whole panel
func Betas(p Panel, weighting Weighting, volumes *Panel) map[string]float64 {
	basket := BasketReturns(p, weighting, volumes)
	ids, rows, n := alignedValues(p)

	betas := make(map[string]float64, len(ids))
	for i, id := range ids {
		if n == 0 {
			betas[id] = math.NaN()
			continue
		}
		betas[id] = Beta(PercentChange(rows[i]), basket)
	}
	return betas
}

// CorrelationMatrix computes pairwise Pearson correlations of the panel's
// percent-change series. Rows and columns follow the returned contract order;
// the diagonal is 1 except for zero-variance series, which are NaN throughout.
func CorrelationMatrix(p Panel) ([]string, [][]float64) {
	ids, rows, _ := alignedValues(p)

	changes := make([][]float64, len(rows))
	for i := range rows {
		changes[i] = PercentChange(rows[i])
	}

	matrix := make([][]float64, len(ids))
	for i := range ids {
		matrix[i] = make([]float64, len(ids))
		for j := range ids {
			if i == j {
				if StdDev(changes[i]) == 0 {
					matrix[i][j] = math.NaN()
				} else {
					matrix[i][j] = 1
				}
				continue
			}
			matrix[i][j] = Correlation(changes[i], changes[j])
		}
	}
	return ids, matrix
}

// MeanByContract computes each collection's mean of the panel's field
func MeanByContract(p Panel) map[string]float64 {
	means := make(map[string]float64, len(p.Series))
	for id, series := range p.Series {
		means[id] = Mean(series.Values())
	}
	return means
}

// StdDevByContract computes each collection's sample standard deviation of
// the panel's field
func StdDevByContract(p Panel) map[string]float64 {
	stds := make(map[string]float64, len(p.Series))
	for id, series := range p.Series {
		stds[id] = StdDev(series.Values())
	}
	return stds
}

// FilterVolatile drops collections whose percent-change standard deviation
// exceeds the threshold. Degenerate series distort basket statistics, so
// callers screen them out before computing betas.
func FilterVolatile(p Panel, threshold float64) Panel {
	kept := make(map[string]Series, len(p.Series))
	for id, series := range p.Series {
		sd := StdDev(PercentChange(series.Values()))
		if !math.IsNaN(sd) && sd > threshold {
			continue
		}
		kept[id] = series
	}
	return Panel{Field: p.Field, Series: kept}
}
