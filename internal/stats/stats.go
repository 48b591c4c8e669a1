// Package stats provides the summary statistics used by the headway
// aggregator. Quantiles use linear interpolation between closest ranks,
// which matches the pandas default and keeps results comparable with the
// published spreadsheets.
package stats

import (
	"math"
	"sort"
)

// Median returns the middle value of the sample. For an even count the two
// middle values are averaged. Returns 0 for an empty sample; callers that
// need to distinguish "no data" must check the count themselves.
func Median(values []float64) float64 {
	return Quantile(values, 0.5)
}

// Quantile calculates the q-th quantile (0.0–1.0) of the sample using
// linear interpolation between closest ranks.
func Quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	if q < 0 {
		q = 0
	}
	if q > 1 {
		q = 1
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	index := q * float64(len(sorted)-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))

	if lower == upper {
		return sorted[lower]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// FractionOver returns the fraction of values strictly greater than the
// threshold. Returns 0 for an empty sample.
func FractionOver(values []float64, threshold float64) float64 {
	if len(values) == 0 {
		return 0
	}
	count := 0
	for _, v := range values {
		if v > threshold {
			count++
		}
	}
	return float64(count) / float64(len(values))
}
