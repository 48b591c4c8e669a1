package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeObservation(cfg Config, date string, dir Direction, bucket TimeBucket, dayType string, headway float64) Observation {
	return Observation{
		Date:        date,
		Direction:   dir,
		Bucket:      bucket,
		BucketLabel: cfg.BucketLabel(bucket, dayType),
		DayType:     dayType,
		Period:      cfg.Period(date),
		HeadwayMin:  headway,
	}
}

func findRow(t *testing.T, rows []SummaryRow, dayType string, bucket TimeBucket, period string, dir Direction) SummaryRow {
	t.Helper()
	for _, row := range rows {
		if row.DayType == dayType && row.Bucket == bucket && row.Period == period && row.Direction == dir {
			return row
		}
	}
	t.Fatalf("no summary row for %s/%d/%s/%s", dayType, bucket, period, dir)
	return SummaryRow{}
}

func TestAggregateEmitsFullCrossProduct(t *testing.T) {
	cfg := DefaultConfig()

	rows := cfg.Aggregate(nil, AggregateOptions{})

	// 2 day types x 5 buckets x 2 periods x 2 directions.
	assert.Len(t, rows, 40)
	for _, row := range rows {
		assert.Equal(t, 0, row.Count)
		assert.False(t, row.MedianMin.Valid, "empty group must have null median")
		assert.False(t, row.P90Min.Valid, "empty group must have null p90")
		assert.Nil(t, row.Exceedance)
		assert.False(t, row.StormExcluded)
	}
}

func TestAggregateStatistics(t *testing.T) {
	cfg := DefaultConfig()

	var observations []Observation
	for _, h := range []float64{1, 4, 11} {
		observations = append(observations,
			makeObservation(cfg, "2025-10-01", Northbound, 1, DayTypeWeekday, h))
	}

	rows := cfg.Aggregate(observations, AggregateOptions{})
	row := findRow(t, rows, DayTypeWeekday, 1, PeriodBefore, Northbound)

	assert.Equal(t, 3, row.Count)
	require.True(t, row.MedianMin.Valid)
	assert.InDelta(t, 4.0, row.MedianMin.Float64, 1e-9)
	require.True(t, row.P90Min.Valid)
	assert.InDelta(t, 9.6, row.P90Min.Float64, 1e-9)

	require.Len(t, row.Exceedance, len(cfg.ExceedThresholdsMin))
	expectedRates := map[float64]float64{
		5:  1.0 / 3.0,
		8:  1.0 / 3.0,
		10: 1.0 / 3.0,
		12: 0,
		15: 0,
	}
	for _, ex := range row.Exceedance {
		assert.InDelta(t, expectedRates[ex.ThresholdMin], ex.Rate, 1e-9, "threshold %v", ex.ThresholdMin)
	}

	// The sibling group in the other direction stays empty.
	other := findRow(t, rows, DayTypeWeekday, 1, PeriodBefore, Southbound)
	assert.Equal(t, 0, other.Count)
	assert.False(t, other.MedianMin.Valid)
}

func TestAggregateExcludeStorm(t *testing.T) {
	cfg := DefaultConfig()

	observations := []Observation{
		makeObservation(cfg, "2026-01-20", Northbound, 1, DayTypeWeekday, 5),
		makeObservation(cfg, "2026-01-26", Northbound, 1, DayTypeWeekday, 30),
	}

	standard := findRow(t, cfg.Aggregate(observations, AggregateOptions{}),
		DayTypeWeekday, 1, PeriodAfter, Northbound)
	assert.Equal(t, 2, standard.Count)

	excluded := findRow(t, cfg.Aggregate(observations, AggregateOptions{ExcludeStorm: true}),
		DayTypeWeekday, 1, PeriodAfter, Northbound)
	assert.Equal(t, 1, excluded.Count)
	assert.True(t, excluded.StormExcluded)
	require.True(t, excluded.MedianMin.Valid)
	assert.InDelta(t, 5.0, excluded.MedianMin.Float64, 1e-9)
}

func TestAggregateRowOrderIsDeterministic(t *testing.T) {
	cfg := DefaultConfig()

	first := cfg.Aggregate(nil, AggregateOptions{})
	second := cfg.Aggregate(nil, AggregateOptions{})
	assert.Equal(t, first, second)
}
