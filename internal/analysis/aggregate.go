package analysis

import (
	"database/sql"
	"sort"

	"headways.subwaydata.nyc/internal/stats"
)

// ExceedanceRate is the fraction of surviving headways strictly exceeding a
// threshold.
type ExceedanceRate struct {
	ThresholdMin float64
	Rate         float64
}

// SummaryRow is the aggregated output for one (day type, bucket, period,
// direction) group. When Count is zero the statistics are explicitly
// invalid: downstream reporting must distinguish "no data" from a zero
// headway, so null values are used instead of numeric placeholders.
type SummaryRow struct {
	DayType       string
	Bucket        TimeBucket
	BucketLabel   string
	Period        string
	Direction     Direction
	StormExcluded bool
	Count         int
	MedianMin     sql.NullFloat64
	P90Min        sql.NullFloat64
	Exceedance    []ExceedanceRate
}

// AggregateOptions alters which observations enter the aggregation.
type AggregateOptions struct {
	// ExcludeStorm drops observations dated on or after the storm date,
	// for the storm sensitivity comparison. Emitted rows are flagged.
	ExcludeStorm bool
}

type summaryKey struct {
	dayType   string
	bucket    TimeBucket
	period    string
	direction Direction
}

// Aggregate computes summary statistics for every (day type, bucket, period,
// direction) combination. The full cross product is emitted, so a group that
// happened to receive no data still appears as a row with null statistics,
// distinguishable from a group that was never processed.
func (c Config) Aggregate(observations []Observation, opts AggregateOptions) []SummaryRow {
	samples := make(map[summaryKey][]float64)
	for _, obs := range observations {
		if opts.ExcludeStorm && c.InStormPeriod(obs.Date) {
			continue
		}
		key := summaryKey{dayType: obs.DayType, bucket: obs.Bucket, period: obs.Period, direction: obs.Direction}
		samples[key] = append(samples[key], obs.HeadwayMin)
	}

	directions := c.sortedDirections()

	var rows []SummaryRow
	for _, dayType := range []string{DayTypeWeekday, DayTypeWeekend} {
		for b := range c.Buckets {
			for _, period := range []string{PeriodBefore, PeriodAfter} {
				for _, dir := range directions {
					key := summaryKey{dayType: dayType, bucket: TimeBucket(b), period: period, direction: dir}
					rows = append(rows, c.summarize(key, samples[key], opts.ExcludeStorm))
				}
			}
		}
	}
	return rows
}

func (c Config) summarize(key summaryKey, values []float64, stormExcluded bool) SummaryRow {
	row := SummaryRow{
		DayType:       key.dayType,
		Bucket:        key.bucket,
		BucketLabel:   c.BucketLabel(key.bucket, key.dayType),
		Period:        key.period,
		Direction:     key.direction,
		StormExcluded: stormExcluded,
		Count:         len(values),
	}
	if len(values) == 0 {
		return row
	}

	row.MedianMin = sql.NullFloat64{Float64: stats.Median(values), Valid: true}
	row.P90Min = sql.NullFloat64{Float64: stats.Quantile(values, 0.90), Valid: true}
	row.Exceedance = make([]ExceedanceRate, 0, len(c.ExceedThresholdsMin))
	for _, threshold := range c.ExceedThresholdsMin {
		row.Exceedance = append(row.Exceedance, ExceedanceRate{
			ThresholdMin: threshold,
			Rate:         stats.FractionOver(values, threshold),
		})
	}
	return row
}

func (c Config) sortedDirections() []Direction {
	seen := make(map[Direction]struct{}, len(c.DirectionLetters))
	var dirs []Direction
	for _, d := range c.DirectionLetters {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		dirs = append(dirs, d)
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i] < dirs[j] })
	return dirs
}
