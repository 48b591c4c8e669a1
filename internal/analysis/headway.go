package analysis

import "sort"

// Observation is one surviving headway: the gap in minutes between two
// chronologically consecutive arrivals within the same (date, direction,
// bucket) group, after outlier classification. Observations are never
// mutated once aggregation begins.
type Observation struct {
	Date        string
	Direction   Direction
	Bucket      TimeBucket
	BucketLabel string
	DayType     string
	Period      string
	// Hour is the local clock hour of the arriving train.
	Hour int
	// InWindow reports whether the daily service-change window was in
	// effect at the arrival. Label only, never a grouping key.
	InWindow   bool
	HeadwayMin float64
}

// HeadwayCounts reports what the gap computation produced and what the
// outlier policy removed.
type HeadwayCounts struct {
	Computed          int
	DroppedBelowFloor int
	DroppedAboveCap   int
}

type groupKey struct {
	date      string
	direction Direction
	bucket    TimeBucket
}

// ComputeHeadways partitions arrivals by (date, direction, bucket), sorts
// each partition by time, and emits one gap per consecutive pair, applying
// the outlier policy to each gap independently. Arrivals are never paired
// across a date, direction, or bucket boundary. Partitions with fewer than
// two records yield no observations; sparse overnight service is expected.
func (c Config) ComputeHeadways(arrivals []ResolvedArrival) ([]Observation, HeadwayCounts) {
	groups := make(map[groupKey][]ResolvedArrival)
	for _, a := range arrivals {
		key := groupKey{date: a.Date, direction: a.Direction, bucket: a.Bucket}
		groups[key] = append(groups[key], a)
	}

	keys := make([]groupKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].date != keys[j].date {
			return keys[i].date < keys[j].date
		}
		if keys[i].direction != keys[j].direction {
			return keys[i].direction < keys[j].direction
		}
		return keys[i].bucket < keys[j].bucket
	})

	var (
		observations []Observation
		counts       HeadwayCounts
	)
	for _, key := range keys {
		group := groups[key]
		sort.Slice(group, func(i, j int) bool {
			return group[i].Record.Time.Before(group[j].Record.Time)
		})

		for i := 1; i < len(group); i++ {
			prev, cur := group[i-1], group[i]
			gapMin := cur.Record.Time.Sub(prev.Record.Time).Minutes()
			counts.Computed++

			switch c.Classify(key.bucket, gapMin) {
			case DropBelowFloor:
				counts.DroppedBelowFloor++
				continue
			case DropAboveCap:
				counts.DroppedAboveCap++
				continue
			}

			dayType := DayType(cur.Record.Time)
			observations = append(observations, Observation{
				Date:        key.date,
				Direction:   key.direction,
				Bucket:      key.bucket,
				BucketLabel: c.BucketLabel(key.bucket, dayType),
				DayType:     dayType,
				Period:      c.Period(key.date),
				Hour:        cur.Record.Time.Hour(),
				InWindow:    c.InChangeWindow(cur.Record.Time),
				HeadwayMin:  gapMin,
			})
		}
	}
	return observations, counts
}
