package analysis

// Verdict is the outlier policy's classification of a single headway.
type Verdict int

const (
	// Keep retains the headway unmodified.
	Keep Verdict = iota
	// DropBelowFloor discards a sub-floor gap as a duplicate-record
	// artifact: the record pair represents one physical train, not two.
	DropBelowFloor
	// DropAboveCap discards a gap above the bucket's cap as a service
	// disruption rather than routine variation.
	DropAboveCap
)

// Classify applies the outlier policy to one headway given the bucket it
// belongs to. It is a pure per-value function with fixed absolute
// thresholds; it is never applied in aggregate. Dropped values are removed
// from the sample entirely, never replaced or clamped.
func (c Config) Classify(bucket TimeBucket, headwayMin float64) Verdict {
	if headwayMin < c.OutlierFloorMin {
		return DropBelowFloor
	}
	if headwayMin > c.BucketCap(bucket) {
		return DropAboveCap
	}
	return Keep
}
