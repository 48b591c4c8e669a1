package analysis

import "time"

// ArrivalRecord is one observed train arrival event at a platform. Records
// from the same physical train visit may appear more than once; the outlier
// floor removes the resulting zero-length gaps downstream.
type ArrivalRecord struct {
	// StopID identifies the platform, station code plus a trailing
	// direction letter, e.g. "B06N".
	StopID string

	// RouteID is the line identifier, e.g. "F".
	RouteID string

	// Time is the absolute arrival time.
	Time time.Time
}

// ResolvedArrival is an ArrivalRecord that passed the filter and direction
// resolution, tagged with its headway group key fields. Record.Time has been
// normalized to the analysis timezone.
type ResolvedArrival struct {
	Record    ArrivalRecord
	Direction Direction
	Bucket    TimeBucket
	Date      string
}
