// Package analysis implements the headway computation pipeline for a single
// subway station: filtering raw arrival records, deriving travel direction,
// computing consecutive-arrival gaps per day/direction/time bucket, applying
// the outlier policy, and aggregating the surviving gaps into before/after
// summary statistics.
package analysis

import (
	"errors"
	"fmt"
	"time"
)

// Period labels attached to every observation and summary row.
const (
	PeriodBefore = "Before swap"
	PeriodAfter  = "After swap"
)

// Day type labels.
const (
	DayTypeWeekday = "Weekday"
	DayTypeWeekend = "Weekend"
)

// ErrConfigInconsistent is returned by Validate when the configuration would
// produce incorrect buckets or groupings. The pipeline refuses to run with an
// invalid configuration.
var ErrConfigInconsistent = errors.New("inconsistent analysis configuration")

// BucketDef defines one clock-time window. Buckets use the same boundaries on
// every calendar day; only the label differs between weekdays and weekends.
// CapMin is the largest headway (minutes) treated as a genuine observation in
// this bucket; anything above it is considered a disruption and dropped.
type BucketDef struct {
	StartHour    int
	EndHour      int
	WeekdayLabel string
	WeekendLabel string
	CapMin       float64
}

// DateRange is an inclusive range of calendar dates in YYYY-MM-DD form.
type DateRange struct {
	Start string
	End   string
}

// Config carries every constant the pipeline depends on. Components receive
// it explicitly so each one can be tested with synthetic inputs.
type Config struct {
	// StationCode is the stop id prefix shared by both platforms, e.g. "B06".
	StationCode string

	// Routes is the set of route ids serving the station.
	Routes []string

	// DirectionLetters maps the trailing stop id letter to a direction.
	DirectionLetters map[string]Direction

	// Buckets are the five clock-time windows, in ascending order, covering
	// the full day.
	Buckets []BucketDef

	// OutlierFloorMin is the minimum headway (minutes) treated as a genuine
	// observation. Gaps below it are duplicate-record artifacts.
	OutlierFloorMin float64

	// ExceedThresholdsMin are the wait-time thresholds (minutes) for which
	// exceedance rates are reported, in ascending order.
	ExceedThresholdsMin []float64

	// ChangeDate is the first service date of the new pattern (YYYY-MM-DD).
	ChangeDate string

	// ChangeWindowStartMin and ChangeWindowEndMin bound the daily window
	// (minutes after midnight) during which the service change is in effect,
	// weekdays only. Used for labeling, never for grouping.
	ChangeWindowStartMin int
	ChangeWindowEndMin   int

	// PreRange and PostRange are the two analysis windows being compared.
	PreRange  DateRange
	PostRange DateRange

	// StormDate is the first date of the winter-storm period (YYYY-MM-DD),
	// used for the storm sensitivity comparison.
	StormDate string

	// Timezone is the IANA zone all timestamps are interpreted in.
	Timezone string
}

// DefaultConfig returns the Roosevelt Island F/M swap study configuration.
func DefaultConfig() Config {
	return Config{
		StationCode: "B06",
		Routes:      []string{"F", "M"},
		DirectionLetters: map[string]Direction{
			"N": Northbound,
			"S": Southbound,
		},
		Buckets: []BucketDef{
			{StartHour: 0, EndHour: 6, WeekdayLabel: "1: Early AM (12-6 AM)", WeekendLabel: "1: Early AM (12-6 AM)", CapMin: 90},
			{StartHour: 6, EndHour: 9, WeekdayLabel: "2: Morning Rush (6-9 AM)", WeekendLabel: "2: Morning (6-9 AM)", CapMin: 60},
			{StartHour: 9, EndHour: 16, WeekdayLabel: "3: Midday (9 AM-4 PM)", WeekendLabel: "3: Midday (9 AM-4 PM)", CapMin: 60},
			{StartHour: 16, EndHour: 19, WeekdayLabel: "4: Evening Rush (4-7 PM)", WeekendLabel: "4: Afternoon/Evening (4-7 PM)", CapMin: 60},
			{StartHour: 19, EndHour: 24, WeekdayLabel: "5: Night (7 PM-midnight)", WeekendLabel: "5: Night (7 PM-midnight)", CapMin: 60},
		},
		OutlierFloorMin:      1,
		ExceedThresholdsMin:  []float64{5, 8, 10, 12, 15},
		ChangeDate:           "2025-12-08",
		ChangeWindowStartMin: 6 * 60,
		ChangeWindowEndMin:   21*60 + 30,
		PreRange:             DateRange{Start: "2025-10-01", End: "2025-12-07"},
		PostRange:            DateRange{Start: "2025-12-08", End: "2026-02-15"},
		StormDate:            "2026-01-25",
		Timezone:             "America/New_York",
	}
}

// Validate checks the configuration for inconsistencies that would silently
// corrupt the reported numbers. It must be called before any processing;
// every returned error wraps ErrConfigInconsistent.
func (c Config) Validate() error {
	if c.StationCode == "" {
		return fmt.Errorf("%w: station code is empty", ErrConfigInconsistent)
	}
	if len(c.Routes) == 0 {
		return fmt.Errorf("%w: route set is empty", ErrConfigInconsistent)
	}
	if len(c.DirectionLetters) == 0 {
		return fmt.Errorf("%w: direction letter map is empty", ErrConfigInconsistent)
	}

	if len(c.Buckets) == 0 {
		return fmt.Errorf("%w: no time buckets defined", ErrConfigInconsistent)
	}
	if c.Buckets[0].StartHour != 0 {
		return fmt.Errorf("%w: first bucket must start at hour 0, got %d", ErrConfigInconsistent, c.Buckets[0].StartHour)
	}
	if c.Buckets[len(c.Buckets)-1].EndHour != 24 {
		return fmt.Errorf("%w: last bucket must end at hour 24, got %d", ErrConfigInconsistent, c.Buckets[len(c.Buckets)-1].EndHour)
	}
	for i, b := range c.Buckets {
		if b.StartHour >= b.EndHour {
			return fmt.Errorf("%w: bucket %q has start hour %d >= end hour %d", ErrConfigInconsistent, b.WeekdayLabel, b.StartHour, b.EndHour)
		}
		if i > 0 && c.Buckets[i-1].EndHour != b.StartHour {
			return fmt.Errorf("%w: gap or overlap between buckets %q and %q", ErrConfigInconsistent, c.Buckets[i-1].WeekdayLabel, b.WeekdayLabel)
		}
		if b.CapMin <= c.OutlierFloorMin {
			return fmt.Errorf("%w: bucket %q cap %.1f must exceed outlier floor %.1f", ErrConfigInconsistent, b.WeekdayLabel, b.CapMin, c.OutlierFloorMin)
		}
	}

	if c.OutlierFloorMin <= 0 {
		return fmt.Errorf("%w: outlier floor must be positive, got %.1f", ErrConfigInconsistent, c.OutlierFloorMin)
	}
	if len(c.ExceedThresholdsMin) == 0 {
		return fmt.Errorf("%w: no exceedance thresholds defined", ErrConfigInconsistent)
	}
	for i := 1; i < len(c.ExceedThresholdsMin); i++ {
		if c.ExceedThresholdsMin[i] <= c.ExceedThresholdsMin[i-1] {
			return fmt.Errorf("%w: exceedance thresholds must be strictly ascending", ErrConfigInconsistent)
		}
	}

	for _, d := range []struct {
		name, value string
	}{
		{"change date", c.ChangeDate},
		{"pre range start", c.PreRange.Start},
		{"pre range end", c.PreRange.End},
		{"post range start", c.PostRange.Start},
		{"post range end", c.PostRange.End},
		{"storm date", c.StormDate},
	} {
		if _, err := time.Parse("2006-01-02", d.value); err != nil {
			return fmt.Errorf("%w: %s %q is not a valid YYYY-MM-DD date", ErrConfigInconsistent, d.name, d.value)
		}
	}
	if c.PreRange.Start > c.PreRange.End {
		return fmt.Errorf("%w: pre range start %s after end %s", ErrConfigInconsistent, c.PreRange.Start, c.PreRange.End)
	}
	if c.PostRange.Start > c.PostRange.End {
		return fmt.Errorf("%w: post range start %s after end %s", ErrConfigInconsistent, c.PostRange.Start, c.PostRange.End)
	}
	if c.PreRange.End >= c.ChangeDate {
		return fmt.Errorf("%w: pre range end %s must precede change date %s", ErrConfigInconsistent, c.PreRange.End, c.ChangeDate)
	}
	if c.PostRange.Start < c.ChangeDate {
		return fmt.Errorf("%w: post range start %s must not precede change date %s", ErrConfigInconsistent, c.PostRange.Start, c.ChangeDate)
	}

	if c.ChangeWindowStartMin < 0 || c.ChangeWindowEndMin > 24*60 || c.ChangeWindowStartMin >= c.ChangeWindowEndMin {
		return fmt.Errorf("%w: change window [%d, %d) is not a valid daily minute range", ErrConfigInconsistent, c.ChangeWindowStartMin, c.ChangeWindowEndMin)
	}

	if _, err := c.Location(); err != nil {
		return fmt.Errorf("%w: unknown timezone %q", ErrConfigInconsistent, c.Timezone)
	}

	return nil
}

// Location resolves the configured timezone.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}
