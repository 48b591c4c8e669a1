package analysis

import "time"

// TimeBucket is an index into Config.Buckets.
type TimeBucket int

// BucketFor returns the bucket whose [start, end) clock-time range contains
// the time-of-day component of t, independent of date. The second return is
// false only when the configured buckets do not cover t's hour, which a
// validated configuration rules out.
func (c Config) BucketFor(t time.Time) (TimeBucket, bool) {
	hour := t.Hour()
	for i, b := range c.Buckets {
		if hour >= b.StartHour && hour < b.EndHour {
			return TimeBucket(i), true
		}
	}
	return 0, false
}

// BucketLabel returns the reporting label for a bucket. Weekdays and weekends
// share bucket boundaries but label some buckets differently, since the data
// shows no rush-hour pattern on weekends.
func (c Config) BucketLabel(b TimeBucket, dayType string) string {
	if b < 0 || int(b) >= len(c.Buckets) {
		return "Unknown"
	}
	if dayType == DayTypeWeekend {
		return c.Buckets[b].WeekendLabel
	}
	return c.Buckets[b].WeekdayLabel
}

// BucketCap returns the outlier cap (minutes) for a bucket.
func (c Config) BucketCap(b TimeBucket) float64 {
	if b < 0 || int(b) >= len(c.Buckets) {
		return 0
	}
	return c.Buckets[b].CapMin
}

// IsWeekday reports whether t falls on Monday through Friday. Calendar rule
// only; holidays are not special-cased.
func IsWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// DayType returns the weekday/weekend label for t.
func DayType(t time.Time) string {
	if IsWeekday(t) {
		return DayTypeWeekday
	}
	return DayTypeWeekend
}

// Period labels a calendar date (YYYY-MM-DD) as before or after the service
// change. Dates are zero-padded so string comparison matches date order.
func (c Config) Period(date string) string {
	if date >= c.ChangeDate {
		return PeriodAfter
	}
	return PeriodBefore
}

// InChangeWindow reports whether the service change is in effect at t:
// weekdays only, within the configured daily window. This flag is carried
// through to labeling; it never affects grouping or filtering.
func (c Config) InChangeWindow(t time.Time) bool {
	if !IsWeekday(t) {
		return false
	}
	minute := t.Hour()*60 + t.Minute()
	return minute >= c.ChangeWindowStartMin && minute < c.ChangeWindowEndMin
}

// InStormPeriod reports whether a calendar date falls on or after the storm
// date. Used only for the storm sensitivity comparison.
func (c Config) InStormPeriod(date string) bool {
	return date >= c.StormDate
}
