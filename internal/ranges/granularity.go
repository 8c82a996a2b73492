package ranges

import "github.com/j-veylop/usage-analytics-tui/internal/models"

const (
	// maxDailyDays is the longest range still bucketed per day.
	maxDailyDays = 31
	// maxWeeklyDays is the longest range still bucketed per week.
	maxWeeklyDays = 180
)

// RangeTypeByDays picks the bucket granularity for a range of days length.
// Every integer maps to exactly one granularity.
func RangeTypeByDays(days int) models.Granularity {
	switch {
	case days <= maxDailyDays:
		return models.GranularityDay
	case days <= maxWeeklyDays:
		return models.GranularityWeek
	default:
		return models.GranularityMonth
	}
}

// GranularityFor picks the granularity for rng in its own zone.
func GranularityFor(rng models.CalendarRange) models.Granularity {
	return RangeTypeByDays(RangeLengthDays(rng.Start, rng.End, rng.TimeZone))
}
