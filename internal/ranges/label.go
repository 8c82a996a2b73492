package ranges

import (
	"github.com/j-veylop/usage-analytics-tui/internal/models"
	"github.com/j-veylop/usage-analytics-tui/internal/tzclock"
)

// FormatRangeLabel renders the included days of rng, for example
// "Mar 4 - Mar 10, 2024" or "Dec 28, 2023 - Jan 3, 2024".
func FormatRangeLabel(rng models.CalendarRange) string {
	tz := rng.TimeZone
	last := LastDay(rng)

	startYear, _, _ := tzclock.CivilDate(rng.Start.Time(), tz)
	lastYear, _, _ := tzclock.CivilDate(last.Time(), tz)

	lastLabel := tzclock.FormatDateInTimeZone(last, tzclock.PatternMonthDayYear, tz)
	if tzclock.DaysBetween(rng.Start.Time(), last.Time(), tz) <= 0 {
		return lastLabel
	}

	startPattern := tzclock.PatternMonthDay
	if startYear != lastYear {
		startPattern = tzclock.PatternMonthDayYear
	}
	return tzclock.FormatDateInTimeZone(rng.Start, startPattern, tz) + " - " + lastLabel
}

// FormatBucketLabel renders a short axis label for a bucket start.
func FormatBucketLabel(b models.Bucket) string {
	tz := b.Start.TimeZone()
	if b.Granularity == models.GranularityMonth {
		return tzclock.FormatDateInTimeZone(b.Start, tzclock.PatternMonthYear, tz)
	}
	return tzclock.FormatDateInTimeZone(b.Start, tzclock.PatternMonthDay, tz)
}
