package tzclock

import (
	"fmt"
	"time"

	"github.com/j-veylop/usage-analytics-tui/internal/models"
)

// BucketBounds returns the [start, end) bounds of the bucket containing
// instant, aligned to the calendar of tz. Weeks start on Monday.
func BucketBounds(instant models.ZonedInstant, g models.Granularity, tz string) (start, end models.ZonedInstant) {
	loc, _ := Location(tz)
	y, m, d := instant.Time().In(loc).Date()

	switch g {
	case models.GranularityWeek:
		offset := (int(instant.Time().In(loc).Weekday()) + 6) % 7
		return dateAt(y, m, d-offset, loc, tz), dateAt(y, m, d-offset+7, loc, tz)
	case models.GranularityMonth:
		return dateAt(y, m, 1, loc, tz), dateAt(y, m+1, 1, loc, tz)
	default:
		return dateAt(y, m, d, loc, tz), dateAt(y, m, d+1, loc, tz)
	}
}

// BucketKey returns the deterministic key of the bucket containing instant:
// 2024-03-04 for days, 2024-W10 for ISO weeks and 2024-03 for months.
func BucketKey(instant models.ZonedInstant, g models.Granularity, tz string) string {
	start, _ := BucketBounds(instant, g, tz)
	loc, _ := Location(tz)
	local := start.Time().In(loc)

	switch g {
	case models.GranularityWeek:
		year, week := local.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case models.GranularityMonth:
		return local.Format("2006-01")
	default:
		return local.Format(DateLayout)
	}
}

// Today returns the start of the current day in tz as seen from now.
func Today(now time.Time, tz string) models.ZonedInstant {
	return StartOfDay(now, tz)
}
