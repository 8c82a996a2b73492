package tzclock

import (
	"github.com/j-veylop/usage-analytics-tui/internal/models"
)

// Pattern is a display pattern understood by FormatDateInTimeZone.
type Pattern string

const (
	PatternISODate      Pattern = "yyyy-MM-dd"
	PatternMonthDay     Pattern = "MMM d"
	PatternMonthDayYear Pattern = "MMM d, yyyy"
	PatternMonthYear    Pattern = "MMM yyyy"
)

var patternLayouts = map[Pattern]string{
	PatternISODate:      DateLayout,
	PatternMonthDay:     "Jan 2",
	PatternMonthDayYear: "Jan 2, 2006",
	PatternMonthYear:    "Jan 2006",
}

// FormatDateInTimeZone renders instant in tz using pattern. Unknown patterns
// render as yyyy-MM-dd. Month names are English regardless of host locale.
func FormatDateInTimeZone(instant models.ZonedInstant, pattern Pattern, tz string) string {
	layout, ok := patternLayouts[pattern]
	if !ok {
		layout = DateLayout
	}
	loc, _ := Location(tz)
	return instant.Time().In(loc).Format(layout)
}
