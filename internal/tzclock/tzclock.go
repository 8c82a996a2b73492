// Package tzclock performs all calendar arithmetic in an explicit IANA zone.
//
// Nothing in this package reads the process-local zone except ResolveTimeZone,
// which falls back to the detected system zone when no explicit zone is usable.
package tzclock

import (
	"os"
	"strings"
	"time"

	"github.com/maypok86/otter/v2"

	"github.com/j-veylop/usage-analytics-tui/internal/logger"
	"github.com/j-veylop/usage-analytics-tui/internal/models"
)

// FallbackTimeZone is used when neither an explicit nor a detected zone loads.
const FallbackTimeZone = "UTC"

// DateLayout is the wire form of a calendar date.
const DateLayout = "2006-01-02"

// detectTimeZone returns the zone of the host, or "" when it has no IANA name.
var detectTimeZone = detectSystemTimeZone

type locationEntry struct {
	loc *time.Location
	ok  bool
}

var locations = otter.Must(&otter.Options[string, locationEntry]{
	MaximumSize: 512,
})

func detectSystemTimeZone() string {
	if tz := strings.TrimPrefix(strings.TrimSpace(os.Getenv("TZ")), ":"); tz != "" {
		return tz
	}
	if name := time.Local.String(); name != "" && name != "Local" {
		return name
	}
	return ""
}

// ResolveTimeZone returns explicit when it names a loadable zone, otherwise
// the detected system zone, otherwise FallbackTimeZone. It never fails.
func ResolveTimeZone(explicit string) string {
	if IsValidTimeZone(explicit) {
		return explicit
	}
	if detected := detectTimeZone(); IsValidTimeZone(detected) {
		return detected
	}
	return FallbackTimeZone
}

// IsValidTimeZone reports whether tz names a loadable IANA zone.
func IsValidTimeZone(tz string) bool {
	_, ok := Location(tz)
	return ok
}

// Normalize returns tz when it loads and FallbackTimeZone otherwise. Unlike
// ResolveTimeZone it never consults the host.
func Normalize(tz string) string {
	if IsValidTimeZone(tz) {
		return tz
	}
	return FallbackTimeZone
}

// Location returns the cached location for tz. Unknown identifiers fail closed
// to the fallback location and report false; the first miss is logged.
func Location(tz string) (*time.Location, bool) {
	tz = strings.TrimSpace(tz)
	if entry, found := locations.GetIfPresent(tz); found {
		return entry.loc, entry.ok
	}

	entry := locationEntry{loc: time.UTC}
	if tz != "" && tz != "Local" {
		if loc, err := time.LoadLocation(tz); err == nil {
			entry = locationEntry{loc: loc, ok: true}
		} else {
			logger.Warn("unknown time zone, using fallback", "timezone", tz, "fallback", FallbackTimeZone)
		}
	}
	locations.Set(tz, entry)
	return entry.loc, entry.ok
}

// StartOfDay returns the first instant of the calendar day containing t in tz.
func StartOfDay(t time.Time, tz string) models.ZonedInstant {
	loc, _ := Location(tz)
	local := t.In(loc)
	return dateAt(local.Year(), local.Month(), local.Day(), loc, tz)
}

// AddDays moves a zone-local midnight by n calendar days. The result is the
// start of the target day even across DST transitions.
func AddDays(z models.ZonedInstant, n int) models.ZonedInstant {
	loc, _ := Location(z.TimeZone())
	local := z.Time().In(loc)
	return dateAt(local.Year(), local.Month(), local.Day()+n, loc, z.TimeZone())
}

// Date returns the first instant of the given calendar date in tz. Out of
// range values normalize the way time.Date does.
func Date(year int, month time.Month, day int, tz string) models.ZonedInstant {
	loc, _ := Location(tz)
	return dateAt(year, month, day, loc, tz)
}

// CivilDate returns the calendar date of t in tz.
func CivilDate(t time.Time, tz string) (year int, month time.Month, day int) {
	loc, _ := Location(tz)
	return t.In(loc).Date()
}

// DaysBetween counts calendar days from the date of a to the date of b in tz.
func DaysBetween(a, b time.Time, tz string) int {
	ay, am, ad := CivilDate(a, tz)
	by, bm, bd := CivilDate(b, tz)
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(civilDay(to) - civilDay(from))
}

// ParseDateInTimeZone parses a strict YYYY-MM-DD date as the first instant of
// that day in tz. It reports false on malformed input.
func ParseDateInTimeZone(date, tz string) (models.ZonedInstant, bool) {
	date = strings.TrimSpace(date)
	if len(date) != len(DateLayout) {
		return models.ZonedInstant{}, false
	}
	parsed, err := time.Parse(DateLayout, date)
	if err != nil {
		return models.ZonedInstant{}, false
	}
	loc, _ := Location(tz)
	return dateAt(parsed.Year(), parsed.Month(), parsed.Day(), loc, tz), true
}

// IsMidnight reports whether z is the first instant of its day in its zone.
func IsMidnight(z models.ZonedInstant) bool {
	return StartOfDay(z.Time(), z.TimeZone()).Equal(z)
}

// dateAt returns the first instant of the given date in loc. Where a DST
// transition skips midnight, time.Date lands in the previous day; the day
// then starts at the transition itself.
func dateAt(year int, month time.Month, day int, loc *time.Location, tz string) models.ZonedInstant {
	t := time.Date(year, month, day, 0, 0, 0, 0, loc)
	want := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if civilDay(t) < civilDay(want) {
		if _, end := t.ZoneBounds(); !end.IsZero() && civilDay(end) == civilDay(want) {
			t = end
		} else {
			for civilDay(t) < civilDay(want) {
				t = t.Add(time.Minute)
			}
		}
	}
	return models.NewZonedInstant(t, tz)
}

// civilDay numbers the calendar date of t in its own location, counting
// days since 1970-01-01.
func civilDay(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}
