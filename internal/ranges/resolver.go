// Package ranges turns presets and explicit dates into zoned calendar ranges.
package ranges

import (
	"errors"
	"fmt"
	"time"

	"github.com/j-veylop/usage-analytics-tui/internal/models"
	"github.com/j-veylop/usage-analytics-tui/internal/tzclock"
)

var (
	// ErrUnknownPreset is returned for identifiers that are not relative presets.
	ErrUnknownPreset = errors.New("unknown preset")
	// ErrInvalidRange is returned for malformed or reversed explicit dates.
	ErrInvalidRange = errors.New("invalid range")
)

// Resolver computes ranges relative to "today" in a zone. The clock is
// injectable so that today can be pinned in tests.
type Resolver struct {
	now func() time.Time
}

// NewResolver returns a resolver using now as its clock; nil means time.Now.
func NewResolver(now func() time.Time) *Resolver {
	if now == nil {
		now = time.Now
	}
	return &Resolver{now: now}
}

// Now returns the resolver's current instant.
func (r *Resolver) Now() time.Time {
	return r.now()
}

// Today returns the first instant of the current day in tz.
func (r *Resolver) Today(tz string) models.ZonedInstant {
	return tzclock.Today(r.now(), tzclock.Normalize(tz))
}

// PresetRange returns the [start, end) bounds of preset in tz. End is the
// midnight following the last included day.
func (r *Resolver) PresetRange(preset models.PresetID, tz string) (start, end models.ZonedInstant, err error) {
	tz = tzclock.Normalize(tz)
	today := tzclock.Today(r.now(), tz)
	tomorrow := tzclock.AddDays(today, 1)
	year, month, _ := tzclock.CivilDate(today.Time(), tz)

	switch preset {
	case models.PresetToday:
		return today, tomorrow, nil
	case models.PresetYesterday:
		return tzclock.AddDays(today, -1), today, nil
	case models.Preset7Days:
		return tzclock.AddDays(tomorrow, -7), tomorrow, nil
	case models.Preset30Days:
		return tzclock.AddDays(tomorrow, -30), tomorrow, nil
	case models.Preset90Days:
		return tzclock.AddDays(tomorrow, -90), tomorrow, nil
	case models.PresetMTD:
		return tzclock.Date(year, month, 1, tz), tomorrow, nil
	case models.PresetYTD:
		return tzclock.Date(year, time.January, 1, tz), tomorrow, nil
	case models.PresetLastMonth:
		return tzclock.Date(year, month-1, 1, tz), tzclock.Date(year, month, 1, tz), nil
	default:
		return models.ZonedInstant{}, models.ZonedInstant{}, fmt.Errorf("%w: %q", ErrUnknownPreset, preset)
	}
}

// Resolve returns preset as a calendar range in tz.
func (r *Resolver) Resolve(preset models.PresetID, tz string) (models.CalendarRange, error) {
	tz = tzclock.Normalize(tz)
	start, end, err := r.PresetRange(preset, tz)
	if err != nil {
		return models.CalendarRange{}, err
	}
	return models.CalendarRange{Preset: preset, Start: start, End: end, TimeZone: tz}, nil
}

// Default returns the default preset resolved in tz.
func (r *Resolver) Default(tz string) models.CalendarRange {
	rng, _ := r.Resolve(models.DefaultPreset, tz)
	return rng
}

// Custom builds a range from explicit YYYY-MM-DD dates, endDate inclusive.
func Custom(startDate, endDate, tz string) (models.CalendarRange, error) {
	tz = tzclock.Normalize(tz)
	start, ok := tzclock.ParseDateInTimeZone(startDate, tz)
	if !ok {
		return models.CalendarRange{}, fmt.Errorf("%w: bad start date %q", ErrInvalidRange, startDate)
	}
	last, ok := tzclock.ParseDateInTimeZone(endDate, tz)
	if !ok {
		return models.CalendarRange{}, fmt.Errorf("%w: bad end date %q", ErrInvalidRange, endDate)
	}
	if last.Before(start) {
		return models.CalendarRange{}, fmt.Errorf("%w: end %s before start %s", ErrInvalidRange, endDate, startDate)
	}
	return models.CalendarRange{
		Preset:   models.PresetCustom,
		Start:    start,
		End:      tzclock.AddDays(last, 1),
		TimeZone: tz,
	}, nil
}

// LastDay returns the first instant of the last day included in rng.
func LastDay(rng models.CalendarRange) models.ZonedInstant {
	return LastDayIn(rng, rng.TimeZone)
}

// AlignRangeToTimeZone re-anchors rng from zone from to zone to while keeping
// the user's intent: presets are re-derived against today in to, custom
// ranges keep their literal calendar dates.
func (r *Resolver) AlignRangeToTimeZone(rng models.CalendarRange, from, to string) models.CalendarRange {
	from = tzclock.Normalize(from)
	to = tzclock.Normalize(to)
	if from == to && rng.TimeZone == to {
		return rng
	}

	if rng.Preset.IsPreset() {
		if aligned, err := r.Resolve(rng.Preset, to); err == nil {
			return aligned
		}
	}

	startDate := tzclock.FormatDateInTimeZone(rng.Start, tzclock.PatternISODate, from)
	endDate := tzclock.FormatDateInTimeZone(LastDayIn(rng, from), tzclock.PatternISODate, from)
	aligned, err := Custom(startDate, endDate, to)
	if err != nil {
		return rng
	}
	return aligned
}

// LastDayIn returns the first instant, in tz, of the last day included in rng.
func LastDayIn(rng models.CalendarRange, tz string) models.ZonedInstant {
	if !rng.End.After(rng.Start) {
		return rng.Start
	}
	return tzclock.AddDays(tzclock.StartOfDay(rng.End.Time(), tz), -1)
}

// RangeLengthDays returns the number of calendar days covered by [start, end)
// in tz. A trailing partial day counts as included.
func RangeLengthDays(start, end models.ZonedInstant, tz string) int {
	tz = tzclock.Normalize(tz)
	days := tzclock.DaysBetween(start.Time(), end.Time(), tz)
	if !tzclock.StartOfDay(end.Time(), tz).Time().Equal(end.Time()) {
		days++
	}
	return max(days, 0)
}
