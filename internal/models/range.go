// Package models defines data structures and domain types.
package models

import "time"

// Granularity is the calendar unit a bucket spans.
type Granularity string

const (
	// GranularityDay buckets span one calendar day.
	GranularityDay Granularity = "day"
	// GranularityWeek buckets span one ISO week starting Monday.
	GranularityWeek Granularity = "week"
	// GranularityMonth buckets span one calendar month.
	GranularityMonth Granularity = "month"
)

// String returns the display name for a granularity.
func (g Granularity) String() string {
	switch g {
	case GranularityDay:
		return "Daily"
	case GranularityWeek:
		return "Weekly"
	case GranularityMonth:
		return "Monthly"
	default:
		return "Unknown"
	}
}

// PresetID identifies a relative date range or the custom marker.
type PresetID string

const (
	PresetToday     PresetID = "today"
	PresetYesterday PresetID = "yesterday"
	Preset7Days     PresetID = "7d"
	Preset30Days    PresetID = "30d"
	Preset90Days    PresetID = "90d"
	PresetMTD       PresetID = "mtd"
	PresetYTD       PresetID = "ytd"
	PresetLastMonth PresetID = "last_month"
	// PresetCustom marks a range built from explicit calendar dates.
	PresetCustom PresetID = "custom"
)

// DefaultPreset is used when no selection is carried anywhere.
const DefaultPreset = Preset7Days

// presetCycle is the order presets are stepped through in the UI.
var presetCycle = []PresetID{
	PresetToday,
	PresetYesterday,
	Preset7Days,
	Preset30Days,
	Preset90Days,
	PresetMTD,
	PresetLastMonth,
	PresetYTD,
}

// Presets returns the relative presets in display order.
func Presets() []PresetID {
	out := make([]PresetID, len(presetCycle))
	copy(out, presetCycle)
	return out
}

// IsPreset reports whether p names a relative preset (custom excluded).
func (p PresetID) IsPreset() bool {
	for _, id := range presetCycle {
		if id == p {
			return true
		}
	}
	return false
}

// IsValid reports whether p is a preset or the custom marker.
func (p PresetID) IsValid() bool {
	return p == PresetCustom || p.IsPreset()
}

// String returns the display name for a preset.
func (p PresetID) String() string {
	switch p {
	case PresetToday:
		return "Today"
	case PresetYesterday:
		return "Yesterday"
	case Preset7Days:
		return "Last 7 days"
	case Preset30Days:
		return "Last 30 days"
	case Preset90Days:
		return "Last 90 days"
	case PresetMTD:
		return "Month to date"
	case PresetYTD:
		return "Year to date"
	case PresetLastMonth:
		return "Last month"
	case PresetCustom:
		return "Custom"
	default:
		return "Unknown"
	}
}

// Next cycles to the next relative preset. Custom wraps to the first one.
func (p PresetID) Next() PresetID {
	for i, id := range presetCycle {
		if id == p {
			return presetCycle[(i+1)%len(presetCycle)]
		}
	}
	return presetCycle[0]
}

// Prev cycles to the previous relative preset.
func (p PresetID) Prev() PresetID {
	for i, id := range presetCycle {
		if id == p {
			return presetCycle[(i-1+len(presetCycle))%len(presetCycle)]
		}
	}
	return presetCycle[len(presetCycle)-1]
}

// ZonedInstant is an absolute instant paired with the IANA zone it is
// interpreted in. Values are immutable and millisecond precise.
type ZonedInstant struct {
	t  time.Time
	tz string
}

// NewZonedInstant pairs t with tz, truncating t to milliseconds.
func NewZonedInstant(t time.Time, tz string) ZonedInstant {
	return ZonedInstant{t: t.Truncate(time.Millisecond), tz: tz}
}

// Time returns the instant in the location it was built with.
func (z ZonedInstant) Time() time.Time { return z.t }

// TimeZone returns the IANA identifier the instant is interpreted in.
func (z ZonedInstant) TimeZone() string { return z.tz }

// UnixMilli returns epoch milliseconds.
func (z ZonedInstant) UnixMilli() int64 { return z.t.UnixMilli() }

// IsZero reports whether the instant was never set.
func (z ZonedInstant) IsZero() bool { return z.t.IsZero() }

// Before reports whether z is strictly before o.
func (z ZonedInstant) Before(o ZonedInstant) bool { return z.t.Before(o.t) }

// After reports whether z is strictly after o.
func (z ZonedInstant) After(o ZonedInstant) bool { return z.t.After(o.t) }

// Equal reports whether both values denote the same absolute instant.
func (z ZonedInstant) Equal(o ZonedInstant) bool { return z.t.Equal(o.t) }

// CalendarRange is a half-open interval [Start, End) whose endpoints are
// zone-local midnights in TimeZone.
type CalendarRange struct {
	Preset   PresetID
	Start    ZonedInstant
	End      ZonedInstant
	TimeZone string
}

// Valid reports whether the range is ordered and both ends share its zone.
func (r CalendarRange) Valid() bool {
	if r.Start.IsZero() || r.End.IsZero() {
		return false
	}
	if r.Start.After(r.End) {
		return false
	}
	return r.Start.TimeZone() == r.TimeZone && r.End.TimeZone() == r.TimeZone
}

// IsCustom reports whether the range was built from explicit dates.
func (r CalendarRange) IsCustom() bool {
	return r.Preset == PresetCustom
}

// Bucket is one calendar-aligned slice of a range with its accumulated metrics.
type Bucket struct {
	Key         string
	Start       ZonedInstant
	End         ZonedInstant
	Granularity Granularity
	Metrics     MetricAccumulator
}

// Clone returns a copy with its own metrics map.
func (b Bucket) Clone() Bucket {
	b.Metrics = b.Metrics.Clone()
	return b
}
