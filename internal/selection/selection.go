// Package selection converts range selections to and from their persisted
// forms: link query parameters and a stored JSON blob.
package selection

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/go-playground/validator/v10"

	"github.com/j-veylop/usage-analytics-tui/internal/models"
	"github.com/j-veylop/usage-analytics-tui/internal/ranges"
	"github.com/j-veylop/usage-analytics-tui/internal/tzclock"
)

// StorageKey is the key under which the selection blob is stored.
const StorageKey = "usage_analytics.selection"

// Query parameter names.
const (
	ParamRange     = "range"
	ParamStartDate = "start_date"
	ParamEndDate   = "end_date"
	ParamTimeZone  = "timezone"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Serialize converts rng into its persisted form. EndDate is the last
// included day, one calendar day before the exclusive end.
func Serialize(rng models.CalendarRange, tz string) models.PersistedSelection {
	tz = tzclock.Normalize(tz)
	return models.PersistedSelection{
		Range:     string(rng.Preset),
		StartDate: tzclock.FormatDateInTimeZone(rng.Start, tzclock.PatternISODate, tz),
		EndDate:   tzclock.FormatDateInTimeZone(ranges.LastDayIn(rng, tz), tzclock.PatternISODate, tz),
		TimeZone:  tz,
	}
}

// Deserialize rebuilds a range from p in tz. Presets are re-resolved against
// today; custom selections keep their literal dates. It reports false for
// absent or malformed input and never returns an error.
func Deserialize(p models.PersistedSelection, tz string, resolver *ranges.Resolver) (models.CalendarRange, bool) {
	if p.IsEmpty() || Validate(p) != nil {
		return models.CalendarRange{}, false
	}

	preset := models.PresetID(p.Range)
	switch {
	case preset.IsPreset():
		rng, err := resolver.Resolve(preset, tz)
		if err != nil {
			return models.CalendarRange{}, false
		}
		return rng, true
	case preset == models.PresetCustom:
		rng, err := ranges.Custom(p.StartDate, p.EndDate, tz)
		if err != nil {
			return models.CalendarRange{}, false
		}
		return rng, true
	default:
		return models.CalendarRange{}, false
	}
}

// Validate checks p's shape without resolving it.
func Validate(p models.PersistedSelection) error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid selection: %w", err)
	}
	return nil
}

// FromQuery reads a selection out of link query parameters.
func FromQuery(q url.Values) models.PersistedSelection {
	return models.PersistedSelection{
		Range:     q.Get(ParamRange),
		StartDate: q.Get(ParamStartDate),
		EndDate:   q.Get(ParamEndDate),
		TimeZone:  q.Get(ParamTimeZone),
	}
}

// ToQuery writes p as link query parameters, skipping empty fields.
func ToQuery(p models.PersistedSelection) url.Values {
	q := url.Values{}
	for key, value := range map[string]string{
		ParamRange:     p.Range,
		ParamStartDate: p.StartDate,
		ParamEndDate:   p.EndDate,
		ParamTimeZone:  p.TimeZone,
	} {
		if value != "" {
			q.Set(key, value)
		}
	}
	return q
}

// DecodeBlob parses a stored selection; it reports false on malformed JSON.
func DecodeBlob(data []byte) (models.PersistedSelection, bool) {
	var p models.PersistedSelection
	if len(data) == 0 {
		return p, false
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return models.PersistedSelection{}, false
	}
	return p, true
}

// EncodeBlob serializes p for storage.
func EncodeBlob(p models.PersistedSelection) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal selection: %w", err)
	}
	return data, nil
}
