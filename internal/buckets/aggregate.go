package buckets

import (
	"github.com/j-veylop/usage-analytics-tui/internal/logger"
	"github.com/j-veylop/usage-analytics-tui/internal/models"
	"github.com/j-veylop/usage-analytics-tui/internal/tzclock"
)

// Stats counts what happened to each record during a fold.
type Stats struct {
	Applied   int
	Dropped   int
	Malformed int
}

// Aggregate folds records into a copy of set. Each record's date is parsed in
// tz and added to the bucket owning it; records outside every bucket are
// dropped and counted. The input set is never modified.
func Aggregate(set []models.Bucket, records []models.RawDailyRecord, tz string) ([]models.Bucket, Stats) {
	tz = tzclock.Normalize(tz)
	out := make([]models.Bucket, len(set))
	index := make(map[string]int, len(set))
	for i, b := range set {
		out[i] = b.Clone()
		index[b.Key] = i
	}

	var stats Stats
	if len(out) == 0 {
		stats.Dropped = len(records)
		return out, stats
	}
	g := out[0].Granularity

	for _, rec := range records {
		instant, ok := tzclock.ParseDateInTimeZone(rec.Date, tz)
		if !ok {
			stats.Malformed++
			continue
		}
		i, found := index[tzclock.BucketKey(instant, g, tz)]
		if !found {
			stats.Dropped++
			continue
		}
		out[i].Metrics.Add(rec)
		stats.Applied++
	}

	if stats.Dropped > 0 || stats.Malformed > 0 {
		logger.Debug("records outside bucket set",
			"dropped", stats.Dropped,
			"malformed", stats.Malformed,
			"applied", stats.Applied,
			"timezone", tz,
		)
	}
	return out, stats
}

// Totals sums every bucket's metrics.
func Totals(set []models.Bucket) models.MetricAccumulator {
	total := models.NewMetricAccumulator()
	for _, b := range set {
		total.Merge(b.Metrics)
	}
	return total
}

// Series extracts metric m from each bucket in order, for charting.
func Series(set []models.Bucket, m models.Metric) []float64 {
	out := make([]float64, len(set))
	for i, b := range set {
		out[i] = b.Metrics.Float(m)
	}
	return out
}
