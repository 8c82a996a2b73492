// Package buckets partitions calendar ranges into aligned buckets and folds
// daily usage records into them.
package buckets

import (
	"github.com/j-veylop/usage-analytics-tui/internal/logger"
	"github.com/j-veylop/usage-analytics-tui/internal/models"
	"github.com/j-veylop/usage-analytics-tui/internal/ranges"
	"github.com/j-veylop/usage-analytics-tui/internal/tzclock"
)

// Build partitions [start, end) into contiguous buckets of granularity g in
// tz. The first bucket starts at the aligned boundary on or before start and
// the last bucket is kept whole even when it extends past end. Only a
// degenerate range (start >= end) yields no buckets.
func Build(start, end models.ZonedInstant, g models.Granularity, tz string) []models.Bucket {
	tz = tzclock.Normalize(tz)
	out := []models.Bucket{}
	if !start.Before(end) {
		return out
	}

	cursor, _ := tzclock.BucketBounds(start, g, tz)
	for cursor.Before(end) {
		bStart, bEnd := tzclock.BucketBounds(cursor, g, tz)
		if !bEnd.After(bStart) || !bEnd.After(cursor) {
			logger.Warn("bucket boundaries stopped advancing", "timezone", tz, "at", cursor.Time())
			break
		}
		out = append(out, models.Bucket{
			Key:         tzclock.BucketKey(bStart, g, tz),
			Start:       bStart,
			End:         bEnd,
			Granularity: g,
			Metrics:     models.NewMetricAccumulator(),
		})
		cursor = bEnd
	}
	return out
}

// BuildForRange builds buckets for rng at the granularity its length calls for.
func BuildForRange(rng models.CalendarRange) []models.Bucket {
	return Build(rng.Start, rng.End, ranges.GranularityFor(rng), rng.TimeZone)
}
