package db

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/j-veylop/usage-analytics-tui/internal/models"
	"github.com/j-veylop/usage-analytics-tui/internal/tzclock"
)

// ImportJSON loads daily usage from r. It accepts either an analytics
// response object with a "series" array or a bare array of records.
// Nothing is stored if any record is malformed.
func (db *DB) ImportJSON(ctx context.Context, r io.Reader) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("failed to read import: %w", err)
	}

	records, err := parseImport(data)
	if err != nil {
		return 0, err
	}

	for i := range records {
		date := records[i].Date
		if len(date) > len(tzclock.DateLayout) {
			date = date[:len(tzclock.DateLayout)]
		}
		if _, ok := tzclock.ParseDateInTimeZone(date, tzclock.FallbackTimeZone); !ok {
			return 0, fmt.Errorf("record %d: invalid date %q", i, records[i].Date)
		}
		records[i].Date = date
	}

	if err := db.UpsertDailyRecords(ctx, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

func parseImport(data []byte) ([]models.RawDailyRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("failed to parse import: empty input")
	}

	if trimmed[0] == '[' {
		var records []models.RawDailyRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("failed to parse import: %w", err)
		}
		return records, nil
	}

	var analytics models.UsageAnalytics
	if err := json.Unmarshal(trimmed, &analytics); err != nil {
		return nil, fmt.Errorf("failed to parse import: %w", err)
	}
	return analytics.Series, nil
}
