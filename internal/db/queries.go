package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/j-veylop/usage-analytics-tui/internal/logger"
	"github.com/j-veylop/usage-analytics-tui/internal/models"
)

// GetValue returns the value stored under key.
func (db *DB) GetValue(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get value %s: %w", key, err)
	}
	return value, true, nil
}

// SetValue stores value under key, replacing any previous value.
func (db *DB) SetValue(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`
	if _, err := db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to set value %s: %w", key, err)
	}
	return nil
}

// UpsertDailyRecords stores records, replacing existing rows for the same date.
func (db *DB) UpsertDailyRecords(ctx context.Context, records []models.RawDailyRecord) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO daily_usage (`+dailyUsageColumns+`, imported_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(date) DO UPDATE SET
			sms_in = excluded.sms_in,
			sms_out = excluded.sms_out,
			chatbot_interactions = excluded.chatbot_interactions,
			call_count = excluded.call_count,
			call_minutes = excluded.call_minutes,
			imported_at = excluded.imported_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare daily usage insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			rec.Date,
			rec.SMSIn,
			rec.SMSOut,
			rec.ChatbotInteractions,
			rec.CallCount,
			rec.CallMinutes,
		); err != nil {
			return fmt.Errorf("failed to upsert daily usage %s: %w", rec.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit daily usage: %w", err)
	}
	return nil
}

// DailyRecords returns stored records between startDate and endDate
// inclusive, ordered by date.
func (db *DB) DailyRecords(ctx context.Context, startDate, endDate string) ([]models.RawDailyRecord, error) {
	query := `SELECT ` + dailyUsageColumns + ` FROM daily_usage WHERE ` + sqlDateRangeClause + ` ORDER BY date`

	rows, err := db.QueryContext(ctx, query, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily usage: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows", "error", err)
		}
	}()

	records := []models.RawDailyRecord{}
	for rows.Next() {
		var rec models.RawDailyRecord
		if err := rows.Scan(
			&rec.Date,
			&rec.SMSIn,
			&rec.SMSOut,
			&rec.ChatbotInteractions,
			&rec.CallCount,
			&rec.CallMinutes,
		); err != nil {
			return nil, fmt.Errorf("failed to scan daily usage: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// EarliestDate returns the first stored date.
func (db *DB) EarliestDate(ctx context.Context) (string, bool, error) {
	var date sql.NullString
	if err := db.QueryRowContext(ctx, "SELECT MIN(date) FROM daily_usage").Scan(&date); err != nil {
		return "", false, fmt.Errorf("failed to get earliest date: %w", err)
	}
	return date.String, date.Valid, nil
}

// CountDailyRecords returns the number of stored days.
func (db *DB) CountDailyRecords(ctx context.Context) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM daily_usage").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count daily usage: %w", err)
	}
	return n, nil
}

// UsageAnalytics answers an analytics request from stored records, reporting
// tz as the tenant timezone.
func (db *DB) UsageAnalytics(ctx context.Context, startDate, endDate, tz string) (*models.UsageAnalytics, error) {
	records, err := db.DailyRecords(ctx, startDate, endDate)
	if err != nil {
		return nil, err
	}

	result := &models.UsageAnalytics{Series: records, TimeZone: tz}
	earliest, ok, err := db.EarliestDate(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		result.OnboardedDate = &earliest
	}
	return result, nil
}
