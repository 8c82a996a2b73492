package db

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/j-veylop/usage-analytics-tui/internal/models"
)

func TestKV(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	if _, found, err := db.GetValue(ctx, "missing"); err != nil || found {
		t.Fatalf("GetValue(missing) = found %v, err %v", found, err)
	}

	if err := db.SetValue(ctx, "usage_analytics.selection", []byte(`{"range":"7d"}`)); err != nil {
		t.Fatalf("SetValue() failed: %v", err)
	}
	if err := db.SetValue(ctx, "usage_analytics.selection", []byte(`{"range":"30d"}`)); err != nil {
		t.Fatalf("SetValue() overwrite failed: %v", err)
	}

	value, found, err := db.GetValue(ctx, "usage_analytics.selection")
	if err != nil {
		t.Fatalf("GetValue() failed: %v", err)
	}
	if !found || string(value) != `{"range":"30d"}` {
		t.Errorf("GetValue() = %q, %v", value, found)
	}
}

func record(date string, smsIn int64, minutes string) models.RawDailyRecord {
	return models.RawDailyRecord{
		Date:                date,
		SMSIn:               decimal.NewFromInt(smsIn),
		SMSOut:              decimal.NewFromInt(1),
		ChatbotInteractions: decimal.NewFromInt(2),
		CallCount:           decimal.NewFromInt(3),
		CallMinutes:         decimal.RequireFromString(minutes),
	}
}

func TestUpsertDailyRecords(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	err := db.UpsertDailyRecords(ctx, []models.RawDailyRecord{
		record("2024-03-05", 4, "1.25"),
		record("2024-03-04", 2, "0.5"),
		record("2024-03-10", 9, "12"),
	})
	if err != nil {
		t.Fatalf("UpsertDailyRecords() failed: %v", err)
	}

	// Replaces the existing row for the same date
	if err := db.UpsertDailyRecords(ctx, []models.RawDailyRecord{record("2024-03-05", 7, "2.75")}); err != nil {
		t.Fatalf("UpsertDailyRecords() replace failed: %v", err)
	}

	n, err := db.CountDailyRecords(ctx)
	if err != nil {
		t.Fatalf("CountDailyRecords() failed: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 rows, got %d", n)
	}

	records, err := db.DailyRecords(ctx, "2024-03-04", "2024-03-05")
	if err != nil {
		t.Fatalf("DailyRecords() failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records in range, got %d", len(records))
	}
	if records[0].Date != "2024-03-04" {
		t.Errorf("expected ascending order, got %s first", records[0].Date)
	}
	if !records[1].SMSIn.Equal(decimal.NewFromInt(7)) {
		t.Errorf("expected replaced sms_in 7, got %s", records[1].SMSIn)
	}
	if !records[1].CallMinutes.Equal(decimal.RequireFromString("2.75")) {
		t.Errorf("expected call_minutes 2.75, got %s", records[1].CallMinutes)
	}
}

func TestUsageAnalytics(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	empty, err := db.UsageAnalytics(ctx, "2024-03-01", "2024-03-31", "UTC")
	if err != nil {
		t.Fatalf("UsageAnalytics() failed: %v", err)
	}
	if empty.OnboardedDate != nil || empty.HasData() {
		t.Errorf("expected empty result, got %+v", empty)
	}

	if err := db.UpsertDailyRecords(ctx, []models.RawDailyRecord{
		record("2023-11-20", 1, "0"),
		record("2024-03-04", 2, "0"),
	}); err != nil {
		t.Fatalf("UpsertDailyRecords() failed: %v", err)
	}

	got, err := db.UsageAnalytics(ctx, "2024-03-01", "2024-03-31", "America/Chicago")
	if err != nil {
		t.Fatalf("UsageAnalytics() failed: %v", err)
	}
	if got.TimeZone != "America/Chicago" {
		t.Errorf("expected timezone America/Chicago, got %s", got.TimeZone)
	}
	if got.OnboardedDate == nil || *got.OnboardedDate != "2023-11-20" {
		t.Errorf("unexpected onboarded date %v", got.OnboardedDate)
	}
	if len(got.Series) != 1 || got.Series[0].Date != "2024-03-04" {
		t.Errorf("unexpected series %+v", got.Series)
	}
}

func TestImportJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{
			name:  "ResponseObject",
			input: `{"timezone":"UTC","series":[{"date":"2024-03-04","sms_in":1},{"date":"2024-03-05","sms_in":"2"}]}`,
			want:  2,
		},
		{
			name:  "BareArray",
			input: `[{"date":"2024-03-04 00:00:00","call_minutes":1.5}]`,
			want:  1,
		},
		{
			name:    "BadDate",
			input:   `[{"date":"2024-02-30"}]`,
			wantErr: true,
		},
		{
			name:    "Truncated",
			input:   `[{"date":`,
			wantErr: true,
		},
		{
			name:    "Empty",
			input:   "  ",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newTestDB(t)
			defer db.Close()

			n, err := db.ImportJSON(context.Background(), strings.NewReader(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ImportJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if n != tt.want {
				t.Errorf("ImportJSON() = %d, want %d", n, tt.want)
			}

			count, err := db.CountDailyRecords(context.Background())
			if err != nil {
				t.Fatalf("CountDailyRecords() failed: %v", err)
			}
			if count != tt.want {
				t.Errorf("expected %d stored rows, got %d", tt.want, count)
			}
		})
	}
}
