package db

// SQL query fragments used across multiple functions
const (
	// sqlDateRangeClause filters daily_usage by inclusive YYYY-MM-DD bounds
	sqlDateRangeClause = "date >= ? AND date <= ?"

	dailyUsageColumns = "date, sms_in, sms_out, chatbot_interactions, call_count, call_minutes"
)
