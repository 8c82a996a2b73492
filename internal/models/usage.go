package models

import (
	"github.com/shopspring/decimal"
)

// Metric names the five usage counters reported per day.
type Metric string

const (
	MetricSMSIn               Metric = "sms_in"
	MetricSMSOut              Metric = "sms_out"
	MetricChatbotInteractions Metric = "chatbot_interactions"
	MetricCallCount           Metric = "call_count"
	MetricCallMinutes         Metric = "call_minutes"
)

// Metrics returns every metric in display order.
func Metrics() []Metric {
	return []Metric{
		MetricSMSIn,
		MetricSMSOut,
		MetricChatbotInteractions,
		MetricCallCount,
		MetricCallMinutes,
	}
}

// Label returns the display name for a metric.
func (m Metric) Label() string {
	switch m {
	case MetricSMSIn:
		return "SMS In"
	case MetricSMSOut:
		return "SMS Out"
	case MetricChatbotInteractions:
		return "Chatbot"
	case MetricCallCount:
		return "Calls"
	case MetricCallMinutes:
		return "Call Minutes"
	default:
		return string(m)
	}
}

// MetricAccumulator holds per-metric totals for a bucket.
type MetricAccumulator map[Metric]decimal.Decimal

// NewMetricAccumulator returns an accumulator with every metric at zero.
func NewMetricAccumulator() MetricAccumulator {
	acc := make(MetricAccumulator, 5)
	for _, m := range Metrics() {
		acc[m] = decimal.Zero
	}
	return acc
}

// Add folds a daily record into the accumulator.
func (a MetricAccumulator) Add(rec RawDailyRecord) {
	a[MetricSMSIn] = a[MetricSMSIn].Add(rec.SMSIn)
	a[MetricSMSOut] = a[MetricSMSOut].Add(rec.SMSOut)
	a[MetricChatbotInteractions] = a[MetricChatbotInteractions].Add(rec.ChatbotInteractions)
	a[MetricCallCount] = a[MetricCallCount].Add(rec.CallCount)
	a[MetricCallMinutes] = a[MetricCallMinutes].Add(rec.CallMinutes)
}

// Merge adds every metric of o into a.
func (a MetricAccumulator) Merge(o MetricAccumulator) {
	for m, v := range o {
		a[m] = a[m].Add(v)
	}
}

// Get returns the value for m, zero when absent.
func (a MetricAccumulator) Get(m Metric) decimal.Decimal {
	if v, ok := a[m]; ok {
		return v
	}
	return decimal.Zero
}

// Float returns the value for m as a float64 for charting.
func (a MetricAccumulator) Float(m Metric) float64 {
	return a.Get(m).InexactFloat64()
}

// IsZero reports whether every metric is zero.
func (a MetricAccumulator) IsZero() bool {
	for _, v := range a {
		if !v.IsZero() {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (a MetricAccumulator) Clone() MetricAccumulator {
	out := make(MetricAccumulator, len(a))
	for m, v := range a {
		out[m] = v
	}
	return out
}

// RawDailyRecord is one tenant-local day of usage as reported by the server.
type RawDailyRecord struct {
	Date                string          `json:"date"`
	SMSIn               decimal.Decimal `json:"sms_in"`
	SMSOut              decimal.Decimal `json:"sms_out"`
	ChatbotInteractions decimal.Decimal `json:"chatbot_interactions"`
	CallCount           decimal.Decimal `json:"call_count"`
	CallMinutes         decimal.Decimal `json:"call_minutes"`
}

// UsageAnalytics is the body returned by the usage-analytics endpoint.
type UsageAnalytics struct {
	OnboardedDate *string          `json:"onboarded_date"`
	Series        []RawDailyRecord `json:"series"`
	TimeZone      string           `json:"timezone"`
}

// HasData reports whether the response carries any records.
func (u *UsageAnalytics) HasData() bool {
	return u != nil && len(u.Series) > 0
}
