package types

import "time"

// Usage bucket granularities a source can provide. The computability gate
// compares these against what a rate model needs.
const (
	BucketKWHTotal      = "kwh_total"
	BucketMonthly       = "monthly"
	BucketDaily         = "daily"
	BucketHourly        = "hourly"
	BucketQuarterHourly = "quarter_hourly"
)

// Interval represents a single metered usage reading. Start is the beginning
// of the read window in UTC.
type Interval struct {
	Start time.Time `json:"start"`
	KWH   float64   `json:"kwh"`
}

// Aggregation represents usage summed over a period with day and hour
// buckets. Keys are UTC: byDay uses 2006-01-02, byHour 2006-01-02T15.
// PeriodEnd is exclusive.
type Aggregation struct {
	PeriodStart time.Time          `json:"periodStart"`
	PeriodEnd   time.Time          `json:"periodEnd"`
	KWHTotal    float64            `json:"kwhTotal"`
	ByDay       map[string]float64 `json:"byDay"`
	ByHour      map[string]float64 `json:"byHour"`
}

// House represents a service address whose usage we estimate against.
type House struct {
	ID          string `json:"id"`
	UtilityCode string `json:"utilityCode"`
	UsageSource string `json:"usageSource"`
	// BillEndDay is the day of month the utility bill cycle ends on,
	// used when normalizing manual monthly entries.
	BillEndDay int `json:"billEndDay,omitempty"`
}

// ManualMonth represents a user-entered usage total for one calendar month.
type ManualMonth struct {
	Month int     `json:"month"` // 1-12
	KWH   float64 `json:"kwh"`
}

// DateRange represents an inclusive range of calendar days in UTC.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ManualUsage represents user-entered usage totals for a house, either
// twelve monthly readings or a single annual total, with optional travel
// ranges during which the house was known to be empty.
type ManualUsage struct {
	Year        int           `json:"year"`
	Monthly     []ManualMonth `json:"monthly,omitempty"`
	AnnualKWH   float64       `json:"annualKwh,omitempty"`
	TravelDates []DateRange   `json:"travelDates,omitempty"`
}
