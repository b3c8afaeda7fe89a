package types

import "time"

// TdspDelivery represents a dated snapshot of a TDSP's delivery charges.
// These are regulated passthrough rates, revised twice a year.
type TdspDelivery struct {
	UtilityCode         string    `json:"utilityCode"`
	MonthlyFeeCents     float64   `json:"monthlyFeeCents"`
	DeliveryCentsPerKWH float64   `json:"deliveryCentsPerKwh"`
	EffectiveAt         time.Time `json:"effectiveAt"`
}

// TdspInfo represents the catalog metadata for a TDSP service territory.
type TdspInfo struct {
	Code string `json:"code"`
	Name string `json:"name"`
}
