package types

import "time"

const (
	CurrentRatePlanVersion = 1
)

// RateKind identifies the pricing shape of a rate model.
type RateKind string

const (
	RateKindFlat    RateKind = "flat"
	RateKindTiered  RateKind = "tiered"
	RateKindTOU     RateKind = "tou"
	RateKindUnknown RateKind = "unknown"
)

// EnergyChargeTier represents one consumption band of an energy charge.
// A nil ToKWH means the band is unterminated and absorbs all remaining usage.
type EnergyChargeTier struct {
	FromKWH   float64  `json:"fromKwh"`
	ToKWH     *float64 `json:"toKwh"`
	RateCents float64  `json:"rateCents"` // cents per kWh, may be fractional
}

// Bounded returns true when the tier has a finite upper bound.
func (t EnergyChargeTier) Bounded() bool {
	return t.ToKWH != nil
}

// BillCredit represents an all-or-nothing usage credit. The credit applies
// when period usage reaches ThresholdKWH and is never prorated.
type BillCredit struct {
	ThresholdKWH float64 `json:"thresholdKwh"`
	CreditCents  float64 `json:"creditCents"`
}

// TouWindow represents a peak window for time-of-use pricing. StartHour is
// inclusive, EndHour is exclusive, both 0-23. A window may wrap midnight
// (e.g. 22 to 6).
type TouWindow struct {
	StartHour int `json:"startHour"`
	EndHour   int `json:"endHour"`
}

// Contains returns true if the hour of day falls inside the peak window.
func (w TouWindow) Contains(hour int) bool {
	if w.StartHour <= w.EndHour {
		return hour >= w.StartHour && hour < w.EndHour
	}
	return hour >= w.StartHour || hour < w.EndHour
}

// RateModel represents the normalized pricing structure of a retail plan as
// produced by the extraction pipeline. All monetary fields are cents.
type RateModel struct {
	Kind             RateKind           `json:"kind"`
	BaseFeeCents     float64            `json:"baseFeeCents,omitempty"` // per billing month
	EnergyCharges    []EnergyChargeTier `json:"energyCharges"`
	BillCredits      []BillCredit       `json:"billCredits,omitempty"`
	MinUsageFeeCents float64            `json:"minUsageFeeCents,omitempty"`
	TermMonths       int                `json:"termMonths,omitempty"`
	PeakWindow       *TouWindow         `json:"peakWindow,omitempty"`
}

// RatePlan represents a retail plan offer as stored, wrapping the rate model
// with catalog identity and the admin-facing computability override.
type RatePlan struct {
	ID                    string     `json:"id"`
	Name                  string     `json:"name"`
	Provider              string     `json:"provider"`
	UtilityCode           string     `json:"utilityCode"`
	Rate                  *RateModel `json:"rate"`
	ComputabilityOverride bool       `json:"computabilityOverride,omitempty"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}
