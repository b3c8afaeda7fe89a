package types

const (
	CurrentEstimateVersion = 1
)

// ComputabilityStatus reports whether a plan can be priced from the usage
// buckets a house has available.
type ComputabilityStatus string

const (
	Computable    ComputabilityStatus = "COMPUTABLE"
	NotComputable ComputabilityStatus = "NOT_COMPUTABLE"
)

// Reason codes for a NOT_COMPUTABLE assessment.
const (
	ReasonMissingHourlyBuckets = "missing_hourly_buckets"
	ReasonMissingUsageTotal    = "missing_usage_total"
	ReasonMissingRateModel     = "missing_rate_model"
)

// Warning codes recorded on estimates for degraded inputs. These are stable
// strings the UI keys copy off of.
const (
	WarnTierDroppedMalformed  = "tier_dropped_malformed"
	WarnZeroRateEnergy        = "zero_rate_energy"
	WarnTouMultiRateFirstUsed = "tou_multi_rate_first_used"
	WarnTouFlatFallback       = "tou_flat_fallback"
	WarnTouTimeseriesRequired = "tou_timeseries_required"
	WarnTdspSnapshotStale     = "tdsp_snapshot_stale"
	WarnTdspMissing           = "tdsp_missing"
	WarnAnnualExtrapolated    = "annual_extrapolated"
	WarnUsageMonthMissing     = "usage_month_missing"
)

// Assessment represents the computability gate's decision for one plan
// against one house's available usage buckets.
type Assessment struct {
	Status             ComputabilityStatus `json:"status"`
	ReasonCode         string              `json:"reasonCode,omitempty"`
	RequiredBucketKeys []string            `json:"requiredBucketKeys"`
}

// Line item labels in their canonical presentation order.
const (
	LineEnergyCharge   = "energyCharge"
	LineBaseFee        = "baseFee"
	LineMinUsageFee    = "minUsageFee"
	LineBillCredits    = "billCredits"
	LineTdspMonthlyFee = "tdspMonthlyFee"
	LineTdspVolumetric = "tdspVolumetric"
)

// LineItem represents a single labeled amount on a cost breakdown.
type LineItem struct {
	Label string `json:"label"`
	Cents int64  `json:"cents"`
}

// CostBreakdown represents the priced result for a single billing month.
// All amounts are integer cents; BillCreditsCents is zero or negative. A
// recompute always replaces the whole breakdown, never merges into it.
type CostBreakdown struct {
	MonthKey            string     `json:"monthKey,omitempty"` // 2006-01
	KWH                 float64    `json:"kwh"`
	EnergyChargeCents   int64      `json:"energyChargeCents"`
	BaseFeeCents        int64      `json:"baseFeeCents"`
	MinUsageFeeCents    int64      `json:"minUsageFeeCents"`
	BillCreditsCents    int64      `json:"billCreditsCents"`
	TdspMonthlyFeeCents int64      `json:"tdspMonthlyFeeCents"`
	TdspVolumetricCents int64      `json:"tdspVolumetricCents"`
	SubtotalCents       int64      `json:"subtotalCents"`
	TotalCents          int64      `json:"totalCents"`
	Lines               []LineItem `json:"lines"`
}

// Estimate represents the cached result of pricing one plan against one
// house's usage. A stored estimate is immutable for its fingerprint: the
// same inputs always marshal to the same bytes, so a cache hit is
// indistinguishable from a fresh computation. Compute time lives on the
// storage document, not here.
type Estimate struct {
	HouseID         string          `json:"houseID"`
	PlanID          string          `json:"planID"`
	Fingerprint     string          `json:"fingerprint"`
	Months          int             `json:"months"`
	Monthly         []CostBreakdown `json:"monthly"`
	AnnualCents     int64           `json:"annualCents"`
	AvgMonthlyCents int64           `json:"avgMonthlyCents"`
	KWHTotal        float64         `json:"kwhTotal"`
	Warnings        []string        `json:"warnings,omitempty"`
	EngineVersion   string          `json:"engineVersion"`
}
