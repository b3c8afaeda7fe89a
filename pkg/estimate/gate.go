package estimate

import (
	"github.com/intelliwatt/intelliwatt/pkg/metrics"
	"github.com/intelliwatt/intelliwatt/pkg/types"
)

// RequiredBuckets returns the usage granularities a rate model's pricing
// shape needs. Time-of-use needs hourly buckets, everything else prices
// from the period total alone.
func RequiredBuckets(rate *types.RateModel) []string {
	if rate != nil && rate.Kind == types.RateKindTOU {
		return []string{types.BucketKWHTotal, types.BucketHourly}
	}
	return []string{types.BucketKWHTotal}
}

// Assess runs the computability gate for one plan against the bucket keys a
// house's usage source can provide. It always runs before calculation so a
// time-of-use plan is never silently priced from a bare monthly total. The
// plan's override flag forces COMPUTABLE for admin-corrected data.
func Assess(plan types.RatePlan, available []string) types.Assessment {
	if plan.Rate == nil {
		a := types.Assessment{
			Status:             types.NotComputable,
			ReasonCode:         types.ReasonMissingRateModel,
			RequiredBucketKeys: nil,
		}
		metrics.IncGateRefusal(a.ReasonCode)
		return a
	}
	required := RequiredBuckets(plan.Rate)
	a := types.Assessment{
		Status:             types.Computable,
		RequiredBucketKeys: required,
	}

	have := make(map[string]bool, len(available))
	for _, k := range available {
		have[k] = true
	}
	for _, k := range required {
		if have[k] {
			continue
		}
		if plan.ComputabilityOverride {
			continue
		}
		a.Status = types.NotComputable
		if k == types.BucketHourly {
			a.ReasonCode = types.ReasonMissingHourlyBuckets
		} else {
			a.ReasonCode = types.ReasonMissingUsageTotal
		}
		metrics.IncGateRefusal(a.ReasonCode)
		break
	}
	return a
}
