package estimate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/intelliwatt/intelliwatt/pkg/types"
)

func TestAssess(t *testing.T) {
	flatPlan := types.RatePlan{
		ID: "flat-12",
		Rate: &types.RateModel{
			Kind:          types.RateKindFlat,
			EnergyCharges: []types.EnergyChargeTier{{FromKWH: 0, RateCents: 12.5}},
		},
	}
	touPlan := types.RatePlan{
		ID: "free-nights",
		Rate: &types.RateModel{
			Kind: types.RateKindTOU,
			EnergyCharges: []types.EnergyChargeTier{
				{FromKWH: 0, RateCents: 15},
				{FromKWH: 0, RateCents: 8},
			},
			PeakWindow: &types.TouWindow{StartHour: 17, EndHour: 21},
		},
	}

	t.Run("flat plan needs only a total", func(t *testing.T) {
		a := Assess(flatPlan, []string{types.BucketKWHTotal, types.BucketMonthly})
		assert.Equal(t, types.Computable, a.Status)
		assert.Empty(t, a.ReasonCode)
		assert.Equal(t, []string{types.BucketKWHTotal}, a.RequiredBucketKeys)
	})

	t.Run("tou plan with monthly-only usage is refused", func(t *testing.T) {
		a := Assess(touPlan, []string{types.BucketKWHTotal, types.BucketMonthly})
		assert.Equal(t, types.NotComputable, a.Status)
		assert.Equal(t, types.ReasonMissingHourlyBuckets, a.ReasonCode)
		assert.Contains(t, a.RequiredBucketKeys, types.BucketHourly)
	})

	t.Run("tou plan with hourly usage passes", func(t *testing.T) {
		a := Assess(touPlan, []string{
			types.BucketKWHTotal, types.BucketMonthly,
			types.BucketDaily, types.BucketHourly, types.BucketQuarterHourly,
		})
		assert.Equal(t, types.Computable, a.Status)
	})

	t.Run("override forces computable", func(t *testing.T) {
		overridden := touPlan
		overridden.ComputabilityOverride = true
		a := Assess(overridden, []string{types.BucketKWHTotal, types.BucketMonthly})
		assert.Equal(t, types.Computable, a.Status)
	})

	t.Run("no buckets at all", func(t *testing.T) {
		a := Assess(flatPlan, nil)
		assert.Equal(t, types.NotComputable, a.Status)
		assert.Equal(t, types.ReasonMissingUsageTotal, a.ReasonCode)
	})

	t.Run("missing rate model", func(t *testing.T) {
		a := Assess(types.RatePlan{ID: "broken"}, []string{types.BucketKWHTotal})
		assert.Equal(t, types.NotComputable, a.Status)
		assert.Equal(t, types.ReasonMissingRateModel, a.ReasonCode)
	})
}
