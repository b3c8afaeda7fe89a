package engine

import (
	"sort"

	"github.com/intelliwatt/intelliwatt/pkg/types"
)

// allocateTiers splits usage across consumption bands and prices each band.
// Usage above the highest bounded tier prices at the last tier's rate. The
// result rounds to whole cents once, after all bands are summed.
func allocateTiers(kwh float64, tiers []types.EnergyChargeTier, warnings []string) (int64, []string) {
	valid, dropped := normalizeTiers(tiers)
	if dropped > 0 {
		warnings = append(warnings, types.WarnTierDroppedMalformed)
	}
	if len(valid) == 0 {
		warnings = append(warnings, types.WarnZeroRateEnergy)
		return 0, warnings
	}
	allZero := true
	for _, t := range valid {
		if t.RateCents != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		warnings = append(warnings, types.WarnZeroRateEnergy)
	}

	var cents float64
	var covered float64
	for _, t := range valid {
		lo := t.FromKWH
		if covered > lo {
			lo = covered
		}
		hi := kwh
		if t.ToKWH != nil && *t.ToKWH < hi {
			hi = *t.ToKWH
		}
		if hi <= lo {
			continue
		}
		cents += (hi - lo) * t.RateCents
		covered = hi
	}
	if last := valid[len(valid)-1]; last.ToKWH != nil && kwh > covered {
		cents += (kwh - covered) * last.RateCents
	}
	return roundCents(cents), warnings
}

// normalizeTiers sorts bands ascending by start and drops malformed bands
// whose end is at or below their start.
func normalizeTiers(tiers []types.EnergyChargeTier) ([]types.EnergyChargeTier, int) {
	valid := make([]types.EnergyChargeTier, 0, len(tiers))
	dropped := 0
	for _, t := range tiers {
		if t.ToKWH != nil && *t.ToKWH <= t.FromKWH {
			dropped++
			continue
		}
		valid = append(valid, t)
	}
	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].FromKWH < valid[j].FromKWH
	})
	return valid, dropped
}
