package engine

import (
	"context"
	"log/slog"
	"sort"

	"github.com/intelliwatt/intelliwatt/pkg/common"
	"github.com/intelliwatt/intelliwatt/pkg/log"
	"github.com/intelliwatt/intelliwatt/pkg/types"
)

// touRates infers the peak and off-peak rates from the energy charge
// entries. With exactly two entries the higher rate is peak. With more than
// two only the first entry is used for both legs, which is a known
// limitation of extracted multi-rate plans.
func touRates(rate *types.RateModel, warnings []string) (float64, float64, []string) {
	entries := rate.EnergyCharges
	switch len(entries) {
	case 0:
		warnings = append(warnings, types.WarnZeroRateEnergy)
		return 0, 0, warnings
	case 1:
		return entries[0].RateCents, entries[0].RateCents, warnings
	case 2:
		peak, off := entries[0].RateCents, entries[1].RateCents
		if off > peak {
			peak, off = off, peak
		}
		return peak, off, warnings
	default:
		warnings = append(warnings, types.WarnTouMultiRateFirstUsed)
		return entries[0].RateCents, entries[0].RateCents, warnings
	}
}

// splitByWindow sums hourly buckets into peak and off-peak legs. Every
// bucket lands in exactly one leg so the two legs always add back up to the
// period total.
func splitByWindow(byHour map[string]float64, window types.TouWindow) (float64, float64) {
	keys := make([]string, 0, len(byHour))
	for k := range byHour {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var peak, off float64
	for _, k := range keys {
		h, err := common.HourOfKey(k)
		if err != nil || !window.Contains(h) {
			off += byHour[k]
			continue
		}
		peak += byHour[k]
	}
	return peak, off
}

// touEnergy prices a time-of-use model. Without a configured peak window or
// hourly buckets the model cannot be split: the caller either insists on
// interval data and gets zero, or everything prices at the first entry's
// rate. Both degradations carry a warning.
func touEnergy(ctx context.Context, rate *types.RateModel, usage types.Aggregation, requireTimeseries bool, warnings []string) (int64, []string) {
	peakRate, offRate, warnings := touRates(rate, warnings)
	if rate.PeakWindow == nil || len(usage.ByHour) == 0 {
		if requireTimeseries {
			warnings = append(warnings, types.WarnTouTimeseriesRequired)
			return 0, warnings
		}
		warnings = append(warnings, types.WarnTouFlatFallback)
		var flat float64
		if len(rate.EnergyCharges) > 0 {
			flat = rate.EnergyCharges[0].RateCents
		}
		return roundCents(usage.KWHTotal * flat), warnings
	}
	peakKWH, offKWH := splitByWindow(usage.ByHour, *rate.PeakWindow)
	log.Ctx(ctx).DebugContext(ctx, "split time-of-use usage",
		slog.Float64("peakKWH", peakKWH),
		slog.Float64("offpeakKWH", offKWH),
		slog.Float64("peakRateCents", peakRate),
		slog.Float64("offpeakRateCents", offRate))
	return roundCents(peakKWH*peakRate + offKWH*offRate), warnings
}
