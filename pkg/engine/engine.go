package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/intelliwatt/intelliwatt/pkg/log"
	"github.com/intelliwatt/intelliwatt/pkg/types"
)

// The minimum-usage fee only applies under the first tier's starting
// threshold, or under this default when the first tier starts at zero or
// the model has no tiers.
const defaultMinUsageThresholdKWH = 1000

// Options are per-request strictness choices.
type Options struct {
	// RequireTimeseriesForTOU prices a time-of-use plan to zero instead of
	// falling back to a flat rate when hourly buckets are unavailable.
	RequireTimeseriesForTOU bool
}

// Inputs carry everything needed to price one billing month.
type Inputs struct {
	Rate     *types.RateModel
	Usage    types.Aggregation
	Delivery *types.TdspDelivery
	MonthKey string
}

// ComputeBreakdown prices a single billing month against a rate model and
// returns the breakdown plus any degraded-input warnings. It never errors
// on malformed-but-plausible pricing data; the only fatal condition here is
// a missing rate model.
func ComputeBreakdown(ctx context.Context, in Inputs, opts Options) (types.CostBreakdown, []string, error) {
	if in.Rate == nil {
		return types.CostBreakdown{}, nil, errors.New("rate model is required")
	}
	kwh := in.Usage.KWHTotal
	var warnings []string

	var energy int64
	switch in.Rate.Kind {
	case types.RateKindFlat, types.RateKindTiered:
		energy, warnings = allocateTiers(kwh, in.Rate.EnergyCharges, warnings)
	case types.RateKindTOU:
		energy, warnings = touEnergy(ctx, in.Rate, in.Usage, opts.RequireTimeseriesForTOU, warnings)
	case types.RateKindUnknown:
		warnings = append(warnings, types.WarnZeroRateEnergy)
	default:
		// a new kind must be priced deliberately, not fall through
		return types.CostBreakdown{}, nil, fmt.Errorf("unhandled rate kind %q", in.Rate.Kind)
	}

	b := types.CostBreakdown{
		MonthKey:          in.MonthKey,
		KWH:               kwh,
		EnergyChargeCents: energy,
		BaseFeeCents:      roundCents(in.Rate.BaseFeeCents),
		MinUsageFeeCents:  minUsageFee(in.Rate, kwh),
		BillCreditsCents:  creditCents(in.Rate.BillCredits, kwh),
	}
	b.TdspMonthlyFeeCents, b.TdspVolumetricCents = deliveryCents(in.Delivery, kwh)
	b.SubtotalCents = b.EnergyChargeCents + b.BaseFeeCents + b.MinUsageFeeCents +
		b.BillCreditsCents + b.TdspMonthlyFeeCents + b.TdspVolumetricCents
	// no taxes at this layer, the subtotal carries through
	b.TotalCents = b.SubtotalCents
	b.Lines = lines(b)

	log.Ctx(ctx).DebugContext(ctx, "computed breakdown",
		slog.String("month", in.MonthKey),
		slog.String("kind", string(in.Rate.Kind)),
		slog.Float64("kwh", kwh),
		slog.Int64("totalCents", b.TotalCents))
	return b, warnings, nil
}

// lines assembles the non-zero amounts in canonical presentation order so
// rendered breakdowns stay stable across recomputes.
func lines(b types.CostBreakdown) []types.LineItem {
	ordered := []types.LineItem{
		{Label: types.LineEnergyCharge, Cents: b.EnergyChargeCents},
		{Label: types.LineBaseFee, Cents: b.BaseFeeCents},
		{Label: types.LineMinUsageFee, Cents: b.MinUsageFeeCents},
		{Label: types.LineBillCredits, Cents: b.BillCreditsCents},
		{Label: types.LineTdspMonthlyFee, Cents: b.TdspMonthlyFeeCents},
		{Label: types.LineTdspVolumetric, Cents: b.TdspVolumetricCents},
	}
	out := make([]types.LineItem, 0, len(ordered))
	for _, li := range ordered {
		if li.Cents != 0 {
			out = append(out, li)
		}
	}
	return out
}

func minUsageFee(rate *types.RateModel, kwh float64) int64 {
	if rate.MinUsageFeeCents == 0 {
		return 0
	}
	threshold := float64(defaultMinUsageThresholdKWH)
	if len(rate.EnergyCharges) > 0 && rate.EnergyCharges[0].FromKWH > 0 {
		threshold = rate.EnergyCharges[0].FromKWH
	}
	if kwh >= threshold {
		return 0
	}
	return roundCents(rate.MinUsageFeeCents)
}

// roundCents rounds half away from zero to whole cents. Rounding happens
// once per component, never per band.
func roundCents(c float64) int64 {
	return int64(math.Round(c))
}
