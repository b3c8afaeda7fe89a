package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intelliwatt/intelliwatt/pkg/types"
)

// hourlyUsage builds 24 hour buckets for a single day with peak hours
// holding peakEach kWh and the rest offEach kWh.
func hourlyUsage(day string, window types.TouWindow, peakEach, offEach float64) types.Aggregation {
	agg := types.Aggregation{ByHour: make(map[string]float64)}
	for h := 0; h < 24; h++ {
		v := offEach
		if window.Contains(h) {
			v = peakEach
		}
		agg.ByHour[fmt.Sprintf("%sT%02d", day, h)] = v
	}
	return agg
}

func TestTouEnergy(t *testing.T) {
	ctx := context.Background()

	t.Run("evening peak window split", func(t *testing.T) {
		window := types.TouWindow{StartHour: 17, EndHour: 21}
		rate := &types.RateModel{
			Kind: types.RateKindTOU,
			EnergyCharges: []types.EnergyChargeTier{
				{FromKWH: 0, RateCents: 15},
				{FromKWH: 0, RateCents: 8},
			},
			PeakWindow: &window,
		}
		// 4 peak hours at 10 kWh, 20 off-peak hours at 13 kWh
		agg := hourlyUsage("2024-07-15", window, 10, 13)
		agg.KWHTotal = 300

		cents, warnings := touEnergy(ctx, rate, agg, false, nil)
		// 40*15 + 260*8
		assert.Equal(t, int64(2680), cents)
		assert.Empty(t, warnings)
	})

	t.Run("flat fallback without hourly buckets", func(t *testing.T) {
		rate := &types.RateModel{
			Kind: types.RateKindTOU,
			EnergyCharges: []types.EnergyChargeTier{
				{FromKWH: 0, RateCents: 15},
				{FromKWH: 0, RateCents: 8},
			},
			PeakWindow: &types.TouWindow{StartHour: 17, EndHour: 21},
		}
		agg := types.Aggregation{KWHTotal: 300}

		cents, warnings := touEnergy(ctx, rate, agg, false, nil)
		assert.Equal(t, int64(4500), cents)
		assert.Contains(t, warnings, types.WarnTouFlatFallback)
	})

	t.Run("strict timeseries prices to zero", func(t *testing.T) {
		rate := &types.RateModel{
			Kind: types.RateKindTOU,
			EnergyCharges: []types.EnergyChargeTier{
				{FromKWH: 0, RateCents: 15},
				{FromKWH: 0, RateCents: 8},
			},
			PeakWindow: &types.TouWindow{StartHour: 17, EndHour: 21},
		}
		agg := types.Aggregation{KWHTotal: 300}

		cents, warnings := touEnergy(ctx, rate, agg, true, nil)
		assert.Zero(t, cents)
		assert.Contains(t, warnings, types.WarnTouTimeseriesRequired)
	})

	t.Run("missing window falls back flat even with hourly data", func(t *testing.T) {
		rate := &types.RateModel{
			Kind: types.RateKindTOU,
			EnergyCharges: []types.EnergyChargeTier{
				{FromKWH: 0, RateCents: 15},
				{FromKWH: 0, RateCents: 8},
			},
		}
		agg := hourlyUsage("2024-07-15", types.TouWindow{StartHour: 17, EndHour: 21}, 10, 13)
		agg.KWHTotal = 300

		cents, warnings := touEnergy(ctx, rate, agg, false, nil)
		assert.Equal(t, int64(4500), cents)
		assert.Contains(t, warnings, types.WarnTouFlatFallback)
	})
}

func TestTouRates(t *testing.T) {
	t.Run("higher rate is peak regardless of order", func(t *testing.T) {
		for _, entries := range [][]types.EnergyChargeTier{
			{{RateCents: 15}, {RateCents: 8}},
			{{RateCents: 8}, {RateCents: 15}},
		} {
			rate := &types.RateModel{EnergyCharges: entries}
			peak, off, warnings := touRates(rate, nil)
			assert.Equal(t, 15.0, peak)
			assert.Equal(t, 8.0, off)
			assert.Empty(t, warnings)
		}
	})

	t.Run("tie keeps both legs equal", func(t *testing.T) {
		rate := &types.RateModel{
			EnergyCharges: []types.EnergyChargeTier{{RateCents: 11}, {RateCents: 11}},
		}
		peak, off, _ := touRates(rate, nil)
		assert.Equal(t, 11.0, peak)
		assert.Equal(t, 11.0, off)
	})

	t.Run("more than two entries uses the first and warns", func(t *testing.T) {
		rate := &types.RateModel{
			EnergyCharges: []types.EnergyChargeTier{{RateCents: 9}, {RateCents: 15}, {RateCents: 4}},
		}
		peak, off, warnings := touRates(rate, nil)
		assert.Equal(t, 9.0, peak)
		assert.Equal(t, 9.0, off)
		assert.Contains(t, warnings, types.WarnTouMultiRateFirstUsed)
	})

	t.Run("no entries warn zero rate", func(t *testing.T) {
		peak, off, warnings := touRates(&types.RateModel{}, nil)
		assert.Zero(t, peak)
		assert.Zero(t, off)
		assert.Contains(t, warnings, types.WarnZeroRateEnergy)
	})
}

func TestSplitByWindowCompleteness(t *testing.T) {
	windows := []types.TouWindow{
		{StartHour: 17, EndHour: 21},
		{StartHour: 22, EndHour: 6}, // wraps midnight
		{StartHour: 0, EndHour: 24},
		{StartHour: 0, EndHour: 0},
	}
	byHour := make(map[string]float64)
	var total float64
	for h := 0; h < 24; h++ {
		v := 0.25 * float64(h+1)
		byHour[fmt.Sprintf("2024-07-15T%02d", h)] = v
		total += v
	}

	for _, w := range windows {
		peak, off := splitByWindow(byHour, w)
		require.Equal(t, total, peak+off, "window %+v must classify every hour", w)
	}
}

func TestSplitByWindowWraparound(t *testing.T) {
	w := types.TouWindow{StartHour: 22, EndHour: 6}
	byHour := map[string]float64{
		"2024-07-15T21": 1,
		"2024-07-15T22": 2,
		"2024-07-15T23": 4,
		"2024-07-16T00": 8,
		"2024-07-16T05": 16,
		"2024-07-16T06": 32,
	}
	peak, off := splitByWindow(byHour, w)
	assert.Equal(t, 30.0, peak)
	assert.Equal(t, 33.0, off)
}
