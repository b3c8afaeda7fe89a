package usage

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/intelliwatt/intelliwatt/pkg/types"
)

// 15-minute readings, matching what the smart meter sync produces.
const slotInterval = 15 * time.Minute

// BillingPeriod returns the UTC day span [start, end) covered by a bill
// ending in the given month. The bill covers the day after the previous
// month's bill-end day through the bill-end day itself, with the day clamped
// to the length of short months. A billEndDay of 0 or 31 yields calendar
// months.
func BillingPeriod(year int, month time.Month, billEndDay int) (time.Time, time.Time) {
	if billEndDay <= 0 {
		billEndDay = 31
	}
	end := clampedDay(year, month, billEndDay).AddDate(0, 0, 1)
	prev := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	start := clampedDay(prev.Year(), prev.Month(), billEndDay).AddDate(0, 0, 1)
	return start, end
}

func clampedDay(year int, month time.Month, day int) time.Time {
	last := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Normalize converts user-entered usage totals into synthetic flat
// 15-minute intervals. Monthly totals spread over their derived billing
// periods, an annual total spreads over its calendar year. Days inside
// travel ranges get no intervals and the remainder is rescaled so each
// period's total is preserved.
//
// The resulting profile is uniform, so it can support flat and tiered
// pricing but never time-of-use splits.
func Normalize(mu types.ManualUsage, billEndDay int) ([]types.Interval, error) {
	switch {
	case len(mu.Monthly) > 0:
		entries := make([]types.ManualMonth, len(mu.Monthly))
		copy(entries, mu.Monthly)
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Month < entries[j].Month
		})
		var out []types.Interval
		for _, e := range entries {
			if e.Month < 1 || e.Month > 12 {
				return nil, fmt.Errorf("invalid month %d in manual usage", e.Month)
			}
			start, end := BillingPeriod(mu.Year, time.Month(e.Month), billEndDay)
			out = append(out, distribute(e.KWH, start, end, mu.TravelDates)...)
		}
		return out, nil
	case mu.AnnualKWH > 0:
		start := time.Date(mu.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return distribute(mu.AnnualKWH, start, start.AddDate(1, 0, 0), mu.TravelDates), nil
	default:
		return nil, fmt.Errorf("manual usage for %d has neither monthly nor annual totals", mu.Year)
	}
}

// distribute spreads kwh evenly across the 15-minute slots of [start, end),
// skipping slots on excluded days. If exclusions would cover the entire
// period they are ignored rather than losing the usage.
func distribute(kwh float64, start, end time.Time, travel []types.DateRange) []types.Interval {
	if math.IsNaN(kwh) || kwh < 0 {
		kwh = 0
	}
	var slots []time.Time
	for t := start; t.Before(end); t = t.Add(slotInterval) {
		if !excludedDay(t, travel) {
			slots = append(slots, t)
		}
	}
	if len(slots) == 0 {
		for t := start; t.Before(end); t = t.Add(slotInterval) {
			slots = append(slots, t)
		}
	}
	if len(slots) == 0 {
		return nil
	}
	per := kwh / float64(len(slots))
	out := make([]types.Interval, 0, len(slots))
	for _, t := range slots {
		out = append(out, types.Interval{Start: t, KWH: per})
	}
	return out
}

func excludedDay(t time.Time, travel []types.DateRange) bool {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	for _, r := range travel {
		rs := time.Date(r.Start.Year(), r.Start.Month(), r.Start.Day(), 0, 0, 0, 0, time.UTC)
		re := time.Date(r.End.Year(), r.End.Month(), r.End.Day(), 0, 0, 0, 0, time.UTC)
		if !day.Before(rs) && !day.After(re) {
			return true
		}
	}
	return false
}
