package usage

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/intelliwatt/intelliwatt/pkg/common"
	"github.com/intelliwatt/intelliwatt/pkg/types"
)

// Aggregate sums interval readings into a period total with per-day and
// per-hour buckets. Readings outside [periodStart, periodEnd) are ignored,
// negative and NaN readings count as zero. An empty slice yields a zero
// aggregation, not an error.
func Aggregate(intervals []types.Interval, periodStart, periodEnd time.Time) (types.Aggregation, error) {
	if !periodStart.Before(periodEnd) {
		return types.Aggregation{}, fmt.Errorf("invalid period: start %s is not before end %s",
			periodStart.Format(time.RFC3339), periodEnd.Format(time.RFC3339))
	}
	agg := types.Aggregation{
		PeriodStart: periodStart.UTC(),
		PeriodEnd:   periodEnd.UTC(),
		ByDay:       make(map[string]float64),
		ByHour:      make(map[string]float64),
	}
	// accumulate in timestamp order so repeated runs sum identically
	sorted := make([]types.Interval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})
	for _, in := range sorted {
		if in.Start.Before(periodStart) || !in.Start.Before(periodEnd) {
			continue
		}
		kwh := in.KWH
		if math.IsNaN(kwh) || kwh < 0 {
			kwh = 0
		}
		agg.KWHTotal += kwh
		agg.ByDay[common.DayKey(in.Start)] += kwh
		agg.ByHour[common.HourKey(in.Start)] += kwh
	}
	return agg, nil
}

// Month pairs a month bucket key with the aggregation for that month.
type Month struct {
	Key string
	Agg types.Aggregation
}

// ByMonth splits readings into one aggregation per calendar month covering
// [periodStart, periodEnd). Months without readings still appear, with a
// zero total and empty buckets, so callers can tell missing from zero.
func ByMonth(intervals []types.Interval, periodStart, periodEnd time.Time) ([]Month, error) {
	if !periodStart.Before(periodEnd) {
		return nil, fmt.Errorf("invalid period: start %s is not before end %s",
			periodStart.Format(time.RFC3339), periodEnd.Format(time.RFC3339))
	}
	var months []Month
	cur := time.Date(periodStart.UTC().Year(), periodStart.UTC().Month(), 1, 0, 0, 0, 0, time.UTC)
	for cur.Before(periodEnd) {
		next := cur.AddDate(0, 1, 0)
		mStart, mEnd := cur, next
		if mStart.Before(periodStart) {
			mStart = periodStart.UTC()
		}
		if mEnd.After(periodEnd) {
			mEnd = periodEnd.UTC()
		}
		agg, err := Aggregate(intervals, mStart, mEnd)
		if err != nil {
			return nil, err
		}
		months = append(months, Month{Key: common.MonthKey(cur), Agg: agg})
		cur = next
	}
	return months, nil
}
