package usage

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intelliwatt/intelliwatt/pkg/types"
)

func TestAggregate(t *testing.T) {
	periodStart := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)

	t.Run("buckets and conservation", func(t *testing.T) {
		intervals := []types.Interval{
			{Start: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), KWH: 0.25},
			{Start: time.Date(2024, 7, 1, 0, 15, 0, 0, time.UTC), KWH: 0.5},
			{Start: time.Date(2024, 7, 1, 13, 0, 0, 0, time.UTC), KWH: 1.5},
			{Start: time.Date(2024, 7, 2, 13, 0, 0, 0, time.UTC), KWH: 2.25},
		}
		agg, err := Aggregate(intervals, periodStart, periodEnd)
		require.NoError(t, err)

		assert.Equal(t, 4.5, agg.KWHTotal)
		assert.Equal(t, 2.25, agg.ByDay["2024-07-01"])
		assert.Equal(t, 2.25, agg.ByDay["2024-07-02"])
		assert.Equal(t, 0.75, agg.ByHour["2024-07-01T00"])
		assert.Equal(t, 1.5, agg.ByHour["2024-07-01T13"])
		assert.Equal(t, 2.25, agg.ByHour["2024-07-02T13"])

		var daySum, hourSum float64
		for _, v := range agg.ByDay {
			daySum += v
		}
		for _, v := range agg.ByHour {
			hourSum += v
		}
		assert.Equal(t, agg.KWHTotal, daySum)
		assert.Equal(t, agg.KWHTotal, hourSum)
	})

	t.Run("clamps negative and NaN readings", func(t *testing.T) {
		intervals := []types.Interval{
			{Start: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), KWH: -3},
			{Start: time.Date(2024, 7, 1, 1, 0, 0, 0, time.UTC), KWH: math.NaN()},
			{Start: time.Date(2024, 7, 1, 2, 0, 0, 0, time.UTC), KWH: 1.25},
		}
		agg, err := Aggregate(intervals, periodStart, periodEnd)
		require.NoError(t, err)
		assert.Equal(t, 1.25, agg.KWHTotal)
		assert.Equal(t, 0.0, agg.ByHour["2024-07-01T00"])
		assert.Equal(t, 0.0, agg.ByHour["2024-07-01T01"])
	})

	t.Run("excludes readings outside the period", func(t *testing.T) {
		intervals := []types.Interval{
			{Start: periodStart.Add(-time.Minute), KWH: 5},
			{Start: periodEnd, KWH: 5},
			{Start: periodStart, KWH: 2},
		}
		agg, err := Aggregate(intervals, periodStart, periodEnd)
		require.NoError(t, err)
		assert.Equal(t, 2.0, agg.KWHTotal)
		assert.Len(t, agg.ByDay, 1)
	})

	t.Run("empty input is a zero aggregation", func(t *testing.T) {
		agg, err := Aggregate(nil, periodStart, periodEnd)
		require.NoError(t, err)
		assert.Zero(t, agg.KWHTotal)
		assert.Empty(t, agg.ByDay)
		assert.Empty(t, agg.ByHour)
	})

	t.Run("rejects inverted bounds", func(t *testing.T) {
		_, err := Aggregate(nil, periodEnd, periodStart)
		assert.Error(t, err)
		_, err = Aggregate(nil, periodStart, periodStart)
		assert.Error(t, err)
	})
}

func TestByMonth(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	intervals := []types.Interval{
		{Start: time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC), KWH: 1.5},
		{Start: time.Date(2024, 3, 20, 8, 0, 0, 0, time.UTC), KWH: 2.5},
	}

	months, err := ByMonth(intervals, start, end)
	require.NoError(t, err)
	require.Len(t, months, 3)

	assert.Equal(t, "2024-01", months[0].Key)
	assert.Equal(t, 1.5, months[0].Agg.KWHTotal)

	// February has no readings, must come back zero but present
	assert.Equal(t, "2024-02", months[1].Key)
	assert.Zero(t, months[1].Agg.KWHTotal)
	assert.Empty(t, months[1].Agg.ByHour)

	assert.Equal(t, "2024-03", months[2].Key)
	assert.Equal(t, 2.5, months[2].Agg.KWHTotal)
}

func TestByMonthClampsPartialMonths(t *testing.T) {
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	intervals := []types.Interval{
		{Start: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), KWH: 1},
		{Start: time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC), KWH: 2},
		{Start: time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), KWH: 4},
		{Start: time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC), KWH: 8},
	}

	months, err := ByMonth(intervals, start, end)
	require.NoError(t, err)
	require.Len(t, months, 2)
	// readings before the window start and after the window end fall out
	assert.Equal(t, 2.0, months[0].Agg.KWHTotal)
	assert.Equal(t, 4.0, months[1].Agg.KWHTotal)
}
