package meter

import (
	"context"
	"time"

	"github.com/intelliwatt/intelliwatt/pkg/types"
)

// Mock synthesizes a deterministic residential load shape for tests, local
// runs and seeding. The same window always produces the same readings.
type Mock struct {
	// DailyKWH is the total each day sums to. Defaults to 30.
	DailyKWH float64
	// Buckets overrides the reported granularities. Defaults to everything
	// hourly and coarser.
	Buckets []string
}

// hourWeights is a summer residential shape: low overnight, climbing
// through the afternoon, peaking in the early evening.
var hourWeights = [24]float64{
	0.6, 0.55, 0.5, 0.5, 0.5, 0.55,
	0.7, 0.9, 1.0, 1.05, 1.1, 1.2,
	1.3, 1.45, 1.6, 1.75, 1.9, 2.0,
	1.95, 1.8, 1.6, 1.3, 1.0, 0.8,
}

// Intervals generates one reading per whole UTC hour in [start, end).
func (m *Mock) Intervals(ctx context.Context, houseID string, start, end time.Time) ([]types.Interval, error) {
	daily := m.DailyKWH
	if daily <= 0 {
		daily = 30
	}
	var sum float64
	for _, w := range hourWeights {
		sum += w
	}
	var intervals []types.Interval
	for ts := start.UTC().Truncate(time.Hour); ts.Before(end); ts = ts.Add(time.Hour) {
		if ts.Before(start) {
			continue
		}
		intervals = append(intervals, types.Interval{
			Start: ts,
			KWH:   daily * hourWeights[ts.Hour()] / sum,
		})
	}
	return intervals, nil
}

// BucketKeys reports hourly and coarser unless overridden.
func (m *Mock) BucketKeys() []string {
	if len(m.Buckets) > 0 {
		return m.Buckets
	}
	return []string{
		types.BucketKWHTotal,
		types.BucketMonthly,
		types.BucketDaily,
		types.BucketHourly,
	}
}
