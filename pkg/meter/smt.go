package meter

import (
	"context"
	"fmt"
	"time"

	"github.com/intelliwatt/intelliwatt/pkg/types"
)

// SMT serves metered 15-minute interval data recorded from Smart Meter
// Texas exports.
type SMT struct {
	reader IntervalReader
}

// NewSMT creates an SMT source over the given reader.
func NewSMT(reader IntervalReader) *SMT {
	return &SMT{reader: reader}
}

// Intervals returns the stored readings for the window.
func (s *SMT) Intervals(ctx context.Context, houseID string, start, end time.Time) ([]types.Interval, error) {
	intervals, err := s.reader.GetUsageIntervals(ctx, houseID, start, end)
	if err != nil {
		return nil, fmt.Errorf("reading intervals for house %s: %w", houseID, err)
	}
	return intervals, nil
}

// BucketKeys reports every granularity since quarter-hour readings stand
// behind them all.
func (s *SMT) BucketKeys() []string {
	return []string{
		types.BucketKWHTotal,
		types.BucketMonthly,
		types.BucketDaily,
		types.BucketHourly,
		types.BucketQuarterHourly,
	}
}
