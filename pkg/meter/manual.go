package meter

import (
	"context"
	"fmt"
	"time"

	"github.com/intelliwatt/intelliwatt/pkg/types"
	"github.com/intelliwatt/intelliwatt/pkg/usage"
)

// Manual serves usage normalized from resident-entered monthly or annual
// totals. The spread across each billing period is even, so only period and
// month totals are granularities this source can stand behind.
type Manual struct {
	reader ManualReader
}

// NewManual creates a manual-entry source over the given reader.
func NewManual(reader ManualReader) *Manual {
	return &Manual{reader: reader}
}

// Intervals normalizes the house's manual entry into 15-minute intervals
// and clips them to the window.
func (m *Manual) Intervals(ctx context.Context, houseID string, start, end time.Time) ([]types.Interval, error) {
	house, err := m.reader.GetHouse(ctx, houseID)
	if err != nil {
		return nil, fmt.Errorf("loading house %s: %w", houseID, err)
	}
	entry, err := m.reader.GetManualUsage(ctx, houseID)
	if err != nil {
		return nil, fmt.Errorf("loading manual usage for house %s: %w", houseID, err)
	}
	intervals, err := usage.Normalize(entry, house.BillEndDay)
	if err != nil {
		return nil, fmt.Errorf("normalizing manual usage for house %s: %w", houseID, err)
	}
	clipped := make([]types.Interval, 0, len(intervals))
	for _, in := range intervals {
		if in.Start.Before(start) || !in.Start.Before(end) {
			continue
		}
		clipped = append(clipped, in)
	}
	return clipped, nil
}

// BucketKeys reports only the totals the resident actually entered.
func (m *Manual) BucketKeys() []string {
	return []string{types.BucketKWHTotal, types.BucketMonthly}
}
