package server

import (
	"context"
	"time"

	"github.com/intelliwatt/intelliwatt/pkg/estimate"
	"github.com/intelliwatt/intelliwatt/pkg/meter"
	"github.com/intelliwatt/intelliwatt/pkg/storage"
	"github.com/intelliwatt/intelliwatt/pkg/storage/storagemock"
	"github.com/intelliwatt/intelliwatt/pkg/tdsp"
	"github.com/intelliwatt/intelliwatt/pkg/types"
)

// fakeUsageSource serves one reading per month of the requested window so
// estimates over it never hit missing-month warnings.
type fakeUsageSource struct {
	buckets    []string
	monthlyKWH float64
	err        error

	lastStart time.Time
	lastEnd   time.Time
}

func (f *fakeUsageSource) Intervals(ctx context.Context, houseID string, start, end time.Time) ([]types.Interval, error) {
	f.lastStart = start
	f.lastEnd = end
	if f.err != nil {
		return nil, f.err
	}
	var out []types.Interval
	for m := start; m.Before(end); m = m.AddDate(0, 1, 0) {
		out = append(out, types.Interval{Start: m, KWH: f.monthlyKWH})
	}
	return out, nil
}

func (f *fakeUsageSource) BucketKeys() []string {
	return f.buckets
}

func allBuckets() []string {
	return []string{
		types.BucketKWHTotal,
		types.BucketMonthly,
		types.BucketDaily,
		types.BucketHourly,
		types.BucketQuarterHourly,
	}
}

func monthlyBuckets() []string {
	return []string{types.BucketKWHTotal, types.BucketMonthly}
}

// newTestServer builds a Server over the given mock database with the fake
// source registered as the smart meter one.
func newTestServer(db storage.Database, src meter.Source) *Server {
	directory := tdsp.New(nil)
	meters := meter.NewMap()
	if src != nil {
		meters.SetSource(meter.SourceSMT, src)
	}
	return &Server{
		storage:     db,
		tdsp:        directory,
		meters:      meters,
		estimator:   estimate.New(db, directory),
		listenAddr:  ":8080",
		serverName:  "test",
		batchBudget: 10 * time.Second,
	}
}

func newMockDatabase() *storagemock.MockDatabase {
	return &storagemock.MockDatabase{}
}

func flatTestPlan(id string, rateCents float64) types.RatePlan {
	return types.RatePlan{
		ID:          id,
		Name:        "Flat " + id,
		Provider:    "Acme Energy",
		UtilityCode: tdsp.CodeOncor,
		Rate: &types.RateModel{
			Kind: types.RateKindFlat,
			EnergyCharges: []types.EnergyChargeTier{
				{FromKWH: 0, RateCents: rateCents},
			},
		},
	}
}

func touTestPlan(id string) types.RatePlan {
	return types.RatePlan{
		ID:          id,
		Name:        "Free Evenings " + id,
		Provider:    "Acme Energy",
		UtilityCode: tdsp.CodeOncor,
		Rate: &types.RateModel{
			Kind: types.RateKindTOU,
			EnergyCharges: []types.EnergyChargeTier{
				{FromKWH: 0, RateCents: 15},
				{FromKWH: 0, RateCents: 8},
			},
			PeakWindow: &types.TouWindow{StartHour: 17, EndHour: 21},
		},
	}
}
