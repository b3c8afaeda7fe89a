package storagemock

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/intelliwatt/intelliwatt/pkg/storage"
	"github.com/intelliwatt/intelliwatt/pkg/types"
)

type MockDatabase struct {
	mock.Mock
}

var _ storage.Database = (*MockDatabase)(nil)

func (m *MockDatabase) GetHouse(ctx context.Context, houseID string) (types.House, error) {
	args := m.Called(ctx, houseID)
	if len(args) > 0 {
		return args.Get(0).(types.House), args.Error(1)
	}
	return types.House{}, nil
}

func (m *MockDatabase) ListHouses(ctx context.Context) ([]types.House, error) {
	args := m.Called(ctx)
	if len(args) > 0 {
		return args.Get(0).([]types.House), args.Error(1)
	}
	return nil, nil
}

func (m *MockDatabase) UpsertHouse(ctx context.Context, house types.House) error {
	args := m.Called(ctx, house)
	return args.Error(0)
}

func (m *MockDatabase) GetRatePlan(ctx context.Context, planID string) (types.RatePlan, error) {
	args := m.Called(ctx, planID)
	if len(args) > 0 {
		return args.Get(0).(types.RatePlan), args.Error(1)
	}
	return types.RatePlan{}, nil
}

func (m *MockDatabase) ListRatePlans(ctx context.Context) ([]types.RatePlan, error) {
	args := m.Called(ctx)
	if len(args) > 0 {
		return args.Get(0).([]types.RatePlan), args.Error(1)
	}
	return nil, nil
}

func (m *MockDatabase) UpsertRatePlan(ctx context.Context, plan types.RatePlan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockDatabase) UpsertUsageIntervals(ctx context.Context, houseID string, intervals []types.Interval) error {
	args := m.Called(ctx, houseID, intervals)
	return args.Error(0)
}

func (m *MockDatabase) GetUsageIntervals(ctx context.Context, houseID string, start, end time.Time) ([]types.Interval, error) {
	args := m.Called(ctx, houseID, start, end)
	if len(args) > 0 {
		return args.Get(0).([]types.Interval), args.Error(1)
	}
	return nil, nil
}

func (m *MockDatabase) GetManualUsage(ctx context.Context, houseID string) (types.ManualUsage, error) {
	args := m.Called(ctx, houseID)
	if len(args) > 0 {
		return args.Get(0).(types.ManualUsage), args.Error(1)
	}
	return types.ManualUsage{}, nil
}

func (m *MockDatabase) SetManualUsage(ctx context.Context, houseID string, entry types.ManualUsage) error {
	args := m.Called(ctx, houseID, entry)
	return args.Error(0)
}

func (m *MockDatabase) GetTdspRates(ctx context.Context, utilityCode string) ([]types.TdspDelivery, error) {
	args := m.Called(ctx, utilityCode)
	if len(args) > 0 {
		return args.Get(0).([]types.TdspDelivery), args.Error(1)
	}
	return nil, nil
}

func (m *MockDatabase) UpsertTdspRate(ctx context.Context, rate types.TdspDelivery) error {
	args := m.Called(ctx, rate)
	return args.Error(0)
}

func (m *MockDatabase) GetEstimate(ctx context.Context, houseID, planID, fingerprint string, months int) (types.Estimate, bool, error) {
	args := m.Called(ctx, houseID, planID, fingerprint, months)
	if len(args) > 0 {
		return args.Get(0).(types.Estimate), args.Bool(1), args.Error(2)
	}
	return types.Estimate{}, false, nil
}

func (m *MockDatabase) UpsertEstimate(ctx context.Context, est types.Estimate) error {
	args := m.Called(ctx, est)
	return args.Error(0)
}

func (m *MockDatabase) Close() error {
	args := m.Called()
	return args.Error(0)
}
