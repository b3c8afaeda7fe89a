package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/levenlabs/go-lflag"

	"github.com/intelliwatt/intelliwatt/pkg/types"
)

var (
	ErrHouseNotFound       = errors.New("house not found")
	ErrPlanNotFound        = errors.New("rate plan not found")
	ErrManualUsageNotFound = errors.New("manual usage not found")
)

// Database defines the interface for persisting houses, rate plans, usage
// and the estimate cache.
type Database interface {
	// Houses
	GetHouse(ctx context.Context, houseID string) (types.House, error)
	ListHouses(ctx context.Context) ([]types.House, error)
	UpsertHouse(ctx context.Context, house types.House) error

	// Rate plans
	GetRatePlan(ctx context.Context, planID string) (types.RatePlan, error)
	ListRatePlans(ctx context.Context) ([]types.RatePlan, error)
	UpsertRatePlan(ctx context.Context, plan types.RatePlan) error

	// Usage
	UpsertUsageIntervals(ctx context.Context, houseID string, intervals []types.Interval) error
	GetUsageIntervals(ctx context.Context, houseID string, start, end time.Time) ([]types.Interval, error)
	GetManualUsage(ctx context.Context, houseID string) (types.ManualUsage, error)
	SetManualUsage(ctx context.Context, houseID string, entry types.ManualUsage) error

	// TDSP reference data
	GetTdspRates(ctx context.Context, utilityCode string) ([]types.TdspDelivery, error)
	UpsertTdspRate(ctx context.Context, rate types.TdspDelivery) error

	// Estimate cache
	GetEstimate(ctx context.Context, houseID, planID, fingerprint string, months int) (types.Estimate, bool, error)
	UpsertEstimate(ctx context.Context, est types.Estimate) error

	// Lifecycle
	Close() error
}

// Configured sets up the Storage provider based on flags.
func Configured() Database {
	provider := lflag.String("storage-provider", "firestore", "Storage provider to use (available: firestore)")

	var p struct{ Database }

	fs := configuredFirestore()

	lflag.Do(func() {
		switch *provider {
		case "firestore":
			if err := fs.Validate(); err != nil {
				panic(fmt.Sprintf("firestore validation failed: %v", err))
			}
			p.Database = fs
			if err := fs.Init(context.Background()); err != nil {
				panic(fmt.Sprintf("firestore init failed: %v", err))
			}
		default:
			panic(fmt.Sprintf("unknown storage provider: %s", *provider))
		}
	})

	return &p
}
