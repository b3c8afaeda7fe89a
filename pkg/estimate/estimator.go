package estimate

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/intelliwatt/intelliwatt/pkg/common"
	"github.com/intelliwatt/intelliwatt/pkg/engine"
	"github.com/intelliwatt/intelliwatt/pkg/log"
	"github.com/intelliwatt/intelliwatt/pkg/metrics"
	"github.com/intelliwatt/intelliwatt/pkg/types"
	"github.com/intelliwatt/intelliwatt/pkg/usage"
)

// DefaultMonths is the estimate horizon when the caller does not pick one.
const DefaultMonths = 12

// Store is the estimate cache surface of the database.
type Store interface {
	GetEstimate(ctx context.Context, houseID, planID, fingerprint string, months int) (types.Estimate, bool, error)
	UpsertEstimate(ctx context.Context, est types.Estimate) error
}

// UsageReader provides a house's metered or normalized usage along with the
// bucket granularities it can stand behind.
type UsageReader interface {
	Intervals(ctx context.Context, houseID string, start, end time.Time) ([]types.Interval, error)
	BucketKeys() []string
}

// DeliveryLookup resolves TDSP delivery snapshots.
type DeliveryLookup interface {
	// Snapshot returns the snapshot effective at or before the given time.
	// When none qualifies it falls back to the most recent one and reports
	// stale. Unknown utilities return nil.
	Snapshot(ctx context.Context, utilityCode string, at time.Time) (*types.TdspDelivery, bool, error)
}

// Estimator prices plans against house usage with fingerprint memoization.
type Estimator struct {
	store    Store
	delivery DeliveryLookup
}

// New returns an Estimator backed by the given cache store and delivery
// rate lookup. Either may be nil, which disables caching or prices delivery
// at zero with a warning respectively.
func New(store Store, delivery DeliveryLookup) *Estimator {
	return &Estimator{
		store:    store,
		delivery: delivery,
	}
}

// Request describes one estimate: a house, the plan to price, and the usage
// source serving that house.
type Request struct {
	House  types.House
	Plan   types.RatePlan
	Source UsageReader
	// Months is the horizon of whole calendar months to price, default 12.
	Months int
	// WindowEnd is the exclusive end of the usage window, default the start
	// of the current month. The window start is Months before it.
	WindowEnd time.Time
	Options   engine.Options
}

// Result carries the gate assessment plus the estimate when one was
// produced. A NOT_COMPUTABLE plan is a nil Estimate with no error.
type Result struct {
	Assessment types.Assessment `json:"assessment"`
	Estimate   *types.Estimate  `json:"estimate,omitempty"`
	CacheHit   bool             `json:"cacheHit"`
}

// Estimate runs gate, fingerprint, cache lookup, computation and store for
// a single plan. Pricing degradations surface as warnings on the estimate;
// errors are reserved for the fatal cases and infrastructure failures.
func (e *Estimator) Estimate(ctx context.Context, req Request) (Result, error) {
	if req.Plan.Rate == nil {
		metrics.IncEstimate(metrics.OutcomeFailed)
		return Result{}, fmt.Errorf("plan %s has no rate model", req.Plan.ID)
	}
	months := req.Months
	if months <= 0 {
		months = DefaultMonths
	}
	end := req.WindowEnd.UTC()
	if req.WindowEnd.IsZero() {
		now := time.Now().UTC()
		end = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	start := end.AddDate(0, -months, 0)

	var available []string
	if req.Source != nil {
		available = req.Source.BucketKeys()
	}
	res := Result{Assessment: Assess(req.Plan, available)}
	if res.Assessment.Status == types.NotComputable {
		metrics.IncEstimate(metrics.OutcomeNotComputable)
		log.Ctx(ctx).DebugContext(ctx, "plan is not computable",
			slog.String("houseID", req.House.ID),
			slog.String("planID", req.Plan.ID),
			slog.String("reason", res.Assessment.ReasonCode))
		return res, nil
	}

	var intervals []types.Interval
	if req.Source != nil {
		var err error
		intervals, err = req.Source.Intervals(ctx, req.House.ID, start, end)
		if err != nil {
			metrics.IncEstimate(metrics.OutcomeFailed)
			return res, fmt.Errorf("reading usage for house %s: %w", req.House.ID, err)
		}
	}
	total, err := usage.Aggregate(intervals, start, end)
	if err != nil {
		metrics.IncEstimate(metrics.OutcomeFailed)
		return res, err
	}
	monthly, err := usage.ByMonth(intervals, start, end)
	if err != nil {
		metrics.IncEstimate(metrics.OutcomeFailed)
		return res, err
	}

	var warnings []string
	var snap *types.TdspDelivery
	if e.delivery != nil {
		var stale bool
		snap, stale, err = e.delivery.Snapshot(ctx, req.House.UtilityCode, start)
		if err != nil {
			metrics.IncEstimate(metrics.OutcomeFailed)
			return res, fmt.Errorf("looking up delivery rates for %s: %w", req.House.UtilityCode, err)
		}
		if snap == nil {
			warnings = appendWarning(warnings, types.WarnTdspMissing)
		} else if stale {
			warnings = appendWarning(warnings, types.WarnTdspSnapshotStale)
		}
	} else {
		warnings = appendWarning(warnings, types.WarnTdspMissing)
	}

	fp, err := fingerprint(fingerprintInputs{
		EngineVersion: common.Version(),
		Months:        months,
		TotalKWH:      total.KWHTotal,
		Delivery:      snap,
		Rate:          req.Plan.Rate,
		MonthlyUsage:  monthly,
	})
	if err != nil {
		metrics.IncEstimate(metrics.OutcomeFailed)
		return res, err
	}

	if e.store != nil {
		cached, ok, err := e.store.GetEstimate(ctx, req.House.ID, req.Plan.ID, fp, months)
		if err != nil {
			// a broken cache read degrades to a recompute
			log.Ctx(ctx).WarnContext(ctx, "estimate cache lookup failed",
				slog.String("houseID", req.House.ID),
				slog.String("planID", req.Plan.ID),
				slog.Any("error", err))
		} else if ok {
			metrics.IncEstimate(metrics.OutcomeCacheHit)
			res.Estimate = &cached
			res.CacheHit = true
			return res, nil
		}
	}

	computeStart := time.Now()
	est := types.Estimate{
		HouseID:       req.House.ID,
		PlanID:        req.Plan.ID,
		Fingerprint:   fp,
		Months:        months,
		KWHTotal:      total.KWHTotal,
		EngineVersion: common.Version(),
	}
	var sum int64
	present := 0
	missingMonth := false
	for _, m := range monthly {
		if len(m.Agg.ByDay) == 0 && m.Agg.KWHTotal == 0 {
			missingMonth = true
			continue
		}
		b, monthWarnings, err := engine.ComputeBreakdown(ctx, engine.Inputs{
			Rate:     req.Plan.Rate,
			Usage:    m.Agg,
			Delivery: snap,
			MonthKey: m.Key,
		}, req.Options)
		if err != nil {
			metrics.IncEstimate(metrics.OutcomeFailed)
			return res, fmt.Errorf("computing %s for plan %s: %w", m.Key, req.Plan.ID, err)
		}
		est.Monthly = append(est.Monthly, b)
		sum += b.TotalCents
		present++
		for _, w := range monthWarnings {
			warnings = appendWarning(warnings, w)
		}
	}
	if missingMonth {
		warnings = appendWarning(warnings, types.WarnUsageMonthMissing)
	}

	if present > 0 {
		est.AvgMonthlyCents = int64(math.Round(float64(sum) / float64(present)))
		if months == DefaultMonths && present == DefaultMonths {
			est.AnnualCents = sum
		} else {
			est.AnnualCents = est.AvgMonthlyCents * 12
			warnings = appendWarning(warnings, types.WarnAnnualExtrapolated)
		}
	}
	est.Warnings = warnings
	metrics.ObserveEstimateLatency(time.Since(computeStart))

	if e.store != nil {
		if err := e.store.UpsertEstimate(ctx, est); err != nil {
			// the estimate is still good, only memoization was lost
			log.Ctx(ctx).ErrorContext(ctx, "failed to store estimate",
				slog.String("houseID", req.House.ID),
				slog.String("planID", req.Plan.ID),
				slog.Any("error", err))
		}
	}
	metrics.IncEstimate(metrics.OutcomeComputed)
	res.Estimate = &est
	return res, nil
}

// appendWarning keeps warnings unique while preserving first-seen order.
func appendWarning(warnings []string, w string) []string {
	for _, existing := range warnings {
		if existing == w {
			return warnings
		}
	}
	return append(warnings, w)
}
