package estimate

import (
	"context"
	"log/slog"
	"time"

	"github.com/intelliwatt/intelliwatt/pkg/log"
	"github.com/intelliwatt/intelliwatt/pkg/metrics"
	"github.com/intelliwatt/intelliwatt/pkg/types"
)

// BatchResult summarizes a budget-bounded run over many plans. Partial
// completion is a reported outcome, not a failure.
type BatchResult struct {
	Computed      int   `json:"computed"`
	CacheHits     int   `json:"cacheHits"`
	NotComputable int   `json:"notComputable"`
	Failed        int   `json:"failed"`
	Skipped       int   `json:"skipped"`
	DeadlineHit   bool  `json:"deadlineHit"`
	ElapsedMS     int64 `json:"elapsedMs"`
}

// RunBatch estimates every plan for one house inside a wall-clock budget.
// Plans run sequentially and the deadline is only checked between
// iterations since each computation is bounded and fast. A per-plan error
// counts as failed and the loop moves on. A budget of zero disables the
// deadline and leaves only context cancellation.
func (e *Estimator) RunBatch(ctx context.Context, req Request, plans []types.RatePlan, budget time.Duration) BatchResult {
	start := time.Now()
	deadline := start.Add(budget)
	var result BatchResult
	for i, plan := range plans {
		if ctx.Err() != nil || (budget > 0 && time.Now().After(deadline)) {
			result.Skipped = len(plans) - i
			result.DeadlineHit = true
			break
		}
		r := req
		r.Plan = plan
		res, err := e.Estimate(ctx, r)
		switch {
		case err != nil:
			result.Failed++
			log.Ctx(ctx).WarnContext(ctx, "estimate failed during batch",
				slog.String("houseID", req.House.ID),
				slog.String("planID", plan.ID),
				slog.Any("error", err))
		case res.Estimate == nil:
			result.NotComputable++
		case res.CacheHit:
			result.CacheHits++
		default:
			result.Computed++
		}
	}
	result.ElapsedMS = time.Since(start).Milliseconds()
	metrics.IncBatchRun(result.DeadlineHit)
	log.Ctx(ctx).InfoContext(ctx, "batch estimation finished",
		slog.String("houseID", req.House.ID),
		slog.Int("plans", len(plans)),
		slog.Int("computed", result.Computed),
		slog.Int("cacheHits", result.CacheHits),
		slog.Int("notComputable", result.NotComputable),
		slog.Int("failed", result.Failed),
		slog.Int("skipped", result.Skipped),
		slog.Bool("deadlineHit", result.DeadlineHit))
	return result
}
