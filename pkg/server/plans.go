package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/intelliwatt/intelliwatt/pkg/log"
	"github.com/intelliwatt/intelliwatt/pkg/tdsp"
	"github.com/intelliwatt/intelliwatt/pkg/types"
)

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	plans, err := s.storage.ListRatePlans(ctx)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to list rate plans", slog.Any("error", err))
		writeJSONError(w, "failed to list rate plans", http.StatusInternalServerError)
		return
	}
	writeJSON(w, plans)
}

// handleUpsertPlan stores a rate plan from the extraction pipeline. Plans
// without a rate model are allowed in, the gate refuses them at estimate
// time.
func (s *Server) handleUpsertPlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var plan types.RatePlan
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		writeJSONError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if plan.ID == "" {
		writeJSONError(w, "id is required", http.StatusBadRequest)
		return
	}
	if plan.UtilityCode != "" {
		if _, ok := tdsp.Name(plan.UtilityCode); !ok {
			writeJSONError(w, "unknown utilityCode: "+plan.UtilityCode, http.StatusBadRequest)
			return
		}
	}
	plan.UpdatedAt = time.Now().UTC()

	if err := s.storage.UpsertRatePlan(ctx, plan); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to upsert rate plan", slog.String("planID", plan.ID), slog.Any("error", err))
		writeJSONError(w, "failed to upsert rate plan", http.StatusInternalServerError)
		return
	}
	writeJSON(w, plan)
}
