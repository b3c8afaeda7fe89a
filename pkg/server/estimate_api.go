package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strconv"

	"github.com/intelliwatt/intelliwatt/pkg/engine"
	"github.com/intelliwatt/intelliwatt/pkg/estimate"
	"github.com/intelliwatt/intelliwatt/pkg/log"
)

type estimateRequest struct {
	HouseID                 string `json:"houseId"`
	PlanID                  string `json:"planId"`
	Months                  int    `json:"months"`
	RequireTimeseriesForTOU bool   `json:"requireTimeseriesForTou"`
}

// handleEstimate prices one plan for one house. NOT_COMPUTABLE plans come
// back 200 with the assessment and no estimate.
func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req estimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.HouseID == "" || req.PlanID == "" {
		writeJSONError(w, "houseId and planId are required", http.StatusBadRequest)
		return
	}

	house, err := s.storage.GetHouse(ctx, req.HouseID)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get house", slog.String("houseID", req.HouseID), slog.Any("error", err))
		writeStorageError(w, err, "house")
		return
	}
	plan, err := s.storage.GetRatePlan(ctx, req.PlanID)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get rate plan", slog.String("planID", req.PlanID), slog.Any("error", err))
		writeStorageError(w, err, "rate plan")
		return
	}
	source, err := s.meters.ForHouse(house)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := s.estimator.Estimate(ctx, estimate.Request{
		House:  house,
		Plan:   plan,
		Source: source,
		Months: req.Months,
		Options: engine.Options{
			RequireTimeseriesForTOU: req.RequireTimeseriesForTOU,
		},
	})
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to estimate",
			slog.String("houseID", req.HouseID),
			slog.String("planID", req.PlanID),
			slog.Any("error", err))
		writeJSONError(w, "failed to estimate", http.StatusInternalServerError)
		return
	}
	writeJSON(w, res)
}

type compareEntry struct {
	PlanID          string   `json:"planId"`
	PlanName        string   `json:"planName"`
	Provider        string   `json:"provider"`
	AnnualCents     int64    `json:"annualCents"`
	AvgMonthlyCents int64    `json:"avgMonthlyCents"`
	CacheHit        bool     `json:"cacheHit"`
	Warnings        []string `json:"warnings,omitempty"`
}

type compareSkipped struct {
	PlanID     string `json:"planId"`
	ReasonCode string `json:"reasonCode,omitempty"`
}

type compareResponse struct {
	Results       []compareEntry   `json:"results"`
	NotComputable []compareSkipped `json:"notComputable,omitempty"`
	Failed        []compareSkipped `json:"failed,omitempty"`
}

// handleCompare prices every plan serving the house's territory and ranks
// the computable ones by annual cost, cheapest first.
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	houseID := r.URL.Query().Get("houseId")
	if houseID == "" {
		writeJSONError(w, "houseId is required", http.StatusBadRequest)
		return
	}
	months := 0
	if m := r.URL.Query().Get("months"); m != "" {
		parsed, err := strconv.Atoi(m)
		if err != nil || parsed < 0 {
			writeJSONError(w, "invalid months", http.StatusBadRequest)
			return
		}
		months = parsed
	}

	house, err := s.storage.GetHouse(ctx, houseID)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get house", slog.String("houseID", houseID), slog.Any("error", err))
		writeStorageError(w, err, "house")
		return
	}
	source, err := s.meters.ForHouse(house)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	plans, err := s.storage.ListRatePlans(ctx)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to list rate plans", slog.Any("error", err))
		writeJSONError(w, "failed to list rate plans", http.StatusInternalServerError)
		return
	}

	resp := compareResponse{Results: []compareEntry{}}
	for _, plan := range plans {
		if plan.UtilityCode != "" && plan.UtilityCode != house.UtilityCode {
			continue
		}
		res, err := s.estimator.Estimate(ctx, estimate.Request{
			House:  house,
			Plan:   plan,
			Source: source,
			Months: months,
		})
		if err != nil {
			log.Ctx(ctx).WarnContext(ctx, "failed to estimate for comparison",
				slog.String("houseID", houseID),
				slog.String("planID", plan.ID),
				slog.Any("error", err))
			resp.Failed = append(resp.Failed, compareSkipped{PlanID: plan.ID})
			continue
		}
		if res.Estimate == nil {
			resp.NotComputable = append(resp.NotComputable, compareSkipped{
				PlanID:     plan.ID,
				ReasonCode: res.Assessment.ReasonCode,
			})
			continue
		}
		resp.Results = append(resp.Results, compareEntry{
			PlanID:          plan.ID,
			PlanName:        plan.Name,
			Provider:        plan.Provider,
			AnnualCents:     res.Estimate.AnnualCents,
			AvgMonthlyCents: res.Estimate.AvgMonthlyCents,
			CacheHit:        res.CacheHit,
			Warnings:        res.Estimate.Warnings,
		})
	}
	sort.SliceStable(resp.Results, func(i, j int) bool {
		return resp.Results[i].AnnualCents < resp.Results[j].AnnualCents
	})

	writeJSON(w, resp)
}

// handleComputability runs the gate for one house and plan without pricing
// anything.
func (s *Server) handleComputability(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	houseID := r.URL.Query().Get("houseId")
	planID := r.URL.Query().Get("planId")
	if houseID == "" || planID == "" {
		writeJSONError(w, "houseId and planId are required", http.StatusBadRequest)
		return
	}

	house, err := s.storage.GetHouse(ctx, houseID)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get house", slog.String("houseID", houseID), slog.Any("error", err))
		writeStorageError(w, err, "house")
		return
	}
	plan, err := s.storage.GetRatePlan(ctx, planID)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get rate plan", slog.String("planID", planID), slog.Any("error", err))
		writeStorageError(w, err, "rate plan")
		return
	}
	source, err := s.meters.ForHouse(house)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, estimate.Assess(plan, source.BucketKeys()))
}
