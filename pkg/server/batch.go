package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/intelliwatt/intelliwatt/pkg/estimate"
	"github.com/intelliwatt/intelliwatt/pkg/log"
)

type batchRequest struct {
	HouseID string `json:"houseId"`
	Months  int    `json:"months"`
}

// handleBatch estimates every stored plan for one house inside the server's
// wall-clock budget and reports counts per outcome.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.HouseID == "" {
		writeJSONError(w, "houseId is required", http.StatusBadRequest)
		return
	}

	house, err := s.storage.GetHouse(ctx, req.HouseID)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get house", slog.String("houseID", req.HouseID), slog.Any("error", err))
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

	result := s.estimator.RunBatch(ctx, estimate.Request{
		House:  house,
		Source: source,
		Months: req.Months,
	}, plans, s.batchBudget)
	writeJSON(w, result)
}
