package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/intelliwatt/intelliwatt/pkg/log"
	"github.com/intelliwatt/intelliwatt/pkg/types"
	"github.com/intelliwatt/intelliwatt/pkg/usage"
)

// handleUsageSummary aggregates a house's usage over a time range into day
// and hour buckets.
func (s *Server) handleUsageSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	houseID := r.URL.Query().Get("houseId")
	if houseID == "" {
		writeJSONError(w, "houseId is required", http.StatusBadRequest)
		return
	}
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSONError(w, "invalid time range: "+err.Error(), http.StatusBadRequest)
		return
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

	intervals, err := source.Intervals(ctx, houseID, start, end)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get usage intervals", slog.String("houseID", houseID), slog.Any("error", err))
		writeJSONError(w, "failed to get usage", http.StatusInternalServerError)
		return
	}
	agg, err := usage.Aggregate(intervals, start, end)
	if err != nil {
		writeJSONError(w, "invalid time range: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	// Set Cache-Control headers
	// If the range ends before today (midnight today), cache for 24 hours.
	// Otherwise, cache for 1 minute.
	today := time.Now().Truncate(24 * time.Hour)
	if end.Before(today) {
		w.Header().Set("Cache-Control", "private, max-age=86400")
	} else {
		w.Header().Set("Cache-Control", "private, max-age=60")
	}

	if err := json.NewEncoder(w).Encode(agg); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) handleGetManualUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	houseID := r.URL.Query().Get("houseId")
	if houseID == "" {
		writeJSONError(w, "houseId is required", http.StatusBadRequest)
		return
	}

	mu, err := s.storage.GetManualUsage(ctx, houseID)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get manual usage", slog.String("houseID", houseID), slog.Any("error", err))
		writeStorageError(w, err, "manual usage")
		return
	}
	writeJSON(w, mu)
}

type manualUsageRequest struct {
	HouseID string            `json:"houseId"`
	Usage   types.ManualUsage `json:"usage"`
}

// handleSetManualUsage stores user-entered usage totals after checking they
// normalize into daily readings.
func (s *Server) handleSetManualUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req manualUsageRequest
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
	if _, err := usage.Normalize(req.Usage, house.BillEndDay); err != nil {
		writeJSONError(w, "invalid usage: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.storage.SetManualUsage(ctx, req.HouseID, req.Usage); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to set manual usage", slog.String("houseID", req.HouseID), slog.Any("error", err))
		writeJSONError(w, "failed to set manual usage", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseTimeRange(r *http.Request) (time.Time, time.Time, error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr == "" || endStr == "" {
		// Default to the last 30 days if not specified
		end := time.Now().UTC()
		start := end.AddDate(0, 0, -30)
		return start, end, nil
	}

	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start time: %w", err)
	}

	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end time: %w", err)
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("start time must be before end time")
	}

	if end.Sub(start) > 366*24*time.Hour {
		return time.Time{}, time.Time{}, fmt.Errorf("time range cannot exceed a year")
	}

	return start, end, nil
}
