package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/intelliwatt/intelliwatt/pkg/log"
	"github.com/intelliwatt/intelliwatt/pkg/tdsp"
	"github.com/intelliwatt/intelliwatt/pkg/types"
)

func (s *Server) handleListHouses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	houses, err := s.storage.ListHouses(ctx)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to list houses", slog.Any("error", err))
		writeJSONError(w, "failed to list houses", http.StatusInternalServerError)
		return
	}
	writeJSON(w, houses)
}

func (s *Server) handleUpsertHouse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var house types.House
	if err := json.NewDecoder(r.Body).Decode(&house); err != nil {
		writeJSONError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if house.ID == "" {
		writeJSONError(w, "id is required", http.StatusBadRequest)
		return
	}
	if house.UtilityCode != "" {
		if _, ok := tdsp.Name(house.UtilityCode); !ok {
			writeJSONError(w, "unknown utilityCode: "+house.UtilityCode, http.StatusBadRequest)
			return
		}
	}
	if house.UsageSource != "" {
		if _, err := s.meters.Source(house.UsageSource); err != nil {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	if err := s.storage.UpsertHouse(ctx, house); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to upsert house", slog.String("houseID", house.ID), slog.Any("error", err))
		writeJSONError(w, "failed to upsert house", http.StatusInternalServerError)
		return
	}
	writeJSON(w, house)
}
