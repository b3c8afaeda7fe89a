package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/intelliwatt/intelliwatt/pkg/log"
	"github.com/intelliwatt/intelliwatt/pkg/tdsp"
	"github.com/intelliwatt/intelliwatt/pkg/types"
)

type tdspEntry struct {
	types.TdspInfo
	Current *types.TdspDelivery `json:"current,omitempty"`
	Stale   bool                `json:"stale,omitempty"`
}

// handleListTdsp lists the known service territories with their delivery
// charges as of now.
func (s *Server) handleListTdsp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	now := time.Now().UTC()
	infos := tdsp.Info()
	entries := make([]tdspEntry, 0, len(infos))
	for _, info := range infos {
		entry := tdspEntry{TdspInfo: info}
		snap, stale, err := s.tdsp.Snapshot(ctx, info.Code, now)
		if err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to get tdsp snapshot", slog.String("utility", info.Code), slog.Any("error", err))
			writeJSONError(w, "failed to get tdsp rates", http.StatusInternalServerError)
			return
		}
		entry.Current = snap
		entry.Stale = stale
		entries = append(entries, entry)
	}
	writeJSON(w, entries)
}
