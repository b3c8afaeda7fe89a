package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/levenlabs/go-lflag"

	"github.com/intelliwatt/intelliwatt/pkg/estimate"
	"github.com/intelliwatt/intelliwatt/pkg/log"
	"github.com/intelliwatt/intelliwatt/pkg/meter"
	"github.com/intelliwatt/intelliwatt/pkg/metrics"
	"github.com/intelliwatt/intelliwatt/pkg/storage"
	"github.com/intelliwatt/intelliwatt/pkg/tdsp"
)

// Server handles the HTTP API for the IntelliWatt estimation service. It
// orchestrates interactions between storage, the TDSP directory, the usage
// sources and the estimator.
type Server struct {
	storage   storage.Database
	tdsp      *tdsp.Directory
	meters    *meter.Map
	estimator *estimate.Estimator

	listenAddr  string
	httpServer  *http.Server
	serverName  string
	batchBudget time.Duration
}

// Configured initializes the Server with dependencies.
// It uses lflag to register command-line flags for configuration.
func Configured(db storage.Database, directory *tdsp.Directory, meters *meter.Map) *Server {
	srv := &Server{
		storage:    db,
		tdsp:       directory,
		meters:     meters,
		estimator:  estimate.New(db, directory),
		serverName: "intelliwatt",
	}
	revision := os.Getenv("K_REVISION")
	if revision != "" {
		srv.serverName = revision
	}

	// get the port from PORT when running in cloud run
	port := os.Getenv("PORT")
	if port == "" {
		// otherwise default to 8080
		port = "8080"
	}

	listenAddr := lflag.String("http-listen", ":"+port, "HTTP server listen address")
	batchBudget := lflag.Duration("batch-budget", 20*time.Second, "Wall-clock budget for one batch estimation run. 0 disables the deadline.")

	lflag.Do(func() {
		srv.listenAddr = *listenAddr
		srv.batchBudget = *batchBudget
	})

	return srv
}

func (s *Server) setupHandler() http.Handler {
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("POST /api/estimate", s.handleEstimate)
	apiMux.HandleFunc("GET /api/estimate/compare", s.handleCompare)
	apiMux.HandleFunc("GET /api/computability", s.handleComputability)
	apiMux.HandleFunc("POST /api/batch", s.handleBatch)
	apiMux.HandleFunc("GET /api/usage/summary", s.handleUsageSummary)
	apiMux.HandleFunc("GET /api/usage/manual", s.handleGetManualUsage)
	apiMux.HandleFunc("POST /api/usage/manual", s.handleSetManualUsage)
	apiMux.HandleFunc("GET /api/plans", s.handleListPlans)
	apiMux.HandleFunc("POST /api/plans", s.handleUpsertPlan)
	apiMux.HandleFunc("GET /api/houses", s.handleListHouses)
	apiMux.HandleFunc("POST /api/houses", s.handleUpsertHouse)
	apiMux.HandleFunc("GET /api/tdsp", s.handleListTdsp)

	mux := http.NewServeMux()
	mux.Handle("/api/", apiMux)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", s.handleHealthz)
	return s.revisionMiddleware(gziphandler.GzipHandler(s.securityHeadersMiddleware(mux)))
}

// Run starts the HTTP server and blocks until the context is canceled or an error occurs.
// It also handles graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.listenAddr,
		Handler:      s.setupHandler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	// use a channel to capturing server errors
	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		log.Ctx(ctx).InfoContext(ctx, "starting server", slog.String("addr", s.listenAddr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		// Context canceled, shut down gracefully
		log.Ctx(ctx).InfoContext(ctx, "shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}

func writeJSONError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{Error: msg}); err != nil {
		slog.Warn("failed to write error response", slog.Any("error", err))
		panic(http.ErrAbortHandler)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		panic(http.ErrAbortHandler)
	}
}

// writeStorageError maps not-found storage errors to 404 and everything
// else to 500.
func writeStorageError(w http.ResponseWriter, err error, what string) {
	switch {
	case errors.Is(err, storage.ErrHouseNotFound),
		errors.Is(err, storage.ErrPlanNotFound),
		errors.Is(err, storage.ErrManualUsageNotFound):
		writeJSONError(w, what+" not found", http.StatusNotFound)
	default:
		writeJSONError(w, "failed to load "+what, http.StatusInternalServerError)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		panic(http.ErrAbortHandler)
	}
}
