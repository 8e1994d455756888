// Package worker provides the scheduled worker process's operator-facing
// surfaces: the /healthz liveness endpoint (§10, §12).
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// HealthServer serves /healthz: process liveness plus, once a pipeline
// run has completed at least once, time since the last successful
// scheduled run. The server supports graceful shutdown via context
// cancellation.
type HealthServer struct {
	addr           string
	logger         *slog.Logger
	isReady        *atomic.Bool
	lastSuccessUTC atomic.Int64 // unix seconds; 0 means no run has succeeded yet
	server         *http.Server
}

// healthResponse is the JSON response format for the /healthz endpoint.
type healthResponse struct {
	Status              string `json:"status"`
	SecondsSinceLastRun *int64 `json:"seconds_since_last_successful_run,omitempty"`
}

// NewHealthServer creates a health check server listening at addr.
func NewHealthServer(addr string, logger *slog.Logger) *HealthServer {
	isReady := &atomic.Bool{}
	isReady.Store(false)

	return &HealthServer{
		addr:    addr,
		logger:  logger,
		isReady: isReady,
	}
}

// Start runs the /healthz HTTP server until ctx is canceled, then shuts
// it down gracefully with a 5-second timeout.
func (h *HealthServer) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.handleHealthz)

	h.server = &http.Server{
		Addr:         h.addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		h.logger.Info("health server starting", slog.String("addr", h.addr))
		if err := h.server.ListenAndServe(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		h.logger.Info("health server shutting down")
		if err := h.server.Shutdown(shutdownCtx); err != nil {
			h.logger.Error("health server shutdown failed", slog.Any("error", err))
			return err
		}
		h.logger.Info("health server stopped")
		return http.ErrServerClosed

	case err := <-errChan:
		if err == http.ErrServerClosed {
			return err
		}
		h.logger.Error("health server failed", slog.Any("error", err))
		return err
	}
}

// SetReady marks the worker as having finished startup (store connected,
// scheduler registered).
func (h *HealthServer) SetReady(ready bool) {
	h.isReady.Store(ready)
	h.logger.Info("health server readiness changed", slog.Bool("ready", ready))
}

// RecordSuccessfulRun stamps the time of a pipeline run that completed
// without error, surfaced by /healthz as seconds-since-last-success.
func (h *HealthServer) RecordSuccessfulRun(at time.Time) {
	h.lastSuccessUTC.Store(at.Unix())
}

func (h *HealthServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{Status: "ok"}
	if last := h.lastSuccessUTC.Load(); last != 0 {
		elapsed := time.Since(time.Unix(last, 0)).Round(time.Second)
		secs := int64(elapsed.Seconds())
		resp.SecondsSinceLastRun = &secs
	}

	if !h.isReady.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "not ready"
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			h.logger.Error("failed to encode healthz response", slog.Any("error", err))
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode healthz response", slog.Any("error", err))
	}
}
