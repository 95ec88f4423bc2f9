package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/jgoulah/greenmeter/internal/dashboard"
	"github.com/jgoulah/greenmeter/internal/ingest"
	"github.com/jgoulah/greenmeter/internal/metrics"
	"github.com/jgoulah/greenmeter/pkg/models"
)

const maxBodyBytes = 1 << 20

// History is the read side of the durable store
type History interface {
	ListReadings(limit int) ([]models.StoredReading, error)
	ListDailyStats(limit int) ([]models.DailyStat, error)
}

// Server serves the dashboard HTTP API
type Server struct {
	router  *mux.Router
	dash    *dashboard.Dashboard
	gateway *ingest.Gateway
	history History
	metrics *metrics.Metrics
	log     *slog.Logger
	origins []string
}

// New creates a server. history may be nil when no durable store is configured.
func New(dash *dashboard.Dashboard, gateway *ingest.Gateway, history History, m *metrics.Metrics, log *slog.Logger, origins []string) *Server {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s := &Server{
		router:  mux.NewRouter(),
		dash:    dash,
		gateway: gateway,
		history: history,
		metrics: m,
		log:     log,
		origins: origins,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.withRequestID, s.withAccessLog)

	s.router.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)
	s.router.HandleFunc("/api/readings", s.postReadingHandler).Methods(http.MethodPost)
	s.router.HandleFunc("/api/dashboard", s.dashboardHandler).Methods(http.MethodGet)
	s.router.HandleFunc("/api/target", s.setTargetHandler).Methods(http.MethodPost)
	s.router.HandleFunc("/api/history/readings", s.historyReadingsHandler).Methods(http.MethodGet)
	s.router.HandleFunc("/api/history/daily", s.historyDailyHandler).Methods(http.MethodGet)
	s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
}

// Handler returns the router wrapped with CORS and panic recovery
func (s *Server) Handler() http.Handler {
	cors := handlers.CORS(
		handlers.AllowedOrigins(s.origins),
		handlers.AllowedMethods(corsMethods),
		handlers.AllowedHeaders(corsHeaders),
	)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(slog.NewLogLogger(s.log.Handler(), slog.LevelError)),
	)
	return recovery(cors(s.router))
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server is ready to handle requests", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("could not listen on %s: %w", addr, err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("server is shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	srv.SetKeepAlivesEnabled(false)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("could not gracefully shutdown the server: %w", err)
	}
	return <-errCh
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) postReadingHandler(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if _, err := s.gateway.SubmitJSON("http", body); err != nil {
		if ingest.IsValidation(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	snap, err := s.dash.Compute()
	if err != nil {
		s.log.Error("computing dashboard", "error", err, "request_id", requestID(r.Context()))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.metrics.DashboardBuilds.Inc()
	writeJSON(w, http.StatusOK, snap)
}

type targetRequest struct {
	MonthlyTarget *float64 `json:"monthly_target"`
}

type targetResponse struct {
	OK            bool    `json:"ok"`
	MonthlyTarget float64 `json:"monthly_target"`
}

func (s *Server) setTargetHandler(w http.ResponseWriter, r *http.Request) {
	var req targetRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err))
		return
	}
	if req.MonthlyTarget == nil {
		writeError(w, http.StatusBadRequest, "monthly_target is required")
		return
	}

	s.gateway.SetTarget(*req.MonthlyTarget)
	writeJSON(w, http.StatusOK, targetResponse{OK: true, MonthlyTarget: *req.MonthlyTarget})
}

func (s *Server) historyReadingsHandler(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, "durable store is not configured")
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	readings, err := s.history.ListReadings(limit)
	if err != nil {
		s.log.Error("listing stored readings", "error", err)
		writeError(w, http.StatusInternalServerError, "could not load readings")
		return
	}
	writeJSON(w, http.StatusOK, readings)
}

func (s *Server) historyDailyHandler(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, "durable store is not configured")
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := s.history.ListDailyStats(limit)
	if err != nil {
		s.log.Error("listing daily stats", "error", err)
		writeError(w, http.StatusInternalServerError, "could not load daily stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

var (
	corsMethods = []string{
		http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions,
	}
	corsHeaders = []string{
		"Accept", "Authorization", "Cache-Control", "Content-Type",
		"Origin", "X-Request-ID", "X-Requested-With",
	}
)

// parseLimit reads the optional ?limit= query value; 0 means the store default
func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("limit must be a non-negative integer")
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
