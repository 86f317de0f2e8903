// Package httpapi exposes the solve engine over HTTP (SPEC_FULL.md §6's
// problem/result documents as a request/response pair, plus the health and
// metrics endpoints cmd/itagsctl serve alongside it). The router shape
// generalizes the chi-based server pattern: request-scoped middleware,
// health check, metrics, and one route per capability, with every
// dependency (logger, environment pool, timekeeper) injected rather than
// reached for as a package global.
package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/elektrokombinacija/itags-scheduler/internal/envpool"
	"github.com/elektrokombinacija/itags-scheduler/internal/metrics"
	"github.com/elektrokombinacija/itags-scheduler/internal/timekeeper"
)

var registerMetricsOnce sync.Once

// Server is the HTTP API server wrapping the allocation-search/scheduling
// engine.
type Server struct {
	log  *zap.Logger
	pool *envpool.Pool
	tk   *timekeeper.Timekeeper
}

// NewServer constructs a Server. pool bounds how many solves run their
// MILP stage concurrently; tk is shared across every solve's timekeeper
// buckets so process-wide budgets (if configured) are honored.
func NewServer(log *zap.Logger, pool *envpool.Pool, tk *timekeeper.Timekeeper) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if pool == nil {
		pool = envpool.NewPool(1)
	}
	if tk == nil {
		tk = timekeeper.New()
	}
	registerMetricsOnce.Do(func() {
		for _, c := range metrics.Registry() {
			prometheus.MustRegister(c)
		}
	})
	return &Server{log: log, pool: pool, tk: tk}
}

// Handler returns the chi router with every route mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/v1/solve", s.handleSolve)

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info("http_request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
