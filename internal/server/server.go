// Package server exposes the workout store over a JSON REST API.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lowaak/circuit-timer/internal/workout"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	repo     workout.Repository
	logger   *log.Logger
	router   chi.Router
	registry *prometheus.Registry
	metrics  *Metrics
}

// New creates a Server with all routes configured.
func New(repo workout.Repository, logger *log.Logger) *Server {
	if repo == nil {
		panic("Server: repository cannot be nil")
	}
	if logger == nil {
		panic("Server: logger cannot be nil")
	}

	registry := prometheus.NewRegistry()
	s := &Server{
		repo:     repo,
		logger:   logger,
		router:   chi.NewRouter(),
		registry: registry,
		metrics:  NewMetrics(registry),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.logger))
	s.router.Use(CORS)
	s.router.Use(s.metrics.RequestTrackingMiddleware)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	s.router.Route("/api/workouts", func(r chi.Router) {
		r.Get("/", s.handleListWorkouts)
		r.Post("/", s.handleCreateWorkout)
		r.Get("/{id}", s.handleGetWorkout)
		r.Put("/{id}", s.handleUpdateWorkout)
		r.Delete("/{id}", s.handleDeleteWorkout)
	})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("Server: listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Println("Server: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
