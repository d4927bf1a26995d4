// Package controller contains the controller-specific logic for the HTTP API.
package controller

import (
	"context"
	"net/http"
	"time"

	"scout/internal/classifier"
	"scout/internal/controller/handlers"
	"scout/internal/controller/middleware"
)

// Config holds the server-level knobs.
type Config struct {
	Addr string
	// ChatRatePerSecond throttles POST /chat per user; 0 disables the limit.
	ChatRatePerSecond float64
	ChatRateBurst     int
	// MaxAttempts bounds manual retries; 0 applies the worker default.
	MaxAttempts int
}

// Server is the HTTP server for the controller API.
type Server struct {
	httpServer *http.Server
}

// New creates a new controller server. metricsHandler may be nil to skip
// the /metrics endpoint.
func New(cfg Config, store handlers.StoreFactory, cls *classifier.Classifier, metricsHandler http.Handler) *Server {
	h := handlers.New(store, cls, cfg.MaxAttempts)
	userMW := middleware.User
	chatMW := middleware.RateLimit(cfg.ChatRatePerSecond, cfg.ChatRateBurst)

	mux := http.NewServeMux()

	// Public authenticated apis
	mux.Handle("POST /chat", userMW(chatMW(http.HandlerFunc(h.Chat))))
	mux.Handle("POST /assignments", userMW(http.HandlerFunc(h.CreateAssignment)))
	mux.Handle("GET /assignments", userMW(http.HandlerFunc(h.ListAssignments)))
	mux.Handle("GET /assignments/stats", userMW(http.HandlerFunc(h.GetStats)))
	mux.Handle("GET /assignments/{id}", userMW(http.HandlerFunc(h.GetAssignment)))
	mux.Handle("POST /assignments/{id}/retry", userMW(http.HandlerFunc(h.RetryAssignment)))
	mux.Handle("GET /notifications", userMW(http.HandlerFunc(h.ListNotifications)))

	// Probes and metrics, no auth.
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      middleware.RequestID(mux),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
	}
}

// Run starts the HTTP server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutDownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return s.Shutdown(shutDownCtx)
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
