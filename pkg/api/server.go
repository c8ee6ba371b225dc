// Package api oidcast REST API
//
// @title           oidcast REST API
// @version         1.0.0
// @description     Records keyed by 12-byte binary identifiers, exposed as hex.
// @host            localhost:9200
// @BasePath        /api/v1
//
// @securityDefinitions.apikey ApiKeyAuth
// @in              header
// @name            X-API-Key
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/ssargent/oidcast/pkg/model"
)

const shutdownTimeout = 10 * time.Second

// Router builds the HTTP handler with all routes configured.
func (s *Server) Router() http.Handler {
	m := s.metrics
	r := chi.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", m.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if s.config.APIKey != "" {
			r.Use(m.InstrumentAuthMiddleware(apiKeyMiddleware(s.config.APIKey)))
		}

		r.Get("/health", m.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))
		r.Get("/normalize", m.InstrumentHandler("GET", "/api/v1/normalize", s.handleNormalize))

		r.Get("/tables", m.InstrumentHandler("GET", "/api/v1/tables", s.handleListTables))
		r.Route("/tables/{table}", func(r chi.Router) {
			r.Post("/records", m.InstrumentHandler("POST", "/api/v1/tables/{table}/records", s.handleCreateRecord))
			r.Get("/records/{id}", m.InstrumentHandler("GET", "/api/v1/tables/{table}/records/{id}", s.handleGetRecord))
			r.Delete("/records/{id}", m.InstrumentHandler("DELETE", "/api/v1/tables/{table}/records/{id}", s.handleDeleteRecord))
			r.Post("/query", m.InstrumentHandler("POST", "/api/v1/tables/{table}/query", s.handleQuery))
			r.Get("/stats", m.InstrumentHandler("GET", "/api/v1/tables/{table}/stats", s.handleStats))
		})
	})

	return r
}

// StartServer serves the API until ctx is cancelled, then shuts down
// gracefully.
func StartServer(ctx context.Context, repos []*model.Repository, config ServerConfig, metrics *Metrics, logger *slog.Logger) error {
	server := NewServer(repos, config, metrics, logger)

	addr := fmt.Sprintf("%s:%d", config.Bind, config.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		server.logger.Info("starting server", "addr", addr, "tables", server.tables, "auth", config.APIKey != "")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	server.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
