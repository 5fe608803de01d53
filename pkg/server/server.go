package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	handlers "github.com/de-tools/sql-sentry/pkg/handlers/audit"
	sentrymiddleware "github.com/de-tools/sql-sentry/pkg/server/middleware"
	"github.com/de-tools/sql-sentry/pkg/runtime/export"
	auditsvc "github.com/de-tools/sql-sentry/pkg/services/audit"
	"github.com/de-tools/sql-sentry/pkg/services/config"
)

type WebAPI struct {
	router          *chi.Mux
	logger          *zerolog.Logger
	server          *http.Server
	shutdownTimeout time.Duration
}

type Dependencies struct {
	Registry  config.Registry
	Auditor   *auditsvc.Service
	Providers handlers.ProviderFactory
	Reporter  *export.Reporter
}

type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	Dependencies    Dependencies
}

func NewWebAPI(logger zerolog.Logger, cfg Config) *WebAPI {
	deps := cfg.Dependencies
	auditHandler := handlers.NewHandler(
		deps.Registry, deps.Auditor, deps.Providers, deps.Reporter,
		logger.WithContext(context.Background()),
	)

	router := chi.NewRouter()

	router.Use(sentrymiddleware.Logger(&logger))
	router.Use(middleware.Recoverer)

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/profiles", auditHandler.ListProfiles)
		r.Post("/audits", auditHandler.StartRun)
		r.Get("/audits/{id}", auditHandler.GetRun)
		r.Delete("/audits/{id}", auditHandler.CancelRun)
		r.Get("/audits/{id}/summary", auditHandler.GetSummary)
		r.Get("/audits/{id}/diagnostics", auditHandler.GetDiagnostics)
		r.Get("/audits/{id}/report", auditHandler.GetReport)
	})
	router.Handle("/metrics", promhttp.Handler())

	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = 10 * time.Second
	}

	return &WebAPI{
		router: router,
		logger: &logger,
		server: &http.Server{
			Addr:    cfg.Addr,
			Handler: router,
		},
		shutdownTimeout: shutdownTimeout,
	}
}

func (w *WebAPI) Start() error {
	serverErrors := make(chan error, 1)
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		w.logger.Info().Str("addr", w.server.Addr).Msg("starting server")
		serverErrors <- w.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-shutdown:
		w.logger.Info().Msg("shutdown initiated")

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
		defer cancel()

		err := w.server.Shutdown(ctx)
		if err != nil {
			w.logger.Error().Err(err).Msg("graceful shutdown failed")
			err = w.server.Close()
		}

		if err != nil {
			return err
		}
	}

	return nil
}

// Router exposes the configured mux for tests.
func (w *WebAPI) Router() http.Handler {
	return w.router
}
