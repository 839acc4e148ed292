// Package server exposes chart composition over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/huangsam/scorechart/core"
	"github.com/huangsam/scorechart/internal/contract"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

// MaxBodySize bounds request bodies.
const MaxBodySize = "4M"

// shutdownTimeout bounds the graceful shutdown.
const shutdownTimeout = 10 * time.Second

// Server serves chart descriptions for posted points and stored patient observations.
type Server struct {
	cfg    *contract.Config
	reg    *core.Registry
	store  contract.ObservationStore
	logger zerolog.Logger
	echo   *echo.Echo
}

// New builds the server and registers its routes. The store may be nil, in
// which case the patient routes answer 503.
func New(cfg *contract.Config, reg *core.Registry, st contract.ObservationStore, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(Recovery(logger))
	e.Use(RequestID())
	e.Use(Logger(logger))
	e.Use(echomw.BodyLimit(MaxBodySize))

	s := &Server{cfg: cfg, reg: reg, store: st, logger: logger, echo: e}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/healthz", s.handleHealth)

	v1 := s.echo.Group("/v1")
	v1.GET("/instruments", s.handleInstruments)
	v1.POST("/charts", s.handleComposeChart)
	v1.POST("/tooltip", s.handleTooltip)

	patients := v1.Group("/patients/:patient")
	patients.GET("/dashboard", s.handlePatientDashboard)
	patients.GET("/charts/:instrument", s.handlePatientChart)
	patients.POST("/observations/:instrument", s.handleRecordObservations)
}

// Handler returns the HTTP handler. This is exposed for unit testing.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("starting server")
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info().Msg("server stopped")
	return nil
}
