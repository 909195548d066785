package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/custodia-labs/policyhelper/internal/core/ports/driving"
	"github.com/custodia-labs/policyhelper/internal/logger"
)

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 10 * time.Second

// ErrMissingService is returned when a required service is not provided.
var ErrMissingService = errors.New("httpapi: ask, ingest and status services are required")

// Services aggregates the driving ports served over HTTP.
type Services struct {
	Ask      driving.AskService
	Ingest   driving.IngestService
	Status   driving.StatusService
	Document driving.DocumentService

	// Prometheus serves /metrics/prometheus. Optional.
	Prometheus http.Handler
}

// Server is the HTTP API.
type Server struct {
	echo *echo.Echo
	h    *handlers
}

// New builds the router.
func New(svc Services) (*Server, error) {
	if svc.Ask == nil || svc.Ingest == nil || svc.Status == nil {
		return nil, ErrMissingService
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(requestLogger())

	s := &Server{echo: e, h: &handlers{svc: svc}}
	s.h.register(e.Group(""))
	s.h.register(e.Group("/api"))
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http: listening on %s", addr)
		errCh <- s.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// requestLogger logs one line per request at debug level.
func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			logger.Debug("http: %s %s %d %s", c.Request().Method, c.Request().URL.Path,
				c.Response().Status, time.Since(start).Round(time.Microsecond))
			return err
		}
	}
}
