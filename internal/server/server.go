// Package server exposes a querier over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/satishbabariya/ehrquery/internal/logging"
	"github.com/satishbabariya/ehrquery/pkg/client"
)

// DefaultRowLimit caps row endpoints when the request sets no limit.
const DefaultRowLimit = 1000

// Server serves catalog listings and query results as JSON.
type Server struct {
	querier  *client.Querier
	logger   *slog.Logger
	rowLimit int
	echo     *echo.Echo
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRowLimit sets the limit applied when a request has none. Zero
// disables it.
func WithRowLimit(n int) Option {
	return func(s *Server) {
		s.rowLimit = n
	}
}

// New builds a server over q.
func New(q *client.Querier, opts ...Option) *Server {
	s := &Server{querier: q, rowLimit: DefaultRowLimit}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrDiscard(s.logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = jsonSerializer{}
	e.HTTPErrorHandler = s.handleError
	e.Use(s.logRequests)

	e.GET("/healthz", s.health)
	e.GET("/schemas", s.listSchemas)
	e.GET("/schemas/:schema/tables", s.listTables)
	e.GET("/schemas/:schema/tables/:table/columns", s.listColumns)
	e.GET("/schemas/:schema/tables/:table/rows", s.tableRows)
	e.GET("/datasets/custom", s.listCustom)
	e.GET("/datasets/custom/:name", s.customRows)
	e.POST("/query", s.runQuery)

	s.echo = e
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("http server listening", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) logRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		s.logger.Debug("http request",
			"method", c.Request().Method,
			"path", c.Path(),
			"status", c.Response().Status,
			"duration", time.Since(start),
		)
		return nil
	}
}
