package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/satishbabariya/ehrquery/internal/core/query/rawsql"
	"github.com/satishbabariya/ehrquery/pkg/client"
	"github.com/satishbabariya/ehrquery/pkg/frame"
	"github.com/satishbabariya/ehrquery/pkg/query"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

var badRequest = []error{
	query.ErrEmptyQuery,
	query.ErrUnknownColumn,
	query.ErrUnknownColumns,
	query.ErrInvalidJoin,
	query.ErrInvalidUnion,
	query.ErrInvalidType,
	query.ErrInvalidLimit,
	query.ErrInvalidCondition,
	rawsql.ErrEmpty,
	rawsql.ErrNotSelect,
	client.ErrLimitNotSupported,
	frame.ErrColumnNotFound,
}

// statusOf maps an error to an HTTP status.
func statusOf(err error) int {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}
	switch {
	case errors.Is(err, client.ErrNotConnected):
		return http.StatusServiceUnavailable
	case errors.Is(err, client.ErrUnknownTable), errors.Is(err, client.ErrUnknownAccessor):
		return http.StatusNotFound
	}
	for _, target := range badRequest {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := statusOf(err)
	msg := err.Error()
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		if m, ok := httpErr.Message.(string); ok {
			msg = m
		}
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Path(), "error", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, ErrorResponse{Error: msg})
	}
	if err != nil {
		s.logger.Error("failed to write error response", "error", err)
	}
}
