package server

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/satishbabariya/ehrquery/internal/core/query/filterexpr"
	"github.com/satishbabariya/ehrquery/pkg/client"
	"github.com/satishbabariya/ehrquery/pkg/frame"
)

// Health is the body of GET /healthz.
type Health struct {
	Status        string `json:"status"`
	Dialect       string `json:"dialect,omitempty"`
	ServerVersion string `json:"serverVersion,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Rows is a query result.
type Rows struct {
	Columns []frame.Column `json:"columns"`
	Rows    [][]any        `json:"rows"`
	Count   int            `json:"count"`
}

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	SQL   string `json:"sql"`
	Limit *int   `json:"limit,omitempty"`
}

func rowsOf(f *frame.Frame) Rows {
	return Rows{Columns: f.Columns(), Rows: f.Rows(), Count: f.Len()}
}

func (s *Server) health(c echo.Context) error {
	db := s.querier.Database()
	if err := db.Err(); err != nil {
		return c.JSON(http.StatusServiceUnavailable, Health{Status: "unavailable", Error: err.Error()})
	}
	return c.JSON(http.StatusOK, Health{
		Status:        "ok",
		Dialect:       string(db.Dialect()),
		ServerVersion: db.ServerVersion(),
	})
}

func (s *Server) listSchemas(c echo.Context) error {
	schemas, err := s.querier.ListSchemas()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, schemas)
}

func (s *Server) listTables(c echo.Context) error {
	schema := c.Param("schema")
	if !s.hasSchema(schema) {
		return echo.NewHTTPError(http.StatusNotFound, "unknown schema: "+schema)
	}
	tables, err := s.querier.ListTables(schema)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tables)
}

func (s *Server) hasSchema(schema string) bool {
	schemas, err := s.querier.ListSchemas()
	if err != nil {
		// let the listing call report it
		return true
	}
	for _, name := range schemas {
		if name == schema {
			return true
		}
	}
	return false
}

func (s *Server) listColumns(c echo.Context) error {
	t, err := s.querier.Database().Table(c.Param("schema"), c.Param("table"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t.Columns)
}

func (s *Server) tableRows(c echo.Context) error {
	opts, err := s.runOptions(c)
	if err != nil {
		return err
	}
	q, err := s.querier.GetTable(c.Param("schema"), c.Param("table"), false)
	if err != nil {
		return err
	}
	if expr := c.QueryParam("where"); expr != "" {
		cond, err := filterexpr.Parse(expr)
		if err != nil {
			return err
		}
		q = q.Where(cond)
	}

	f, err := client.NewQueryInterface(s.querier.Database(), q).Run(c.Request().Context(), opts...)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rowsOf(f))
}

func (s *Server) listCustom(c echo.Context) error {
	return c.JSON(http.StatusOK, s.querier.ListCustomTables())
}

func (s *Server) customRows(c echo.Context) error {
	opts, err := s.runOptions(c)
	if err != nil {
		return err
	}
	qi, err := s.querier.Custom(c.Param("name"))
	if err != nil {
		return err
	}
	f, err := qi.Run(c.Request().Context(), opts...)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rowsOf(f))
}

func (s *Server) runQuery(c echo.Context) error {
	var req QueryRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.SQL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "sql is required")
	}

	var opts []client.RunOption
	switch {
	case req.Limit != nil:
		opts = append(opts, client.Limit(*req.Limit))
	case s.rowLimit > 0:
		opts = append(opts, client.Limit(s.rowLimit))
	}

	f, err := s.querier.Database().RunSQL(c.Request().Context(), req.SQL, opts...)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rowsOf(f))
}

// runOptions reads the limit query parameter, falling back to the server's
// row limit.
func (s *Server) runOptions(c echo.Context) ([]client.RunOption, error) {
	raw := c.QueryParam("limit")
	if raw == "" {
		if s.rowLimit > 0 {
			return []client.RunOption{client.Limit(s.rowLimit)}, nil
		}
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
	}
	return []client.RunOption{client.Limit(n)}, nil
}
