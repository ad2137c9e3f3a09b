package handler

import (
	"strconv"
	"time"

	"github.com/appdotbuilder/member-contributions-manager/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// parseID reads a positive int32 path parameter
func parseID(c echo.Context, name string) (int32, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 32)
	if err != nil || v <= 0 {
		return 0, false
	}
	return int32(v), true
}

// pageRequest reads the cursor and pageSize query parameters. Out-of-range
// page sizes are clamped rather than rejected.
func pageRequest(c echo.Context) domain.PageRequest {
	req := domain.PageRequest{Cursor: c.QueryParam("cursor")}
	if v, err := strconv.ParseInt(c.QueryParam("pageSize"), 10, 32); err == nil {
		req.PageSize = int32(v)
	}
	return req
}

// filterParams collects the raw listing filters from the query string
func filterParams(c echo.Context) domain.FilterParams {
	return domain.FilterParams{
		Status:   c.QueryParam("status"),
		Year:     c.QueryParam("year"),
		Month:    c.QueryParam("month"),
		From:     c.QueryParam("from"),
		To:       c.QueryParam("to"),
		Search:   c.QueryParam("search"),
		Category: c.QueryParam("category"),
		Active:   c.QueryParam("active"),
	}
}

// parseOptionalDate parses a YYYY-MM-DD value; empty input yields nil
func parseOptionalDate(s *string) (*time.Time, bool) {
	if s == nil || *s == "" {
		return nil, true
	}
	t, err := time.Parse(time.DateOnly, *s)
	if err != nil {
		return nil, false
	}
	return &t, true
}

// parseAmount parses a monetary request value
func parseAmount(s string) (decimal.Decimal, bool) {
	d, err := domain.ParseAmount(s)
	return d, err == nil
}

// queryInt reads an integer query parameter, returning def when absent
func queryInt(c echo.Context, name string, def int) (int, bool) {
	s := c.QueryParam(name)
	if s == "" {
		return def, true
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.DateOnly)
	return &s
}
