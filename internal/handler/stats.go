package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-venue-manager/internal/service"
)

// StatsHandler serves the visitor statistics endpoint.
type StatsHandler struct {
	Stats *service.StatsService
}

func NewStatsHandler(s *service.StatsService) *StatsHandler {
	if s == nil {
		panic("nil stats service passed to NewStatsHandler")
	}
	return &StatsHandler{Stats: s}
}

// GetStats handles GET /v1/stats. It accepts the show listing filters
// plus visit_count_min/visit_count_max bounds. When nothing matches
// the body is an explicit null.
func (h *StatsHandler) GetStats(c echo.Context) error {
	f := service.StatsFilter{ListShowFilter: showListFilter(c)}
	if v, err := strconv.ParseUint(c.QueryParam("visit_count_min"), 10, 32); err == nil {
		n := uint32(v)
		f.VisitCountMin = &n
	}
	if v, err := strconv.ParseUint(c.QueryParam("visit_count_max"), 10, 32); err == nil {
		n := uint32(v)
		f.VisitCountMax = &n
	}
	stats, err := h.Stats.ComputeStats(c.Request().Context(), f)
	if err != nil {
		return respondErr(c, err)
	}
	// stats is nil when no show passes the filters; the client gets
	// a literal null rather than an empty object.
	return c.JSON(http.StatusOK, stats)
}
