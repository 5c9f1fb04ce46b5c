package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-venue-manager/internal/model"
	"github.com/iliyamo/cinema-venue-manager/internal/repository"
	"github.com/iliyamo/cinema-venue-manager/internal/service"
)

// ShowHandler serves the schedule endpoints. The scheduler service
// owns the conflict rules; the handler only translates HTTP.
type ShowHandler struct {
	Scheduler *service.Scheduler
}

func NewShowHandler(s *service.Scheduler) *ShowHandler {
	if s == nil {
		panic("nil scheduler passed to NewShowHandler")
	}
	return &ShowHandler{Scheduler: s}
}

// CreateShow handles POST /v1/shows. start_at is RFC 3339; the end
// time is derived from the movie duration plus the cleaning break.
func (h *ShowHandler) CreateShow(c echo.Context) error {
	var body struct {
		RoomID  uint64 `json:"room_id"`
		MovieID uint64 `json:"movie_id"`
		StartAt string `json:"start_at"`
		State   string `json:"state"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.RoomID == 0 || body.MovieID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "room_id and movie_id are required"})
	}
	startAt, err := time.Parse(time.RFC3339, body.StartAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_at must be RFC 3339"})
	}
	state := model.ShowState(strings.ToUpper(strings.TrimSpace(body.State)))
	if body.State == "" {
		state = model.ShowActive
	}

	show, err := h.Scheduler.CreateShow(c.Request().Context(), body.RoomID, body.MovieID, startAt.UTC(), state)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, show)
}

// GetShow handles GET /v1/shows/:id.
func (h *ShowHandler) GetShow(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	show, err := h.Scheduler.GetShow(c.Request().Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, show)
}

// showListFilter parses the shared show listing query parameters.
func showListFilter(c echo.Context) repository.ListShowFilter {
	page, limit := pageParams(c)
	f := repository.ListShowFilter{
		Page:      page,
		Limit:     limit,
		OrderBy:   c.QueryParam("order_by"),
		Ascending: c.QueryParam("asc") != "false",
	}
	f.StartAtMin = parseTimeParam(c, "start_at_min")
	f.StartAtMax = parseTimeParam(c, "start_at_max")
	f.EndAtMin = parseTimeParam(c, "end_at_min")
	f.EndAtMax = parseTimeParam(c, "end_at_max")
	if v, err := strconv.ParseUint(c.QueryParam("movie_id"), 10, 64); err == nil {
		f.MovieID = v
	}
	if v, err := strconv.ParseUint(c.QueryParam("room_id"), 10, 64); err == nil {
		f.RoomID = v
	}
	return f
}

func parseTimeParam(c echo.Context, name string) *time.Time {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		u := t.UTC()
		return &u
	}
	return nil
}

// ListShows handles GET /v1/shows. Only shows in active rooms appear.
func (h *ShowHandler) ListShows(c echo.Context) error {
	items, total, err := h.Scheduler.ListShows(c.Request().Context(), showListFilter(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "total": total})
}

// UpdateShow handles PATCH /v1/shows/:id. A new start time or room is
// re-checked against the schedule; a bare state change is not.
func (h *ShowHandler) UpdateShow(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		StartAt *string `json:"start_at"`
		RoomID  *uint64 `json:"room_id"`
		State   *string `json:"state"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	var patch service.ShowPatch
	if body.StartAt != nil {
		t, err := time.Parse(time.RFC3339, *body.StartAt)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_at must be RFC 3339"})
		}
		u := t.UTC()
		patch.StartAt = &u
	}
	patch.RoomID = body.RoomID
	if body.State != nil {
		st := model.ShowState(strings.ToUpper(strings.TrimSpace(*body.State)))
		if !model.ValidShowState(st) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid state"})
		}
		patch.State = &st
	}

	show, err := h.Scheduler.UpdateShow(c.Request().Context(), id, patch)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, show)
}

// DeleteShow handles DELETE /v1/shows/:id and removes the show along
// with its ticket associations.
func (h *ShowHandler) DeleteShow(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Scheduler.DeleteShow(c.Request().Context(), id); err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RemainingPlaces handles GET /v1/shows/:id/places and reports room
// capacity minus the used tickets booked onto the show.
func (h *ShowHandler) RemainingPlaces(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	remaining, err := h.Scheduler.RemainingPlaces(c.Request().Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"show_id": id, "remaining_places": remaining})
}
