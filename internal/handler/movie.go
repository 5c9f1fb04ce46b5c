package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-venue-manager/internal/model"
	"github.com/iliyamo/cinema-venue-manager/internal/repository"
)

// MovieHandler serves the movie catalogue endpoints.
type MovieHandler struct {
	Movies *repository.MovieRepo
	Shows  *repository.ShowRepo
}

func NewMovieHandler(movies *repository.MovieRepo, shows *repository.ShowRepo) *MovieHandler {
	if movies == nil || shows == nil {
		panic("nil repository passed to NewMovieHandler")
	}
	return &MovieHandler{Movies: movies, Shows: shows}
}

type movieBody struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Duration    uint32 `json:"duration"` // minutes
}

// CreateMovie handles POST /v1/movies.
func (h *MovieHandler) CreateMovie(c echo.Context) error {
	var body movieBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if body.Duration == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "duration must be positive"})
	}
	movie := &model.Movie{
		Name:        name,
		Description: strings.TrimSpace(body.Description),
		Duration:    body.Duration,
	}
	if err := h.Movies.Create(c.Request().Context(), movie); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, movie)
}

// GetMovie handles GET /v1/movies/:id.
func (h *MovieHandler) GetMovie(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	movie, err := h.Movies.GetByID(c.Request().Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, movie)
}

// ListMovies handles GET /v1/movies. A name query parameter filters
// by substring.
func (h *MovieHandler) ListMovies(c echo.Context) error {
	page, limit := pageParams(c)
	f := repository.ListMovieFilter{
		Page:      page,
		Limit:     limit,
		OrderBy:   c.QueryParam("order_by"),
		Ascending: c.QueryParam("asc") != "false",
		Name:      strings.TrimSpace(c.QueryParam("name")),
	}
	items, total, err := h.Movies.List(c.Request().Context(), f)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "total": total})
}

// MovieShows handles GET /v1/movies/:id/shows: every scheduled
// screening of the movie, newest first.
func (h *MovieHandler) MovieShows(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if _, err := h.Movies.GetByID(c.Request().Context(), id); err != nil {
		return respondErr(c, err)
	}
	shows, err := h.Shows.ListByMovie(c.Request().Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"movie_id": id, "shows": shows})
}

// UpdateMovie handles PUT /v1/movies/:id. Changing the duration does
// not reschedule existing shows; their end times were derived at
// scheduling time.
func (h *MovieHandler) UpdateMovie(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body movieBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	movie, err := h.Movies.GetByID(c.Request().Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	if name := strings.TrimSpace(body.Name); name != "" {
		movie.Name = name
	}
	movie.Description = strings.TrimSpace(body.Description)
	if body.Duration > 0 {
		movie.Duration = body.Duration
	}
	if err := h.Movies.Update(c.Request().Context(), movie); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, movie)
}

// DeleteMovie handles DELETE /v1/movies/:id. Movies referenced by
// shows refuse deletion with 409.
func (h *MovieHandler) DeleteMovie(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Movies.Delete(c.Request().Context(), id); err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
