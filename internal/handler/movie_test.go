package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-venue-manager/internal/repository"
)

func newMovieTestHandler(t *testing.T) (*MovieHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewMovieHandler(repository.NewMovieRepo(db), repository.NewShowRepo(db)), mock
}

func TestMovieShowsListsScreenings(t *testing.T) {
	h, mock := newMovieTestHandler(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, description, duration, created_at, updated_at FROM movies WHERE id = ?`)).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "duration", "created_at", "updated_at"}).
			AddRow(7, "Heat", "", 90, now, now))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, room_id, movie_id, start_at, end_at, state, created_at, updated_at FROM shows WHERE movie_id = ? ORDER BY start_at DESC`)).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "room_id", "movie_id", "start_at", "end_at", "state", "created_at", "updated_at"}).
			AddRow(12, 1, 7, now.Add(2*time.Hour), now.Add(4*time.Hour), "ACTIVE", now, now).
			AddRow(11, 1, 7, now, now.Add(2*time.Hour), "ACTIVE", now, now))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/movies/7/shows", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/movies/:id/shows")
	c.SetParamNames("id")
	c.SetParamValues("7")

	require.NoError(t, h.MovieShows(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		MovieID uint64 `json:"movie_id"`
		Shows   []struct {
			ID uint64 `json:"id"`
		} `json:"shows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint64(7), resp.MovieID)
	require.Len(t, resp.Shows, 2)
	assert.Equal(t, uint64(12), resp.Shows[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMovieShowsUnknownMovie(t *testing.T) {
	h, mock := newMovieTestHandler(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, description, duration, created_at, updated_at FROM movies WHERE id = ?`)).
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "duration", "created_at", "updated_at"}))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/movies/99/shows", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/movies/:id/shows")
	c.SetParamNames("id")
	c.SetParamValues("99")

	require.NoError(t, h.MovieShows(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
