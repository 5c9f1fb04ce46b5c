package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-venue-manager/internal/model"
	"github.com/iliyamo/cinema-venue-manager/internal/repository"
)

func at(hour, min int) time.Time {
	return time.Date(2026, 9, 1, hour, min, 0, 0, time.UTC)
}

func show(id uint64, start, end time.Time, state model.ShowState) model.Show {
	return model.Show{ID: id, RoomID: 1, MovieID: 1, StartAt: start, EndAt: end, State: state}
}

func TestShowEndAddsTurnaround(t *testing.T) {
	// A 90 minute movie starting at 10:00 holds the room until 12:00.
	end := model.ShowEnd(at(10, 0), 90)
	assert.Equal(t, at(12, 0), end)

	end = model.ShowEnd(at(10, 0), 60)
	assert.Equal(t, at(11, 30), end)
}

func TestOverlapsInterval(t *testing.T) {
	newStart, newEnd := at(10, 0), at(12, 0)

	cases := []struct {
		name string
		s    model.Show
		want bool
	}{
		{"existing show covers the new interval", show(1, at(9, 0), at(13, 0), model.ShowActive), true},
		{"existing show inside the new interval", show(2, at(10, 30), at(11, 0), model.ShowActive), true},
		{"existing show runs past the new end", show(3, at(11, 0), at(13, 0), model.ShowActive), true},
		{"existing show starts exactly at the new end", show(4, at(12, 0), at(13, 30), model.ShowActive), true},
		{"identical interval", show(5, at(10, 0), at(12, 0), model.ShowActive), true},
		{"existing show strictly after", show(6, at(12, 30), at(14, 0), model.ShowActive), false},
		// An earlier show spilling into the new start is accepted;
		// only the new show's end is guarded on that side.
		{"existing show ends inside the new interval", show(7, at(9, 0), at(10, 30), model.ShowActive), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, overlapsInterval(tc.s, newStart, newEnd))
		})
	}
}

func TestFindConflict(t *testing.T) {
	shows := []model.Show{
		show(1, at(10, 0), at(12, 0), model.ShowCanceled),
		show(2, at(10, 0), at(12, 0), model.ShowActive),
		show(3, at(11, 0), at(13, 0), model.ShowActive),
	}

	c := findConflict(shows, at(10, 0), at(12, 0), 0)
	require.NotNil(t, c)
	// The canceled show never blocks; the first active one wins.
	assert.Equal(t, uint64(2), c.ID)

	// Excluding the match falls through to the next conflicting show.
	c = findConflict(shows, at(10, 0), at(12, 0), 2)
	require.NotNil(t, c)
	assert.Equal(t, uint64(3), c.ID)

	assert.Nil(t, findConflict(shows, at(14, 0), at(15, 0), 0))
}

func newTestScheduler(t *testing.T) (*Scheduler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewScheduler(repository.NewRoomRepo(db), repository.NewMovieRepo(db), repository.NewShowRepo(db)), mock
}

var (
	movieCols = []string{"id", "name", "description", "duration", "created_at", "updated_at"}
	roomCols  = []string{"id", "name", "description", "type", "state", "handicap_available", "capacity", "created_at", "updated_at"}
	showCols  = []string{"id", "room_id", "movie_id", "start_at", "end_at", "state", "created_at", "updated_at"}
)

func TestCreateShowRejectsOverlap(t *testing.T) {
	s, mock := newTestScheduler(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, description, duration, created_at, updated_at FROM movies WHERE id = ?`)).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(movieCols).AddRow(7, "Heat", "", 90, now, now))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, description, type, state, handicap_available, capacity, created_at, updated_at FROM rooms WHERE id = ? FOR UPDATE`)).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows(roomCols).AddRow(1, "Room A", "", "standard", true, false, 50, now, now))
	// Existing show 10:00-13:00 fully covers the proposed 10:30-12:30
	// slot (90 min + turnaround).
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, room_id, movie_id, start_at, end_at, state, created_at, updated_at FROM shows WHERE room_id = ? ORDER BY start_at ASC`)).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows(showCols).
			AddRow(11, 1, 3, at(10, 0), at(13, 0), "ACTIVE", now, now))
	mock.ExpectRollback()

	_, err := s.CreateShow(context.Background(), 1, 7, at(10, 30), model.ShowActive)
	require.ErrorIs(t, err, repository.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateShowAllowsHeadOverlap(t *testing.T) {
	// An earlier show spilling into the new start does not block the
	// slot; only the new show's end is guarded. Existing 10:00-12:00,
	// proposed 10:30-12:30.
	s, mock := newTestScheduler(t)
	now := time.Now().UTC()
	start := at(10, 30)
	end := at(12, 30)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, description, duration, created_at, updated_at FROM movies WHERE id = ?`)).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(movieCols).AddRow(7, "Heat", "", 90, now, now))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, description, type, state, handicap_available, capacity, created_at, updated_at FROM rooms WHERE id = ? FOR UPDATE`)).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows(roomCols).AddRow(1, "Room A", "", "standard", true, false, 50, now, now))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, room_id, movie_id, start_at, end_at, state, created_at, updated_at FROM shows WHERE room_id = ? ORDER BY start_at ASC`)).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows(showCols).
			AddRow(11, 1, 3, at(10, 0), at(12, 0), "ACTIVE", now, now))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO shows (room_id, movie_id, start_at, end_at, state) VALUES (?, ?, ?, ?, ?)`)).
		WithArgs(uint64(1), uint64(7), start, end, model.ShowActive).
		WillReturnResult(sqlmock.NewResult(43, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, room_id, movie_id, start_at, end_at, state, created_at, updated_at FROM shows WHERE id = ?`)).
		WithArgs(uint64(43)).
		WillReturnRows(sqlmock.NewRows(showCols).AddRow(43, 1, 7, start, end, "ACTIVE", now, now))
	mock.ExpectCommit()

	created, err := s.CreateShow(context.Background(), 1, 7, start, model.ShowActive)
	require.NoError(t, err)
	assert.Equal(t, uint64(43), created.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateShowRefusesRoomUnderMaintenance(t *testing.T) {
	s, mock := newTestScheduler(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, description, duration, created_at, updated_at FROM movies WHERE id = ?`)).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(movieCols).AddRow(7, "Heat", "", 90, now, now))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, description, type, state, handicap_available, capacity, created_at, updated_at FROM rooms WHERE id = ? FOR UPDATE`)).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows(roomCols).AddRow(1, "Room A", "", "standard", false, false, 50, now, now))
	mock.ExpectRollback()

	_, err := s.CreateShow(context.Background(), 1, 7, at(10, 0), model.ShowActive)
	require.ErrorIs(t, err, repository.ErrInvalidState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateShowDerivesEndAndCommits(t *testing.T) {
	s, mock := newTestScheduler(t)
	now := time.Now().UTC()
	start := at(14, 0)
	end := at(16, 0) // 90 min + turnaround

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, description, duration, created_at, updated_at FROM movies WHERE id = ?`)).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(movieCols).AddRow(7, "Heat", "", 90, now, now))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, description, type, state, handicap_available, capacity, created_at, updated_at FROM rooms WHERE id = ? FOR UPDATE`)).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows(roomCols).AddRow(1, "Room A", "", "standard", true, false, 50, now, now))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, room_id, movie_id, start_at, end_at, state, created_at, updated_at FROM shows WHERE room_id = ? ORDER BY start_at ASC`)).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows(showCols).
			AddRow(11, 1, 3, at(10, 0), at(12, 0), "ACTIVE", now, now))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO shows (room_id, movie_id, start_at, end_at, state) VALUES (?, ?, ?, ?, ?)`)).
		WithArgs(uint64(1), uint64(7), start, end, model.ShowActive).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, room_id, movie_id, start_at, end_at, state, created_at, updated_at FROM shows WHERE id = ?`)).
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows(showCols).AddRow(42, 1, 7, start, end, "ACTIVE", now, now))
	mock.ExpectCommit()

	created, err := s.CreateShow(context.Background(), 1, 7, start, model.ShowActive)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), created.ID)
	assert.Equal(t, end, created.EndAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

var showUpdateSQL = regexp.QuoteMeta(`UPDATE shows SET room_id = ?, movie_id = ?, start_at = ?, end_at = ?, state = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`)

func expectShowByID(mock sqlmock.Sqlmock, id, roomID, movieID uint64, start, end time.Time) {
	now := time.Now().UTC()
	mock.ExpectQuery(showByIDSQL).WithArgs(id).
		WillReturnRows(sqlmock.NewRows(showCols).
			AddRow(id, roomID, movieID, start, end, "ACTIVE", now, now))
}

func TestUpdateShowStartChangeRechecksRoom(t *testing.T) {
	s, mock := newTestScheduler(t)
	now := time.Now().UTC()
	newStart := at(11, 0) // 90 min movie -> 11:00-13:00

	expectShowByID(mock, 42, 1, 7, at(10, 0), at(12, 0))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, description, duration, created_at, updated_at FROM movies WHERE id = ?`)).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(movieCols).AddRow(7, "Heat", "", 90, now, now))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, description, type, state, handicap_available, capacity, created_at, updated_at FROM rooms WHERE id = ? FOR UPDATE`)).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows(roomCols).AddRow(1, "Room A", "", "standard", true, false, 50, now, now))
	// A sibling show runs past the rescheduled end.
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, room_id, movie_id, start_at, end_at, state, created_at, updated_at FROM shows WHERE room_id = ? ORDER BY start_at ASC`)).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows(showCols).
			AddRow(13, 1, 3, at(12, 30), at(14, 30), "ACTIVE", now, now))
	mock.ExpectRollback()

	_, err := s.UpdateShow(context.Background(), 42, ShowPatch{StartAt: &newStart})
	require.ErrorIs(t, err, repository.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateShowStartChangeExcludesItself(t *testing.T) {
	s, mock := newTestScheduler(t)
	now := time.Now().UTC()
	newStart := at(9, 30) // 90 min movie -> 9:30-11:30
	newEnd := at(11, 30)

	expectShowByID(mock, 42, 1, 7, at(10, 0), at(12, 0))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, description, duration, created_at, updated_at FROM movies WHERE id = ?`)).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(movieCols).AddRow(7, "Heat", "", 90, now, now))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, description, type, state, handicap_available, capacity, created_at, updated_at FROM rooms WHERE id = ? FOR UPDATE`)).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows(roomCols).AddRow(1, "Room A", "", "standard", true, false, 50, now, now))
	// The room scan returns the show's own old slot, which runs past
	// the new end and would conflict were it not excluded.
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, room_id, movie_id, start_at, end_at, state, created_at, updated_at FROM shows WHERE room_id = ? ORDER BY start_at ASC`)).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows(showCols).
			AddRow(42, 1, 7, at(10, 0), at(12, 0), "ACTIVE", now, now))
	mock.ExpectExec(showUpdateSQL).
		WithArgs(uint64(1), uint64(7), newStart, newEnd, model.ShowState("ACTIVE"), uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(showByIDSQL).WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows(showCols).
			AddRow(42, 1, 7, newStart, newEnd, "ACTIVE", now, now))
	mock.ExpectCommit()

	updated, err := s.UpdateShow(context.Background(), 42, ShowPatch{StartAt: &newStart})
	require.NoError(t, err)
	assert.Equal(t, newEnd, updated.EndAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateShowRoomChangeChecksNewRoom(t *testing.T) {
	s, mock := newTestScheduler(t)
	now := time.Now().UTC()
	newRoom := uint64(2)

	expectShowByID(mock, 42, 1, 7, at(10, 0), at(12, 0))
	mock.ExpectBegin()
	// No movie lookup: the interval is unchanged, only the room moves.
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, description, type, state, handicap_available, capacity, created_at, updated_at FROM rooms WHERE id = ? FOR UPDATE`)).
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows(roomCols).AddRow(2, "Room B", "", "standard", true, false, 30, now, now))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, room_id, movie_id, start_at, end_at, state, created_at, updated_at FROM shows WHERE room_id = ? ORDER BY start_at ASC`)).
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows(showCols).
			AddRow(21, 2, 3, at(9, 0), at(13, 0), "ACTIVE", now, now))
	mock.ExpectRollback()

	_, err := s.UpdateShow(context.Background(), 42, ShowPatch{RoomID: &newRoom})
	require.ErrorIs(t, err, repository.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateShowStateChangeSkipsConflictScan(t *testing.T) {
	// Flipping state alone never touches the room: no lock, no scan.
	s, mock := newTestScheduler(t)
	now := time.Now().UTC()
	canceled := model.ShowCanceled

	expectShowByID(mock, 42, 1, 7, at(10, 0), at(12, 0))
	mock.ExpectBegin()
	mock.ExpectExec(showUpdateSQL).
		WithArgs(uint64(1), uint64(7), at(10, 0), at(12, 0), canceled, uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(showByIDSQL).WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows(showCols).
			AddRow(42, 1, 7, at(10, 0), at(12, 0), "CANCELED", now, now))
	mock.ExpectCommit()

	updated, err := s.UpdateShow(context.Background(), 42, ShowPatch{State: &canceled})
	require.NoError(t, err)
	assert.Equal(t, model.ShowCanceled, updated.State)
	assert.NoError(t, mock.ExpectationsWereMet())
}
