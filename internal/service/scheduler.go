// Package service implements the venue's domain operations on top of
// the repository layer: show scheduling, the ticket lifecycle, the
// wallet ledger and visit statistics. Handlers stay thin and call
// into these services; each operation runs its read-then-write
// sequence inside a single DB transaction where atomicity matters.
package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/cinema-venue-manager/internal/model"
	"github.com/iliyamo/cinema-venue-manager/internal/repository"
)

// Scheduler places screenings into rooms without time overlap. The
// conflict scan and the persist run in one transaction with the room
// row locked, so two concurrent requests for the same room serialize
// instead of both passing the check.
type Scheduler struct {
	Rooms  *repository.RoomRepo
	Movies *repository.MovieRepo
	Shows  *repository.ShowRepo
}

// NewScheduler constructs a Scheduler and panics if any dependency is
// nil.
func NewScheduler(rooms *repository.RoomRepo, movies *repository.MovieRepo, shows *repository.ShowRepo) *Scheduler {
	if rooms == nil || movies == nil || shows == nil {
		panic("nil repository passed to NewScheduler")
	}
	return &Scheduler{Rooms: rooms, Movies: movies, Shows: shows}
}

// overlapsInterval reports whether an existing show s collides with
// the proposed [startAt, endAt] interval. All comparisons are
// inclusive: shows that merely touch at an endpoint still conflict,
// because the turnaround buffer is a hard floor, not a target.
func overlapsInterval(s model.Show, startAt, endAt time.Time) bool {
	// s fully covers the new interval.
	if !s.StartAt.After(startAt) && !s.EndAt.Before(endAt) {
		return true
	}
	// s falls fully inside the new interval.
	if !s.StartAt.Before(startAt) && !s.EndAt.After(endAt) {
		return true
	}
	// s starts before the new end and runs past it.
	if !s.StartAt.After(endAt) && !s.EndAt.Before(endAt) {
		return true
	}
	return false
}

// findConflict scans a room's shows for one that collides with the
// proposed interval. Canceled shows never block a slot, and excludeID
// skips the show being rescheduled so it cannot conflict with itself.
// The scan is linear: a single room carries at most a few hundred
// shows a year, so no interval index is warranted.
func findConflict(shows []model.Show, startAt, endAt time.Time, excludeID uint64) *model.Show {
	for i := range shows {
		s := shows[i]
		if s.ID == excludeID || s.State == model.ShowCanceled {
			continue
		}
		if overlapsInterval(s, startAt, endAt) {
			return &shows[i]
		}
	}
	return nil
}

// CreateShow schedules a screening of a movie in a room. The end time
// is derived from the movie's duration plus the turnaround buffer.
// It returns ErrRoomNotFound / ErrMovieNotFound for missing
// references, ErrInvalidState for a room under maintenance, and
// ErrConflict when the interval overlaps an active show in the room.
func (s *Scheduler) CreateShow(ctx context.Context, roomID, movieID uint64, startAt time.Time, state model.ShowState) (*model.Show, error) {
	if state == "" {
		state = model.ShowActive
	}
	if !model.ValidShowState(state) {
		return nil, fmt.Errorf("state %q: %w", state, repository.ErrInvalidState)
	}
	movie, err := s.Movies.GetByID(ctx, movieID)
	if err != nil {
		return nil, err
	}

	tx, err := s.Shows.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// The room lock is the exclusive section: it covers the conflict
	// scan and the insert below.
	room, err := s.Rooms.GetForUpdateTx(ctx, tx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.State {
		return nil, fmt.Errorf("room %d under maintenance: %w", roomID, repository.ErrInvalidState)
	}

	endAt := model.ShowEnd(startAt, movie.Duration)
	existing, err := s.Shows.ListByRoomTx(ctx, tx, roomID)
	if err != nil {
		return nil, err
	}
	if c := findConflict(existing, startAt, endAt, 0); c != nil {
		return nil, fmt.Errorf("show %d occupies room %d: %w", c.ID, roomID, repository.ErrConflict)
	}

	show := &model.Show{
		RoomID:  roomID,
		MovieID: movieID,
		StartAt: startAt,
		EndAt:   endAt,
		State:   state,
	}
	if err := s.Shows.CreateTx(ctx, tx, show); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return show, nil
}

// ShowPatch carries the optional fields of an update. Nil fields are
// left unchanged.
type ShowPatch struct {
	StartAt *time.Time
	RoomID  *uint64
	State   *model.ShowState
}

// UpdateShow applies a patch to a show. A start-time change derives a
// fresh end time from the existing movie's duration and re-runs the
// conflict scan against the show's room, excluding the show itself. A
// room change re-runs the scan against the new room using the current
// interval, again excluding itself. A state change performs no
// conflict re-check: canceled shows already never block others, and a
// reactivation is accepted as-is.
func (s *Scheduler) UpdateShow(ctx context.Context, id uint64, patch ShowPatch) (*model.Show, error) {
	if patch.State != nil && !model.ValidShowState(*patch.State) {
		return nil, fmt.Errorf("state %q: %w", *patch.State, repository.ErrInvalidState)
	}
	cur, err := s.Shows.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	tx, err := s.Shows.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if patch.StartAt != nil && !patch.StartAt.Equal(cur.StartAt) {
		movie, err := s.Movies.GetByID(ctx, cur.MovieID)
		if err != nil {
			return nil, err
		}
		endAt := model.ShowEnd(*patch.StartAt, movie.Duration)
		if err := s.checkRoomSlot(ctx, tx, cur.RoomID, *patch.StartAt, endAt, cur.ID); err != nil {
			return nil, err
		}
		cur.StartAt = *patch.StartAt
		cur.EndAt = endAt
	}

	if patch.RoomID != nil && *patch.RoomID != cur.RoomID {
		if err := s.checkRoomSlot(ctx, tx, *patch.RoomID, cur.StartAt, cur.EndAt, cur.ID); err != nil {
			return nil, err
		}
		cur.RoomID = *patch.RoomID
	}

	if patch.State != nil && *patch.State != cur.State {
		cur.State = *patch.State
	}

	if err := s.Shows.UpdateTx(ctx, tx, cur); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return cur, nil
}

// checkRoomSlot locks a room and verifies the interval is free in it,
// ignoring the show identified by excludeID.
func (s *Scheduler) checkRoomSlot(ctx context.Context, tx *sql.Tx, roomID uint64, startAt, endAt time.Time, excludeID uint64) error {
	room, err := s.Rooms.GetForUpdateTx(ctx, tx, roomID)
	if err != nil {
		return err
	}
	if !room.State {
		return fmt.Errorf("room %d under maintenance: %w", roomID, repository.ErrInvalidState)
	}
	existing, err := s.Shows.ListByRoomTx(ctx, tx, roomID)
	if err != nil {
		return err
	}
	if c := findConflict(existing, startAt, endAt, excludeID); c != nil {
		return fmt.Errorf("show %d occupies room %d: %w", c.ID, roomID, repository.ErrConflict)
	}
	return nil
}

// DeleteShow removes a show. No re-validation of sibling shows is
// needed: removal can only reduce conflicts.
func (s *Scheduler) DeleteShow(ctx context.Context, id uint64) error {
	return s.Shows.Delete(ctx, id)
}

// GetShow returns one show by ID.
func (s *Scheduler) GetShow(ctx context.Context, id uint64) (*model.Show, error) {
	return s.Shows.GetByID(ctx, id)
}

// ListShows returns a page of shows in active rooms matching the
// filter, plus the total match count.
func (s *Scheduler) ListShows(ctx context.Context, f repository.ListShowFilter) ([]model.Show, int64, error) {
	return s.Shows.List(ctx, f)
}

// RemainingPlaces returns how many seats are still free for a show:
// the room capacity minus the number of used tickets booked onto it.
func (s *Scheduler) RemainingPlaces(ctx context.Context, showID uint64) (int64, error) {
	show, err := s.Shows.GetByID(ctx, showID)
	if err != nil {
		return 0, err
	}
	room, err := s.Rooms.GetByID(ctx, show.RoomID)
	if err != nil {
		return 0, err
	}
	taken, err := s.Shows.UsedTicketCount(ctx, showID)
	if err != nil {
		return 0, err
	}
	return int64(room.Capacity) - int64(taken), nil
}
