// This file defines repository methods for shows. A Show is a
// scheduled screening of a movie in a room; its interval is derived
// by the scheduler service, which is also the only writer. The
// conflict scan happens in the service over ListByRoomTx results
// while the room row is locked, so no overlap predicate lives in SQL.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/cinema-venue-manager/internal/model"
)

// ErrShowNotFound indicates that a show was not located in the DB.
var ErrShowNotFound = errors.New("show not found")

const showColumns = "id, room_id, movie_id, start_at, end_at, state, created_at, updated_at"

// ShowRepo manages persistence for shows.
type ShowRepo struct {
	db *sql.DB
}

// NewShowRepo constructs a ShowRepo with the given DB handle.
func NewShowRepo(db *sql.DB) *ShowRepo {
	return &ShowRepo{db: db}
}

// DB exposes the underlying sql.DB. It allows the scheduler to begin
// transactions that span the room lock, the conflict scan and the
// insert or update as one atomic unit.
func (r *ShowRepo) DB() *sql.DB {
	return r.db
}

func scanShow(row interface{ Scan(...any) error }, s *model.Show) error {
	return row.Scan(&s.ID, &s.RoomID, &s.MovieID, &s.StartAt, &s.EndAt, &s.State, &s.CreatedAt, &s.UpdatedAt)
}

// CreateTx inserts a new show using the provided transaction. The
// caller owns commit/rollback. On success the generated ID and the
// DB-default timestamps are populated on the given show.
func (r *ShowRepo) CreateTx(ctx context.Context, tx *sql.Tx, s *model.Show) error {
	const q = `INSERT INTO shows (room_id, movie_id, start_at, end_at, state) VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, s.RoomID, s.MovieID, s.StartAt, s.EndAt, s.State)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return scanShow(tx.QueryRowContext(ctx, `SELECT `+showColumns+` FROM shows WHERE id = ?`, s.ID), s)
}

// UpdateTx rewrites a show's schedulable attributes inside the
// caller's transaction.
func (r *ShowRepo) UpdateTx(ctx context.Context, tx *sql.Tx, s *model.Show) error {
	const q = `UPDATE shows SET room_id = ?, movie_id = ?, start_at = ?, end_at = ?, state = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	if _, err := tx.ExecContext(ctx, q, s.RoomID, s.MovieID, s.StartAt, s.EndAt, s.State, s.ID); err != nil {
		return err
	}
	return scanShow(tx.QueryRowContext(ctx, `SELECT `+showColumns+` FROM shows WHERE id = ?`, s.ID), s)
}

// GetByID retrieves a show by its ID. It returns ErrShowNotFound if
// there is no matching row.
func (r *ShowRepo) GetByID(ctx context.Context, id uint64) (*model.Show, error) {
	var s model.Show
	err := scanShow(r.db.QueryRowContext(ctx, `SELECT `+showColumns+` FROM shows WHERE id = ?`, id), &s)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListByRoomTx returns every show assigned to a room, inside the
// caller's transaction. The scheduler runs its conflict scan over
// this set while holding the room lock.
func (r *ShowRepo) ListByRoomTx(ctx context.Context, tx *sql.Tx, roomID uint64) ([]model.Show, error) {
	rows, err := tx.QueryContext(ctx, `SELECT `+showColumns+` FROM shows WHERE room_id = ? ORDER BY start_at ASC`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []model.Show
	for rows.Next() {
		var s model.Show
		if err := scanShow(rows, &s); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// ListShowFilter selects shows by schedule window, movie and room,
// with ordering and 1-based pagination. Nil bounds are ignored.
type ListShowFilter struct {
	Page       int
	Limit      int
	OrderBy    string
	Ascending  bool
	StartAtMin *time.Time
	StartAtMax *time.Time
	EndAtMin   *time.Time
	EndAtMax   *time.Time
	MovieID    uint64
	RoomID     uint64
}

func showOrderColumn(name string) string {
	switch name {
	case "start_at", "end_at", "room_id", "movie_id", "created_at":
		return "s." + name
	}
	return "s.id"
}

// List returns a page of shows matching the filter plus the total
// match count. Shows in rooms that are under maintenance are left out
// entirely; they do not sell tickets and do not appear in reports.
func (r *ShowRepo) List(ctx context.Context, f ListShowFilter) ([]model.Show, int64, error) {
	where := ` WHERE r.state = TRUE`
	args := []any{}
	if f.StartAtMin != nil {
		where += ` AND s.start_at >= ?`
		args = append(args, *f.StartAtMin)
	}
	if f.StartAtMax != nil {
		where += ` AND s.start_at <= ?`
		args = append(args, *f.StartAtMax)
	}
	if f.EndAtMin != nil {
		where += ` AND s.end_at >= ?`
		args = append(args, *f.EndAtMin)
	}
	if f.EndAtMax != nil {
		where += ` AND s.end_at <= ?`
		args = append(args, *f.EndAtMax)
	}
	if f.MovieID != 0 {
		where += ` AND s.movie_id = ?`
		args = append(args, f.MovieID)
	}
	if f.RoomID != 0 {
		where += ` AND s.room_id = ?`
		args = append(args, f.RoomID)
	}
	dir := "DESC"
	if f.Ascending {
		dir = "ASC"
	}
	const sel = `SELECT s.id, s.room_id, s.movie_id, s.start_at, s.end_at, s.state, s.created_at, s.updated_at
	             FROM shows s JOIN rooms r ON r.id = s.room_id`
	q := sel + where + ` ORDER BY ` + showOrderColumn(f.OrderBy) + ` ` + dir + ` LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, append(args, f.Limit, (f.Page-1)*f.Limit)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var result []model.Show
	for rows.Next() {
		var s model.Show
		if err := scanShow(rows, &s); err != nil {
			return nil, 0, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	var total int64
	countQ := `SELECT COUNT(*) FROM shows s JOIN rooms r ON r.id = s.room_id` + where
	if err := r.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

// ListByMovie returns all shows screening a movie, newest first. Used
// by the movie detail projection.
func (r *ShowRepo) ListByMovie(ctx context.Context, movieID uint64) ([]model.Show, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+showColumns+` FROM shows WHERE movie_id = ? ORDER BY start_at DESC`, movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []model.Show
	for rows.Next() {
		var s model.Show
		if err := scanShow(rows, &s); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// Delete removes a show and its ticket associations. Removal can only
// reduce conflicts, so no re-validation of sibling shows is needed.
func (r *ShowRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `DELETE FROM ticket_shows WHERE show_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM shows WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrShowNotFound
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// UsedTicketCount counts the used tickets booked onto a show. This is
// the taken-places figure behind occupancy and visit statistics.
func (r *ShowRepo) UsedTicketCount(ctx context.Context, showID uint64) (uint32, error) {
	const q = `SELECT COUNT(*)
	           FROM tickets t
	           JOIN ticket_shows ts ON ts.ticket_id = t.id
	           WHERE ts.show_id = ? AND t.used = TRUE`
	var count uint32
	if err := r.db.QueryRowContext(ctx, q, showID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
