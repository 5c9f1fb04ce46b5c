// This file defines repository methods for tickets and their show
// associations. The `ticket_shows` join table stores the membership
// set; the derived `used` flag is written back by the ticket service
// after every membership change, inside the same transaction that
// changed the set.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/cinema-venue-manager/internal/model"
)

// ErrTicketNotFound indicates that a ticket was not located in the DB.
var ErrTicketNotFound = errors.New("ticket not found")

const ticketColumns = "id, user_id, kind, used, created_at"

// TicketRepo manages persistence for tickets.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo constructs a TicketRepo with the given DB handle.
func NewTicketRepo(db *sql.DB) *TicketRepo {
	return &TicketRepo{db: db}
}

// DB exposes the underlying sql.DB for transactions that span the
// wallet debit and the ticket insert, or the toggle's read-modify-write.
func (r *TicketRepo) DB() *sql.DB {
	return r.db
}

func scanTicket(row interface{ Scan(...any) error }, t *model.Ticket) error {
	return row.Scan(&t.ID, &t.UserID, &t.Kind, &t.Used, &t.CreatedAt)
}

// CreateTx inserts a new ticket inside the caller's transaction. New
// tickets start unused with an empty show set.
func (r *TicketRepo) CreateTx(ctx context.Context, tx *sql.Tx, t *model.Ticket) error {
	res, err := tx.ExecContext(ctx, `INSERT INTO tickets (user_id, kind, used) VALUES (?, ?, FALSE)`, t.UserID, t.Kind)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return scanTicket(tx.QueryRowContext(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = ?`, t.ID), t)
}

// GetByID retrieves a ticket by its ID. It returns ErrTicketNotFound
// if there is no matching row.
func (r *TicketRepo) GetByID(ctx context.Context, id uint64) (*model.Ticket, error) {
	var t model.Ticket
	err := scanTicket(r.db.QueryRowContext(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = ?`, id), &t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return &t, nil
}

// GetForUpdateTx loads a ticket inside tx with a row lock, so that
// concurrent toggles on the same ticket serialize instead of losing
// updates.
func (r *TicketRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Ticket, error) {
	var t model.Ticket
	err := scanTicket(tx.QueryRowContext(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = ? FOR UPDATE`, id), &t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ListTicketFilter selects tickets by owner and optionally by the
// derived used flag and kind, with 1-based pagination.
type ListTicketFilter struct {
	Page   int
	Limit  int
	UserID uint64
	Used   *bool
	Kind   *model.TicketKind
}

// List returns a page of tickets matching the filter plus the total
// match count.
func (r *TicketRepo) List(ctx context.Context, f ListTicketFilter) ([]model.Ticket, int64, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if f.UserID != 0 {
		where += ` AND user_id = ?`
		args = append(args, f.UserID)
	}
	if f.Used != nil {
		where += ` AND used = ?`
		args = append(args, *f.Used)
	}
	if f.Kind != nil {
		where += ` AND kind = ?`
		args = append(args, *f.Kind)
	}
	q := `SELECT ` + ticketColumns + ` FROM tickets` + where + ` ORDER BY id DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, append(args, f.Limit, (f.Page-1)*f.Limit)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var result []model.Ticket
	for rows.Next() {
		var t model.Ticket
		if err := scanTicket(rows, &t); err != nil {
			return nil, 0, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tickets`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

// ShowIDsTx returns the IDs of shows associated with a ticket, inside
// the caller's transaction. The toggle reads this set under the
// ticket lock before deciding between add and remove.
func (r *TicketRepo) ShowIDsTx(ctx context.Context, tx *sql.Tx, ticketID uint64) ([]uint64, error) {
	rows, err := tx.QueryContext(ctx, `SELECT show_id FROM ticket_shows WHERE ticket_id = ?`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AddShowTx inserts one (ticket, show) association.
func (r *TicketRepo) AddShowTx(ctx context.Context, tx *sql.Tx, ticketID, showID uint64) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO ticket_shows (ticket_id, show_id) VALUES (?, ?)`, ticketID, showID)
	return err
}

// RemoveShowTx deletes one (ticket, show) association.
func (r *TicketRepo) RemoveShowTx(ctx context.Context, tx *sql.Tx, ticketID, showID uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM ticket_shows WHERE ticket_id = ? AND show_id = ?`, ticketID, showID)
	return err
}

// SetUsedTx writes the derived used flag inside the caller's
// transaction, in the same unit of work as the membership change it
// was derived from.
func (r *TicketRepo) SetUsedTx(ctx context.Context, tx *sql.Tx, ticketID uint64, used bool) error {
	_, err := tx.ExecContext(ctx, `UPDATE tickets SET used = ? WHERE id = ?`, used, ticketID)
	return err
}

// ShowsForTicket returns the shows a ticket is booked onto, ordered
// by start time.
func (r *TicketRepo) ShowsForTicket(ctx context.Context, ticketID uint64) ([]model.Show, error) {
	const q = `SELECT s.id, s.room_id, s.movie_id, s.start_at, s.end_at, s.state, s.created_at, s.updated_at
	           FROM shows s
	           JOIN ticket_shows ts ON ts.show_id = s.id
	           WHERE ts.ticket_id = ?
	           ORDER BY s.start_at ASC`
	return r.queryShows(ctx, q, ticketID)
}

// ShowsForUser returns every show booked across all of a user's
// tickets. A show booked on two tickets appears twice, matching the
// per-ticket projection the venue's front end expects.
func (r *TicketRepo) ShowsForUser(ctx context.Context, userID uint64) ([]model.Show, error) {
	const q = `SELECT s.id, s.room_id, s.movie_id, s.start_at, s.end_at, s.state, s.created_at, s.updated_at
	           FROM shows s
	           JOIN ticket_shows ts ON ts.show_id = s.id
	           JOIN tickets t ON t.id = ts.ticket_id
	           WHERE t.user_id = ?
	           ORDER BY s.start_at ASC`
	return r.queryShows(ctx, q, userID)
}

func (r *TicketRepo) queryShows(ctx context.Context, q string, arg uint64) ([]model.Show, error) {
	rows, err := r.db.QueryContext(ctx, q, arg)
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
