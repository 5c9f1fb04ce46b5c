// Package repository contains data access logic for the venue's
// entities. This file covers rooms. Rooms are reference data for the
// scheduler: conflict checks and occupancy queries only consider
// rooms whose state flag is true.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/cinema-venue-manager/internal/model"
)

// ErrRoomNotFound indicates that a room was not located in the DB.
var ErrRoomNotFound = errors.New("room not found")

// ErrRoomNameExists indicates a room with the same name already exists.
var ErrRoomNameExists = errors.New("room name already exists")

const roomColumns = "id, name, description, type, state, handicap_available, capacity, created_at, updated_at"

// RoomRepo manages persistence for rooms.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo constructs a RoomRepo with the given DB handle.
func NewRoomRepo(db *sql.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

// DB exposes the underlying sql.DB so callers can begin transactions
// spanning multiple repositories.
func (r *RoomRepo) DB() *sql.DB {
	return r.db
}

func scanRoom(row interface{ Scan(...any) error }, rm *model.Room) error {
	return row.Scan(&rm.ID, &rm.Name, &rm.Description, &rm.Type, &rm.State,
		&rm.HandicapAvailable, &rm.Capacity, &rm.CreatedAt, &rm.UpdatedAt)
}

// Create inserts a new room and assigns the generated ID back to the
// struct. The name must be unique; duplicates map to ErrRoomNameExists.
func (r *RoomRepo) Create(ctx context.Context, rm *model.Room) error {
	const q = `INSERT INTO rooms (name, description, type, state, handicap_available, capacity)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, rm.Name, rm.Description, rm.Type, rm.State, rm.HandicapAvailable, rm.Capacity)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrRoomNameExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rm.ID = uint64(id)
	// Fetch the freshly inserted row to populate DB-default fields.
	return scanRoom(r.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, rm.ID), rm)
}

// GetByID retrieves a room by its ID. It returns ErrRoomNotFound if
// there is no matching row.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*model.Room, error) {
	var rm model.Room
	err := scanRoom(r.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id), &rm)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return &rm, nil
}

// GetForUpdateTx loads a room inside tx with a row lock. The scheduler
// takes this lock so that a conflict scan and the subsequent show
// insert for the same room cannot interleave between requests.
func (r *RoomRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Room, error) {
	var rm model.Room
	err := scanRoom(tx.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ? FOR UPDATE`, id), &rm)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return &rm, nil
}

// ListRoomFilter controls ordering and pagination for room listings.
// Page is 1-based. OrderBy must be one of the whitelisted column
// names; anything else falls back to id.
type ListRoomFilter struct {
	Page      int
	Limit     int
	OrderBy   string
	Ascending bool
}

// roomOrderColumn whitelists sortable columns to keep user input out
// of the ORDER BY clause.
func roomOrderColumn(name string) string {
	switch name {
	case "name", "capacity", "type", "created_at":
		return name
	}
	return "id"
}

// List returns a page of rooms plus the total row count.
func (r *RoomRepo) List(ctx context.Context, f ListRoomFilter) ([]model.Room, int64, error) {
	dir := "DESC"
	if f.Ascending {
		dir = "ASC"
	}
	q := `SELECT ` + roomColumns + ` FROM rooms ORDER BY ` + roomOrderColumn(f.OrderBy) + ` ` + dir + ` LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, f.Limit, (f.Page-1)*f.Limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var result []model.Room
	for rows.Next() {
		var rm model.Room
		if err := scanRoom(rows, &rm); err != nil {
			return nil, 0, err
		}
		result = append(result, rm)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rooms`).Scan(&total); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

// Update persists the mutable room attributes. It returns
// ErrRoomNotFound when no row matches.
func (r *RoomRepo) Update(ctx context.Context, rm *model.Room) error {
	const q = `UPDATE rooms
	           SET name = ?, description = ?, type = ?, state = ?, handicap_available = ?, capacity = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, rm.Name, rm.Description, rm.Type, rm.State, rm.HandicapAvailable, rm.Capacity, rm.ID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrRoomNameExists
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Either the row is missing or nothing changed; disambiguate.
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM rooms WHERE id = ? LIMIT 1`, rm.ID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrRoomNotFound
			}
			return err
		}
	}
	return nil
}

// Delete removes a room. Rooms that still have shows scheduled cannot
// be removed; the FK restriction surfaces as ErrConflict.
func (r *RoomRepo) Delete(ctx context.Context, id uint64) error {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shows WHERE room_id = ?`, id).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRoomNotFound
	}
	return nil
}
