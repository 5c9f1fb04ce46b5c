package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/cinema-venue-manager/internal/model"
)

// ErrMovieNotFound indicates that a movie was not located in the DB.
var ErrMovieNotFound = errors.New("movie not found")

const movieColumns = "id, name, description, duration, created_at, updated_at"

// MovieRepo manages persistence for the movie catalogue.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo constructs a MovieRepo with the given DB handle.
func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

func scanMovie(row interface{ Scan(...any) error }, m *model.Movie) error {
	return row.Scan(&m.ID, &m.Name, &m.Description, &m.Duration, &m.CreatedAt, &m.UpdatedAt)
}

// Create inserts a new movie and assigns the generated ID back to the
// struct.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	const q = `INSERT INTO movies (name, description, duration) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, m.Name, m.Description, m.Duration)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return scanMovie(r.db.QueryRowContext(ctx, `SELECT `+movieColumns+` FROM movies WHERE id = ?`, m.ID), m)
}

// GetByID retrieves a movie by its ID. It returns ErrMovieNotFound if
// there is no matching row.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (*model.Movie, error) {
	var m model.Movie
	err := scanMovie(r.db.QueryRowContext(ctx, `SELECT `+movieColumns+` FROM movies WHERE id = ?`, id), &m)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	return &m, nil
}

// ListMovieFilter controls filtering, ordering and pagination for
// movie listings. Name, when set, is matched as a substring.
type ListMovieFilter struct {
	Page      int
	Limit     int
	OrderBy   string
	Ascending bool
	Name      string
}

func movieOrderColumn(name string) string {
	switch name {
	case "name", "duration", "created_at":
		return name
	}
	return "id"
}

// List returns a page of movies plus the total count of rows matching
// the name filter.
func (r *MovieRepo) List(ctx context.Context, f ListMovieFilter) ([]model.Movie, int64, error) {
	where := ""
	args := []any{}
	if f.Name != "" {
		where = ` WHERE name LIKE ?`
		args = append(args, "%"+f.Name+"%")
	}
	dir := "DESC"
	if f.Ascending {
		dir = "ASC"
	}
	q := `SELECT ` + movieColumns + ` FROM movies` + where +
		` ORDER BY ` + movieOrderColumn(f.OrderBy) + ` ` + dir + ` LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, append(args, f.Limit, (f.Page-1)*f.Limit)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var result []model.Movie
	for rows.Next() {
		var m model.Movie
		if err := scanMovie(rows, &m); err != nil {
			return nil, 0, err
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM movies`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

// Update persists name, description and duration changes. Duration
// edits do not ripple into existing shows; their end times were
// derived at scheduling time.
func (r *MovieRepo) Update(ctx context.Context, m *model.Movie) error {
	const q = `UPDATE movies SET name = ?, description = ?, duration = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, m.Name, m.Description, m.Duration, m.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM movies WHERE id = ? LIMIT 1`, m.ID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrMovieNotFound
			}
			return err
		}
	}
	return nil
}

// Delete removes a movie. A movie that still has shows scheduled is
// protected and the delete returns ErrConflict.
func (r *MovieRepo) Delete(ctx context.Context, id uint64) error {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shows WHERE movie_id = ?`, id).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM movies WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMovieNotFound
	}
	return nil
}
