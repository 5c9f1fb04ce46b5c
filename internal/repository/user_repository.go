package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/cinema-venue-manager/internal/model"
	"github.com/iliyamo/cinema-venue-manager/internal/utils"
)

// ErrUserNotFound indicates that a user was not located in the DB.
var ErrUserNotFound = errors.New("user not found")

// ErrLoginExists indicates the login name is already taken.
var ErrLoginExists = errors.New("login already exists")

const userColumns = "id, login, password_hash, role, balance, created_at, updated_at"

// UserRepo manages persistence for users, including the wallet
// balance column. Balance writes go through AdjustBalanceTx only.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo constructs a UserRepo with the given DB handle.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// DB exposes the underlying sql.DB so the wallet service can run the
// balance update and the ledger insert in one transaction.
func (r *UserRepo) DB() *sql.DB {
	return r.db
}

func scanUser(row interface{ Scan(...any) error }, u *model.User) error {
	return row.Scan(&u.ID, &u.Login, &u.PasswordHash, &u.Role, &u.Balance, &u.CreatedAt, &u.UpdatedAt)
}

// Create inserts a user with a hashed password and returns its ID.
// New users start with a zero balance.
func (r *UserRepo) Create(ctx context.Context, login, password, role string, bcryptCost int) (uint64, error) {
	login = strings.ToLower(strings.TrimSpace(login))
	hash, err := utils.HashPassword(password, bcryptCost)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (login, password_hash, role, balance) VALUES (?, ?, ?, 0)`,
		login, hash, role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrLoginExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByLogin fetches a user by normalized login.
func (r *UserRepo) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	login = strings.ToLower(strings.TrimSpace(login))
	var u model.User
	err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE login = ? LIMIT 1`, login), &u)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	var u model.User
	err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ? LIMIT 1`, id), &u)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// List returns a page of users plus the total count. Password hashes
// are included; handlers must not serialize them.
func (r *UserRepo) List(ctx context.Context, page, limit int) ([]model.User, int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id ASC LIMIT ? OFFSET ?`, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var result []model.User
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, 0, err
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

// AdjustBalanceTx applies a signed delta to a user's balance inside
// the caller's transaction. The guard in the WHERE clause makes the
// check and the write one atomic statement, so concurrent
// adjustments cannot drive the balance negative. When no row is
// updated the follow-up query distinguishes a missing user from an
// insufficient balance.
func (r *UserRepo) AdjustBalanceTx(ctx context.Context, tx *sql.Tx, userID uint64, delta int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE users SET balance = balance + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND balance + ? >= 0`,
		delta, userID, delta)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	var one int
	if err := tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ? LIMIT 1`, userID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}
	return ErrInsufficientFunds
}
