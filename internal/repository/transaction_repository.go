// This file defines repository methods for the wallet ledger. The
// `transactions` table is append-only: rows are inserted by the
// wallet service and never updated or deleted afterwards.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/cinema-venue-manager/internal/model"
)

// ErrTransactionNotFound indicates that a ledger entry was not
// located in the DB.
var ErrTransactionNotFound = errors.New("transaction not found")

const transactionColumns = "id, user_id, amount, kind, created_at"

// TransactionRepo manages the append-only ledger.
type TransactionRepo struct {
	db *sql.DB
}

// NewTransactionRepo constructs a TransactionRepo with the given DB
// handle.
func NewTransactionRepo(db *sql.DB) *TransactionRepo {
	return &TransactionRepo{db: db}
}

func scanTransaction(row interface{ Scan(...any) error }, t *model.Transaction) error {
	return row.Scan(&t.ID, &t.UserID, &t.Amount, &t.Kind, &t.CreatedAt)
}

// CreateTx appends one ledger entry inside the caller's transaction,
// in the same unit of work as the balance mutation it records.
func (r *TransactionRepo) CreateTx(ctx context.Context, tx *sql.Tx, t *model.Transaction) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (user_id, amount, kind) VALUES (?, ?, ?)`,
		t.UserID, t.Amount, t.Kind)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return scanTransaction(tx.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, t.ID), t)
}

// GetByID retrieves one ledger entry.
func (r *TransactionRepo) GetByID(ctx context.Context, id uint64) (*model.Transaction, error) {
	var t model.Transaction
	err := scanTransaction(r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id), &t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ListTransactionFilter selects ledger entries by owner, kind and
// amount range, with 1-based pagination.
type ListTransactionFilter struct {
	Page      int
	Limit     int
	UserID    uint64
	Kind      *model.TransactionKind
	AmountMin *int64
	AmountMax *int64
}

// List returns a page of ledger entries matching the filter plus the
// total match count, newest first.
func (r *TransactionRepo) List(ctx context.Context, f ListTransactionFilter) ([]model.Transaction, int64, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if f.UserID != 0 {
		where += ` AND user_id = ?`
		args = append(args, f.UserID)
	}
	if f.Kind != nil {
		where += ` AND kind = ?`
		args = append(args, *f.Kind)
	}
	if f.AmountMin != nil {
		where += ` AND amount >= ?`
		args = append(args, *f.AmountMin)
	}
	if f.AmountMax != nil {
		where += ` AND amount <= ?`
		args = append(args, *f.AmountMax)
	}
	q := `SELECT ` + transactionColumns + ` FROM transactions` + where + ` ORDER BY id DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, append(args, f.Limit, (f.Page-1)*f.Limit)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var result []model.Transaction
	for rows.Next() {
		var t model.Transaction
		if err := scanTransaction(rows, &t); err != nil {
			return nil, 0, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}
