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

var (
	userCols = []string{"id", "login", "password_hash", "role", "balance", "created_at", "updated_at"}
	txCols   = []string{"id", "user_id", "amount", "kind", "created_at"}

	adjustSQL   = regexp.QuoteMeta(`UPDATE users SET balance = balance + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND balance + ? >= 0`)
	ledgerSQL   = regexp.QuoteMeta(`INSERT INTO transactions (user_id, amount, kind) VALUES (?, ?, ?)`)
	ledgerRead  = regexp.QuoteMeta(`SELECT id, user_id, amount, kind, created_at FROM transactions WHERE id = ?`)
	userByIDSQL = regexp.QuoteMeta(`SELECT id, login, password_hash, role, balance, created_at, updated_at FROM users WHERE id = ? LIMIT 1`)
)

func newTestWallet(t *testing.T) (*Wallet, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewWallet(repository.NewUserRepo(db), repository.NewTransactionRepo(db)), mock
}

func TestKindForDelta(t *testing.T) {
	assert.Equal(t, model.TransactionDeposit, kindForDelta(25))
	assert.Equal(t, model.TransactionWithdrawal, kindForDelta(-25))
}

func TestAdjustBalanceZeroIsNoOp(t *testing.T) {
	w, mock := newTestWallet(t)
	now := time.Now().UTC()

	// Only the read happens; no transaction, no ledger write.
	mock.ExpectQuery(userByIDSQL).WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(5, "max", "x", "CUSTOMER", 40, now, now))

	u, err := w.AdjustBalance(context.Background(), 5, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(40), u.Balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustBalanceDepositRecordsLedgerEntry(t *testing.T) {
	w, mock := newTestWallet(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(adjustSQL).WithArgs(int64(100), uint64(5), int64(100)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(ledgerSQL).WithArgs(uint64(5), int64(100), model.TransactionDeposit).
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectQuery(ledgerRead).WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows(txCols).AddRow(9, 5, 100, "DEPOSIT", now))
	mock.ExpectCommit()
	mock.ExpectQuery(userByIDSQL).WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(5, "max", "x", "CUSTOMER", 140, now, now))

	u, err := w.AdjustBalance(context.Background(), 5, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(140), u.Balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustBalanceWithdrawalBelowZeroFails(t *testing.T) {
	w, mock := newTestWallet(t)

	mock.ExpectBegin()
	mock.ExpectExec(adjustSQL).WithArgs(int64(-50), uint64(5), int64(-50)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM users WHERE id = ? LIMIT 1`)).WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectRollback()

	_, err := w.AdjustBalance(context.Background(), 5, -50)
	require.ErrorIs(t, err, repository.ErrInsufficientFunds)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustBalanceUnknownUser(t *testing.T) {
	w, mock := newTestWallet(t)

	mock.ExpectBegin()
	mock.ExpectExec(adjustSQL).WithArgs(int64(10), uint64(99), int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM users WHERE id = ? LIMIT 1`)).WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectRollback()

	_, err := w.AdjustBalance(context.Background(), 99, 10)
	require.ErrorIs(t, err, repository.ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
