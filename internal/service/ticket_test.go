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
	ticketCols = []string{"id", "user_id", "kind", "used", "created_at"}

	showByIDSQL   = regexp.QuoteMeta(`SELECT id, room_id, movie_id, start_at, end_at, state, created_at, updated_at FROM shows WHERE id = ?`)
	ticketLockSQL = regexp.QuoteMeta(`SELECT id, user_id, kind, used, created_at FROM tickets WHERE id = ? FOR UPDATE`)
	ticketByIDSQL = regexp.QuoteMeta(`SELECT id, user_id, kind, used, created_at FROM tickets WHERE id = ?`)
	showIDsSQL    = regexp.QuoteMeta(`SELECT show_id FROM ticket_shows WHERE ticket_id = ?`)
	setUsedSQL    = regexp.QuoteMeta(`UPDATE tickets SET used = ? WHERE id = ?`)
)

func newTestTicketManager(t *testing.T) (*TicketManager, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	wallet := NewWallet(repository.NewUserRepo(db), repository.NewTransactionRepo(db))
	return NewTicketManager(repository.NewTicketRepo(db), repository.NewShowRepo(db), wallet), mock
}

func TestTicketKindPricingAndThresholds(t *testing.T) {
	assert.Equal(t, int64(10), model.TicketNormal.Cost())
	assert.Equal(t, int64(90), model.TicketSuper.Cost())
	assert.Equal(t, 1, model.TicketNormal.UsedThreshold())
	assert.Equal(t, 10, model.TicketSuper.UsedThreshold())
}

func expectShowExists(mock sqlmock.Sqlmock, showID uint64) {
	now := time.Now().UTC()
	mock.ExpectQuery(showByIDSQL).WithArgs(showID).
		WillReturnRows(sqlmock.NewRows(showCols).
			AddRow(showID, 1, 1, now, now.Add(2*time.Hour), "ACTIVE", now, now))
}

func TestToggleAddingOnlyShowMarksNormalUsed(t *testing.T) {
	m, mock := newTestTicketManager(t)
	now := time.Now().UTC()

	expectShowExists(mock, 30)
	mock.ExpectBegin()
	mock.ExpectQuery(ticketLockSQL).WithArgs(uint64(8)).
		WillReturnRows(sqlmock.NewRows(ticketCols).AddRow(8, 5, "NORMAL", false, now))
	mock.ExpectQuery(showIDsSQL).WithArgs(uint64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"show_id"}))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO ticket_shows (ticket_id, show_id) VALUES (?, ?)`)).
		WithArgs(uint64(8), uint64(30)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(setUsedSQL).WithArgs(true, uint64(8)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ticket, err := m.ToggleShowAssociation(context.Background(), 8, 30)
	require.NoError(t, err)
	assert.True(t, ticket.Used)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleRemovingShowFlipsTicketBackToUnused(t *testing.T) {
	m, mock := newTestTicketManager(t)
	now := time.Now().UTC()

	expectShowExists(mock, 30)
	mock.ExpectBegin()
	mock.ExpectQuery(ticketLockSQL).WithArgs(uint64(8)).
		WillReturnRows(sqlmock.NewRows(ticketCols).AddRow(8, 5, "NORMAL", true, now))
	mock.ExpectQuery(showIDsSQL).WithArgs(uint64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"show_id"}).AddRow(30))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM ticket_shows WHERE ticket_id = ? AND show_id = ?`)).
		WithArgs(uint64(8), uint64(30)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(setUsedSQL).WithArgs(false, uint64(8)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ticket, err := m.ToggleShowAssociation(context.Background(), 8, 30)
	require.NoError(t, err)
	assert.False(t, ticket.Used)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleSuperTicketBelowThresholdStaysUnused(t *testing.T) {
	m, mock := newTestTicketManager(t)
	now := time.Now().UTC()

	expectShowExists(mock, 30)
	mock.ExpectBegin()
	mock.ExpectQuery(ticketLockSQL).WithArgs(uint64(8)).
		WillReturnRows(sqlmock.NewRows(ticketCols).AddRow(8, 5, "SUPERTICKET", false, now))
	mock.ExpectQuery(showIDsSQL).WithArgs(uint64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"show_id"}).AddRow(10).AddRow(11))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO ticket_shows (ticket_id, show_id) VALUES (?, ?)`)).
		WithArgs(uint64(8), uint64(30)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	// Three of ten shows: used stays false, no flag write happens.
	mock.ExpectCommit()

	ticket, err := m.ToggleShowAssociation(context.Background(), 8, 30)
	require.NoError(t, err)
	assert.False(t, ticket.Used)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookShowRefusesUsedTicket(t *testing.T) {
	m, mock := newTestTicketManager(t)
	now := time.Now().UTC()

	mock.ExpectQuery(ticketByIDSQL).WithArgs(uint64(8)).
		WillReturnRows(sqlmock.NewRows(ticketCols).AddRow(8, 5, "NORMAL", true, now))

	_, err := m.BookShow(context.Background(), 8, 30)
	require.ErrorIs(t, err, repository.ErrInvalidState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTicketInsufficientFundsLeavesNoTicket(t *testing.T) {
	m, mock := newTestTicketManager(t)

	mock.ExpectBegin()
	mock.ExpectExec(adjustSQL).WithArgs(int64(-90), uint64(5), int64(-90)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM users WHERE id = ? LIMIT 1`)).WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectRollback()

	_, err := m.CreateTicket(context.Background(), 5, model.TicketSuper)
	require.ErrorIs(t, err, repository.ErrInsufficientFunds)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTicketDebitsWalletAndCommits(t *testing.T) {
	m, mock := newTestTicketManager(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(adjustSQL).WithArgs(int64(-10), uint64(5), int64(-10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(ledgerSQL).WithArgs(uint64(5), int64(10), model.TransactionPurchase).
		WillReturnResult(sqlmock.NewResult(77, 1))
	mock.ExpectQuery(ledgerRead).WithArgs(uint64(77)).
		WillReturnRows(sqlmock.NewRows(txCols).AddRow(77, 5, 10, "PURCHASE", now))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO tickets (user_id, kind, used) VALUES (?, ?, FALSE)`)).
		WithArgs(uint64(5), model.TicketNormal).
		WillReturnResult(sqlmock.NewResult(8, 1))
	mock.ExpectQuery(ticketByIDSQL).WithArgs(uint64(8)).
		WillReturnRows(sqlmock.NewRows(ticketCols).AddRow(8, 5, "NORMAL", false, now))
	mock.ExpectCommit()
	mock.ExpectQuery(userByIDSQL).WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(5, "max", "x", "CUSTOMER", 30, now, now))

	res, err := m.CreateTicket(context.Background(), 5, model.TicketNormal)
	require.NoError(t, err)
	assert.Equal(t, uint64(8), res.Ticket.ID)
	assert.Equal(t, int64(10), res.Entry.Amount)
	assert.Equal(t, model.TransactionPurchase, res.Entry.Kind)
	assert.Equal(t, int64(30), res.BalanceAfter)
	assert.NoError(t, mock.ExpectationsWereMet())
}
