package service

import (
	"context"
	"database/sql"

	"github.com/iliyamo/cinema-venue-manager/internal/model"
	"github.com/iliyamo/cinema-venue-manager/internal/repository"
)

// Wallet is the authoritative balance for each user together with its
// append-only ledger. Every successful mutation writes exactly one
// Transaction row in the same DB transaction as the balance change.
type Wallet struct {
	Users  *repository.UserRepo
	Ledger *repository.TransactionRepo
}

// NewWallet constructs a Wallet and panics if any dependency is nil.
func NewWallet(users *repository.UserRepo, ledger *repository.TransactionRepo) *Wallet {
	if users == nil || ledger == nil {
		panic("nil repository passed to NewWallet")
	}
	return &Wallet{Users: users, Ledger: ledger}
}

// kindForDelta maps a signed adjustment to its ledger classification.
// The zero delta never reaches the ledger.
func kindForDelta(delta int64) model.TransactionKind {
	if delta > 0 {
		return model.TransactionDeposit
	}
	return model.TransactionWithdrawal
}

// AdjustBalance applies a signed delta to a user's wallet. A delta of
// zero is a no-op and records nothing. A delta that would drive the
// balance negative fails with ErrInsufficientFunds and leaves both
// the balance and the ledger untouched. On success the ledger gains
// one DEPOSIT or WITHDRAWAL entry carrying the signed delta, and the
// updated user is returned.
func (w *Wallet) AdjustBalance(ctx context.Context, userID uint64, delta int64) (*model.User, error) {
	if delta == 0 {
		return w.Users.GetByID(ctx, userID)
	}
	tx, err := w.Users.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := w.Users.AdjustBalanceTx(ctx, tx, userID, delta); err != nil {
		return nil, err
	}
	entry := &model.Transaction{UserID: userID, Amount: delta, Kind: kindForDelta(delta)}
	if err := w.Ledger.CreateTx(ctx, tx, entry); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return w.Users.GetByID(ctx, userID)
}

// DebitPurchaseTx debits cost from the wallet inside the caller's
// transaction and records a PURCHASE ledger entry for it. The ticket
// purchase path uses this instead of AdjustBalance so the ledger is
// tagged by call-site intent rather than by sign alone.
func (w *Wallet) DebitPurchaseTx(ctx context.Context, tx *sql.Tx, userID uint64, cost int64) (*model.Transaction, error) {
	if err := w.Users.AdjustBalanceTx(ctx, tx, userID, -cost); err != nil {
		return nil, err
	}
	entry := &model.Transaction{UserID: userID, Amount: cost, Kind: model.TransactionPurchase}
	if err := w.Ledger.CreateTx(ctx, tx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// GetTransaction returns one ledger entry.
func (w *Wallet) GetTransaction(ctx context.Context, id uint64) (*model.Transaction, error) {
	return w.Ledger.GetByID(ctx, id)
}

// ListTransactions returns a filtered page of the ledger plus the
// total match count. The ledger is read-only here; past records are
// never rewritten.
func (w *Wallet) ListTransactions(ctx context.Context, f repository.ListTransactionFilter) ([]model.Transaction, int64, error) {
	return w.Ledger.List(ctx, f)
}
