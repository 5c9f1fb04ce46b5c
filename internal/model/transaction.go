package model

import "time"

// TransactionKind classifies a ledger entry. DEPOSIT and WITHDRAWAL
// are derived from the sign of a generic balance adjustment, while
// PURCHASE is recorded only by the ticket purchase path regardless of
// sign.
type TransactionKind string

const (
	// TransactionDeposit records money credited to a wallet.
	TransactionDeposit TransactionKind = "DEPOSIT"
	// TransactionWithdrawal records money debited from a wallet.
	TransactionWithdrawal TransactionKind = "WITHDRAWAL"
	// TransactionPurchase records a ticket purchase debit at the
	// fixed ticket cost.
	TransactionPurchase TransactionKind = "PURCHASE"
)

// ValidTransactionKind reports whether k is a known ledger entry kind.
func ValidTransactionKind(k TransactionKind) bool {
	return k == TransactionDeposit || k == TransactionWithdrawal || k == TransactionPurchase
}

// Transaction is one append-only ledger entry in the `transactions`
// table. Rows are immutable once written; the ledger is the audit
// trail for every balance-affecting event.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – wallet owner the entry belongs to.
//  Amount    – signed amount in balance units.
//  Kind      – DEPOSIT, WITHDRAWAL or PURCHASE.
//  CreatedAt – when the entry was recorded.
type Transaction struct {
	ID        uint64          `json:"id"`
	UserID    uint64          `json:"user_id"`
	Amount    int64           `json:"amount"`
	Kind      TransactionKind `json:"kind"`
	CreatedAt time.Time       `json:"created_at"`
}
