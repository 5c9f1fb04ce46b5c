// Package queue defines the message payloads exchanged over the
// broker plus the publisher and the background consumer that handle
// them.
package queue

// TicketPurchasedEvent is published after a ticket purchase commits.
// It carries enough detail for downstream consumers to log or audit
// the sale without querying the primary database.
type TicketPurchasedEvent struct {
	TicketID     uint64 `json:"ticket_id"`
	UserID       uint64 `json:"user_id"`
	Kind         string `json:"kind"`
	Cost         int64  `json:"cost"`
	BalanceAfter int64  `json:"balance_after"`
	PurchasedAt  string `json:"purchased_at"`
}
