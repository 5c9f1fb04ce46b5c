package model

import "time"

// TicketKind distinguishes the two ticket products sold by the venue.
type TicketKind string

const (
	// TicketNormal admits its holder to a single show.
	TicketNormal TicketKind = "NORMAL"
	// TicketSuper is a ten-show bundle sold at a discount.
	TicketSuper TicketKind = "SUPERTICKET"
)

// ValidTicketKind reports whether k is one of the known ticket kinds.
func ValidTicketKind(k TicketKind) bool {
	return k == TicketNormal || k == TicketSuper
}

// Cost returns the fixed purchase price of the ticket kind in balance
// units. Unknown kinds cost zero; callers validate the kind first.
func (k TicketKind) Cost() int64 {
	switch k {
	case TicketNormal:
		return 10
	case TicketSuper:
		return 90
	}
	return 0
}

// UsedThreshold returns the number of associated shows at which a
// ticket of this kind counts as used: exactly 1 for NORMAL, exactly
// 10 for SUPERTICKET. Any other association count leaves the ticket
// unused.
func (k TicketKind) UsedThreshold() int {
	if k == TicketSuper {
		return 10
	}
	return 1
}

// Ticket represents a purchased ticket, stored in the `tickets` table
// with its show associations in the `ticket_shows` join table. Used
// is derived from the kind and the association count on every
// membership change and is never set directly by callers.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the ticket.
//  Kind      – NORMAL or SUPERTICKET.
//  Used      – derived flag; see TicketKind.UsedThreshold.
//  CreatedAt – purchase timestamp.
type Ticket struct {
	ID        uint64     `json:"id"`
	UserID    uint64     `json:"user_id"`
	Kind      TicketKind `json:"kind"`
	Used      bool       `json:"used"` // derived
	CreatedAt time.Time  `json:"created_at"`
}
