package service

import (
	"context"
	"fmt"

	"github.com/iliyamo/cinema-venue-manager/internal/model"
	"github.com/iliyamo/cinema-venue-manager/internal/repository"
)

// TicketManager governs ticket purchase and the toggle-based
// association of tickets with shows. Booking and unbooking are the
// same operation: toggling a (ticket, show) pair that is already
// associated removes it. The used flag is recomputed from the kind
// and the association count after every membership change.
type TicketManager struct {
	Tickets *repository.TicketRepo
	Shows   *repository.ShowRepo
	Wallet  *Wallet
}

// NewTicketManager constructs a TicketManager and panics if any
// dependency is nil.
func NewTicketManager(tickets *repository.TicketRepo, shows *repository.ShowRepo, wallet *Wallet) *TicketManager {
	if tickets == nil || shows == nil || wallet == nil {
		panic("nil dependency passed to NewTicketManager")
	}
	return &TicketManager{Tickets: tickets, Shows: shows, Wallet: wallet}
}

// PurchaseResult reports a completed ticket purchase: the new ticket,
// the PURCHASE ledger entry and the buyer's balance after the debit.
type PurchaseResult struct {
	Ticket       *model.Ticket
	Entry        *model.Transaction
	BalanceAfter int64
}

// CreateTicket sells a ticket of the given kind to a user. The wallet
// debit, the PURCHASE ledger entry and the ticket insert commit as
// one transaction: when the debit fails on insufficient funds no
// ticket comes into existence. The new ticket starts unused with an
// empty show set.
func (m *TicketManager) CreateTicket(ctx context.Context, userID uint64, kind model.TicketKind) (*PurchaseResult, error) {
	if !model.ValidTicketKind(kind) {
		return nil, fmt.Errorf("ticket kind %q: %w", kind, repository.ErrInvalidState)
	}
	cost := kind.Cost()

	tx, err := m.Tickets.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	entry, err := m.Wallet.DebitPurchaseTx(ctx, tx, userID, cost)
	if err != nil {
		return nil, err
	}
	ticket := &model.Ticket{UserID: userID, Kind: kind}
	if err := m.Tickets.CreateTx(ctx, tx, ticket); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	user, err := m.Wallet.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &PurchaseResult{Ticket: ticket, Entry: entry, BalanceAfter: user.Balance}, nil
}

// ToggleShowAssociation books or unbooks a show on a ticket: if the
// show is already in the ticket's set it is removed, otherwise it is
// added. The ticket row stays locked from the read to the write, so
// concurrent toggles on the same ticket cannot lose updates. The used
// flag is then rederived from the new association count. Toggling a
// ticket that is already used is permitted here and may flip it back
// to unused; callers wanting one-way consumption enforce that policy
// above this method (see BookShow).
func (m *TicketManager) ToggleShowAssociation(ctx context.Context, ticketID, showID uint64) (*model.Ticket, error) {
	if _, err := m.Shows.GetByID(ctx, showID); err != nil {
		return nil, err
	}

	tx, err := m.Tickets.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	ticket, err := m.Tickets.GetForUpdateTx(ctx, tx, ticketID)
	if err != nil {
		return nil, err
	}
	ids, err := m.Tickets.ShowIDsTx(ctx, tx, ticketID)
	if err != nil {
		return nil, err
	}

	count := len(ids)
	if containsID(ids, showID) {
		if err := m.Tickets.RemoveShowTx(ctx, tx, ticketID, showID); err != nil {
			return nil, err
		}
		count--
	} else {
		if err := m.Tickets.AddShowTx(ctx, tx, ticketID, showID); err != nil {
			return nil, err
		}
		count++
	}

	used := count == ticket.Kind.UsedThreshold()
	if used != ticket.Used {
		if err := m.Tickets.SetUsedTx(ctx, tx, ticketID, used); err != nil {
			return nil, err
		}
		ticket.Used = used
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return ticket, nil
}

func containsID(ids []uint64, id uint64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// BookShow is the customer-facing booking action. Unlike the raw
// toggle it refuses a ticket that is already used, so a consumed
// ticket cannot be quietly un-booked through this path.
func (m *TicketManager) BookShow(ctx context.Context, ticketID, showID uint64) (*model.Ticket, error) {
	ticket, err := m.Tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Used {
		return nil, fmt.Errorf("ticket %d already used: %w", ticketID, repository.ErrInvalidState)
	}
	return m.ToggleShowAssociation(ctx, ticketID, showID)
}

// GetTicket returns one ticket by ID.
func (m *TicketManager) GetTicket(ctx context.Context, id uint64) (*model.Ticket, error) {
	return m.Tickets.GetByID(ctx, id)
}

// ListTickets returns a filtered page of tickets plus the total match
// count.
func (m *TicketManager) ListTickets(ctx context.Context, f repository.ListTicketFilter) ([]model.Ticket, int64, error) {
	return m.Tickets.List(ctx, f)
}

// ShowsForTicket returns the shows a ticket is booked onto.
func (m *TicketManager) ShowsForTicket(ctx context.Context, ticketID uint64) ([]model.Show, error) {
	if _, err := m.Tickets.GetByID(ctx, ticketID); err != nil {
		return nil, err
	}
	return m.Tickets.ShowsForTicket(ctx, ticketID)
}

// ShowsForUser returns every show booked across a user's tickets.
func (m *TicketManager) ShowsForUser(ctx context.Context, userID uint64) ([]model.Show, error) {
	return m.Tickets.ShowsForUser(ctx, userID)
}
