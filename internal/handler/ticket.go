package handler

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-venue-manager/internal/model"
	"github.com/iliyamo/cinema-venue-manager/internal/queue"
	"github.com/iliyamo/cinema-venue-manager/internal/repository"
	"github.com/iliyamo/cinema-venue-manager/internal/service"
)

// TicketHandler serves ticket purchase and booking endpoints.
type TicketHandler struct {
	Tickets *service.TicketManager
}

func NewTicketHandler(t *service.TicketManager) *TicketHandler {
	if t == nil {
		panic("nil ticket manager passed to NewTicketHandler")
	}
	return &TicketHandler{Tickets: t}
}

func isAdmin(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == "ADMIN"
}

// ownTicket loads a ticket and enforces that the caller owns it or is
// an admin.
func (h *TicketHandler) ownTicket(c echo.Context, ticketID uint64) (*model.Ticket, error) {
	ticket, err := h.Tickets.GetTicket(c.Request().Context(), ticketID)
	if err != nil {
		return nil, err
	}
	uid, err := getUserID(c)
	if err != nil {
		return nil, repository.ErrForbidden
	}
	if ticket.UserID != uid && !isAdmin(c) {
		return nil, repository.ErrForbidden
	}
	return ticket, nil
}

// Purchase handles POST /v1/tickets. The wallet debit and the ticket
// insert commit together; a ticket.purchased event is published after
// commit and failures there only get logged.
func (h *TicketHandler) Purchase(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Kind string `json:"kind"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	kind := model.TicketKind(strings.ToUpper(strings.TrimSpace(body.Kind)))
	if !model.ValidTicketKind(kind) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "kind must be NORMAL or SUPERTICKET"})
	}

	res, err := h.Tickets.CreateTicket(c.Request().Context(), uid, kind)
	if err != nil {
		return respondErr(c, err)
	}

	if err := queue.PublishTicketPurchased(c.Request().Context(), queue.TicketPurchasedEvent{
		TicketID:     res.Ticket.ID,
		UserID:       uid,
		Kind:         string(kind),
		Cost:         kind.Cost(),
		BalanceAfter: res.BalanceAfter,
		PurchasedAt:  time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		log.Printf("ticket purchase event not published: %v", err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"ticket":  res.Ticket,
		"charged": res.Entry.Amount,
		"balance": res.BalanceAfter,
	})
}

// GetTicket handles GET /v1/tickets/:id for the owner or an admin.
func (h *TicketHandler) GetTicket(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ticket, err := h.ownTicket(c, id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, ticket)
}

// ListTickets handles GET /v1/tickets. Customers see their own
// tickets; admins may filter by user_id, used and kind.
func (h *TicketHandler) ListTickets(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	page, limit := pageParams(c)
	f := repository.ListTicketFilter{Page: page, Limit: limit, UserID: uid}
	if isAdmin(c) {
		f.UserID = 0
		if v, err := strconv.ParseUint(c.QueryParam("user_id"), 10, 64); err == nil {
			f.UserID = v
		}
	}
	if v := c.QueryParam("used"); v != "" {
		used := v == "true"
		f.Used = &used
	}
	if v := strings.ToUpper(c.QueryParam("kind")); v != "" {
		k := model.TicketKind(v)
		if !model.ValidTicketKind(k) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid kind"})
		}
		f.Kind = &k
	}
	items, total, err := h.Tickets.ListTickets(c.Request().Context(), f)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "total": total})
}

// Book handles POST /v1/tickets/:id/shows/:show_id for customers. It
// refuses used tickets, so booking through this endpoint never
// un-books.
func (h *TicketHandler) Book(c echo.Context) error {
	ticketID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	showID, err := pathID(c, "show_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	if _, err := h.ownTicket(c, ticketID); err != nil {
		return respondErr(c, err)
	}
	ticket, err := h.Tickets.BookShow(c.Request().Context(), ticketID, showID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, ticket)
}

// Toggle handles PUT /v1/tickets/:id/shows/:show_id for admins: the
// raw membership toggle, able to un-book and un-use a ticket.
func (h *TicketHandler) Toggle(c echo.Context) error {
	ticketID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	showID, err := pathID(c, "show_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	ticket, err := h.Tickets.ToggleShowAssociation(c.Request().Context(), ticketID, showID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, ticket)
}

// TicketShows handles GET /v1/tickets/:id/shows.
func (h *TicketHandler) TicketShows(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if _, err := h.ownTicket(c, id); err != nil {
		return respondErr(c, err)
	}
	shows, err := h.Tickets.ShowsForTicket(c.Request().Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": shows})
}

// MyShows handles GET /v1/users/me/shows: every show booked across
// the caller's tickets.
func (h *TicketHandler) MyShows(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	shows, err := h.Tickets.ShowsForUser(c.Request().Context(), uid)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": shows})
}
