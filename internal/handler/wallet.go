package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-venue-manager/internal/model"
	"github.com/iliyamo/cinema-venue-manager/internal/repository"
	"github.com/iliyamo/cinema-venue-manager/internal/service"
)

// WalletHandler serves balance adjustments and the transaction
// ledger. Begin-to-end the ledger is append-only; there is no
// endpoint that edits or deletes an entry.
type WalletHandler struct {
	Wallet *service.Wallet
}

func NewWalletHandler(w *service.Wallet) *WalletHandler {
	if w == nil {
		panic("nil wallet passed to NewWalletHandler")
	}
	return &WalletHandler{Wallet: w}
}

type balanceBody struct {
	Delta int64 `json:"delta"`
}

// AdjustMyBalance handles PUT /v1/users/me/balance. A positive delta
// deposits, a negative delta withdraws, zero is a no-op; the ledger
// entry kind follows the sign.
func (h *WalletHandler) AdjustMyBalance(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return h.adjust(c, uid)
}

// AdjustUserBalance handles PUT /v1/users/:id/balance for admins.
func (h *WalletHandler) AdjustUserBalance(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	return h.adjust(c, id)
}

func (h *WalletHandler) adjust(c echo.Context, userID uint64) error {
	var body balanceBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	u, err := h.Wallet.AdjustBalance(c.Request().Context(), userID, body.Delta)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user_id": u.ID, "balance": u.Balance})
}

// transactionFilter parses the shared ledger query parameters.
func transactionFilter(c echo.Context) (repository.ListTransactionFilter, error) {
	page, limit := pageParams(c)
	f := repository.ListTransactionFilter{Page: page, Limit: limit}
	if v := strings.ToUpper(c.QueryParam("kind")); v != "" {
		k := model.TransactionKind(v)
		if !model.ValidTransactionKind(k) {
			return f, repository.ErrInvalidState
		}
		f.Kind = &k
	}
	if v, err := strconv.ParseInt(c.QueryParam("amount_min"), 10, 64); err == nil {
		f.AmountMin = &v
	}
	if v, err := strconv.ParseInt(c.QueryParam("amount_max"), 10, 64); err == nil {
		f.AmountMax = &v
	}
	return f, nil
}

// MyTransactions handles GET /v1/users/me/transactions.
func (h *WalletHandler) MyTransactions(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	f, err := transactionFilter(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid kind"})
	}
	f.UserID = uid
	items, total, err := h.Wallet.ListTransactions(c.Request().Context(), f)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "total": total})
}

// ListTransactions handles GET /v1/transactions for admins, with
// optional user_id, kind and amount bound filters.
func (h *WalletHandler) ListTransactions(c echo.Context) error {
	f, err := transactionFilter(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid kind"})
	}
	if v, err := strconv.ParseUint(c.QueryParam("user_id"), 10, 64); err == nil {
		f.UserID = v
	}
	items, total, err := h.Wallet.ListTransactions(c.Request().Context(), f)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "total": total})
}

// GetTransaction handles GET /v1/transactions/:id. Customers may only
// read their own entries.
func (h *WalletHandler) GetTransaction(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	t, err := h.Wallet.GetTransaction(c.Request().Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	uid, err := getUserID(c)
	if err != nil || (t.UserID != uid && !isAdmin(c)) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, t)
}
