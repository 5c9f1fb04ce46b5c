package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-venue-manager/internal/repository"
)

// UserHandler serves the admin user directory.
type UserHandler struct {
	Users *repository.UserRepo
}

func NewUserHandler(users *repository.UserRepo) *UserHandler {
	if users == nil {
		panic("nil repository passed to NewUserHandler")
	}
	return &UserHandler{Users: users}
}

// ListUsers handles GET /v1/users for admins.
func (h *UserHandler) ListUsers(c echo.Context) error {
	page, limit := pageParams(c)
	items, total, err := h.Users.List(c.Request().Context(), page, limit)
	if err != nil {
		return respondErr(c, err)
	}
	out := make([]userPart, 0, len(items))
	for _, u := range items {
		out = append(out, userPart{ID: u.ID, Login: u.Login, Role: u.Role, Balance: u.Balance})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out, "total": total})
}

// GetUser handles GET /v1/users/:id for admins.
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	u, err := h.Users.GetByID(c.Request().Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, userPart{ID: u.ID, Login: u.Login, Role: u.Role, Balance: u.Balance})
}
