package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-venue-manager/internal/model"
	"github.com/iliyamo/cinema-venue-manager/internal/repository"
)

// RoomHandler serves the room CRUD endpoints. Mutations are wired
// behind the ADMIN role by the router.
type RoomHandler struct {
	Rooms *repository.RoomRepo
}

func NewRoomHandler(rooms *repository.RoomRepo) *RoomHandler {
	if rooms == nil {
		panic("nil repository passed to NewRoomHandler")
	}
	return &RoomHandler{Rooms: rooms}
}

type roomBody struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	Type              string `json:"type"`
	State             *bool  `json:"state"`
	HandicapAvailable bool   `json:"handicap_available"`
	Capacity          uint32 `json:"capacity"`
}

// CreateRoom handles POST /v1/rooms. Rooms default to active unless
// state is given explicitly.
func (h *RoomHandler) CreateRoom(c echo.Context) error {
	var body roomBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if body.Capacity == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "capacity must be positive"})
	}
	state := true
	if body.State != nil {
		state = *body.State
	}
	room := &model.Room{
		Name:              name,
		Description:       strings.TrimSpace(body.Description),
		Type:              strings.TrimSpace(body.Type),
		State:             state,
		HandicapAvailable: body.HandicapAvailable,
		Capacity:          body.Capacity,
	}
	if err := h.Rooms.Create(c.Request().Context(), room); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, room)
}

// GetRoom handles GET /v1/rooms/:id.
func (h *RoomHandler) GetRoom(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	room, err := h.Rooms.GetByID(c.Request().Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	if !room.State {
		return c.JSON(http.StatusOK, echo.Map{"room": room, "notice": "room is under maintenance"})
	}
	return c.JSON(http.StatusOK, room)
}

// ListRooms handles GET /v1/rooms with page/limit/order_by/asc query
// parameters.
func (h *RoomHandler) ListRooms(c echo.Context) error {
	page, limit := pageParams(c)
	f := repository.ListRoomFilter{
		Page:      page,
		Limit:     limit,
		OrderBy:   c.QueryParam("order_by"),
		Ascending: c.QueryParam("asc") != "false",
	}
	items, total, err := h.Rooms.List(c.Request().Context(), f)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "total": total})
}

// UpdateRoom handles PUT /v1/rooms/:id. The full room is replaced;
// flipping state to false takes the room out of the public listing
// and blocks new scheduling, existing shows stay untouched.
func (h *RoomHandler) UpdateRoom(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body roomBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	room, err := h.Rooms.GetByID(c.Request().Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	if name := strings.TrimSpace(body.Name); name != "" {
		room.Name = name
	}
	room.Description = strings.TrimSpace(body.Description)
	if t := strings.TrimSpace(body.Type); t != "" {
		room.Type = t
	}
	if body.State != nil {
		room.State = *body.State
	}
	room.HandicapAvailable = body.HandicapAvailable
	if body.Capacity > 0 {
		room.Capacity = body.Capacity
	}
	if err := h.Rooms.Update(c.Request().Context(), room); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, room)
}

// DeleteRoom handles DELETE /v1/rooms/:id. Rooms with shows on the
// calendar refuse deletion with 409.
func (h *RoomHandler) DeleteRoom(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Rooms.Delete(c.Request().Context(), id); err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
