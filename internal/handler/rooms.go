package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vegnbio/reservation-engine/internal/booking"
	"github.com/vegnbio/reservation-engine/internal/middleware"
	"github.com/vegnbio/reservation-engine/internal/repository"
	"github.com/vegnbio/reservation-engine/internal/service"
)

type roomRequest struct {
	Name            string  `json:"name" validate:"required,max=120"`
	Description     *string `json:"description"`
	Capacity        int     `json:"capacity" validate:"gte=0"`
	HourlyRateCents *int64  `json:"hourly_rate_cents" validate:"omitempty,gte=0"`
	HasWifi         bool    `json:"has_wifi"`
	HasPrinter      bool    `json:"has_printer"`
	HasProjector    bool    `json:"has_projector"`
	HasWhiteboard   bool    `json:"has_whiteboard"`
	Status          string  `json:"status"`
}

type roomPatch struct {
	Name            *string `json:"name" validate:"omitempty,min=1,max=120"`
	Description     *string `json:"description"`
	Capacity        *int    `json:"capacity" validate:"omitempty,gte=0"`
	HourlyRateCents *int64  `json:"hourly_rate_cents" validate:"omitempty,gte=0"`
	HasWifi         *bool   `json:"has_wifi"`
	HasPrinter      *bool   `json:"has_printer"`
	HasProjector    *bool   `json:"has_projector"`
	HasWhiteboard   *bool   `json:"has_whiteboard"`
	Status          *string `json:"status"`
}

// CreateRoom handles POST /v1/restaurants/:rid/rooms.
func (h *Handler) CreateRoom(c echo.Context) error {
	rid, err := pathID(c, "rid")
	if err != nil {
		return h.fail(c, err)
	}
	var body roomRequest
	if err := bind(c, &body); err != nil {
		return h.fail(c, err)
	}
	r, err := h.Svc.Rooms.Create(c.Request().Context(), middleware.ActorFrom(c), service.RoomInput{
		RestaurantID:    rid,
		Name:            body.Name,
		Description:     body.Description,
		Capacity:        body.Capacity,
		HourlyRateCents: body.HourlyRateCents,
		HasWifi:         body.HasWifi,
		HasPrinter:      body.HasPrinter,
		HasProjector:    body.HasProjector,
		HasWhiteboard:   body.HasWhiteboard,
		Status:          body.Status,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, roomView(r))
}

// UpdateRoom handles PATCH /v1/rooms/:id.
func (h *Handler) UpdateRoom(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var body roomPatch
	if err := bind(c, &body); err != nil {
		return h.fail(c, err)
	}
	r, err := h.Svc.Rooms.Update(c.Request().Context(), middleware.ActorFrom(c), id, service.RoomChanges{
		Name:            body.Name,
		Description:     body.Description,
		Capacity:        body.Capacity,
		HourlyRateCents: body.HourlyRateCents,
		HasWifi:         body.HasWifi,
		HasPrinter:      body.HasPrinter,
		HasProjector:    body.HasProjector,
		HasWhiteboard:   body.HasWhiteboard,
		Status:          body.Status,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, roomView(r))
}

// DeleteRoom handles DELETE /v1/rooms/:id.  Rooms with active reservations
// answer 409.
func (h *Handler) DeleteRoom(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.Svc.Rooms.Delete(c.Request().Context(), middleware.ActorFrom(c), id); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetRoom handles GET /v1/rooms/:id.
func (h *Handler) GetRoom(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	r, err := h.Svc.Rooms.Get(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, roomView(r))
}

// ListRooms handles GET /v1/restaurants/:rid/rooms?available=&min_capacity=.
func (h *Handler) ListRooms(c echo.Context) error {
	rid, err := pathID(c, "rid")
	if err != nil {
		return h.fail(c, err)
	}
	minCap, err := queryInt(c, "min_capacity")
	if err != nil {
		return h.fail(c, err)
	}
	rooms, err := h.Svc.Rooms.List(c.Request().Context(), repository.RoomFilter{
		RestaurantID:  rid,
		AvailableOnly: queryBool(c, "available"),
		MinCapacity:   minCap,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": listView(rooms, roomView), "count": len(rooms)})
}

// RoomAvailability handles GET /v1/rooms/:id/availability?start=&end=.
// The answer is advisory; only creating a reservation decides.
func (h *Handler) RoomAvailability(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	start, err := queryTime(c, "start")
	if err != nil {
		return h.fail(c, err)
	}
	end, err := queryTime(c, "end")
	if err != nil {
		return h.fail(c, err)
	}
	if start == nil || end == nil {
		return h.fail(c, booking.InvalidInput("start and end are required"))
	}
	w := booking.Window{Start: start.UTC().Truncate(time.Second), End: end.UTC().Truncate(time.Second)}
	res, err := h.Svc.Reservations.CheckAvailability(c.Request().Context(), id, w)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, availabilityView(id, w, res))
}
