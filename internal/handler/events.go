package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vegnbio/reservation-engine/internal/middleware"
	"github.com/vegnbio/reservation-engine/internal/model"
	"github.com/vegnbio/reservation-engine/internal/service"
)

type eventRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Type        *string    `json:"type" validate:"omitempty,max=60"`
	StartsAt    time.Time  `json:"starts_at" validate:"required"`
	EndsAt      *time.Time `json:"ends_at"`
	Capacity    *int       `json:"capacity" validate:"omitempty,gt=0"`
	Description *string    `json:"description"`
}

type eventPatch struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Type        *string    `json:"type" validate:"omitempty,max=60"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	Capacity    *int       `json:"capacity" validate:"omitempty,gt=0"`
	Unlimited   bool       `json:"unlimited"`
	Description *string    `json:"description"`
}

// CreateEvent handles POST /v1/restaurants/:rid/events.
func (h *Handler) CreateEvent(c echo.Context) error {
	rid, err := pathID(c, "rid")
	if err != nil {
		return h.fail(c, err)
	}
	var body eventRequest
	if err := bind(c, &body); err != nil {
		return h.fail(c, err)
	}
	e, err := h.Svc.Events.Create(c.Request().Context(), middleware.ActorFrom(c), service.EventInput{
		RestaurantID: rid,
		Title:        body.Title,
		Type:         body.Type,
		StartsAt:     body.StartsAt,
		EndsAt:       body.EndsAt,
		Capacity:     body.Capacity,
		Description:  body.Description,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, eventView(model.EventAvailability{Event: e, AvailableSpots: e.Capacity}))
}

// UpdateEvent handles PATCH /v1/events/:id.  Lowering the capacity below
// the seats already booked answers 409.
func (h *Handler) UpdateEvent(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var body eventPatch
	if err := bind(c, &body); err != nil {
		return h.fail(c, err)
	}
	ctx := c.Request().Context()
	if _, err := h.Svc.Events.Update(ctx, middleware.ActorFrom(c), id, service.EventChanges{
		Title:         body.Title,
		Type:          body.Type,
		StartsAt:      body.StartsAt,
		EndsAt:        body.EndsAt,
		Capacity:      body.Capacity,
		ClearCapacity: body.Unlimited,
		Description:   body.Description,
	}); err != nil {
		return h.fail(c, err)
	}
	return h.respondEvent(c, id)
}

// CancelEvent handles POST /v1/events/:id/cancel.
func (h *Handler) CancelEvent(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	if _, err := h.Svc.Events.Cancel(c.Request().Context(), middleware.ActorFrom(c), id); err != nil {
		return h.fail(c, err)
	}
	return h.respondEvent(c, id)
}

// DeleteEvent handles DELETE /v1/events/:id.
func (h *Handler) DeleteEvent(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.Svc.Events.Delete(c.Request().Context(), middleware.ActorFrom(c), id); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetEvent handles GET /v1/events/:id.
func (h *Handler) GetEvent(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	return h.respondEvent(c, id)
}

func (h *Handler) respondEvent(c echo.Context, id uint64) error {
	a, err := h.Svc.Events.Get(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, eventView(*a))
}

// ListRestaurantEvents handles GET /v1/restaurants/:rid/events?from=&to=.
// Only ACTIVE events are listed.
func (h *Handler) ListRestaurantEvents(c echo.Context) error {
	rid, err := pathID(c, "rid")
	if err != nil {
		return h.fail(c, err)
	}
	from, err := queryTime(c, "from")
	if err != nil {
		return h.fail(c, err)
	}
	to, err := queryTime(c, "to")
	if err != nil {
		return h.fail(c, err)
	}
	list, err := h.Svc.Events.ListByRestaurant(c.Request().Context(), rid, from, to)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": listView(list, eventView), "count": len(list)})
}

// UpcomingEvents handles GET /v1/events/upcoming?from=.  from defaults to
// now.
func (h *Handler) UpcomingEvents(c echo.Context) error {
	from, err := queryTime(c, "from")
	if err != nil {
		return h.fail(c, err)
	}
	start := time.Now()
	if from != nil {
		start = *from
	}
	list, err := h.Svc.Events.Upcoming(c.Request().Context(), start)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": listView(list, eventView), "count": len(list)})
}

// EventSpots handles GET /v1/events/:id/spots.  available_spots is null
// for events without a capacity.
func (h *Handler) EventSpots(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	spots, err := h.Svc.Events.AvailableSpots(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"event_id": id, "available_spots": spots})
}
