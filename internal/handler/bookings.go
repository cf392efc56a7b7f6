package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vegnbio/reservation-engine/internal/middleware"
	"github.com/vegnbio/reservation-engine/internal/repository"
	"github.com/vegnbio/reservation-engine/internal/service"
)

type bookingRequest struct {
	Pax           int     `json:"pax" validate:"required,gt=0"`
	CustomerName  string  `json:"customer_name" validate:"required,max=120"`
	CustomerPhone *string `json:"customer_phone" validate:"omitempty,max=40"`
	WalkIn        bool    `json:"walk_in"`
}

type bookingPatch struct {
	Pax           *int    `json:"pax" validate:"omitempty,gt=0"`
	CustomerName  *string `json:"customer_name" validate:"omitempty,min=1,max=120"`
	CustomerPhone *string `json:"customer_phone" validate:"omitempty,max=40"`
}

// CreateBooking handles POST /v1/events/:id/bookings.
func (h *Handler) CreateBooking(c echo.Context) error {
	eventID, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var body bookingRequest
	if err := bind(c, &body); err != nil {
		return h.fail(c, err)
	}
	b, err := h.Svc.Bookings.Create(c.Request().Context(), middleware.ActorFrom(c), eventID, service.EventBookingInput{
		Pax:           body.Pax,
		CustomerName:  body.CustomerName,
		CustomerPhone: body.CustomerPhone,
		WalkIn:        body.WalkIn,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, bookingView(b))
}

// UpdateBooking handles PATCH /v1/bookings/:id.
func (h *Handler) UpdateBooking(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var body bookingPatch
	if err := bind(c, &body); err != nil {
		return h.fail(c, err)
	}
	b, err := h.Svc.Bookings.Update(c.Request().Context(), middleware.ActorFrom(c), id, service.EventBookingChanges{
		Pax:           body.Pax,
		CustomerName:  body.CustomerName,
		CustomerPhone: body.CustomerPhone,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, bookingView(b))
}

// SetBookingStatus handles PATCH /v1/bookings/:id/status.
func (h *Handler) SetBookingStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var body statusRequest
	if err := bind(c, &body); err != nil {
		return h.fail(c, err)
	}
	to, err := body.target()
	if err != nil {
		return h.fail(c, err)
	}
	b, err := h.Svc.Bookings.TransitionStatus(c.Request().Context(), middleware.ActorFrom(c), id, to)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, bookingView(b))
}

// CancelBooking handles DELETE /v1/bookings/:id.
func (h *Handler) CancelBooking(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	b, err := h.Svc.Bookings.Cancel(c.Request().Context(), middleware.ActorFrom(c), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, bookingView(b))
}

// GetBooking handles GET /v1/bookings/:id.
func (h *Handler) GetBooking(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	b, err := h.Svc.Bookings.Get(c.Request().Context(), middleware.ActorFrom(c), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, bookingView(b))
}

func (h *Handler) listBookings(c echo.Context, scope func(*repository.ClaimFilter) error) error {
	f, err := claimFilter(c)
	if err != nil {
		return h.fail(c, err)
	}
	if err := scope(&f); err != nil {
		return h.fail(c, err)
	}
	list, err := h.Svc.Query.EventBookings(c.Request().Context(), middleware.ActorFrom(c), f)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": listView(list, bookingView), "count": len(list)})
}

// MyBookings handles GET /v1/me/bookings.
func (h *Handler) MyBookings(c echo.Context) error {
	return h.listBookings(c, func(f *repository.ClaimFilter) error {
		f.HolderID = middleware.ActorFrom(c).ID
		return nil
	})
}

// EventBookings handles GET /v1/events/:id/bookings.
func (h *Handler) EventBookings(c echo.Context) error {
	return h.listBookings(c, func(f *repository.ClaimFilter) (err error) {
		f.ResourceID, err = pathID(c, "id")
		return err
	})
}

// RestaurantBookings handles GET /v1/restaurants/:rid/bookings.
func (h *Handler) RestaurantBookings(c echo.Context) error {
	return h.listBookings(c, func(f *repository.ClaimFilter) (err error) {
		f.RestaurantID, err = pathID(c, "rid")
		return err
	})
}
