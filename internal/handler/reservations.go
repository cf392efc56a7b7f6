package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vegnbio/reservation-engine/internal/booking"
	"github.com/vegnbio/reservation-engine/internal/export"
	"github.com/vegnbio/reservation-engine/internal/middleware"
	"github.com/vegnbio/reservation-engine/internal/repository"
	"github.com/vegnbio/reservation-engine/internal/service"
)

type reservationRequest struct {
	StartTime           time.Time `json:"start_time" validate:"required"`
	EndTime             time.Time `json:"end_time" validate:"required"`
	Purpose             *string   `json:"purpose" validate:"omitempty,max=255"`
	AttendeesCount      *int      `json:"attendees_count" validate:"omitempty,gt=0"`
	SpecialRequirements *string   `json:"special_requirements"`
	Notes               *string   `json:"notes"`
}

type reservationPatch struct {
	StartTime           *time.Time `json:"start_time"`
	EndTime             *time.Time `json:"end_time"`
	Purpose             *string    `json:"purpose" validate:"omitempty,max=255"`
	AttendeesCount      *int       `json:"attendees_count" validate:"omitempty,gt=0"`
	SpecialRequirements *string    `json:"special_requirements"`
	Notes               *string    `json:"notes"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (s statusRequest) target() (booking.Status, error) {
	st := booking.Status(strings.ToUpper(strings.TrimSpace(s.Status)))
	if !st.Valid() {
		return "", booking.InvalidInput("unknown status %q", s.Status)
	}
	return st, nil
}

// CreateReservation handles POST /v1/rooms/:id/reservations.  The caller
// becomes the holder; the reservation starts PENDING.
func (h *Handler) CreateReservation(c echo.Context) error {
	roomID, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var body reservationRequest
	if err := bind(c, &body); err != nil {
		return h.fail(c, err)
	}
	rr, err := h.Svc.Reservations.Create(c.Request().Context(), middleware.ActorFrom(c), roomID, service.RoomReservationInput{
		Start:               body.StartTime,
		End:                 body.EndTime,
		Purpose:             body.Purpose,
		AttendeesCount:      body.AttendeesCount,
		SpecialRequirements: body.SpecialRequirements,
		Notes:               body.Notes,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, reservationView(rr))
}

// UpdateReservation handles PATCH /v1/reservations/:id.
func (h *Handler) UpdateReservation(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var body reservationPatch
	if err := bind(c, &body); err != nil {
		return h.fail(c, err)
	}
	rr, err := h.Svc.Reservations.Update(c.Request().Context(), middleware.ActorFrom(c), id, service.RoomReservationChanges{
		Start:               body.StartTime,
		End:                 body.EndTime,
		Purpose:             body.Purpose,
		AttendeesCount:      body.AttendeesCount,
		SpecialRequirements: body.SpecialRequirements,
		Notes:               body.Notes,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, reservationView(rr))
}

// SetReservationStatus handles PATCH /v1/reservations/:id/status.
func (h *Handler) SetReservationStatus(c echo.Context) error {
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
	rr, err := h.Svc.Reservations.TransitionStatus(c.Request().Context(), middleware.ActorFrom(c), id, to)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, reservationView(rr))
}

// CancelReservation handles DELETE /v1/reservations/:id.  The reservation
// is kept as CANCELLED and returned.
func (h *Handler) CancelReservation(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	rr, err := h.Svc.Reservations.Cancel(c.Request().Context(), middleware.ActorFrom(c), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, reservationView(rr))
}

// GetReservation handles GET /v1/reservations/:id.
func (h *Handler) GetReservation(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	rr, err := h.Svc.Reservations.Get(c.Request().Context(), middleware.ActorFrom(c), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, reservationView(rr))
}

func (h *Handler) listReservations(c echo.Context, scope func(*repository.ClaimFilter) error) error {
	f, err := claimFilter(c)
	if err != nil {
		return h.fail(c, err)
	}
	if err := scope(&f); err != nil {
		return h.fail(c, err)
	}
	list, err := h.Svc.Query.RoomReservations(c.Request().Context(), middleware.ActorFrom(c), f)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": listView(list, reservationView), "count": len(list)})
}

// MyReservations handles GET /v1/me/reservations.
func (h *Handler) MyReservations(c echo.Context) error {
	return h.listReservations(c, func(f *repository.ClaimFilter) error {
		f.HolderID = middleware.ActorFrom(c).ID
		return nil
	})
}

// RoomReservations handles GET /v1/rooms/:id/reservations.
func (h *Handler) RoomReservations(c echo.Context) error {
	return h.listReservations(c, func(f *repository.ClaimFilter) (err error) {
		f.ResourceID, err = pathID(c, "id")
		return err
	})
}

// RestaurantReservations handles GET /v1/restaurants/:rid/reservations.
func (h *Handler) RestaurantReservations(c echo.Context) error {
	return h.listReservations(c, func(f *repository.ClaimFilter) (err error) {
		f.RestaurantID, err = pathID(c, "rid")
		return err
	})
}

// ExportRestaurant handles GET /v1/restaurants/:rid/export.xlsx: every room
// reservation and event booking of the restaurant in the optional range.
func (h *Handler) ExportRestaurant(c echo.Context) error {
	rid, err := pathID(c, "rid")
	if err != nil {
		return h.fail(c, err)
	}
	f, err := claimFilter(c)
	if err != nil {
		return h.fail(c, err)
	}
	f.RestaurantID = rid
	ctx := c.Request().Context()
	actor := middleware.ActorFrom(c)
	if !actor.IsAdmin() {
		return h.fail(c, booking.ErrUnauthorized)
	}

	var rep export.Report
	if rep.Rooms, err = h.Svc.Rooms.List(ctx, repository.RoomFilter{RestaurantID: rid}); err != nil {
		return h.fail(c, err)
	}
	if rep.Reservations, err = h.Svc.Query.RoomReservations(ctx, actor, f); err != nil {
		return h.fail(c, err)
	}
	if rep.Bookings, err = h.Svc.Query.EventBookings(ctx, actor, f); err != nil {
		return h.fail(c, err)
	}
	events, err := h.Svc.Events.ListByRestaurant(ctx, rid, nil, nil)
	if err != nil {
		return h.fail(c, err)
	}
	for _, e := range events {
		rep.Events = append(rep.Events, e.Event)
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, rep); err != nil {
		return h.fail(c, err)
	}
	name := fmt.Sprintf("restaurant-%d-reservations.xlsx", rid)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
