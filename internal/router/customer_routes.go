package router

import (
	"github.com/labstack/echo/v4"

	"github.com/vegnbio/reservation-engine/internal/handler"
)

// RegisterCustomer registers endpoints for any authenticated caller.  The
// caller becomes the holder of what they create and can only see or change
// their own claims; ownership is enforced by the services.
func RegisterCustomer(e *echo.Echo, h *handler.Handler, opts Options) {
	g := e.Group("/v1", opts.auth(), opts.limiter())

	g.POST("/rooms/:id/reservations", h.CreateReservation)
	g.GET("/reservations/:id", h.GetReservation)
	g.PATCH("/reservations/:id", h.UpdateReservation)
	g.PATCH("/reservations/:id/status", h.SetReservationStatus)
	g.DELETE("/reservations/:id", h.CancelReservation)

	g.POST("/events/:id/bookings", h.CreateBooking)
	g.GET("/bookings/:id", h.GetBooking)
	g.PATCH("/bookings/:id", h.UpdateBooking)
	g.PATCH("/bookings/:id/status", h.SetBookingStatus)
	g.DELETE("/bookings/:id", h.CancelBooking)

	g.GET("/me/reservations", h.MyReservations)
	g.GET("/me/bookings", h.MyBookings)
}
